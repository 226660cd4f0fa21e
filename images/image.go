// Package images - decoding, encoding, and pixel utilities for the
// before/after comparison pipeline.
package images

// Source describes a decoded comparison operand.
type Source struct {
	// The format the operand was uploaded in.
	Format Format `json:"format"`
	// The width of the decoded image in pixels.
	Width int `json:"width"`
	// The height of the decoded image in pixels.
	Height int `json:"height"`
}
