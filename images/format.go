package images

import "bytes"

// Format represents supported image formats.
type Format string

const (
	// FormatPNG is the PNG image format.
	FormatPNG Format = "png"
	// FormatJPEG is the JPEG image format.
	FormatJPEG Format = "jpeg"
	// FormatWebP is the WebP image format.
	FormatWebP Format = "webp"
)

var (
	pngSignature  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegSignature = []byte{0xFF, 0xD8, 0xFF}
	riffSignature = []byte("RIFF")
	webpSignature = []byte("WEBP")
)

// DetectFormat sniffs the encoded image format from its leading bytes.
//
// Arguments:
// - data: The raw encoded image bytes as received from an upload.
//
// Returns:
// - Format: The detected format.
// - error: A *DecodeError if the content matches no supported format.
func DetectFormat(data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, pngSignature):
		return FormatPNG, nil
	case bytes.HasPrefix(data, jpegSignature):
		return FormatJPEG, nil
	case len(data) >= 12 && bytes.HasPrefix(data, riffSignature) && bytes.Equal(data[8:12], webpSignature):
		return FormatWebP, nil
	}
	return "", &DecodeError{Reason: "unrecognized image format"}
}
