package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
)

// DecodeError reports a failure to turn uploaded bytes into a usable image.
// It is the typed replacement for ad-hoc format sniffing failures: callers can
// distinguish a rejected upload from a programming error with errors.As.
type DecodeError struct {
	// Format is the sniffed format, empty when sniffing itself failed.
	Format Format
	// Reason is a short user-presentable description.
	Reason string
	cause  error
}

func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("decode %s: %s", e.Format, e.Reason)
	}
	return fmt.Sprintf("decode: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.cause }

// Decode sniffs the format of an encoded image and decodes it into an opaque
// RGBA image. Alpha is flattened here so everything downstream works on three
// effective channels.
//
// Arguments:
// - data: The raw PNG, JPEG, or WebP bytes.
//
// Returns:
// - *image.RGBA: The decoded, flattened image.
// - Format: The sniffed format.
// - error: A *DecodeError when the bytes are empty, unrecognized, or corrupt.
func Decode(data []byte) (*image.RGBA, Format, error) {
	if len(data) == 0 {
		return nil, "", &DecodeError{Reason: "empty image data"}
	}

	format, err := DetectFormat(data)
	if err != nil {
		return nil, "", err
	}

	var (
		img       image.Image
		decodeErr error
	)
	switch format {
	case FormatPNG:
		img, decodeErr = png.Decode(bytes.NewReader(data))
	case FormatJPEG:
		img, decodeErr = jpeg.Decode(bytes.NewReader(data))
	case FormatWebP:
		img, decodeErr = webp.Decode(bytes.NewReader(data))
	}
	if decodeErr != nil {
		return nil, format, &DecodeError{Format: format, Reason: "corrupt image data", cause: decodeErr}
	}

	return Flatten(img), format, nil
}

// EncodePNG encodes an image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

// EncodeJPEG encodes an image as JPEG bytes at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(err, "encode jpeg")
	}
	return buf.Bytes(), nil
}

// EncodeWebP encodes an image as lossy WebP bytes at the given quality (0-100).
func EncodeWebP(img image.Image, quality float32) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(err, "encode webp")
	}
	return buf.Bytes(), nil
}
