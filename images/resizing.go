package images

import (
	"image"
	"image/color"
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// CommonDimensions returns the minimum shared width and height of two images.
//
// Arguments:
// - a: The first image.
// - b: The second image.
//
// Returns:
// - width: The smaller of the two widths.
// - height: The smaller of the two heights.
func CommonDimensions(a, b image.Image) (width, height int) {
	width = a.Bounds().Dx()
	if bw := b.Bounds().Dx(); bw < width {
		width = bw
	}
	height = a.Bounds().Dy()
	if bh := b.Bounds().Dy(); bh < height {
		height = bh
	}
	return width, height
}

// ResizeToMatch scales both comparison operands to their minimum common
// dimensions using Lanczos3 resampling. An operand already at the common
// dimensions is copied rather than resampled, so matched inputs pass through
// pixel-exact.
//
// Arguments:
// - a: The "before" operand.
// - b: The "after" operand.
//
// Returns:
// - Two new images sharing identical bounds; the inputs are not modified.
func ResizeToMatch(a, b *image.RGBA) (*image.RGBA, *image.RGBA) {
	width, height := CommonDimensions(a, b)
	return resizeRGBA(a, width, height), resizeRGBA(b, width, height)
}

// resizeRGBA scales a single image to the target dimensions, returning a copy
// when no scaling is needed.
func resizeRGBA(img *image.RGBA, width, height int) *image.RGBA {
	if width <= 0 || height <= 0 {
		// Zero-area target: hand back an empty image and let the compositor
		// reject it as an empty operand.
		return image.NewRGBA(image.Rect(0, 0, width, height))
	}
	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		return Flatten(img)
	}
	return Flatten(resize.Resize(uint(width), uint(height), img, resize.Lanczos3))
}

// ParseColor parses a divider color given as a hex string ("#rrggbb" or
// "rrggbb") or one of a few named colors. The result is always fully opaque.
func ParseColor(s string) (color.RGBA, error) {
	switch strings.ToLower(s) {
	case "white":
		return color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, nil
	case "black":
		return color.RGBA{A: 0xFF}, nil
	case "red":
		return color.RGBA{R: 0xFF, A: 0xFF}, nil
	case "green":
		return color.RGBA{G: 0xFF, A: 0xFF}, nil
	case "blue":
		return color.RGBA{B: 0xFF, A: 0xFF}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, errors.Errorf("invalid color %q: want #rrggbb or a named color", s)
	}
	var channels [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexNibble(hex[i*2])
		lo, ok2 := hexNibble(hex[i*2+1])
		if !ok1 || !ok2 {
			return color.RGBA{}, errors.Errorf("invalid color %q: bad hex digit", s)
		}
		channels[i] = hi<<4 | lo
	}
	return color.RGBA{R: channels[0], G: channels[1], B: channels[2], A: 0xFF}, nil
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
