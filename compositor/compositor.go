// Package compositor implements the before/after boundary composite: a hard
// vertical cut between two equally sized images at a caller-chosen split
// fraction, with a solid divider line marking the boundary column.
package compositor

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
)

// Sentinel errors returned by Compose. Callers match them with errors.Is.
var (
	// ErrDimensionMismatch means the operands differ in width or height.
	// Resizing is the caller's job; Compose never scales.
	ErrDimensionMismatch = errors.New("before and after images differ in dimensions")
	// ErrInvalidFraction means the split fraction is NaN, infinite, or
	// outside [0, 1]. Callers clamp slider input, so hitting this is a
	// contract violation rather than a user condition.
	ErrInvalidFraction = errors.New("split fraction must be a finite number in [0, 1]")
	// ErrEmptyImage means an operand has zero width or height.
	ErrEmptyImage = errors.New("operand image has zero width or height")
)

// Options control the divider line drawn at the boundary column.
type Options struct {
	// LineThickness is the divider width in columns. Zero or negative
	// disables the line.
	LineThickness int
	// LineColor fills the divider columns. The alpha component is ignored;
	// the divider is always opaque.
	LineColor color.RGBA
}

// DefaultOptions returns the divider used by the interactive shell: a solid
// white line three columns wide.
func DefaultOptions() Options {
	return Options{
		LineThickness: 3,
		LineColor:     color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	}
}

// Compose builds the boundary composite of two equally sized images.
//
// The boundary column is round(fraction * width), clamped to [0, width], and
// is the first column sourced from "after": columns left of it show "before",
// columns from it rightward show "after". A fraction of 0 therefore
// reproduces the "after" image and a fraction of 1 reproduces "before".
// When the line thickness is positive, the divider spans exactly that many
// columns starting at boundary - thickness/2, clipped at the image edges.
//
// Arguments:
// - before: The left-side operand.
// - after: The right-side operand, same dimensions as before.
// - fraction: The boundary position as a fraction of the width, in [0, 1].
// - opts: Divider line configuration.
//
// Returns:
// - A freshly allocated composite with the operands' dimensions. The operands
//   are never written to, and identical inputs always produce byte-identical
//   output, so concurrent calls need no coordination.
// - ErrInvalidFraction, ErrEmptyImage, or ErrDimensionMismatch on invalid
//   input; no partial result accompanies an error.
func Compose(before, after *image.RGBA, fraction float64, opts Options) (*image.RGBA, error) {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) || fraction < 0 || fraction > 1 {
		return nil, errors.Wrapf(ErrInvalidFraction, "got %v", fraction)
	}

	width, height := before.Rect.Dx(), before.Rect.Dy()
	afterWidth, afterHeight := after.Rect.Dx(), after.Rect.Dy()
	if width == 0 || height == 0 || afterWidth == 0 || afterHeight == 0 {
		return nil, ErrEmptyImage
	}
	if width != afterWidth || height != afterHeight {
		return nil, errors.Wrapf(ErrDimensionMismatch, "before %dx%d, after %dx%d",
			width, height, afterWidth, afterHeight)
	}

	boundary := int(math.Round(fraction * float64(width)))
	if boundary < 0 {
		boundary = 0
	}
	if boundary > width {
		boundary = width
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+width*4]
		copy(dstRow[:boundary*4], rowAt(before, y)[:boundary*4])
		copy(dstRow[boundary*4:], rowAt(after, y)[boundary*4:width*4])
	}

	drawDivider(dst, boundary, opts)

	return dst, nil
}

// rowAt returns pixel row y as a packed RGBA slice, independent of the
// operand's bounds origin.
func rowAt(img *image.RGBA, y int) []uint8 {
	offset := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
	return img.Pix[offset : offset+img.Rect.Dx()*4]
}

// drawDivider fills the divider columns with the line color across every row.
// The span is exactly thickness columns except where the boundary sits close
// enough to an edge for clamping to clip it.
func drawDivider(dst *image.RGBA, boundary int, opts Options) {
	thickness := opts.LineThickness
	if thickness <= 0 {
		return
	}

	width, height := dst.Rect.Dx(), dst.Rect.Dy()
	start := boundary - thickness/2
	end := start + thickness
	if start < 0 {
		start = 0
	}
	if end > width {
		end = width
	}

	c := opts.LineColor
	for y := 0; y < height; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := start; x < end; x++ {
			row[x*4+0] = c.R
			row[x*4+1] = c.G
			row[x*4+2] = c.B
			row[x*4+3] = 0xFF
		}
	}
}
