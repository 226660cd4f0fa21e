// Package compare wires the decode, resize, compose, and encode steps into a
// single request-scoped pipeline. Each Run call is independent: no state
// survives between requests, so concurrent callers need no coordination.
package compare

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/vision-kit/go-compare/compositor"
	"github.com/vision-kit/go-compare/images"
)

// Request carries everything one comparison needs.
type Request struct {
	// Before and After hold the encoded operand images (PNG, JPEG, or WebP).
	Before []byte
	After  []byte
	// Fraction is the slider position in [0, 1]: 0 shows only the after
	// image, 1 only the before image. Out-of-range values are clamped here;
	// the compositor still defends against bad values on its own.
	Fraction float64
	// ResizeToMatch scales both operands to their minimum common dimensions
	// before composing. When false, mismatched operands are an error and the
	// compositor is never entered.
	ResizeToMatch bool
	// Line configures the divider drawn at the boundary.
	Line compositor.Options
}

// Result is the composed comparison, PNG encoded.
type Result struct {
	// PNG holds the encoded composite.
	PNG []byte
	// Width and Height are the composite dimensions in pixels.
	Width  int
	Height int
	// Fraction is the clamped boundary position that was composed.
	Fraction float64
}

// Label renders the boundary position as a percentage caption for display
// next to the composite.
func (r *Result) Label() string {
	return fmt.Sprintf("Boundary at %.0f%%", r.Fraction*100)
}

// Run executes one comparison: decode both operands, reconcile dimensions,
// compose, and encode the result as PNG.
//
// Arguments:
// - req: The comparison request.
//
// Returns:
// - *Result: The encoded composite with its dimensions and clamped fraction.
// - error: A *images.DecodeError for rejected uploads (wrapped with the
//   operand name), compositor.ErrDimensionMismatch when resizing is disabled
//   and the operands differ, or any compositor/encoder failure.
func Run(req Request) (*Result, error) {
	before, _, err := images.Decode(req.Before)
	if err != nil {
		return nil, errors.Wrap(err, "before image")
	}
	after, _, err := images.Decode(req.After)
	if err != nil {
		return nil, errors.Wrap(err, "after image")
	}

	fraction := clampFraction(req.Fraction)

	if req.ResizeToMatch {
		before, after = images.ResizeToMatch(before, after)
	} else if !before.Rect.Size().Eq(after.Rect.Size()) {
		// Surface the mismatch without entering the compositor so the shell
		// can tell the user to enable resizing or upload matching images.
		return nil, errors.Wrapf(compositor.ErrDimensionMismatch,
			"before %dx%d, after %dx%d",
			before.Rect.Dx(), before.Rect.Dy(), after.Rect.Dx(), after.Rect.Dy())
	}

	composed, err := compositor.Compose(before, after, fraction, req.Line)
	if err != nil {
		return nil, err
	}

	encoded, err := images.EncodePNG(composed)
	if err != nil {
		return nil, err
	}

	return &Result{
		PNG:      encoded,
		Width:    composed.Rect.Dx(),
		Height:   composed.Rect.Dy(),
		Fraction: fraction,
	}, nil
}

// clampFraction constrains slider input to the valid range. NaN maps to the
// slider default rather than poisoning the comparison.
func clampFraction(f float64) float64 {
	if math.IsNaN(f) {
		return 0.5
	}
	return images.Clamp(f, 0, 1)
}
