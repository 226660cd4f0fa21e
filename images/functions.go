package images

import (
	"image"
	"image/color"
	"image/draw"
	"runtime"
	"sync"
)

// Flatten converts any image into an opaque RGBA image anchored at the origin.
// Partially transparent pixels are composited over a white background and the
// alpha channel is forced to full opacity, so the compositing path only ever
// sees three meaningful channels.
//
// Arguments:
// - img: The source image in any color model.
//
// Returns:
// - A new opaque *image.RGBA with the same dimensions.
//
// @example
// rgba := Flatten(decodedPNG)
func Flatten(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	// White backing first, then the source composited over it.
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)

	// Force full opacity. Over-compositing already removed translucency from
	// the color channels, this removes it from the stored alpha as well.
	width := dst.Rect.Dx()
	Parallel(dst.Rect.Dy(), func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			row := dst.Pix[y*dst.Stride : y*dst.Stride+width*4]
			for x := 3; x < len(row); x += 4 {
				row[x] = 0xFF
			}
		}
	})

	return dst
}

// NewSolid creates a width x height image filled with a single color.
// Used by tests and the demo mode of the interactive shell.
func NewSolid(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// Clamp constrains a value to the specified range.
//
// Arguments:
// - value: The value to clamp.
// - min: The minimum allowed value.
// - max: The maximum allowed value.
//
// Returns:
// - The clamped value.
func Clamp(value, min, max float64) float64 {
	// Check lower bound first (common case for underflow).
	if value < min {
		return min
	}
	// Check upper bound.
	if value > max {
		return max
	}
	// Value is within range.
	return value
}

// Parallel executes a function in parallel across multiple goroutines.
// This improves performance on multi-core systems.
//
// Arguments:
// - dataSize: The size of the data to process.
// - fn: Function to execute for each partition (receives start and end indices).
//
// @example
//
//	Parallel(height, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // Process row y
//	    }
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	numGoroutines := runtime.NumCPU()

	// For small data sizes, parallel processing overhead isn't worth it.
	if dataSize < numGoroutines*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition gets any remaining data.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}

	wg.Wait()
}
