package server

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/vision-kit/go-compare/images"
)

const (
	demoWidth  = 400
	demoHeight = 300
)

// demoImages generates the sample operands for demo mode: each is two solid
// color halves so the moving boundary is obvious at any slider position.
func demoImages() (before, after []byte, err error) {
	beforeImg := halves(
		color.RGBA{R: 100, G: 150, B: 255, A: 255},
		color.RGBA{R: 255, G: 100, B: 100, A: 255},
	)
	afterImg := halves(
		color.RGBA{R: 100, G: 255, B: 100, A: 255},
		color.RGBA{R: 255, G: 255, B: 100, A: 255},
	)

	before, err = images.EncodePNG(beforeImg)
	if err != nil {
		return nil, nil, err
	}
	after, err = images.EncodePNG(afterImg)
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// halves fills the left and right half of a demo-sized image with two colors.
func halves(left, right color.RGBA) *image.RGBA {
	img := images.NewSolid(demoWidth, demoHeight, left)
	draw.Draw(img, image.Rect(demoWidth/2, 0, demoWidth, demoHeight),
		image.NewUniform(right), image.Point{}, draw.Src)
	return img
}
