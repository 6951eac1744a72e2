package data

import (
	"image"
	"image/color"
)

// ColorImage stores packed 8 bit RGB triples, row-major.
type ColorImage struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewColorImage(width, height int) *ColorImage {
	return &ColorImage{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

func (c *ColorImage) At(x, y int) RGB {
	return c.RGBAt(y*c.Width + x)
}

// Color of the i-th pixel in scan order
func (c *ColorImage) RGBAt(i int) RGB {
	o := i * 3
	return RGB{R: c.Pix[o], G: c.Pix[o+1], B: c.Pix[o+2]}
}

func (c *ColorImage) Set(x, y int, value RGB) {
	o := (y*c.Width + x) * 3
	c.Pix[o] = value.R
	c.Pix[o+1] = value.G
	c.Pix[o+2] = value.B
}

// Per-pixel colors in scan order, one entry per pixel.
func (c *ColorImage) Colors() []RGB {
	colors := make([]RGB, c.Width*c.Height)
	for i := range colors {
		colors[i] = c.RGBAt(i)
	}
	return colors
}

// Converts the image to an image.RGBA for preview and encoding
func (c *ColorImage) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			p := c.At(x, y)
			img.SetRGBA(x, y, color.RGBA{R: p.R, G: p.G, B: p.B, A: 255})
		}
	}
	return img
}
