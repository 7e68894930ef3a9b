package chip8

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"gochip8/pkg/grid"
)

var (
	DefaultOn  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	DefaultOff = color.RGBA{A: 0xFF}
)

// Lit counts the pixels that are on.
func (f Framebuffer) Lit() int {
	n := 0
	for y := range f {
		for x := range f[y] {
			if f[y][x] {
				n++
			}
		}
	}
	return n
}

// RGBA renders the framebuffer into a 64x32 RGBA8888 byte slice
// (length 64*32*4 = 8192) using on and off as the two pixel colours.
func (f Framebuffer) RGBA(on, off color.RGBA) []byte {
	pixels := make([]byte, DisplayWidth*DisplayHeight*4)
	for i := 0; i < DisplayWidth*DisplayHeight; i++ {
		x, y := grid.GetGridCoords(i, DisplayWidth)
		c := off
		if f[y][x] {
			c = on
		}
		pixels[i*4+0] = c.R
		pixels[i*4+1] = c.G
		pixels[i*4+2] = c.B
		pixels[i*4+3] = c.A
	}
	return pixels
}

// Image returns the framebuffer as an *image.RGBA.
func (f Framebuffer) Image(on, off color.RGBA) *image.RGBA {
	return &image.RGBA{
		Pix:    f.RGBA(on, off),
		Stride: DisplayWidth * 4,
		Rect:   image.Rect(0, 0, DisplayWidth, DisplayHeight),
	}
}

// EncodePNG writes the framebuffer as a PNG, each pixel scaled to a
// scale x scale block.
func (f Framebuffer) EncodePNG(w io.Writer, scale int, on, off color.RGBA) error {
	if scale < 1 {
		scale = 1
	}
	src := f.Image(on, off)
	dst := image.NewRGBA(image.Rect(0, 0, DisplayWidth*scale, DisplayHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return png.Encode(w, dst)
}

// SaveScreenshot encodes the framebuffer as a PNG and writes it to filename.
func (f Framebuffer) SaveScreenshot(filename string, scale int, on, off color.RGBA) error {
	out, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := f.EncodePNG(out, scale, on, off); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
