// Package frame holds the fixed sensor geometry and the RGB buffers passed
// between the acquisition and display sides.
package frame

import (
	"image"
)

const (
	Width  = 640
	Height = 480

	// DepthRange is the number of distinct 11-bit depth values.
	DepthRange = 2048
)

// Buffer is a packed RGB image, three bytes per pixel, row-major.
type Buffer struct {
	Pix    []byte
	Width  int
	Height int
}

func NewBuffer(width, height int) *Buffer {
	return &Buffer{
		Pix:    make([]byte, width*height*3),
		Width:  width,
		Height: height,
	}
}

// Len returns the number of pixels in the buffer.
func (b *Buffer) Len() int {
	return b.Width * b.Height
}

// ToRGBA expands the buffer into dst, which must have the same bounds.
// With flipVertical set, row 0 of the buffer lands on the last row of dst.
func (b *Buffer) ToRGBA(dst *image.RGBA, flipVertical bool) {
	for y := 0; y < b.Height; y++ {
		dy := y
		if flipVertical {
			dy = b.Height - y - 1
		}

		src := b.Pix[y*b.Width*3 : (y+1)*b.Width*3]
		row := dst.Pix[dy*dst.Stride : dy*dst.Stride+b.Width*4]

		for x := 0; x < b.Width; x++ {
			row[4*x+0] = src[3*x+0]
			row[4*x+1] = src[3*x+1]
			row[4*x+2] = src[3*x+2]
			row[4*x+3] = 255
		}
	}
}

// RGBA returns a freshly allocated RGBA copy of the buffer.
func (b *Buffer) RGBA(flipVertical bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	b.ToRGBA(img, flipVertical)
	return img
}
