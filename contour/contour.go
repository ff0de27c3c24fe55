// Package contour quantizes depth frames into coarse bands and finds the
// pixels that sit on a band boundary.
package contour

import (
	"errors"

	"essaim.dev/topography/frame"
)

const (
	DefaultBands = 45
	MaxBands     = 256
)

var (
	ErrInvalidBands = errors.New("band count must be between 1 and 256")
	ErrSizeMismatch = errors.New("depth frame does not match mask size")
)

// BandRange is the number of consecutive depth values that share a band.
// It is rounded up so that the deepest value still lands in the last band.
func BandRange(numBands int) int {
	return (frame.DepthRange + numBands - 1) / numBands
}

// Mask holds one band id per pixel.
type Mask struct {
	Width  int
	Height int
	Bands  []uint8
}

func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Bands:  make([]uint8, width*height),
	}
}

// Build returns a new mask for the depth frame.
func Build(depth []uint16, width, height, numBands int) (*Mask, error) {
	m := NewMask(width, height)
	if err := m.Fill(depth, numBands); err != nil {
		return nil, err
	}

	return m, nil
}

// Fill recomputes the mask in place from a depth frame.
func (m *Mask) Fill(depth []uint16, numBands int) error {
	if numBands < 1 || numBands > MaxBands {
		return ErrInvalidBands
	}
	if len(depth) != len(m.Bands) {
		return ErrSizeMismatch
	}

	bandRange := BandRange(numBands)
	last := numBands - 1

	for p, d := range depth {
		band := int(d) / bandRange
		if band > last {
			band = last
		}
		m.Bands[p] = uint8(band)
	}

	return nil
}

func (m *Mask) Band(x, y int) uint8 {
	return m.Bands[y*m.Width+x]
}

// Boundary reports whether the pixel at (x, y) has a 4-connected neighbour in
// a different band. Pixels on the frame border are never boundaries.
func (m *Mask) Boundary(x, y int) bool {
	if x <= 0 || y <= 0 || x >= m.Width-1 || y >= m.Height-1 {
		return false
	}

	p := y*m.Width + x
	b := m.Bands[p]

	return m.Bands[p-1] != b ||
		m.Bands[p+1] != b ||
		m.Bands[p-m.Width] != b ||
		m.Bands[p+m.Width] != b
}
