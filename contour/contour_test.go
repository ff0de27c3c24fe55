package contour

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"essaim.dev/topography/frame"
)

// splitFrame returns a frame whose top half is at depth near and whose bottom
// half is at depth far.
func splitFrame(width, height int, near, far uint16) []uint16 {
	depth := make([]uint16, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if y < height/2 {
				depth[y*width+x] = near
			} else {
				depth[y*width+x] = far
			}
		}
	}
	return depth
}

func TestBandRange(t *testing.T) {
	assert.Equal(t, 46, BandRange(DefaultBands))
	assert.Equal(t, 2048, BandRange(1))
	assert.Equal(t, 8, BandRange(256))
}

func TestBuildBandExtremes(t *testing.T) {
	m, err := Build([]uint16{0, frame.DepthRange - 1, 65535}, 3, 1, DefaultBands)
	require.NoError(t, err)

	assert.Equal(t, []uint8{0, DefaultBands - 1, DefaultBands - 1}, m.Bands)
}

func TestBuildSplitFrame(t *testing.T) {
	const w, h = frame.Width, frame.Height

	m, err := Build(splitFrame(w, h, 100, 1900), w, h, DefaultBands)
	require.NoError(t, err)

	top, bottom := m.Band(0, 0), m.Band(0, h-1)
	assert.Equal(t, uint8(2), top)
	assert.Equal(t, uint8(41), bottom)

	seen := map[uint8]bool{}
	for _, b := range m.Bands {
		seen[b] = true
	}
	assert.Len(t, seen, 2)

	for x := 0; x < w; x++ {
		assert.NotEqual(t, m.Band(x, h/2-1), m.Band(x, h/2), "column %d", x)
	}
}

func TestBoundary(t *testing.T) {
	const w, h = 8, 6

	m, err := Build(splitFrame(w, h, 100, 1900), w, h, DefaultBands)
	require.NoError(t, err)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			interior := x > 0 && y > 0 && x < w-1 && y < h-1
			want := interior && (y == h/2-1 || y == h/2)
			assert.Equal(t, want, m.Boundary(x, y), "pixel (%d, %d)", x, y)
		}
	}
}

func TestFillErrors(t *testing.T) {
	m := NewMask(2, 2)

	assert.ErrorIs(t, m.Fill(make([]uint16, 4), 0), ErrInvalidBands)
	assert.ErrorIs(t, m.Fill(make([]uint16, 4), MaxBands+1), ErrInvalidBands)
	assert.ErrorIs(t, m.Fill(make([]uint16, 3), DefaultBands), ErrSizeMismatch)
}

func TestBoundaryVerticalSplit(t *testing.T) {
	const w, h = 8, 6

	depth := make([]uint16, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				depth[y*w+x] = 100
			} else {
				depth[y*w+x] = 1900
			}
		}
	}

	m, err := Build(depth, w, h, DefaultBands)
	require.NoError(t, err)

	assert.Equal(t, uint8(2), m.Band(0, 0))
	assert.Equal(t, uint8(41), m.Band(w-1, 0))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			interior := x > 0 && y > 0 && x < w-1 && y < h-1
			want := interior && (x == w/2-1 || x == w/2)
			assert.Equal(t, want, m.Boundary(x, y), "pixel (%d, %d)", x, y)
		}
	}
}
