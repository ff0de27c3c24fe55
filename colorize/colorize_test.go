package colorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"essaim.dev/topography/contour"
	"essaim.dev/topography/frame"
	"essaim.dev/topography/spectrum"
)

func newColorizer(t *testing.T, contourMode bool) *Colorizer {
	t.Helper()

	bps, err := spectrum.Preset("rainbow")
	require.NoError(t, err)
	s, err := spectrum.Build(bps, frame.DepthRange)
	require.NoError(t, err)

	c, err := New(s, Options{Contour: contourMode})
	require.NoError(t, err)

	return c
}

func rampFrame(width, height int) []uint16 {
	depth := make([]uint16, width*height)
	for i := range depth {
		depth[i] = uint16((i * 7) % frame.DepthRange)
	}
	return depth
}

func TestColorizeAppliesSpectrum(t *testing.T) {
	c := newColorizer(t, false)
	s := c.Spectrum()

	depth := []uint16{0, 500, 2047, 4000}
	buf := frame.NewBuffer(2, 2)
	require.NoError(t, c.Colorize(buf, depth))

	for i, d := range depth {
		p := s.At(d)
		assert.Equal(t, []byte{p.R, p.G, p.B}, buf.Pix[3*i:3*i+3], "pixel %d", i)
	}
}

func TestColorizeIsDeterministic(t *testing.T) {
	for _, contourMode := range []bool{false, true} {
		c := newColorizer(t, contourMode)
		depth := rampFrame(frame.Width, frame.Height)

		a := frame.NewBuffer(frame.Width, frame.Height)
		b := frame.NewBuffer(frame.Width, frame.Height)
		for i := range b.Pix {
			b.Pix[i] = 0xaa
		}

		require.NoError(t, c.Colorize(a, depth))
		require.NoError(t, c.Colorize(b, depth))
		assert.Equal(t, a.Pix, b.Pix, "contour=%v", contourMode)
	}
}

func TestColorizeContour(t *testing.T) {
	const w, h = 8, 6

	// A spectrum with no black entries, so only the contour pass can
	// produce black pixels.
	s := make(spectrum.Spectrum, frame.DepthRange)
	for i := range s {
		s[i] = spectrum.Pixel{R: 200, G: 100, B: 50}
	}
	c, err := New(s, Options{Contour: true, Bands: contour.DefaultBands})
	require.NoError(t, err)

	depth := make([]uint16, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if y < h/2 {
				depth[y*w+x] = 100
			} else {
				depth[y*w+x] = 1900
			}
		}
	}

	buf := frame.NewBuffer(w, h)
	require.NoError(t, c.Colorize(buf, depth))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := 3 * (y*w + x)
			got := buf.Pix[i : i+3]

			interior := x > 0 && y > 0 && x < w-1 && y < h-1
			if interior && (y == h/2-1 || y == h/2) {
				assert.Equal(t, []byte{0, 0, 0}, got, "pixel (%d, %d) should be black", x, y)
			} else {
				assert.Equal(t, []byte{200, 100, 50}, got, "pixel (%d, %d) should be untouched", x, y)
			}
		}
	}
}

func TestColorizeToggleContour(t *testing.T) {
	c := newColorizer(t, true)
	assert.True(t, c.Contour())

	c.SetContour(false)
	assert.False(t, c.Contour())
}

func TestColorizeSizeMismatch(t *testing.T) {
	c := newColorizer(t, false)
	buf := frame.NewBuffer(2, 2)
	for i := range buf.Pix {
		buf.Pix[i] = 7
	}

	err := c.Colorize(buf, make([]uint16, 3))
	assert.ErrorIs(t, err, ErrSizeMismatch)
	for _, b := range buf.Pix {
		assert.Equal(t, byte(7), b)
	}
}

func TestSetSpectrum(t *testing.T) {
	c := newColorizer(t, false)

	black := make(spectrum.Spectrum, frame.DepthRange)
	require.NoError(t, c.SetSpectrum(black))
	assert.Equal(t, black, c.Spectrum())

	assert.ErrorIs(t, c.SetSpectrum(nil), ErrEmptySpectrum)
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil, Options{})
	assert.ErrorIs(t, err, ErrEmptySpectrum)

	_, err = New(spectrum.Gamma(), Options{Bands: 300})
	assert.ErrorIs(t, err, contour.ErrInvalidBands)
}

func TestColorizeContourVerticalSplit(t *testing.T) {
	const w, h = 8, 6

	s := make(spectrum.Spectrum, frame.DepthRange)
	for i := range s {
		s[i] = spectrum.Pixel{R: 200, G: 100, B: 50}
	}
	c, err := New(s, Options{Contour: true})
	require.NoError(t, err)

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

	buf := frame.NewBuffer(w, h)
	require.NoError(t, c.Colorize(buf, depth))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := 3 * (y*w + x)
			got := buf.Pix[i : i+3]

			interior := x > 0 && y > 0 && x < w-1 && y < h-1
			if interior && (x == w/2-1 || x == w/2) {
				assert.Equal(t, []byte{0, 0, 0}, got, "pixel (%d, %d) should be black", x, y)
			} else {
				assert.Equal(t, []byte{200, 100, 50}, got, "pixel (%d, %d) should be untouched", x, y)
			}
		}
	}
}
