// Package colorize turns raw depth frames into RGB frames using a spectrum
// and an optional contour overlay.
package colorize

import (
	"errors"
	"sync/atomic"

	"essaim.dev/topography/contour"
	"essaim.dev/topography/frame"
	"essaim.dev/topography/spectrum"
)

var (
	ErrSizeMismatch  = errors.New("depth frame does not match buffer size")
	ErrEmptySpectrum = errors.New("spectrum is empty")
)

type Options struct {
	Contour bool
	Bands   int
}

// Colorizer is not safe for concurrent calls to Colorize: it owns the band
// mask scratch space. Spectrum and contour mode may be changed at any time.
type Colorizer struct {
	spectrum atomic.Pointer[spectrum.Spectrum]
	contour  atomic.Bool

	bands int
	mask  *contour.Mask
}

func New(s spectrum.Spectrum, opts Options) (*Colorizer, error) {
	if len(s) == 0 {
		return nil, ErrEmptySpectrum
	}

	bands := opts.Bands
	if bands == 0 {
		bands = contour.DefaultBands
	}
	if bands < 1 || bands > contour.MaxBands {
		return nil, contour.ErrInvalidBands
	}

	c := &Colorizer{bands: bands}
	c.spectrum.Store(&s)
	c.contour.Store(opts.Contour)

	return c, nil
}

// SetSpectrum publishes a new spectrum. Frames already being colorized keep
// the spectrum they started with.
func (c *Colorizer) SetSpectrum(s spectrum.Spectrum) error {
	if len(s) == 0 {
		return ErrEmptySpectrum
	}

	c.spectrum.Store(&s)
	return nil
}

func (c *Colorizer) Spectrum() spectrum.Spectrum {
	return *c.spectrum.Load()
}

func (c *Colorizer) SetContour(enabled bool) {
	c.contour.Store(enabled)
}

func (c *Colorizer) Contour() bool {
	return c.contour.Load()
}

// Colorize writes every pixel of dst from depth. When contour mode is on,
// interior pixels on a band boundary are blackened.
func (c *Colorizer) Colorize(dst *frame.Buffer, depth []uint16) error {
	if len(depth) != dst.Len() || len(dst.Pix) != 3*len(depth) {
		return ErrSizeMismatch
	}

	s := c.Spectrum()
	pix := dst.Pix

	for i, d := range depth {
		p := s.At(d)
		pix[3*i+0] = p.R
		pix[3*i+1] = p.G
		pix[3*i+2] = p.B
	}

	if !c.contour.Load() {
		return nil
	}

	if c.mask == nil || c.mask.Width != dst.Width || c.mask.Height != dst.Height {
		c.mask = contour.NewMask(dst.Width, dst.Height)
	}
	if err := c.mask.Fill(depth, c.bands); err != nil {
		return err
	}

	for y := 1; y < dst.Height-1; y++ {
		for x := 1; x < dst.Width-1; x++ {
			if !c.mask.Boundary(x, y) {
				continue
			}

			i := 3 * (y*dst.Width + x)
			pix[i+0] = 0
			pix[i+1] = 0
			pix[i+2] = 0
		}
	}

	return nil
}
