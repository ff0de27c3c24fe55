// Package lighting drives an RGB fixture with the spectrum colour of the
// nearest object in view.
package lighting

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"essaim.dev/topography/frame"
	"essaim.dev/topography/spectrum"
)

// Output is an RGB fixture, typically a dmx.Device.
type Output interface {
	SetRGB(channel int, r, g, b byte) error
	Render() error
}

// SpectrumSource returns the lookup table currently on screen.
type SpectrumSource interface {
	Spectrum() spectrum.Spectrum
}

type Follower struct {
	source  SpectrumSource
	out     Output
	channel int
	refresh time.Duration
	logger  *zap.SugaredLogger

	// nearest holds the last nearest depth plus one, zero when none was
	// seen yet.
	nearest atomic.Uint32
}

func NewFollower(source SpectrumSource, out Output, channel int, refresh time.Duration, logger *zap.SugaredLogger) *Follower {
	return &Follower{
		source:  source,
		out:     out,
		channel: channel,
		refresh: refresh,
		logger:  logger,
	}
}

// Depth records the nearest valid sample of a frame. Frames without any
// valid sample keep the previous value.
func (f *Follower) Depth(depth []uint16, timestamp uint32) {
	if d, ok := Nearest(depth); ok {
		f.nearest.Store(uint32(d) + 1)
	}
}

// Color returns the spectrum colour of the last nearest depth.
func (f *Follower) Color() (spectrum.Pixel, bool) {
	n := f.nearest.Load()
	if n == 0 {
		return spectrum.Pixel{}, false
	}

	s := f.source.Spectrum()
	if len(s) == 0 {
		return spectrum.Pixel{}, false
	}

	return s.At(uint16(n - 1)), true
}

// Run pushes the current colour to the output every refresh tick until ctx
// is done, then blacks the fixture out.
func (f *Follower) Run(ctx context.Context) error {
	refresh := time.NewTicker(f.refresh)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := f.render(spectrum.Pixel{}); err != nil {
				f.logger.Warnw("could not black out fixture", "error", err)
			}
			return nil

		case <-refresh.C:
			c, ok := f.Color()
			if !ok {
				continue
			}
			if err := f.render(c); err != nil {
				return fmt.Errorf("could not render lighting: %w", err)
			}
		}
	}
}

func (f *Follower) render(c spectrum.Pixel) error {
	if err := f.out.SetRGB(f.channel, c.R, c.G, c.B); err != nil {
		return err
	}
	return f.out.Render()
}

// Nearest returns the smallest valid depth sample. Zero and the saturated
// value mark pixels without a reading.
func Nearest(depth []uint16) (uint16, bool) {
	nearest, found := uint16(frame.DepthRange), false

	for _, d := range depth {
		if d > 0 && d < frame.DepthRange-1 && d < nearest {
			nearest, found = d, true
		}
	}

	return nearest, found
}
