// Package spectrum builds the depth to colour lookup tables used to render
// depth frames.
package spectrum

import (
	"errors"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	MinBreakpoints = 2
	MaxBreakpoints = 16
)

var (
	ErrTooFewBreakpoints  = errors.New("at least two breakpoints are required")
	ErrTooManyBreakpoints = errors.New("too many breakpoints")
	ErrInvalidWeights     = errors.New("breakpoint weights must be positive")
	ErrInvalidLength      = errors.New("spectrum length must be positive")
)

// Pixel is an 8-bit RGB colour.
type Pixel struct {
	R, G, B uint8
}

func (p Pixel) Hex() string {
	return colorful.Color{
		R: float64(p.R) / 255,
		G: float64(p.G) / 255,
		B: float64(p.B) / 255,
	}.Hex()
}

func (p Pixel) String() string {
	return p.Hex()
}

// Spectrum maps a depth value to a colour. It must not be modified once
// handed to a colorizer.
type Spectrum []Pixel

// At returns the colour for depth d, clamping out of range values to the
// last entry.
func (s Spectrum) At(d uint16) Pixel {
	if int(d) >= len(s) {
		return s[len(s)-1]
	}
	return s[d]
}

// Breakpoint anchors a colour in a gradient. Weight is the share of the
// spectrum taken by the segment running from this colour to the next one.
type Breakpoint struct {
	Weight float64
	Color  Pixel
}

// Build interpolates a spectrum of the given length across the breakpoints.
// The weight of the last breakpoint is ignored, and the last segment absorbs
// rounding so that every slot is written exactly once.
func Build(breakpoints []Breakpoint, length int) (Spectrum, error) {
	if len(breakpoints) < MinBreakpoints {
		return nil, ErrTooFewBreakpoints
	}
	if len(breakpoints) > MaxBreakpoints {
		return nil, ErrTooManyBreakpoints
	}
	if length <= 0 {
		return nil, ErrInvalidLength
	}

	total := 0.0
	for _, bp := range breakpoints[:len(breakpoints)-1] {
		if bp.Weight < 0 || math.IsNaN(bp.Weight) || math.IsInf(bp.Weight, 0) {
			return nil, ErrInvalidWeights
		}
		total += bp.Weight
	}
	if total <= 0 || math.IsInf(total, 0) {
		return nil, ErrInvalidWeights
	}

	s := make(Spectrum, length)
	filled := 0
	segments := len(breakpoints) - 1

	for k := 0; k < segments; k++ {
		span := int(math.Round(breakpoints[k].Weight / total * float64(length)))
		if k == segments-1 || filled+span > length {
			span = length - filled
		}

		from, to := breakpoints[k].Color, breakpoints[k+1].Color
		for i := 0; i < span; i++ {
			s[filled+i] = lerp(from, to, float64(i)/float64(span))
		}
		filled += span
	}

	return s, nil
}

func lerp(a, b Pixel, to float64) Pixel {
	from := 1 - to
	return Pixel{
		R: channel(to*float64(b.R) + from*float64(a.R)),
		G: channel(to*float64(b.G) + from*float64(a.G)),
		B: channel(to*float64(b.B) + from*float64(a.B)),
	}
}

func channel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
