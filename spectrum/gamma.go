package spectrum

import (
	"math"

	"essaim.dev/topography/frame"
)

// Gamma returns the classic depth rainbow: a cubic ramp folded over six hue
// bands, running white, red, yellow, green, cyan, blue and fading to black.
func Gamma() Spectrum {
	s := make(Spectrum, frame.DepthRange)

	for d := range s {
		v := math.Pow(float64(d)/frame.DepthRange, 3) * 6
		pval := int(v * 6 * 256)
		lb := uint8(pval & 0xff)

		switch pval >> 8 {
		case 0:
			s[d] = Pixel{255, 255 - lb, 255 - lb}
		case 1:
			s[d] = Pixel{255, lb, 0}
		case 2:
			s[d] = Pixel{255 - lb, 255, 0}
		case 3:
			s[d] = Pixel{0, 255, lb}
		case 4:
			s[d] = Pixel{0, 255 - lb, 255}
		case 5:
			s[d] = Pixel{0, 0, 255 - lb}
		default:
			s[d] = Pixel{}
		}
	}

	return s
}
