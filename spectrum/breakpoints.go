package spectrum

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrUnknownPreset = errors.New("unknown spectrum preset")

// LoadBreakpoints reads colour.init formatted breakpoints, one per line:
//
//	<weight> <red> <green> <blue>
//
// Reading stops at the first line that does not parse, or after
// MaxBreakpoints lines.
func LoadBreakpoints(r io.Reader) ([]Breakpoint, error) {
	var bps []Breakpoint

	scanner := bufio.NewScanner(r)
	for len(bps) < MaxBreakpoints && scanner.Scan() {
		bp, ok := parseLine(scanner.Text())
		if !ok {
			break
		}
		bps = append(bps, bp)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read breakpoints: %w", err)
	}

	if len(bps) < MinBreakpoints {
		return nil, ErrTooFewBreakpoints
	}

	return bps, nil
}

// LoadFile reads breakpoints from a colour.init file.
func LoadFile(path string) ([]Breakpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open breakpoints file: %w", err)
	}
	defer f.Close()

	bps, err := LoadBreakpoints(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return bps, nil
}

func parseLine(line string) (Breakpoint, bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Breakpoint{}, false
	}

	weight, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return Breakpoint{}, false
	}

	var rgb [3]uint8
	for i := range rgb {
		v, err := strconv.ParseUint(fields[i+1], 10, 8)
		if err != nil {
			return Breakpoint{}, false
		}
		rgb[i] = uint8(v)
	}

	return Breakpoint{
		Weight: weight,
		Color:  Pixel{rgb[0], rgb[1], rgb[2]},
	}, true
}

// HexBreakpoint is a breakpoint as written in YAML configuration.
type HexBreakpoint struct {
	Weight float64 `koanf:"weight" yaml:"weight"`
	Color  string  `koanf:"color" yaml:"color"`
}

// ParseBreakpoints converts hex breakpoints, such as "#ff8800", to breakpoints.
func ParseBreakpoints(hex []HexBreakpoint) ([]Breakpoint, error) {
	bps := make([]Breakpoint, 0, len(hex))

	for idx, h := range hex {
		c, err := colorful.Hex(h.Color)
		if err != nil {
			return nil, fmt.Errorf("breakpoint %d: could not parse colour %q: %w", idx, h.Color, err)
		}

		r, g, b := c.RGB255()
		bps = append(bps, Breakpoint{
			Weight: h.Weight,
			Color:  Pixel{r, g, b},
		})
	}

	return bps, nil
}

var presets = map[string][]HexBreakpoint{
	"rainbow": {
		{1, "#ffffff"},
		{1, "#ff0000"},
		{1, "#ffff00"},
		{1, "#00ff00"},
		{1, "#00ffff"},
		{1, "#0000ff"},
		{0, "#000000"},
	},
	"thermal": {
		{2, "#ffffff"},
		{3, "#ffd700"},
		{3, "#ff4500"},
		{2, "#8b0000"},
		{0, "#000000"},
	},
	"ocean": {
		{1, "#e0ffff"},
		{2, "#00ced1"},
		{3, "#4169e1"},
		{0, "#000033"},
	},
}

// Preset returns the breakpoints of a built-in gradient.
func Preset(name string) ([]Breakpoint, error) {
	hex, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	return ParseBreakpoints(hex)
}
