// Package config loads topography settings from defaults, an optional YAML
// file and TOPOGRAPHY_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	yml "gopkg.in/yaml.v2"

	"essaim.dev/topography/contour"
	"essaim.dev/topography/frame"
	"essaim.dev/topography/spectrum"
)

const (
	// FileName is the default configuration file.
	FileName = "topography.yml"

	envPrefix = "TOPOGRAPHY_"
)

const (
	ModeGamma    = "gamma"
	ModeGradient = "gradient"
	ModePreset   = "preset"
	ModeInline   = "inline"

	SourceFreenect = "freenect"
	SourceStream   = "stream"
)

type Spectrum struct {
	// Mode selects where the lookup table comes from: the fixed gamma ramp,
	// a colour.init file, a built-in preset or inline breakpoints.
	Mode        string                   `koanf:"mode" yaml:"mode"`
	File        string                   `koanf:"file" yaml:"file"`
	Preset      string                   `koanf:"preset" yaml:"preset"`
	Breakpoints []spectrum.HexBreakpoint `koanf:"breakpoints" yaml:"breakpoints"`
}

type Contour struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`
	Bands   int  `koanf:"bands" yaml:"bands"`
}

type Display struct {
	// Blocking makes the display wait for each new frame rather than
	// redrawing the previous one.
	Blocking bool          `koanf:"blocking" yaml:"blocking"`
	Refresh  time.Duration `koanf:"refresh" yaml:"refresh"`
	Title    string        `koanf:"title" yaml:"title"`
	Flip     bool          `koanf:"flip" yaml:"flip"`
}

type Sensor struct {
	Source string        `koanf:"source" yaml:"source"`
	Device int           `koanf:"device" yaml:"device"`
	Addr   string        `koanf:"addr" yaml:"addr"`
	Poll   time.Duration `koanf:"poll" yaml:"poll"`
	Tilt   float64       `koanf:"tilt" yaml:"tilt"`
}

type Stream struct {
	Serve  bool    `koanf:"serve" yaml:"serve"`
	Addr   string  `koanf:"addr" yaml:"addr"`
	MaxFPS float64 `koanf:"maxfps" yaml:"maxfps"`
	Chunks int     `koanf:"chunks" yaml:"chunks"`
}

type Snapshot struct {
	Dir string `koanf:"dir" yaml:"dir"`
}

type Lighting struct {
	Enabled bool          `koanf:"enabled" yaml:"enabled"`
	Channel int           `koanf:"channel" yaml:"channel"`
	Refresh time.Duration `koanf:"refresh" yaml:"refresh"`
}

type Log struct {
	Level    string `koanf:"level" yaml:"level"`
	Encoding string `koanf:"encoding" yaml:"encoding"`
}

type Config struct {
	Spectrum Spectrum `koanf:"spectrum" yaml:"spectrum"`
	Contour  Contour  `koanf:"contour" yaml:"contour"`
	Display  Display  `koanf:"display" yaml:"display"`
	Sensor   Sensor   `koanf:"sensor" yaml:"sensor"`
	Stream   Stream   `koanf:"stream" yaml:"stream"`
	Snapshot Snapshot `koanf:"snapshot" yaml:"snapshot"`
	Lighting Lighting `koanf:"lighting" yaml:"lighting"`
	Log      Log      `koanf:"log" yaml:"log"`
}

func Default() Config {
	return Config{
		Spectrum: Spectrum{
			Mode:   ModeGamma,
			File:   "colour.init",
			Preset: "rainbow",
		},
		Contour: Contour{
			Enabled: false,
			Bands:   contour.DefaultBands,
		},
		Display: Display{
			Blocking: false,
			Refresh:  time.Millisecond * 33,
			Title:    "Topography",
			Flip:     false,
		},
		Sensor: Sensor{
			Source: SourceFreenect,
			Device: 0,
			Addr:   "224.76.78.75:20810",
			Poll:   time.Millisecond * 500,
		},
		Stream: Stream{
			Serve:  false,
			Addr:   "224.76.78.75:20810",
			MaxFPS: 30,
			Chunks: 16,
		},
		Snapshot: Snapshot{
			Dir: ".",
		},
		Lighting: Lighting{
			Enabled: false,
			Channel: 1,
			Refresh: time.Millisecond * 50,
		},
		Log: Log{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load layers the YAML file at path, if it exists, and the environment over
// the defaults. An empty path skips the file.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("could not load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("could not load config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("could not stat config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("could not load environment: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("could not decode config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// envKey maps TOPOGRAPHY_DISPLAY_REFRESH to display.refresh.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
}

func (c Config) Validate() error {
	switch c.Spectrum.Mode {
	case ModeGamma, ModeGradient, ModePreset, ModeInline:
	default:
		return fmt.Errorf("unknown spectrum mode %q", c.Spectrum.Mode)
	}

	if c.Contour.Bands < 1 || c.Contour.Bands > contour.MaxBands {
		return fmt.Errorf("contour bands must be between 1 and %d, got %d", contour.MaxBands, c.Contour.Bands)
	}

	if c.Display.Refresh <= 0 {
		return fmt.Errorf("display refresh must be positive, got %s", c.Display.Refresh)
	}

	switch c.Sensor.Source {
	case SourceFreenect, SourceStream:
	default:
		return fmt.Errorf("unknown sensor source %q", c.Sensor.Source)
	}

	if c.Sensor.Poll < 0 {
		return fmt.Errorf("sensor poll timeout must not be negative, got %s", c.Sensor.Poll)
	}

	if c.Stream.MaxFPS < 0 {
		return fmt.Errorf("stream maxfps must not be negative, got %g", c.Stream.MaxFPS)
	}

	if c.Stream.Chunks < 1 || c.Stream.Chunks > 255 {
		return fmt.Errorf("stream chunks must be between 1 and 255, got %d", c.Stream.Chunks)
	}

	if c.Lighting.Enabled {
		if c.Lighting.Channel < 1 || c.Lighting.Channel > 510 {
			return fmt.Errorf("lighting channel must be between 1 and 510, got %d", c.Lighting.Channel)
		}
		if c.Lighting.Refresh <= 0 {
			return fmt.Errorf("lighting refresh must be positive, got %s", c.Lighting.Refresh)
		}
	}

	return nil
}

// WriteDefault writes the default configuration as YAML.
func WriteDefault(w io.Writer) error {
	if err := yml.NewEncoder(w).Encode(Default()); err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}
	return nil
}

// Build produces the lookup table selected by Mode.
func (s Spectrum) Build() (spectrum.Spectrum, error) {
	var (
		bps []spectrum.Breakpoint
		err error
	)

	switch s.Mode {
	case ModeGamma:
		return spectrum.Gamma(), nil
	case ModeGradient:
		bps, err = spectrum.LoadFile(s.File)
	case ModePreset:
		bps, err = spectrum.Preset(s.Preset)
	case ModeInline:
		bps, err = spectrum.ParseBreakpoints(s.Breakpoints)
	default:
		return nil, fmt.Errorf("unknown spectrum mode %q", s.Mode)
	}
	if err != nil {
		return nil, err
	}

	return spectrum.Build(bps, frame.DepthRange)
}
