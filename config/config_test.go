package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"essaim.dev/topography/spectrum"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Empty(t, c.Spectrum.Breakpoints)
	c.Spectrum.Breakpoints = nil
	assert.Equal(t, Default(), c)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
spectrum:
  mode: inline
  breakpoints:
    - weight: 2
      color: "#ff0000"
    - weight: 1
      color: "#0000ff"
contour:
  enabled: true
  bands: 30
display:
  refresh: 20ms
  blocking: true
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ModeInline, c.Spectrum.Mode)
	assert.Equal(t, []spectrum.HexBreakpoint{{Weight: 2, Color: "#ff0000"}, {Weight: 1, Color: "#0000ff"}}, c.Spectrum.Breakpoints)
	assert.True(t, c.Contour.Enabled)
	assert.Equal(t, 30, c.Contour.Bands)
	assert.Equal(t, 20*time.Millisecond, c.Display.Refresh)
	assert.True(t, c.Display.Blocking)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Sensor, c.Sensor)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "contour:\n  bands: 30\n")

	t.Setenv("TOPOGRAPHY_CONTOUR_BANDS", "12")
	t.Setenv("TOPOGRAPHY_SENSOR_SOURCE", "stream")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12, c.Contour.Bands)
	assert.Equal(t, SourceStream, c.Sensor.Source)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown mode", "spectrum:\n  mode: sepia\n"},
		{"too many bands", "contour:\n  bands: 300\n"},
		{"zero bands", "contour:\n  bands: 0\n"},
		{"unknown source", "sensor:\n  source: webcam\n"},
		{"zero refresh", "display:\n  refresh: 0s\n"},
		{"too many chunks", "stream:\n  chunks: 300\n"},
		{"bad lighting channel", "lighting:\n  enabled: true\n  channel: 0\n"},
		{"malformed yaml", "contour: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestWriteDefault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDefault(&buf))

	c, err := Load(writeFile(t, buf.String()))
	require.NoError(t, err)

	assert.Equal(t, Default().Spectrum.Mode, c.Spectrum.Mode)
	assert.Equal(t, Default().Display.Refresh, c.Display.Refresh)
	assert.Equal(t, Default().Stream.Addr, c.Stream.Addr)
}

func TestSpectrumBuild(t *testing.T) {
	dir := t.TempDir()
	gradient := filepath.Join(dir, "colour.init")
	require.NoError(t, os.WriteFile(gradient, []byte("1 0 0 0\n1 255 255 255\n"), 0o644))

	short := filepath.Join(dir, "short.init")
	require.NoError(t, os.WriteFile(short, []byte("1 0 0 0\n"), 0o644))

	tests := []struct {
		name    string
		cfg     Spectrum
		wantErr error
	}{
		{"gamma", Spectrum{Mode: ModeGamma}, nil},
		{"gradient", Spectrum{Mode: ModeGradient, File: gradient}, nil},
		{"preset", Spectrum{Mode: ModePreset, Preset: "thermal"}, nil},
		{"inline", Spectrum{Mode: ModeInline, Breakpoints: []spectrum.HexBreakpoint{{Weight: 1, Color: "#000000"}, {Weight: 1, Color: "#ffffff"}}}, nil},
		{"too few breakpoints", Spectrum{Mode: ModeGradient, File: short}, spectrum.ErrTooFewBreakpoints},
		{"unknown preset", Spectrum{Mode: ModePreset, Preset: "sepia"}, spectrum.ErrUnknownPreset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.cfg.Build()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, s, 2048)
		})
	}
}
