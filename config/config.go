// Package config loads rack settings from toml files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalid is returned when config values are out of range.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration decoded from strings like "150ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config of the rack player.
type Config struct {
	Output Output `toml:"output"`
	Device Device `toml:"device"`
	Render Render `toml:"render"`
}

// Output settings.
type Output struct {
	Volume       float64  `toml:"volume"`
	Muted        bool     `toml:"muted"`
	RingDuration Duration `toml:"ring_duration"`
	FallbackRate int      `toml:"fallback_rate"`
	MaxCatchUp   Duration `toml:"max_catch_up"`
	Cutoff       float64  `toml:"cutoff"`
	// MuteOnOverload fades output while it can't keep up with the device.
	MuteOnOverload bool `toml:"mute_on_overload"`
}

// Device settings.
type Device struct {
	// Driver is either "portaudio" or "none".
	Driver string `toml:"driver"`
	// SampleRate of zero means device default.
	SampleRate      int `toml:"sample_rate"`
	FramesPerBuffer int `toml:"frames_per_buffer"`
}

// Render settings.
type Render struct {
	SampleRate int `toml:"sample_rate"`
	BitDepth   int `toml:"bit_depth"`
	Channels   int `toml:"channels"`
}

// Default returns default config.
func Default() Config {
	return Config{
		Output: Output{
			Volume:         0.5,
			RingDuration:   Duration{150 * time.Millisecond},
			FallbackRate:   44100,
			MaxCatchUp:     Duration{250 * time.Millisecond},
			Cutoff:         20,
			MuteOnOverload: true,
		},
		Device: Device{
			Driver:          "portaudio",
			FramesPerBuffer: 256,
		},
		Render: Render{
			SampleRate: 44100,
			BitDepth:   16,
			Channels:   2,
		},
	}
}

// Load decodes file over defaults.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, c.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Output.Volume < 0:
		return fmt.Errorf("%w: negative volume", ErrInvalid)
	case c.Output.RingDuration.Duration <= 0:
		return fmt.Errorf("%w: ring duration must be positive", ErrInvalid)
	case c.Output.FallbackRate <= 0:
		return fmt.Errorf("%w: fallback rate must be positive", ErrInvalid)
	case c.Output.MaxCatchUp.Duration <= 0:
		return fmt.Errorf("%w: max catch up must be positive", ErrInvalid)
	case c.Output.Cutoff <= 0:
		return fmt.Errorf("%w: cutoff must be positive", ErrInvalid)
	case c.Device.Driver != "portaudio" && c.Device.Driver != "none":
		return fmt.Errorf("%w: unknown driver %q", ErrInvalid, c.Device.Driver)
	case c.Device.SampleRate < 0:
		return fmt.Errorf("%w: negative device sample rate", ErrInvalid)
	case c.Render.SampleRate <= 0:
		return fmt.Errorf("%w: render sample rate must be positive", ErrInvalid)
	case c.Render.BitDepth != 16 && c.Render.BitDepth != 32:
		return fmt.Errorf("%w: render bit depth %d", ErrInvalid, c.Render.BitDepth)
	case c.Render.Channels != 1 && c.Render.Channels != 2:
		return fmt.Errorf("%w: render channels %d", ErrInvalid, c.Render.Channels)
	}
	return nil
}
