// Package config handles chip8.toml host configuration.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up next to a ROM when no
// explicit path is given.
const FileName = "chip8.toml"

// Config is the full host configuration.
type Config struct {
	Emulation Emulation `toml:"emulation"`
	Display   Display   `toml:"display"`
	Audio     Audio     `toml:"audio"`
	Keys      Keys      `toml:"keys"`
	Log       Log       `toml:"log"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Emulation controls pacing and interpreter behaviour.
type Emulation struct {
	CyclesPerSecond int    `toml:"cycles_per_second"`
	TimerHz         int    `toml:"timer_hz"`
	ShiftUsesVy     bool   `toml:"shift_uses_vy"`
	Seed            uint64 `toml:"seed"`
}

// Display configures presentation.
type Display struct {
	Scale      int    `toml:"scale"`
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
}

// Audio configures the buzzer.
type Audio struct {
	Enabled    bool    `toml:"enabled"`
	ToneHz     int     `toml:"tone_hz"`
	Volume     float64 `toml:"volume"`
	SampleRate int     `toml:"sample_rate"`
}

// Keys configures input handling.
type Keys struct {
	// LatchFrames is how long a terminal key press is held down, since
	// terminals report presses but not releases.
	LatchFrames int `toml:"latch_frames"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no file is present. The
// 500 Hz instruction rate and 60 Hz timer rate match the reference host.
func Default() Config {
	return Config{
		Emulation: Emulation{
			CyclesPerSecond: 500,
			TimerHz:         60,
		},
		Display: Display{
			Scale:      10,
			Foreground: "#33ff66",
			Background: "#101010",
		},
		Audio: Audio{
			Enabled:    true,
			ToneHz:     440,
			Volume:     0.25,
			SampleRate: 44100,
		},
		Keys: Keys{
			LatchFrames: 6,
		},
		Log: Log{
			Verbosity: 1,
		},
	}
}

// Load reads path on top of the defaults, so a file only needs the keys it
// changes. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read %s: %w", path, err)
	}
	cfg, err = Parse(data)
	if err != nil {
		return cfg, fmt.Errorf("parse error in %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// LoadOptional is Load, but a missing file yields the defaults.
func LoadOptional(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes TOML data on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks ranges and colour syntax.
func (c Config) Validate() error {
	var errs []error
	if c.Emulation.CyclesPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("emulation.cycles_per_second must be positive, got %d", c.Emulation.CyclesPerSecond))
	}
	if c.Emulation.TimerHz <= 0 {
		errs = append(errs, fmt.Errorf("emulation.timer_hz must be positive, got %d", c.Emulation.TimerHz))
	}
	if c.Display.Scale < 1 || c.Display.Scale > 64 {
		errs = append(errs, fmt.Errorf("display.scale must be between 1 and 64, got %d", c.Display.Scale))
	}
	if _, err := ParseColor(c.Display.Foreground); err != nil {
		errs = append(errs, fmt.Errorf("display.foreground: %w", err))
	}
	if _, err := ParseColor(c.Display.Background); err != nil {
		errs = append(errs, fmt.Errorf("display.background: %w", err))
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio.volume must be between 0 and 1, got %g", c.Audio.Volume))
	}
	if c.Audio.ToneHz <= 0 {
		errs = append(errs, fmt.Errorf("audio.tone_hz must be positive, got %d", c.Audio.ToneHz))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Keys.LatchFrames < 1 {
		errs = append(errs, fmt.Errorf("keys.latch_frames must be at least 1, got %d", c.Keys.LatchFrames))
	}
	return errors.Join(errs...)
}

// Colors returns the parsed foreground and background colours.
func (d Display) Colors() (on, off color.RGBA, err error) {
	if on, err = ParseColor(d.Foreground); err != nil {
		return
	}
	off, err = ParseColor(d.Background)
	return
}

// ParseColor parses "#rrggbb" (the leading # is optional).
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q, want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: byte(v >> 16), G: byte(v >> 8), B: byte(v), A: 0xFF}, nil
}
