// Package config reads the interpreter settings from a TOML file.
//
// Every field has a default, so an empty file (or no file at all) is a
// valid configuration. Command line flags are applied on top of the result
// by the caller.
package config

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mpingram/chip8/cpu"
	"github.com/mpingram/chip8/translate"
)

var f = translate.From

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New(f("invalid configuration"))

// Config holds every setting of the interpreter.
type Config struct {
	// Rate is the number of instructions executed per second.
	Rate int `toml:"rate"`

	// TimerRate is how many times per second the delay and sound timers
	// are decremented.
	TimerRate int `toml:"timer_rate"`

	// Scale is the size in window pixels of one Chip-8 pixel.
	Scale int `toml:"scale"`

	// Seed for the random number generator. Zero picks one from the clock.
	Seed int64 `toml:"seed"`

	Quirks Quirks `toml:"quirks"`
	Sound  Sound  `toml:"sound"`
	Colors Colors `toml:"colors"`

	// Keys maps keyboard key names to keypad values.
	Keys map[string]int `toml:"keys"`
}

type Quirks struct {
	StoreLoad bool `toml:"store_load"`
	ShiftY    bool `toml:"shift_y"`
}

type Sound struct {
	// ToneHz is the pitch of the generated beep.
	ToneHz float64 `toml:"tone_hz"`
	// Volume from 0 (silent) to 1.
	Volume     float64 `toml:"volume"`
	SampleRate int     `toml:"sample_rate"`
	// WAV names a file to play instead of the generated tone.
	WAV string `toml:"wav"`
	// Record names a WAV file that receives everything the speaker plays.
	Record string `toml:"record"`
}

// Colors are "#rrggbb" strings.
type Colors struct {
	On  string `toml:"on"`
	Off string `toml:"off"`
}

// Default returns the stock configuration: 540 instructions a second, 60hz
// timers and the COSMAC VIP keypad laid over the left of a QWERTY keyboard.
//
//	1 2 3 C        1 2 3 4
//	4 5 6 D   ->   Q W E R
//	7 8 9 E        A S D F
//	A 0 B F        Z X C V
func Default() Config {
	return Config{
		Rate:      540,
		TimerRate: 60,
		Scale:     10,
		Sound: Sound{
			ToneHz:     440,
			Volume:     0.25,
			SampleRate: 44100,
		},
		Colors: Colors{
			On:  "#ffffff",
			Off: "#000000",
		},
		Keys: DefaultKeys(),
	}
}

// DefaultKeys returns the COSMAC VIP layout.
func DefaultKeys() map[string]int {
	return map[string]int{
		"1": 0x1, "2": 0x2, "3": 0x3, "4": 0xc,
		"Q": 0x4, "W": 0x5, "E": 0x6, "R": 0xd,
		"A": 0x7, "S": 0x8, "D": 0x9, "F": 0xe,
		"Z": 0xa, "X": 0x0, "C": 0xb, "V": 0xf,
	}
}

// Load reads the configuration file at path. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes a TOML document over the defaults and validates the result.
// A [keys] table replaces the default layout rather than adding to it.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	cfg.Keys = nil

	meta, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fieldError("unknown setting %q", undecoded[0].String())
	}

	if cfg.Keys == nil {
		cfg.Keys = DefaultKeys()
	}
	normalized := make(map[string]int, len(cfg.Keys))
	for name, index := range cfg.Keys {
		normalized[strings.ToUpper(name)] = index
	}
	cfg.Keys = normalized

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that is out of range.
func (cfg Config) Validate() error {
	switch {
	case cfg.Rate <= 0:
		return fieldError("rate must be positive, not %s", strconv.Itoa(cfg.Rate))
	case cfg.TimerRate <= 0:
		return fieldError("timer_rate must be positive, not %s", strconv.Itoa(cfg.TimerRate))
	case cfg.Scale <= 0:
		return fieldError("scale must be positive, not %s", strconv.Itoa(cfg.Scale))
	case cfg.Sound.ToneHz <= 0:
		return fieldError("sound.tone_hz must be positive, not %s", plain(cfg.Sound.ToneHz))
	case cfg.Sound.Volume < 0 || cfg.Sound.Volume > 1:
		return fieldError("sound.volume must be between 0 and 1, not %s", plain(cfg.Sound.Volume))
	case cfg.Sound.SampleRate <= 0:
		return fieldError("sound.sample_rate must be positive, not %s", strconv.Itoa(cfg.Sound.SampleRate))
	}

	if _, err := ParseColor(cfg.Colors.On); err != nil {
		return err
	}
	if _, err := ParseColor(cfg.Colors.Off); err != nil {
		return err
	}

	for name, index := range cfg.Keys {
		if name == "" {
			return fieldError("keys: empty key name")
		}
		if index < 0 || index > 0xf {
			return fieldError("keys.%v: keypad value 0x%x out of range", name, index)
		}
	}
	return nil
}

// CPU returns the quirks in the form the interpreter takes them.
func (q Quirks) CPU() cpu.Quirks {
	return cpu.Quirks{
		StoreLoad: q.StoreLoad,
		ShiftY:    q.ShiftY,
	}
}

// RGB returns the on and off colors as red, green, blue in [0, 1].
func (c Colors) RGB() (on, off [3]float32, err error) {
	if on, err = ParseColor(c.On); err != nil {
		return
	}
	off, err = ParseColor(c.Off)
	return
}

// ParseColor parses "#rrggbb" (the # is optional) into red, green and blue
// components in [0, 1].
func ParseColor(s string) ([3]float32, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return [3]float32{}, fieldError("color %q is not #rrggbb", s)
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return [3]float32{}, fieldError("color %q is not #rrggbb", s)
	}
	return [3]float32{
		float32(value>>16&0xff) / 255,
		float32(value>>8&0xff) / 255,
		float32(value&0xff) / 255,
	}, nil
}

// FieldError describes a setting that failed validation.
type FieldError struct {
	Msg string
}

func fieldError(format string, args ...any) error {
	return &FieldError{Msg: f(format, args...)}
}

// plain formats a number without locale grouping or separators.
func plain(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func (err *FieldError) Error() string {
	return f("%v: %v", ErrInvalid, err.Msg)
}

func (err *FieldError) Unwrap() error {
	return ErrInvalid
}
