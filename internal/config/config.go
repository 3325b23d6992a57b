// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid marks a configuration that parsed but failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Transport names accepted by behavior.transport.
const (
	TransportSocket = "socket"
	TransportFile   = "file"
)

// Config is the pino configuration.
// Loaded from ~/.config/pino/config.toml
type Config struct {
	Screen   ScreenConfig   `toml:"screen"`
	Frame    FrameConfig    `toml:"frame"`
	Border   BorderConfig   `toml:"border"`
	Title    TextConfig     `toml:"title"`
	Message  TextConfig     `toml:"message"`
	Pywal    PywalConfig    `toml:"pywal"`
	Behavior BehaviorConfig `toml:"behavior"`
	Sound    SoundConfig    `toml:"sound"`
}

// ScreenConfig places and sizes the popup.
type ScreenConfig struct {
	Monitor   int    `toml:"monitor"`   // Monitor index
	Placement string `toml:"placement"` // "top_right", "bottom_center", ...
	X         int    `toml:"x"`         // Horizontal margin from the anchored edge
	Y         int    `toml:"y"`         // Vertical margin from the anchored edge
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Delay     uint64 `toml:"delay"` // Seconds before closing, 0 = until clicked
}

// FrameConfig is the popup background and font.
type FrameConfig struct {
	FgColor    string `toml:"fg_color"`
	FontFamily string `toml:"font_family"`
}

// BorderConfig draws the frame around the popup.
type BorderConfig struct {
	Weight int    `toml:"weight"`
	Color  string `toml:"color"`
	Radius int    `toml:"radius"`
}

// TextConfig positions one line of text inside the frame.
type TextConfig struct {
	Color    string `toml:"color"`
	FontSize int    `toml:"font_size"`
	X        int    `toml:"x"`
	Y        int    `toml:"y"`
}

// PywalConfig takes colours from the current pywal palette instead of the
// hex values above. Each field names a palette key: bg, fg or color0..color15.
type PywalConfig struct {
	Pywal           bool   `toml:"pywal"`
	BackgroundColor string `toml:"background_color"`
	BorderColor     string `toml:"border_color"`
	TitleColor      string `toml:"title_color"`
	MessageColor    string `toml:"message_color"`
}

// BehaviorConfig contains behavior settings.
type BehaviorConfig struct {
	Transport     string `toml:"transport"`       // "socket" or "file"
	RearmOnUpdate bool   `toml:"rearm_on_update"` // Restart the timer even when the delay is unchanged
}

// SoundConfig plays a sound when the popup appears or updates.
type SoundConfig struct {
	Enabled bool   `toml:"enabled"`
	File    string `toml:"file"`
	Volume  int    `toml:"volume"` // 0-100
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Screen: ScreenConfig{
			Monitor:   0,
			Placement: "top_right",
			X:         25,
			Y:         55,
			Width:     300,
			Height:    100,
			Delay:     5,
		},
		Frame: FrameConfig{
			FgColor:    "#1a1e24",
			FontFamily: "Fira Code",
		},
		Border: BorderConfig{
			Weight: 4,
			Color:  "#ffffff",
			Radius: 8,
		},
		Title: TextConfig{
			Color:    "#c5c6c8",
			FontSize: 19,
			X:        4,
			Y:        10,
		},
		Message: TextConfig{
			Color:    "#626977",
			FontSize: 15,
			X:        10,
			Y:        45,
		},
		Pywal: PywalConfig{
			Pywal:           false,
			BackgroundColor: "bg",
			BorderColor:     "color1",
			TitleColor:      "fg",
			MessageColor:    "color8",
		},
		Behavior: BehaviorConfig{
			Transport:     TransportSocket,
			RearmOnUpdate: false,
		},
		Sound: SoundConfig{
			Enabled: false,
			File:    "",
			Volume:  80,
		},
	}
}

// Dir returns the pino config directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "pino"), nil
}

// Path returns the path to the default config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StylePath returns the optional user stylesheet appended to the theme.
func StylePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "style.css"), nil
}

// Load reads the config at path over the defaults and validates it.
// A missing file is an error; use EnsureTemplate first for the default path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// IsHexColor reports whether s is #rgb, #rrggbb or #rrggbbaa.
func IsHexColor(s string) bool {
	return hexColor.MatchString(s)
}

// IsPaletteKey reports whether s names a pywal palette entry.
func IsPaletteKey(s string) bool {
	return s == "bg" || s == "fg" || paletteIndex.MatchString(s)
}

var paletteIndex = regexp.MustCompile(`^color([0-9]|1[0-5])$`)

type field struct {
	name  string
	value string
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("%w: screen size must be positive, got %dx%d", ErrInvalid, c.Screen.Width, c.Screen.Height)
	}
	if c.Screen.Monitor < 0 {
		return fmt.Errorf("%w: monitor must not be negative, got %d", ErrInvalid, c.Screen.Monitor)
	}
	if c.Border.Weight < 0 {
		return fmt.Errorf("%w: border weight must not be negative, got %d", ErrInvalid, c.Border.Weight)
	}
	if c.Border.Radius < 0 {
		return fmt.Errorf("%w: border radius must not be negative, got %d", ErrInvalid, c.Border.Radius)
	}
	if c.Title.FontSize <= 0 {
		return fmt.Errorf("%w: title font_size must be positive, got %d", ErrInvalid, c.Title.FontSize)
	}
	if c.Message.FontSize <= 0 {
		return fmt.Errorf("%w: message font_size must be positive, got %d", ErrInvalid, c.Message.FontSize)
	}

	if c.Pywal.Pywal {
		for _, f := range []field{
			{"pywal.background_color", c.Pywal.BackgroundColor},
			{"pywal.border_color", c.Pywal.BorderColor},
			{"pywal.title_color", c.Pywal.TitleColor},
			{"pywal.message_color", c.Pywal.MessageColor},
		} {
			if !IsPaletteKey(f.value) {
				return fmt.Errorf("%w: %s %q must be bg, fg or color0..color15", ErrInvalid, f.name, f.value)
			}
		}
	} else {
		for _, f := range []field{
			{"frame.fg_color", c.Frame.FgColor},
			{"border.color", c.Border.Color},
			{"title.color", c.Title.Color},
			{"message.color", c.Message.Color},
		} {
			if !IsHexColor(f.value) {
				return fmt.Errorf("%w: %s %q is not a hex colour", ErrInvalid, f.name, f.value)
			}
		}
	}

	switch c.Behavior.Transport {
	case TransportSocket, TransportFile:
	default:
		return fmt.Errorf("%w: transport %q, must be one of: %s, %s", ErrInvalid, c.Behavior.Transport, TransportSocket, TransportFile)
	}

	if c.Sound.Volume < 0 || c.Sound.Volume > 100 {
		return fmt.Errorf("%w: volume must be between 0 and 100, got %d", ErrInvalid, c.Sound.Volume)
	}

	return nil
}

// SoundPath returns the sound file with ~ expanded.
func (c *Config) SoundPath() string {
	return ExpandPath(c.Sound.File)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// writeFile writes data atomically via a temp file in the same directory.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}
