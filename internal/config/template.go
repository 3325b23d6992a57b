package config

import (
	"errors"
	"fmt"
	"os"
)

// Template is written to the default path on first run. Parsing it yields
// DefaultConfig.
const Template = `[screen]
monitor = 0 # Monitor index

# top_left | top_center | top_right | bottom_left | bottom_center | bottom_right
placement = "top_right"
x = 25 # Margin from the left or right edge
y = 55 # Margin from the top or bottom edge

width = 300
height = 100

delay = 5 # Seconds to show the popup, 0 keeps it until clicked

[frame]
fg_color = "#1a1e24"

# Run "pino fonts" to list the available fonts
font_family = "Fira Code"

[border]
weight = 4
color = "#ffffff"
radius = 8

[title]
color = "#c5c6c8"
font_size = 19
x = 4
y = 10

[message]
color = "#626977"
font_size = 15
x = 10
y = 45

[pywal]
pywal = false

# Pick colors from color0..color15 or use "bg" and "fg"
# See ~/.cache/wal/colors-pino.toml
background_color = "bg"
border_color = "color1"
title_color = "fg"
message_color = "color8"

[behavior]
transport = "socket" # socket | file
rearm_on_update = false

[sound]
enabled = false
file = ""
volume = 80
`

// EnsureTemplate writes Template to path unless a file already exists there.
// It reports whether the file was created.
func EnsureTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := writeFile(path, []byte(Template)); err != nil {
		return false, err
	}
	return true, nil
}

// WriteTemplate writes Template to path. An existing file is only replaced
// when force is set.
func WriteTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists, use --force to overwrite", path)
		}
	}
	return writeFile(path, []byte(Template))
}
