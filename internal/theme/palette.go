package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
)

// ErrMissingColor means a palette key referenced by the config is absent.
var ErrMissingColor = errors.New("palette color not found")

// PaletteFile is the pywal output rendered from the colors-pino.toml template.
const PaletteFile = "colors-pino.toml"

// Palette maps pywal keys (bg, fg, color0..color15) to hex colours.
type Palette map[string]string

// Lookup returns the colour for key.
func (p Palette) Lookup(key string) (string, error) {
	c, ok := p[key]
	if !ok || c == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingColor, key)
	}
	return c, nil
}

// WalCacheDir returns ~/.cache/wal.
func WalCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "wal"), nil
}

// PalettePath returns the rendered palette used by pino.
func PalettePath() (string, error) {
	dir, err := WalCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PaletteFile), nil
}

// LoadPalette reads the pino palette from dir, falling back to pywal's own
// colors.json when the template has not been rendered yet.
func LoadPalette(dir string) (Palette, error) {
	data, err := os.ReadFile(filepath.Join(dir, PaletteFile))
	if err == nil {
		return ParsePaletteTOML(data)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read palette: %w", err)
	}

	data, jsonErr := os.ReadFile(filepath.Join(dir, "colors.json"))
	if jsonErr != nil {
		return nil, fmt.Errorf("no pywal palette in %s: %w", dir, err)
	}
	return ParsePaletteJSON(data)
}

// ParsePaletteTOML parses the rendered colors-pino.toml.
func ParsePaletteTOML(data []byte) (Palette, error) {
	p := Palette{}
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse palette: %w", err)
	}
	return p, nil
}

// ParsePaletteJSON extracts the palette from pywal's colors.json.
func ParsePaletteJSON(data []byte) (Palette, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("failed to parse palette: invalid colors.json")
	}
	doc := gjson.ParseBytes(data)

	p := Palette{}
	if v := doc.Get("special.background"); v.Exists() {
		p["bg"] = v.String()
	}
	if v := doc.Get("special.foreground"); v.Exists() {
		p["fg"] = v.String()
	}
	for i := range 16 {
		key := "color" + strconv.Itoa(i)
		if v := doc.Get("colors." + key); v.Exists() {
			p[key] = v.String()
		}
	}
	return p, nil
}
