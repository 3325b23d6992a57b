package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WalTemplate renders the palette file consumed by LoadPalette.
const WalTemplate = `bg = "{background}"
fg = "{foreground}"

color0  = "{color0}"
color1  = "{color1}"
color2  = "{color2}"
color3  = "{color3}"
color4  = "{color4}"
color5  = "{color5}"
color6  = "{color6}"
color7  = "{color7}"
color8  = "{color8}"
color9  = "{color9}"
color10 = "{color10}"
color11 = "{color11}"
color12 = "{color12}"
color13 = "{color13}"
color14 = "{color14}"
color15 = "{color15}"
`

// TemplateApps are the palette generators that get a template.
var TemplateApps = []string{"wal", "walrs"}

// TemplatePaths returns where each generator looks for the template.
func TemplatePaths(configDir string) []string {
	paths := make([]string, 0, len(TemplateApps))
	for _, app := range TemplateApps {
		paths = append(paths, filepath.Join(configDir, app, "templates", PaletteFile))
	}
	return paths
}

// EnsureTemplates installs WalTemplate for every generator that lacks it
// and returns the paths written. With force, existing templates are replaced.
func EnsureTemplates(configDir string, force bool) ([]string, error) {
	var written []string
	for _, path := range TemplatePaths(configDir) {
		if !force {
			if _, err := os.Stat(path); err == nil {
				continue
			} else if !errors.Is(err, os.ErrNotExist) {
				return written, err
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return written, fmt.Errorf("failed to create template directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(WalTemplate), 0644); err != nil {
			return written, fmt.Errorf("failed to write template: %w", err)
		}
		written = append(written, path)
	}
	return written, nil
}
