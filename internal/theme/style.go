package theme

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmylchreest/pino/internal/config"
)

// Style is everything the stylesheet needs, with colours already resolved.
type Style struct {
	Background   string
	Border       string
	TitleColor   string
	MessageColor string

	FontFamily  string
	TitleSize   int
	MessageSize int

	BorderWeight int
	BorderRadius int
}

// Resolve builds the style from cfg. When pywal is enabled each colour is
// looked up in palette; a missing key is an error.
func Resolve(cfg *config.Config, palette Palette) (*Style, error) {
	s := &Style{
		Background:   cfg.Frame.FgColor,
		Border:       cfg.Border.Color,
		TitleColor:   cfg.Title.Color,
		MessageColor: cfg.Message.Color,
		FontFamily:   cfg.Frame.FontFamily,
		TitleSize:    cfg.Title.FontSize,
		MessageSize:  cfg.Message.FontSize,
		BorderWeight: cfg.Border.Weight,
		BorderRadius: cfg.Border.Radius,
	}
	if !cfg.Pywal.Pywal {
		return s, nil
	}

	var err error
	for _, c := range []struct {
		dst *string
		key string
	}{
		{&s.Background, cfg.Pywal.BackgroundColor},
		{&s.Border, cfg.Pywal.BorderColor},
		{&s.TitleColor, cfg.Pywal.TitleColor},
		{&s.MessageColor, cfg.Pywal.MessageColor},
	} {
		if *c.dst, err = palette.Lookup(c.key); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// InnerRadius is the corner radius of the content box inside the border.
func (s *Style) InnerRadius() int {
	return max(0, s.BorderRadius-s.BorderWeight)
}

// GenerateCSS renders the rules for the popup's widgets.
func GenerateCSS(s *Style) string {
	var b strings.Builder

	fmt.Fprintf(&b, ".pino-frame {\n  background-color: %s;\n  border-radius: %dpx;\n}\n\n",
		s.Border, s.BorderRadius)

	fmt.Fprintf(&b, ".pino-content {\n  background-color: %s;\n  border-radius: %dpx;\n  margin: %dpx;\n}\n\n",
		s.Background, s.InnerRadius(), s.BorderWeight)

	family := fontFamily(s.FontFamily)
	fmt.Fprintf(&b, ".pino-title {\n  color: %s;\n  font-family: %s;\n  font-size: %dpx;\n}\n\n",
		s.TitleColor, family, s.TitleSize)
	fmt.Fprintf(&b, ".pino-message {\n  color: %s;\n  font-family: %s;\n  font-size: %dpx;\n}\n",
		s.MessageColor, family, s.MessageSize)

	return b.String()
}

func fontFamily(name string) string {
	name = strings.NewReplacer(`"`, "", `\`, "", ";", "", "}", "").Replace(strings.TrimSpace(name))
	if name == "" {
		return "sans-serif"
	}
	return `"` + name + `", sans-serif`
}

// ResolveConfig resolves cfg against the palette in walDir when pywal is
// enabled. Missing pywal templates are installed under configDir so the
// next palette generation renders one.
func ResolveConfig(cfg *config.Config, configDir, walDir string, logger *slog.Logger) (*Style, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Pywal.Pywal {
		return Resolve(cfg, nil)
	}

	if configDir != "" {
		written, err := EnsureTemplates(configDir, false)
		if err != nil {
			logger.Warn("failed to install pywal templates", "error", err)
		}
		for _, path := range written {
			logger.Info("installed pywal template", "path", path)
		}
	}

	palette, err := LoadPalette(walDir)
	if err != nil {
		return nil, err
	}
	return Resolve(cfg, palette)
}
