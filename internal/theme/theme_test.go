package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/pino/internal/config"
)

func writeCSS(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, css := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(css), 0o644))
	}
}

func TestInlineImports(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		css      string
		contains []string
		absent   []string
	}{
		{
			name:     "no imports",
			css:      `.pino-title { color: red; }`,
			contains: []string{`.pino-title { color: red; }`},
		},
		{
			name: "nested",
			files: map[string]string{
				"colors.css": `@import "base.css"; .colors {}`,
				"base.css":   `.base {}`,
			},
			css:      `@import "colors.css"; .main {}`,
			contains: []string{"/* from colors.css */", "/* from base.css */", ".base {}", ".colors {}", ".main {}"},
			absent:   []string{"@import"},
		},
		{
			name: "cycle",
			files: map[string]string{
				"a.css": `@import "b.css"; .a {}`,
				"b.css": `@import "a.css"; .b {}`,
			},
			css:      `@import "a.css";`,
			contains: []string{".a {}", ".b {}", "/* import cycle: a.css */"},
		},
		{
			name: "same file imported twice is not a cycle",
			files: map[string]string{
				"shared.css": `.shared {}`,
			},
			css:      `@import "shared.css"; @import url('shared.css');`,
			absent:   []string{"import cycle"},
			contains: []string{".shared {}"},
		},
		{
			name:     "missing",
			css:      `@import "nonexistent.css"; .after {}`,
			contains: []string{"/* import unavailable: nonexistent.css */", ".after {}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeCSS(t, dir, tt.files)

			got := inlineImports(tt.css, dir, map[string]bool{})
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestImportRule(t *testing.T) {
	tests := []struct {
		rule string
		path string
	}{
		{`@import "pino.css";`, "pino.css"},
		{`@import 'pino.css';`, "pino.css"},
		{`@import url("pino.css");`, "pino.css"},
		{`@import url('pino.css');`, "pino.css"},
		{`@import url(pino.css);`, "pino.css"},
		{`@import url( "pino.css" );`, "pino.css"},
		{`@import   "spaced.css"  ;`, "spaced.css"},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			m := importRule.FindStringSubmatch(tt.rule)
			require.Len(t, m, 3)
			assert.Equal(t, tt.path, m[1]+m[2])
		})
	}
}

func testPalette() Palette {
	return Palette{
		"bg":     "#101010",
		"fg":     "#eeeeee",
		"color1": "#aa0000",
		"color8": "#555555",
	}
}

func TestResolve_HexColors(t *testing.T) {
	cfg := config.DefaultConfig()
	s, err := Resolve(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, "#1a1e24", s.Background)
	assert.Equal(t, "#ffffff", s.Border)
	assert.Equal(t, "#c5c6c8", s.TitleColor)
	assert.Equal(t, "#626977", s.MessageColor)
	assert.Equal(t, "Fira Code", s.FontFamily)
	assert.Equal(t, 19, s.TitleSize)
	assert.Equal(t, 15, s.MessageSize)
	assert.Equal(t, 4, s.InnerRadius())
}

func TestResolve_Pywal(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pywal.Pywal = true

	s, err := Resolve(cfg, testPalette())
	require.NoError(t, err)
	assert.Equal(t, "#101010", s.Background)
	assert.Equal(t, "#aa0000", s.Border)
	assert.Equal(t, "#eeeeee", s.TitleColor)
	assert.Equal(t, "#555555", s.MessageColor)
}

func TestResolve_PywalMissingKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pywal.Pywal = true
	cfg.Pywal.TitleColor = "color12"

	_, err := Resolve(cfg, testPalette())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColor)
	assert.Contains(t, err.Error(), "color12")

	_, err = Resolve(cfg, nil)
	assert.ErrorIs(t, err, ErrMissingColor)
}

func TestGenerateCSS(t *testing.T) {
	s, err := Resolve(config.DefaultConfig(), nil)
	require.NoError(t, err)

	css := GenerateCSS(s)
	assert.Contains(t, css, ".pino-frame {\n  background-color: #ffffff;\n  border-radius: 8px;\n}")
	assert.Contains(t, css, "background-color: #1a1e24;")
	assert.Contains(t, css, "margin: 4px;")
	assert.Contains(t, css, `font-family: "Fira Code", sans-serif;`)
	assert.Contains(t, css, "font-size: 19px;")
	assert.Contains(t, css, "font-size: 15px;")
}

func TestFontFamily(t *testing.T) {
	assert.Equal(t, "sans-serif", fontFamily(""))
	assert.Equal(t, `"Fira Code", sans-serif`, fontFamily(" Fira Code "))
	evil := fontFamily(`Evil"; } * { color: red`)
	assert.NotContains(t, evil, ";")
	assert.NotContains(t, evil, "}")
	assert.Equal(t, 2, strings.Count(evil, `"`), "cannot break out of the quoted name")
}

func TestStylesheet(t *testing.T) {
	s, err := Resolve(config.DefaultConfig(), nil)
	require.NoError(t, err)

	dir := t.TempDir()
	userPath := filepath.Join(dir, "style.css")

	css, err := Stylesheet(s, userPath)
	require.NoError(t, err, "missing user stylesheet is fine")
	assert.Contains(t, css, ".pino-title")
	assert.NotContains(t, css, "/* user:")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "_extra.css"), []byte(".extra {}"), 0644))
	require.NoError(t, os.WriteFile(userPath, []byte("@import \"_extra.css\";\n.pino-title { color: red; }"), 0644))

	css, err = Stylesheet(s, userPath)
	require.NoError(t, err)
	assert.Contains(t, css, "/* from _extra.css */")
	assert.Greater(t, len(css), len(BaseCSS()))
	assert.Less(t, strings.Index(css, "#c5c6c8"), strings.Index(css, "color: red"), "user rules come last")
}

func TestBaseCSS(t *testing.T) {
	assert.Contains(t, BaseCSS(), ".pino-frame")
	assert.Contains(t, BaseCSS(), ".pino-content")
}

func TestResolveConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	configDir := t.TempDir()
	walDir := t.TempDir()

	s, err := ResolveConfig(cfg, configDir, walDir, nil)
	require.NoError(t, err)
	assert.Equal(t, "#1a1e24", s.Background)
	assert.NoFileExists(t, TemplatePaths(configDir)[0], "templates only installed for pywal")

	cfg.Pywal.Pywal = true
	_, err = ResolveConfig(cfg, configDir, walDir, nil)
	require.Error(t, err, "no palette rendered yet")
	for _, path := range TemplatePaths(configDir) {
		assert.FileExists(t, path)
	}

	require.NoError(t, os.WriteFile(filepath.Join(walDir, PaletteFile), []byte(samplePaletteTOML), 0644))
	s, err = ResolveConfig(cfg, configDir, walDir, nil)
	require.NoError(t, err)
	assert.Equal(t, "#0b0d10", s.Background)
	assert.Equal(t, "#4f6a86", s.Border)
}
