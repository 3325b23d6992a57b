package theme

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// importRule matches @import "f.css", @import 'f.css' and @import url(f.css)
// forms; the quoted or bare path is the first group.
var importRule = regexp.MustCompile(`@import\s+(?:url\(\s*["']?([^"')\s]+)["']?\s*\)|["']([^"']+)["'])\s*;?`)

// Stylesheet joins the base stylesheet, the rules generated from s and the
// user's stylesheet at userPath, if it exists. Later rules win.
func Stylesheet(s *Style, userPath string) (string, error) {
	var b strings.Builder
	b.WriteString(BaseCSS())
	b.WriteString("\n")
	b.WriteString(GenerateCSS(s))

	if userPath == "" {
		return b.String(), nil
	}
	user, err := os.ReadFile(userPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return b.String(), nil
		}
		return "", err
	}

	b.WriteString("\n/* user: " + userPath + " */\n")
	b.WriteString(inlineImports(string(user), filepath.Dir(userPath), map[string]bool{filepath.Clean(userPath): true}))
	return b.String(), nil
}

// inlineImports replaces each @import in css with the imported file, read
// relative to dir. A file already inlined on the current chain is replaced
// by a comment instead, which ends import cycles. Unreadable files leave a
// comment too so the rest of the stylesheet still loads.
func inlineImports(css, dir string, chain map[string]bool) string {
	return importRule.ReplaceAllStringFunc(css, func(rule string) string {
		m := importRule.FindStringSubmatch(rule)
		name := m[1] + m[2]
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if chain[path] {
			return "/* import cycle: " + name + " */"
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "/* import unavailable: " + name + " */"
		}

		chain[path] = true
		defer delete(chain, path)
		return "/* from " + name + " */\n" + inlineImports(string(data), filepath.Dir(path), chain)
	})
}
