package theme

import (
	_ "embed"
)

//go:embed themes/base.css
var baseCSS string

// BaseCSS returns the stylesheet applied under the generated rules.
func BaseCSS() string {
	return baseCSS
}
