package layout

import "strings"

// EscapedNewline is the two-character sequence rendered as a line break.
const EscapedNewline = `\n`

// textInset is the gap between the inner frame edge and the text.
const textInset = 4

// SplitLines splits s on the escaped newline sequence.
func SplitLines(s string) []string {
	return strings.Split(s, EscapedNewline)
}

// RenderText turns escaped newlines into real ones for display.
func RenderText(s string) string {
	return strings.Join(SplitLines(s), "\n")
}

// Point is a position inside the popup, in pixels from its top left corner.
type Point struct {
	X int
	Y int
}

// TextOrigin returns where a text block configured at (x, y) is placed
// inside a frame with the given border weight. Y is clamped at zero.
func TextOrigin(x, y, border int) Point {
	return Point{
		X: x + border + textInset,
		Y: max(0, y+border-textInset),
	}
}

// Inner returns the size left for content inside the border.
func Inner(width, height, border int) (int, int) {
	return max(0, width-2*border), max(0, height-2*border)
}
