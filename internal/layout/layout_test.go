package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlacement(t *testing.T) {
	tests := []struct {
		in     string
		want   Placement
		wantOK bool
	}{
		{"top_right", TopRight, true},
		{"top-right", TopRight, true},
		{" Bottom-Center ", BottomCenter, true},
		{"bottom_left", BottomLeft, true},
		{"", "", false},
		{"middle", "", false},
		{"top", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePlacement(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		placement string
		anchors   Edges
		margins   Margins
		fallback  bool
	}{
		{"top_left", Edges{Top: true, Left: true}, Margins{Top: 55, Left: 25}, false},
		{"top_center", Edges{Top: true}, Margins{Top: 55}, false},
		{"top_right", Edges{Top: true, Right: true}, Margins{Top: 55, Right: 25}, false},
		{"bottom_left", Edges{Bottom: true, Left: true}, Margins{Bottom: 55, Left: 25}, false},
		{"bottom_center", Edges{Bottom: true}, Margins{Bottom: 55}, false},
		{"bottom-right", Edges{Bottom: true, Right: true}, Margins{Bottom: 55, Right: 25}, false},
		{"somewhere", Edges{Top: true, Left: true}, Margins{Top: FallbackY, Left: FallbackX}, true},
		{"", Edges{Top: true, Left: true}, Margins{Top: FallbackY, Left: FallbackX}, true},
	}

	for _, tt := range tests {
		t.Run(tt.placement, func(t *testing.T) {
			g := Resolve(tt.placement, 25, 55)
			assert.Equal(t, tt.anchors, g.Anchors)
			assert.Equal(t, tt.margins, g.Margins)
			assert.Equal(t, tt.fallback, g.Fallback)
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"one"}, SplitLines("one"))
	assert.Equal(t, []string{"one", "two"}, SplitLines(`one\ntwo`))
	assert.Equal(t, []string{"", ""}, SplitLines(`\n`))
	assert.Equal(t, "one\ntwo\nthree", RenderText(`one\ntwo\nthree`))
	assert.Equal(t, "real\nbreak", RenderText("real\nbreak"), "real newlines pass through")
}

func TestTextOrigin(t *testing.T) {
	assert.Equal(t, Point{X: 12, Y: 10}, TextOrigin(4, 10, 4))
	assert.Equal(t, Point{X: 18, Y: 45}, TextOrigin(10, 45, 4))
	assert.Equal(t, Point{X: 4, Y: 0}, TextOrigin(0, 0, 0), "clamped at the top")
}

func TestInner(t *testing.T) {
	w, h := Inner(300, 100, 4)
	assert.Equal(t, 292, w)
	assert.Equal(t, 92, h)

	w, h = Inner(6, 6, 4)
	assert.Equal(t, 0, w)
	assert.Equal(t, 0, h)
}
