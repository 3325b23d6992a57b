// Package layout computes where the popup sits on screen and where its text
// sits inside the popup. It has no toolkit dependencies.
package layout

import "strings"

// Placement names a screen corner or edge centre.
type Placement string

const (
	TopLeft      Placement = "top_left"
	TopCenter    Placement = "top_center"
	TopRight     Placement = "top_right"
	BottomLeft   Placement = "bottom_left"
	BottomCenter Placement = "bottom_center"
	BottomRight  Placement = "bottom_right"
)

// Fallback margins used when the placement is not recognised.
const (
	FallbackX = 20
	FallbackY = 30
)

// ValidPlacements returns all recognised placements.
func ValidPlacements() []Placement {
	return []Placement{TopLeft, TopCenter, TopRight, BottomLeft, BottomCenter, BottomRight}
}

// ParsePlacement normalises s ("Top-Right" and "top_right" are the same).
// ok is false when s names no known placement.
func ParsePlacement(s string) (Placement, bool) {
	p := Placement(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, valid := range ValidPlacements() {
		if p == valid {
			return p, true
		}
	}
	return "", false
}

// Edges records which screen edges the popup is anchored to. An axis with
// neither edge set is centred by the compositor.
type Edges struct {
	Top    bool
	Bottom bool
	Left   bool
	Right  bool
}

// Margins are distances from the anchored edges, in pixels.
type Margins struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

// Geometry is the layer-shell anchoring for a placement.
type Geometry struct {
	Placement Placement
	Anchors   Edges
	Margins   Margins
	// Fallback is set when the requested placement was not recognised.
	Fallback bool
}

// Resolve maps a configured placement and offsets to anchors and margins.
// x is the distance from the left or right edge, y from the top or bottom.
// Centred placements ignore x. Unknown placements pin the popup at
// (FallbackX, FallbackY) from the top left.
func Resolve(placement string, x, y int) Geometry {
	p, ok := ParsePlacement(placement)
	if !ok {
		return Geometry{
			Placement: TopLeft,
			Anchors:   Edges{Top: true, Left: true},
			Margins:   Margins{Top: FallbackY, Left: FallbackX},
			Fallback:  true,
		}
	}

	g := Geometry{Placement: p}
	switch p {
	case TopLeft, TopCenter, TopRight:
		g.Anchors.Top = true
		g.Margins.Top = y
	default:
		g.Anchors.Bottom = true
		g.Margins.Bottom = y
	}
	switch p {
	case TopLeft, BottomLeft:
		g.Anchors.Left = true
		g.Margins.Left = x
	case TopRight, BottomRight:
		g.Anchors.Right = true
		g.Margins.Right = x
	}
	return g
}
