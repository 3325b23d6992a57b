package display

import (
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/pino/internal/layout"
)

// placeWindow anchors window to the edges in geom, offset by its margins.
// Every edge is set so a reload can move the popup to another corner.
func placeWindow(window *gtk.Window, geom layout.Geometry) {
	edges := []struct {
		edge     layershell.LayerShellEdge
		anchored bool
		margin   int
	}{
		{layershell.LayerShellEdgeTop, geom.Anchors.Top, geom.Margins.Top},
		{layershell.LayerShellEdgeBottom, geom.Anchors.Bottom, geom.Margins.Bottom},
		{layershell.LayerShellEdgeLeft, geom.Anchors.Left, geom.Margins.Left},
		{layershell.LayerShellEdgeRight, geom.Anchors.Right, geom.Margins.Right},
	}
	for _, e := range edges {
		layershell.SetAnchor(window, e.edge, e.anchored)
		layershell.SetMargin(window, e.edge, e.margin)
	}
}

// monitorAt returns the monitor at index in the display's monitor list, or
// nil to let the compositor choose.
func monitorAt(index int, logger *slog.Logger) *gdk.Monitor {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return nil
	}
	monitors := display.Monitors()
	count := monitors.NItems()
	if index < 0 || uint(index) >= count {
		logger.Warn("configured monitor not available, using compositor default",
			"monitor", index, "available", count)
		return nil
	}
	obj := monitors.Item(uint(index))
	if obj == nil {
		return nil
	}
	monitor, ok := obj.Cast().(*gdk.Monitor)
	if !ok {
		logger.Warn("monitor list returned an unexpected object", "monitor", index)
		return nil
	}
	return monitor
}
