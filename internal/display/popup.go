package display

import (
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/pino/internal/config"
	"github.com/jmylchreest/pino/internal/daemon"
	"github.com/jmylchreest/pino/internal/layout"
)

// Namespace is the layer-shell namespace compositors can match rules on.
const Namespace = "pino"

// Popup is the notification window. It implements daemon.Surface.
// All methods must run on the GTK main thread.
type Popup struct {
	window  *gtk.Window
	frame   *gtk.Box
	content *gtk.Box
	fixed   *gtk.Fixed
	title   *gtk.Label
	message *gtk.Label

	logger  *slog.Logger
	onPress func()
	hidden  bool
}

var _ daemon.Surface = (*Popup)(nil)

// NewPopup creates the popup window for app. The window is not shown until
// Present is called.
func NewPopup(app *gtk.Application, cfg *config.Config, logger *slog.Logger) (*Popup, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !layershell.IsSupported() {
		return nil, &DisplayError{Message: "compositor does not support wlr-layer-shell"}
	}

	p := &Popup{logger: logger}

	p.window = gtk.NewWindow()
	p.window.SetApplication(app)
	p.window.SetDecorated(false)
	p.window.SetResizable(false)
	p.window.AddCSSClass("pino-popup")

	layershell.InitForWindow(p.window)
	layershell.SetLayer(p.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(p.window, 0)
	layershell.SetKeyboardMode(p.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(p.window, Namespace)

	p.buildUI()
	p.connectSignals()
	p.Configure(cfg)

	return p, nil
}

// buildUI creates the frame, content and text widgets.
// The frame carries the border colour and the content box the background,
// inset by the border weight through the stylesheet.
func (p *Popup) buildUI() {
	p.frame = gtk.NewBox(gtk.OrientationVertical, 0)
	p.frame.AddCSSClass("pino-frame")

	p.content = gtk.NewBox(gtk.OrientationVertical, 0)
	p.content.AddCSSClass("pino-content")
	p.content.SetVExpand(true)
	p.content.SetHExpand(true)

	p.fixed = gtk.NewFixed()
	p.fixed.SetVExpand(true)
	p.fixed.SetHExpand(true)

	p.title = newTextLabel("pino-title")
	p.message = newTextLabel("pino-message")
	p.fixed.Put(p.title, 0, 0)
	p.fixed.Put(p.message, 0, 0)

	p.content.Append(p.fixed)
	p.frame.Append(p.content)
	p.window.SetChild(p.frame)
}

func newTextLabel(class string) *gtk.Label {
	lbl := gtk.NewLabel("")
	lbl.AddCSSClass(class)
	lbl.SetXAlign(0)
	lbl.SetYAlign(0)
	lbl.SetWrap(false)
	return lbl
}

// connectSignals routes a press of any pointer button to the press handler.
func (p *Popup) connectSignals() {
	click := gtk.NewGestureClick()
	click.SetButton(0)
	click.ConnectPressed(func(nPress int, x, y float64) {
		p.logger.Debug("popup pressed", "button", click.CurrentButton())
		if p.onPress != nil {
			p.onPress()
		}
	})
	p.window.AddController(click)
}

// Configure applies size, placement, monitor and text positions from cfg.
func (p *Popup) Configure(cfg *config.Config) {
	width, height := cfg.Screen.Width, cfg.Screen.Height
	p.window.SetDefaultSize(width, height)
	p.window.SetSizeRequest(width, height)

	geom := layout.Resolve(cfg.Screen.Placement, cfg.Screen.X, cfg.Screen.Y)
	if geom.Fallback {
		p.logger.Warn("unknown placement, using fallback",
			"placement", cfg.Screen.Placement,
			"x", layout.FallbackX,
			"y", layout.FallbackY,
		)
	}
	placeWindow(p.window, geom)

	if monitor := monitorAt(cfg.Screen.Monitor, p.logger); monitor != nil {
		layershell.SetMonitor(p.window, monitor)
	}

	// Text is positioned relative to the window; the fixed container sits
	// inside the border, so subtract it back out.
	border := cfg.Border.Weight
	titleAt := layout.TextOrigin(cfg.Title.X, cfg.Title.Y, border)
	messageAt := layout.TextOrigin(cfg.Message.X, cfg.Message.Y, border)
	p.fixed.Move(p.title, float64(max(0, titleAt.X-border)), float64(max(0, titleAt.Y-border)))
	p.fixed.Move(p.message, float64(max(0, messageAt.X-border)), float64(max(0, messageAt.Y-border)))
}

// Present shows the window.
func (p *Popup) Present() {
	p.hidden = false
	p.window.Present()
}

// Repaint replaces the displayed text.
func (p *Popup) Repaint(title, message string) {
	p.title.SetText(layout.RenderText(title))
	p.message.SetText(layout.RenderText(message))
}

// Hide closes the window. Calling it again does nothing.
func (p *Popup) Hide() {
	if p.hidden {
		return
	}
	p.hidden = true
	p.window.SetVisible(false)
	p.window.Close()
}

// OnPointerPress registers the press handler.
func (p *Popup) OnPointerPress(fn func()) {
	p.onPress = fn
}
