package theme

import (
	"log/slog"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader keeps the popup's stylesheet in a single CSS provider, so a reload
// restyles the visible window in place. Its methods must run on the GTK
// main thread.
type Loader struct {
	logger   *slog.Logger
	userPath string
	provider *gtk.CSSProvider
	attached bool
}

// NewLoader creates a loader that appends the user stylesheet at userPath,
// if it exists, to every generated stylesheet.
func NewLoader(userPath string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, userPath: userPath, provider: gtk.NewCSSProvider()}
}

// Load regenerates the stylesheet for style. On error the provider keeps
// the previous stylesheet.
func (l *Loader) Load(style *Style) error {
	css, err := Stylesheet(style, l.userPath)
	if err != nil {
		return err
	}
	l.provider.LoadFromString(css)
	l.logger.Debug("stylesheet loaded", "bytes", len(css), "user", l.userPath)
	return nil
}

// Attach installs the provider on the default display at application
// priority. Later calls do nothing.
func (l *Loader) Attach() {
	if l.attached {
		return
	}
	display := gdk.DisplayGetDefault()
	if display == nil {
		l.logger.Warn("no display, stylesheet not applied")
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
	l.attached = true
}
