package display

import (
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/pino/internal/config"
	"github.com/jmylchreest/pino/internal/daemon"
	"github.com/jmylchreest/pino/internal/model"
	"github.com/jmylchreest/pino/internal/queue"
	"github.com/jmylchreest/pino/internal/theme"
)

// AppID is the application id registered with GTK.
const AppID = "io.github.jmylchreest.pino"

// App runs the popup inside a libadwaita application.
type App struct {
	logger    *slog.Logger
	app       *adw.Application
	stylePath string

	mu     sync.Mutex
	config *config.Config
	style  *theme.Style

	updates *queue.Queue[model.NotificationUpdate]
	state   *daemon.DisplayState

	loader *theme.Loader
	popup  *Popup
	loop   *daemon.Loop

	onUpdate func(u model.NotificationUpdate)
	onClose  func(reason daemon.CloseReason)

	running atomic.Bool
	err     error
}

// NewApp creates the application for a popup showing state and fed by
// updates. style is the resolved theme for cfg.
func NewApp(cfg *config.Config, style *theme.Style, updates *queue.Queue[model.NotificationUpdate], state *daemon.DisplayState, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		logger:  logger,
		app:     adw.NewApplication(AppID, gio.ApplicationNonUnique),
		config:  cfg,
		style:   style,
		updates: updates,
		state:   state,
	}
}

// SetStylePath sets the optional user stylesheet appended to the theme.
func (a *App) SetStylePath(path string) {
	a.stylePath = path
}

// SetUpdateCallback sets a hook run on the UI goroutine for each applied
// update.
func (a *App) SetUpdateCallback(callback func(u model.NotificationUpdate)) {
	a.onUpdate = callback
}

// SetCloseCallback sets a hook run on the UI goroutine when the popup closes.
func (a *App) SetCloseCallback(callback func(reason daemon.CloseReason)) {
	a.onClose = callback
}

// Run blocks in the GTK main loop until the popup closes or Quit is called.
// It returns the close reason, empty when the loop was quit from outside.
func (a *App) Run() (daemon.CloseReason, error) {
	a.app.ConnectActivate(a.activate)
	a.app.ConnectShutdown(func() {
		a.logger.Debug("application shutting down")
		a.running.Store(false)
	})

	// GApplication must not parse our flags.
	status := a.app.Run(os.Args[:1])

	if a.err != nil {
		return "", a.err
	}
	if status != 0 {
		return "", &DisplayError{Message: "application exited with status " + strconv.Itoa(status)}
	}
	if a.loop == nil {
		return "", nil
	}
	return a.loop.Reason(), nil
}

func (a *App) activate() {
	if a.running.Load() {
		a.logger.Warn("application already running")
		return
	}
	a.running.Store(true)

	a.mu.Lock()
	cfg, style := a.config, a.style
	a.mu.Unlock()

	a.loader = theme.NewLoader(a.stylePath, a.logger)
	if err := a.loader.Load(style); err != nil {
		a.fail(&DisplayError{Message: "failed to load stylesheet", Cause: err})
		return
	}
	a.loader.Attach()

	popup, err := NewPopup(&a.app.Application, cfg, a.logger)
	if err != nil {
		a.fail(err)
		return
	}
	a.popup = popup

	a.loop = daemon.NewLoop(a.updates, a.state, popup, daemon.RealClock{}, a.logger)
	a.loop.SetUpdateCallback(a.onUpdate)
	a.loop.SetCloseCallback(func(reason daemon.CloseReason) {
		if a.onClose != nil {
			a.onClose(reason)
		}
		a.app.Quit()
	})

	a.loop.Show()
	popup.Present()

	interval := uint(daemon.DefaultStepInterval.Milliseconds())
	glib.TimeoutAdd(interval, func() bool {
		return a.loop.Step()
	})

	a.logger.Debug("popup shown", "title", a.state.Title(), "delay", a.state.Delay())
}

// fail records err and quits. Called on the UI goroutine.
func (a *App) fail(err error) {
	a.logger.Error("failed to start popup", "error", err)
	a.err = err
	a.app.Quit()
}

// Quit stops the main loop from any goroutine. The popup is hidden first.
func (a *App) Quit() {
	glib.IdleAdd(func() {
		if a.popup != nil {
			a.popup.Hide()
		}
		a.app.Quit()
	})
}

// Reload applies a new configuration from any goroutine. The style is
// resolved first; on failure the previous style is kept.
func (a *App) Reload(cfg *config.Config, style *theme.Style) {
	glib.IdleAdd(func() {
		if !a.running.Load() || a.loader == nil {
			return
		}
		if err := a.loader.Load(style); err != nil {
			a.logger.Warn("failed to reload stylesheet, keeping previous", "error", err)
			return
		}
		a.popup.Configure(cfg)

		a.mu.Lock()
		a.config, a.style = cfg, style
		a.mu.Unlock()
		a.logger.Info("configuration reloaded")
	})
}
