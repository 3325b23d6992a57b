package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/pino/internal/model"
	"github.com/jmylchreest/pino/internal/queue"
)

// DefaultStepInterval is how often the UI goroutine runs Step.
const DefaultStepInterval = 50 * time.Millisecond

// Surface is the window the loop draws into.
type Surface interface {
	Repaint(title, message string)
	Hide()
	// OnPointerPress registers fn to run on the UI goroutine when any
	// pointer button is pressed on the surface.
	OnPointerPress(fn func())
}

// CloseReason records why the popup closed.
type CloseReason string

const (
	CloseExpired   CloseReason = "expired"
	CloseDismissed CloseReason = "dismissed"
)

// Loop drains updates into a DisplayState and keeps a Surface in sync.
// Step and Dismiss must be called from the goroutine that owns the surface.
type Loop struct {
	logger  *slog.Logger
	updates *queue.Queue[model.NotificationUpdate]
	state   *DisplayState
	surface Surface
	clock   Clock

	onUpdate func(u model.NotificationUpdate)
	onClose  func(reason CloseReason)

	closeOnce sync.Once
	reason    CloseReason
}

// NewLoop creates a loop over an already constructed state. It registers
// Dismiss as the surface's pointer press handler.
func NewLoop(updates *queue.Queue[model.NotificationUpdate], state *DisplayState, surface Surface, clock Clock, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = RealClock{}
	}
	l := &Loop{
		logger:  logger,
		updates: updates,
		state:   state,
		surface: surface,
		clock:   clock,
	}
	surface.OnPointerPress(l.Dismiss)
	return l
}

// SetUpdateCallback sets a hook run for every applied update.
func (l *Loop) SetUpdateCallback(callback func(u model.NotificationUpdate)) {
	l.onUpdate = callback
}

// SetCloseCallback sets the hook run exactly once when the popup closes.
func (l *Loop) SetCloseCallback(callback func(reason CloseReason)) {
	l.onClose = callback
}

// State returns the display state. Callers on other goroutines must not use it.
func (l *Loop) State() *DisplayState {
	return l.state
}

// Show paints the current text.
func (l *Loop) Show() {
	l.surface.Repaint(l.state.Title(), l.state.Message())
}

// Step drains pending updates, repaints once if the text changed and checks
// the timer. It returns false once the popup has closed.
func (l *Loop) Step() bool {
	if l.state.Closed() {
		return false
	}

	now := l.clock.Now()
	redraw := false
	for _, u := range l.updates.Drain() {
		if l.state.Apply(u, now) {
			redraw = true
		}
		deadline, armed := l.state.Deadline()
		l.logger.Debug("applied update",
			"id", u.ID,
			"title", u.Title,
			"delay", u.DelaySeconds,
			"phase", l.state.Phase(),
			"armed", armed,
			"deadline", deadline,
		)
		if l.onUpdate != nil {
			l.onUpdate(u)
		}
	}

	if redraw {
		l.surface.Repaint(l.state.Title(), l.state.Message())
	}

	if l.state.Tick(now) {
		l.close(CloseExpired)
		return false
	}
	return true
}

// Dismiss closes the popup immediately.
func (l *Loop) Dismiss() {
	if l.state.Dismiss() {
		l.close(CloseDismissed)
	}
}

// Reason returns why the popup closed, or "" while it is open.
func (l *Loop) Reason() CloseReason {
	return l.reason
}

// Run calls Step on every tick of the loop's clock, and whenever updates
// arrive, until the popup closes or ctx is done. It is the driver for
// headless use; the GTK driver calls Step from a glib timeout instead.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultStepInterval
	}
	ticker := l.clock.Ticker(interval)
	defer ticker.Stop()

	if !l.Step() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
		case <-l.updates.Ready():
		}
		if !l.Step() {
			return nil
		}
	}
}

func (l *Loop) close(reason CloseReason) {
	l.closeOnce.Do(func() {
		l.reason = reason
		l.logger.Debug("popup closed", "reason", reason)
		l.surface.Hide()
		if l.onClose != nil {
			l.onClose(reason)
		}
	})
}
