package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"golang.org/x/time/rate"
)

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	NotificationLevelInfo NotificationLevel = iota
	NotificationLevelWarning
	NotificationLevelError
)

// String returns the string representation of NotificationLevel.
func (l NotificationLevel) String() string {
	switch l {
	case NotificationLevelInfo:
		return "info"
	case NotificationLevelWarning:
		return "warning"
	case NotificationLevelError:
		return "error"
	default:
		return "unknown"
	}
}

// NotifyHandler delivers an internal notification to the desktop.
type NotifyHandler func(summary, body string, level NotificationLevel) error

// InternalNotifier surfaces pino's own problems (bad config, unreadable
// palette, audio failures) as desktop notifications. Each key is rate
// limited so a flapping config file cannot flood the desktop.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	handler     NotifyHandler
	limiters    map[string]*rate.Limiter
	minInterval time.Duration
}

// NewInternalNotifier creates a notifier that sends through beeep.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:      logger,
		handler:     BeeepHandler,
		limiters:    make(map[string]*rate.Limiter),
		minInterval: 5 * time.Second,
	}
}

// BeeepHandler sends through the desktop's notification service. Errors
// use beeep.Alert, which also plays the system alert sound.
func BeeepHandler(summary, body string, level NotificationLevel) error {
	beeep.AppName = "pino"
	if level == NotificationLevelError {
		return beeep.Alert(summary, body, "")
	}
	return beeep.Notify(summary, body, "")
}

// SetNotifyHandler replaces the delivery function.
func (n *InternalNotifier) SetNotifyHandler(handler NotifyHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handler = handler
}

// SetMinInterval sets the minimum interval between notifications sharing a key.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
	n.limiters = make(map[string]*rate.Limiter)
}

// Notify sends a notification unless one with the same key was sent within
// the minimum interval. It reports whether the notification was sent.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.handler == nil {
		return false
	}

	limiter, ok := n.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(n.minInterval), 1)
		n.limiters[key] = limiter
	}
	if !limiter.Allow() {
		n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
		return false
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)
	if err := n.handler(summary, body, level); err != nil {
		n.logger.Warn("failed to send internal notification", "key", key, "error", err)
		return false
	}
	return true
}

// NotifyConfigError reports a config that failed to load or validate.
func (n *InternalNotifier) NotifyConfigError(err error) bool {
	return n.Notify("config-error", "pino: configuration error", err.Error(), NotificationLevelError)
}

// NotifyConfigReloaded reports a successful hot reload.
func (n *InternalNotifier) NotifyConfigReloaded(path string) bool {
	return n.Notify("config-reload", "pino: configuration reloaded", path, NotificationLevelInfo)
}

// NotifyThemeError reports a palette or stylesheet that could not be applied.
func (n *InternalNotifier) NotifyThemeError(err error) bool {
	return n.Notify("theme-error", "pino: theme error", err.Error(), NotificationLevelWarning)
}

// NotifyAudioError reports a sound that could not be played.
func (n *InternalNotifier) NotifyAudioError(err error) bool {
	return n.Notify("audio-error", "pino: audio error", err.Error(), NotificationLevelWarning)
}
