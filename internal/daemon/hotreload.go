package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/pino/internal/config"
)

// DefaultReloadDebounce coalesces the burst of events an editor save produces.
const DefaultReloadDebounce = 150 * time.Millisecond

// ConfigWatcher reloads the config while a popup is visible. Besides the
// config file it watches the files the style is built from, such as the
// pywal palette and the user stylesheet; a change to any of them reloads
// the config so the style can be resolved again. A config that fails to
// load is reported and the last good one stays current.
//
// Directories are watched rather than files so that editors replacing the
// file by rename keep being seen.
type ConfigWatcher struct {
	logger     *slog.Logger
	configPath string
	watched    map[string]bool

	mu       sync.Mutex
	debounce time.Duration
	current  *config.Config
	onReload func(cfg *config.Config)
	onError  func(err error)
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewConfigWatcher creates a watcher for configPath and extra files.
func NewConfigWatcher(configPath string, logger *slog.Logger, extra ...string) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	watched := map[string]bool{filepath.Clean(configPath): true}
	for _, p := range extra {
		if p != "" {
			watched[filepath.Clean(p)] = true
		}
	}
	return &ConfigWatcher{
		logger:     logger,
		configPath: configPath,
		watched:    watched,
		debounce:   DefaultReloadDebounce,
	}
}

// SetDebounce sets the quiet period after the last change before reloading.
// Takes effect on the next Start.
func (w *ConfigWatcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// SetReloadCallback sets the hook for a successfully loaded config. It runs
// on the watcher goroutine.
func (w *ConfigWatcher) SetReloadCallback(fn func(cfg *config.Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// SetErrorCallback sets the hook for a config that failed to load.
func (w *ConfigWatcher) SetErrorCallback(fn func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Current returns the last config that loaded successfully.
func (w *ConfigWatcher) Current() *config.Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Start begins watching with cfg as the current config. Directories that
// do not exist are skipped. Calling Start on a running watcher does nothing.
func (w *ConfigWatcher) Start(ctx context.Context, cfg *config.Config) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	dirs := 0
	for dir := range w.dirs() {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("failed to watch directory", "dir", dir, "error", err)
			continue
		}
		dirs++
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.current = cfg
	go w.run(ctx, fsw, w.debounce, w.done)

	w.logger.Debug("config watcher started", "path", w.configPath, "dirs", dirs)
	return nil
}

// Stop stops watching and waits for the watcher goroutine. It may be
// called more than once.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *ConfigWatcher) dirs() map[string]bool {
	dirs := make(map[string]bool, len(w.watched))
	for p := range w.watched {
		dirs[filepath.Dir(p)] = true
	}
	return dirs
}

func (w *ConfigWatcher) run(ctx context.Context, fsw *fsnotify.Watcher, debounce time.Duration, done chan struct{}) {
	defer close(done)
	defer func() { _ = fsw.Close() }()

	// fire is nil while nothing is pending
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.watched[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			w.logger.Debug("watched file changed", "path", ev.Name, "op", ev.Op)
			fire = time.After(debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *ConfigWatcher) reload() {
	cfg, err := config.Load(w.configPath)

	w.mu.Lock()
	onReload, onError := w.onReload, w.onError
	if err == nil {
		w.current = cfg
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("config changed but failed to load, keeping previous", "path", w.configPath, "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}
	w.logger.Info("config reloaded", "path", w.configPath)
	if onReload != nil {
		onReload(cfg)
	}
}
