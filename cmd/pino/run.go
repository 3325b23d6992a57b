package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/pino/internal/audio"
	"github.com/jmylchreest/pino/internal/config"
	"github.com/jmylchreest/pino/internal/daemon"
	"github.com/jmylchreest/pino/internal/display"
	"github.com/jmylchreest/pino/internal/model"
	"github.com/jmylchreest/pino/internal/queue"
	"github.com/jmylchreest/pino/internal/session"
	"github.com/jmylchreest/pino/internal/theme"
	"github.com/jmylchreest/pino/internal/transport"
)

// loadedConfig is a validated config and where it came from.
type loadedConfig struct {
	*config.Config
	path    string
	created bool
}

// loadConfig reads the config named by -c, or the default config. A
// missing default config is created from the template first; a missing
// explicit path is an error.
func loadConfig(path string) (*loadedConfig, error) {
	if path != "" {
		cfg, err := config.Load(config.ExpandPath(path))
		if err != nil {
			return nil, err
		}
		return &loadedConfig{Config: cfg, path: path}, nil
	}

	path, err := config.Path()
	if err != nil {
		return nil, err
	}
	created, err := config.EnsureTemplate(path)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &loadedConfig{Config: cfg, path: path, created: created}, nil
}

// buildUpdate turns the command line into the update to show. An unset
// delay falls back to the configured one.
func buildUpdate(cmd *cobra.Command, opts *rootOptions, cfg *config.Config) model.NotificationUpdate {
	delay := cfg.Screen.Delay
	if cmd.Flags().Changed("delay") {
		delay = opts.delay
	}
	return model.NewUpdate(opts.title, opts.message, delay).WithDefaults()
}

// transportKind picks the --transport flag over the configured transport.
func transportKind(flag string, cfg *config.Config) (transport.Kind, error) {
	kind := transport.Kind(cfg.Behavior.Transport)
	if flag != "" {
		kind = transport.Kind(flag)
	}
	for _, valid := range transport.ValidKinds() {
		if kind == valid {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w %q, must be one of: %v", transport.ErrUnknownKind, kind, transport.ValidKinds())
}

// fatal reports err on the desktop before it is returned to the shell.
func fatal(notifier *daemon.InternalNotifier, err error) error {
	if errors.Is(err, config.ErrInvalid) || errors.Is(err, theme.ErrMissingColor) {
		notifier.NotifyConfigError(err)
	} else {
		notifier.Notify("fatal", "pino failed", err.Error(), daemon.NotificationLevelError)
	}
	return err
}

// runPopup forwards the update to the session's popup, or becomes it.
func runPopup(cmd *cobra.Command, opts *rootOptions) error {
	notifier := daemon.NewInternalNotifier(logger)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fatal(notifier, err)
	}
	if cfg.created {
		logger.Info("wrote default config", "path", cfg.path)
	}

	sess, err := session.Parse(opts.session)
	if err != nil {
		return err
	}
	kind, err := transportKind(opts.transport, cfg.Config)
	if err != nil {
		return fatal(notifier, err)
	}
	t, err := transport.New(kind, sess, logger)
	if err != nil {
		return err
	}

	u := buildUpdate(cmd, opts, cfg.Config)
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ln, err := forwardOrBind(ctx, t, u)
	if err != nil {
		return fatal(notifier, err)
	}
	if ln == nil {
		logger.Debug("forwarded update", "id", u.ID, "session", sess, "endpoint", t.Endpoint())
		return nil
	}
	defer func() { _ = ln.Close() }()
	ln.Prime(u)

	return showPopup(ctx, cfg, ln, u, notifier)
}

// forwardOrBind sends u to a running popup. When nothing owns the endpoint
// it binds it and returns the listener. A lost bind race is retried as a
// forward once.
func forwardOrBind(ctx context.Context, t transport.Transport, u model.NotificationUpdate) (transport.Listener, error) {
	for attempt := 0; attempt < 2; attempt++ {
		sent, err := transport.Forward(ctx, t, u)
		if err != nil {
			return nil, err
		}
		if sent {
			return nil, nil
		}

		ln, err := t.Bind()
		if err == nil {
			return ln, nil
		}
		_ = t.Close()
		if !errors.Is(err, transport.ErrOwnerExists) {
			return nil, err
		}
		logger.Debug("lost bind race, forwarding instead", "endpoint", t.Endpoint())
	}
	return nil, &transport.EndpointError{Endpoint: t.Endpoint(), Op: "bind", Err: transport.ErrOwnerExists}
}

// showPopup owns the endpoint until the popup closes.
func showPopup(ctx context.Context, cfg *loadedConfig, ln transport.Listener, u model.NotificationUpdate, notifier *daemon.InternalNotifier) error {
	userDir, err := os.UserConfigDir()
	if err != nil {
		return fatal(notifier, err)
	}
	walDir, err := theme.WalCacheDir()
	if err != nil {
		return fatal(notifier, err)
	}
	style, err := theme.ResolveConfig(cfg.Config, userDir, walDir, logger)
	if err != nil {
		return fatal(notifier, err)
	}
	stylePath, err := config.StylePath()
	if err != nil {
		return fatal(notifier, err)
	}

	updates := queue.New[model.NotificationUpdate]()
	state := daemon.NewDisplayState(u, time.Now(), daemon.Options{
		RearmOnUpdate: cfg.Behavior.RearmOnUpdate,
	})

	go func() {
		if err := ln.Serve(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("acceptor stopped", "endpoint", ln.Endpoint(), "error", err)
		}
	}()

	sound := audio.NewManager(cfg.Config, logger)
	if err := sound.Start(); err != nil {
		logger.Warn("failed to load sound", "error", err)
		notifier.NotifyAudioError(err)
	}
	defer sound.Stop()
	playSound := func() {
		if err := sound.Play(); err != nil {
			logger.Warn("failed to play sound", "error", err)
			notifier.NotifyAudioError(err)
		}
	}

	app := display.NewApp(cfg.Config, style, updates, state, logger)
	app.SetStylePath(stylePath)
	app.SetUpdateCallback(func(model.NotificationUpdate) { playSound() })
	app.SetCloseCallback(releaseOnClose(ln))

	watcher := newConfigWatcher(cfg.path, stylePath, walDir, userDir, app, sound, notifier)
	if err := watcher.Start(ctx, cfg.Config); err != nil {
		logger.Warn("config hot-reload disabled", "error", err)
	}
	defer watcher.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, closing popup", "signal", sig)
			app.Quit()
		case <-ctx.Done():
		}
	}()

	playSound()
	reason, err := app.Run()
	if err != nil {
		return fatal(notifier, err)
	}
	logger.Debug("popup finished", "reason", reason, "endpoint", ln.Endpoint())
	return nil
}

// releaseOnClose gives up the endpoint the moment the popup closes. Senders
// arriving after that start a new popup.
func releaseOnClose(ln transport.Listener) func(daemon.CloseReason) {
	return func(reason daemon.CloseReason) {
		if err := ln.Close(); err != nil {
			logger.Warn("failed to release endpoint", "endpoint", ln.Endpoint(), "error", err)
			return
		}
		logger.Debug("released endpoint", "endpoint", ln.Endpoint(), "reason", reason)
	}
}

// newConfigWatcher reloads the style when the config, the user stylesheet
// or the pywal palette changes.
func newConfigWatcher(configPath, stylePath, walDir, userDir string, app *display.App, sound *audio.Manager, notifier *daemon.InternalNotifier) *daemon.ConfigWatcher {
	watcher := daemon.NewConfigWatcher(configPath, logger,
		stylePath,
		filepath.Join(walDir, theme.PaletteFile),
		filepath.Join(walDir, "colors.json"),
	)
	watcher.SetReloadCallback(func(newConfig *config.Config) {
		style, err := theme.ResolveConfig(newConfig, userDir, walDir, logger)
		if err != nil {
			logger.Warn("failed to resolve style, keeping previous", "error", err)
			notifier.NotifyThemeError(err)
			return
		}
		app.Reload(newConfig, style)
		sound.UpdateConfig(newConfig)
		notifier.NotifyConfigReloaded(configPath)
	})
	watcher.SetErrorCallback(func(err error) {
		logger.Warn("config reload failed, keeping previous", "error", err)
		notifier.NotifyConfigError(err)
	})
	return watcher
}
