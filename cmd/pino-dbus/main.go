// Package main is the entry point for pino-dbus, which turns desktop
// notifications and media player changes into pino popups.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/esiqveland/notify"
	godbus "github.com/godbus/dbus/v5"
	"github.com/lmittmann/tint"

	"github.com/jmylchreest/pino/internal/config"
	"github.com/jmylchreest/pino/internal/daemon"
	"github.com/jmylchreest/pino/internal/dbus"
	"github.com/jmylchreest/pino/internal/model"
	"github.com/jmylchreest/pino/internal/queue"
	"github.com/jmylchreest/pino/internal/session"
	"github.com/jmylchreest/pino/internal/transport"
)

// selfAppName is the app name pino reports its own errors under.
// Notifications carrying it are not turned into popups.
const selfAppName = "pino"

var (
	// Build-time variables
	version = "dev"
)

type options struct {
	session       string
	configPath    string
	binary        string
	transport     string
	monitor       bool
	mpris         bool
	mprisInterval time.Duration
	mprisPlayers  string
	version       bool
	debug         bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*options, error) {
	opts := &options{}
	fs.StringVar(&opts.session, "s", "", "Session to forward popups to (default: the session plain pino uses)")
	fs.StringVar(&opts.configPath, "c", "", "Path to config file (default: $XDG_CONFIG_HOME/pino/config.toml)")
	fs.StringVar(&opts.binary, "binary", "pino", "pino binary spawned when no popup is running")
	fs.StringVar(&opts.transport, "transport", "", "Transport override (socket or file)")
	fs.BoolVar(&opts.monitor, "monitor", false, "Eavesdrop on notifications instead of owning org.freedesktop.Notifications")
	fs.BoolVar(&opts.mpris, "mpris", false, "Poll MPRIS media players")
	fs.DurationVar(&opts.mprisInterval, "mpris-interval", dbus.DefaultMPRISInterval, "MPRIS polling interval")
	fs.StringVar(&opts.mprisPlayers, "mpris-players", strings.Join(dbus.DefaultPlayers, ","), "Comma-separated MPRIS player names")
	fs.BoolVar(&opts.version, "version", false, "Show version and exit")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if opts.version {
		fmt.Println("pino-dbus version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	if err := run(opts, logger); err != nil {
		logger.Error("pino-dbus stopped", "error", err)
		os.Exit(1)
	}
}

func run(opts *options, logger *slog.Logger) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	sess, err := session.Parse(opts.session)
	if err != nil {
		return err
	}
	kind := transport.Kind(cfg.Behavior.Transport)
	if opts.transport != "" {
		kind = transport.Kind(opts.transport)
	}
	t, err := transport.New(kind, sess, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := queue.New[model.NotificationUpdate]()
	fwd := daemon.NewForwarder(t, kind, sess, opts.binary, logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := fwd.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("forwarder stopped", "error", err)
		}
	}()

	var poller *dbus.MPRISPoller
	if opts.mpris {
		conn, err := godbus.SessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		poller = dbus.NewMPRISPoller(dbus.NewBusSource(conn), logger)
		poller.SetPlayers(splitPlayers(opts.mprisPlayers))
		poller.SetInterval(opts.mprisInterval)
		poller.SetDelay(cfg.Screen.Delay)
		poller.SetUpdateHandler(updates.Push)
		if err := poller.Start(ctx); err != nil {
			return err
		}
		defer poller.Stop()
	}

	handler := newNotifyHandler(updates, cfg.Screen.Delay, poller, logger)

	if opts.monitor {
		monitor := dbus.NewMonitor(logger)
		monitor.SetNotifyHandler(handler)
		if err := monitor.Start(); err != nil {
			return fmt.Errorf("failed to start monitor: %w", err)
		}
		defer func() { _ = monitor.Stop() }()
		logger.Info("monitoring notifications", "version", version, "session", sess, "transport", kind)
	} else {
		server := dbus.NewServer(version, logger)
		server.SetNotifyHandler(handler)
		if err := server.Start(); err != nil {
			if errors.Is(err, dbus.ErrNameTaken) {
				logOwner(server.Connection(), logger)
			}
			return err
		}
		defer func() { _ = server.Stop() }()
		logger.Info("serving notifications", "version", version, "session", sess, "transport", kind)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	cancel()
	<-done
	return nil
}

// loadConfig reads the config when it exists and uses the defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return nil, err
		}
		path = p
	} else {
		path = config.ExpandPath(path)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

// newNotifyHandler queues an update for every notification except pino's
// own. Notifications from a media player also trigger an MPRIS poll.
func newNotifyHandler(updates *queue.Queue[model.NotificationUpdate], delay uint64, poller *dbus.MPRISPoller, logger *slog.Logger) dbus.NotifyHandler {
	return func(n *dbus.DBusNotification, id uint32) {
		if n.AppName == selfAppName {
			logger.Debug("skipping own notification", "id", id)
			return
		}

		u := n.ToUpdate(delay)
		logger.Debug("notification received", "id", id, "update", u.ID, "app", n.AppName, "title", u.Title)
		updates.Push(u)

		if poller != nil && n.IsMediaPlayer(poller.Players()) {
			poller.PollNow()
		}
	}
}

// logOwner reports which server holds the notification name.
func logOwner(conn *godbus.Conn, logger *slog.Logger) {
	if conn == nil {
		return
	}
	info, err := notify.GetServerInformation(conn)
	if err != nil {
		logger.Warn("notification name is taken by an unknown server", "error", err)
		return
	}
	logger.Error("another notification server is running",
		"name", info.Name,
		"vendor", info.Vendor,
		"version", info.Version,
		"spec", info.SpecVersion,
	)
}

func splitPlayers(s string) []string {
	var players []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			players = append(players, p)
		}
	}
	return players
}
