package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmylchreest/pino/internal/model"
	"github.com/jmylchreest/pino/internal/queue"
	"github.com/jmylchreest/pino/internal/session"
	"github.com/jmylchreest/pino/internal/transport"
)

// DefaultSpawnInterval is the minimum gap between two spawned popups.
const DefaultSpawnInterval = 250 * time.Millisecond

// SpawnFunc starts a detached process.
type SpawnFunc func(name string, args ...string) error

// Forwarder hands updates to the visible popup of a session, starting a new
// pino process when nothing owns the endpoint.
type Forwarder struct {
	logger    *slog.Logger
	transport transport.Transport
	kind      transport.Kind
	session   session.Session
	binary    string
	limiter   *rate.Limiter
	spawn     SpawnFunc
}

// NewForwarder creates a forwarder that spawns binary (usually "pino").
func NewForwarder(t transport.Transport, kind transport.Kind, sess session.Session, binary string, logger *slog.Logger) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	if binary == "" {
		binary = "pino"
	}
	return &Forwarder{
		logger:    logger,
		transport: t,
		kind:      kind,
		session:   sess,
		binary:    binary,
		limiter:   rate.NewLimiter(rate.Every(DefaultSpawnInterval), 1),
		spawn:     startDetached,
	}
}

// SetSpawnFunc replaces how new popups are started.
func (f *Forwarder) SetSpawnFunc(spawn SpawnFunc) {
	f.spawn = spawn
}

// SetSpawnInterval sets the minimum gap between spawns.
func (f *Forwarder) SetSpawnInterval(interval time.Duration) {
	f.limiter.SetLimit(rate.Every(interval))
}

// Send delivers u to the current owner or spawns a popup showing it.
func (f *Forwarder) Send(ctx context.Context, u model.NotificationUpdate) error {
	if f.forward(ctx, u) {
		return nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting to spawn popup: %w", err)
	}
	// a popup spawned moments ago may own the endpoint by now
	if f.forward(ctx, u) {
		return nil
	}

	args := f.Args(u)
	f.logger.Debug("spawning popup", "id", u.ID, "binary", f.binary, "session", f.session)
	if err := f.spawn(f.binary, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", f.binary, err)
	}
	return nil
}

// Run sends queued updates in order until ctx is done. Producers such as
// D-Bus handlers push and return without waiting on the popup.
func (f *Forwarder) Run(ctx context.Context, updates *queue.Queue[model.NotificationUpdate]) error {
	for {
		for _, u := range updates.Drain() {
			if err := f.Send(ctx, u); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				f.logger.Warn("failed to deliver update", "id", u.ID, "error", err)
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-updates.Ready():
		}
	}
}

// Args returns the command line that shows u in a new popup.
func (f *Forwarder) Args(u model.NotificationUpdate) []string {
	args := []string{
		"-t", u.Title,
		"-m", u.Message,
		"-d", strconv.FormatUint(u.DelaySeconds, 10),
		"-s", f.session.Name(),
	}
	if f.kind != "" {
		args = append(args, "--transport", string(f.kind))
	}
	return args
}

func (f *Forwarder) forward(ctx context.Context, u model.NotificationUpdate) bool {
	sent, err := transport.Forward(ctx, f.transport, u)
	if !sent {
		// the file transport takes the owner lock when it finds none;
		// release it so the spawned popup can bind
		_ = f.transport.Close()
	}
	if err != nil {
		f.logger.Warn("failed to forward update", "id", u.ID, "error", err)
		return false
	}
	if sent {
		f.logger.Debug("forwarded update", "id", u.ID, "endpoint", f.transport.Endpoint())
	}
	return sent
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
