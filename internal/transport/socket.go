package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/jmylchreest/pino/internal/model"
)

// Socket is the unix socket transport.
type Socket struct {
	path        string
	logger      *slog.Logger
	dialTimeout time.Duration
	readTimeout time.Duration
}

// NewSocket creates a socket transport bound to path.
func NewSocket(path string, logger *slog.Logger) *Socket {
	if logger == nil {
		logger = slog.Default()
	}
	return &Socket{
		path:        path,
		logger:      logger,
		dialTimeout: 500 * time.Millisecond,
		readTimeout: 2 * time.Second,
	}
}

// Endpoint returns the socket path.
func (s *Socket) Endpoint() string {
	return s.path
}

// TryConnect dials the socket.
func (s *Socket) TryConnect(ctx context.Context) (Conn, bool) {
	d := net.Dialer{Timeout: s.dialTimeout}
	c, err := d.DialContext(ctx, "unix", s.path)
	if err != nil {
		s.logger.Debug("no socket owner", "path", s.path, "error", err)
		return nil, false
	}
	return &socketConn{conn: c}, true
}

// lockPath is the lock serializing stale checks, binds and removals.
func (s *Socket) lockPath() string {
	return s.path + ".lock"
}

// Bind removes a stale socket file and listens on the path. Concurrent
// starters take turns, so a stale check never removes a fresh socket.
func (s *Socket) Bind() (Listener, error) {
	lock, err := waitLock(s.lockPath(), s.dialTimeout)
	if err != nil {
		if lockHeld(err) {
			err = ErrOwnerExists
		}
		return nil, &EndpointError{Endpoint: s.lockPath(), Op: "bind", Err: err}
	}
	defer func() { _ = lock.Close() }()

	if _, err := os.Lstat(s.path); err == nil {
		probeCtx, cancel := context.WithTimeout(context.Background(), s.dialTimeout)
		conn, live := s.TryConnect(probeCtx)
		cancel()
		if live {
			_ = conn.Close()
			return nil, &EndpointError{Endpoint: s.path, Op: "bind", Err: ErrOwnerExists}
		}
		s.logger.Info("removing stale socket", "path", s.path)
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, &EndpointError{Endpoint: s.path, Op: "remove", Err: err}
		}
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return nil, &EndpointError{Endpoint: s.path, Op: "bind", Err: err}
	}
	if err := os.Chmod(s.path, 0600); err != nil {
		s.logger.Warn("failed to restrict socket permissions", "path", s.path, "error", err)
	}

	s.logger.Debug("socket bound", "path", s.path)
	return &socketListener{
		ln:          ln,
		path:        s.path,
		lockPath:    s.lockPath(),
		lockTimeout: s.dialTimeout,
		logger:      s.logger,
		readTimeout: s.readTimeout,
		done:        make(chan struct{}),
	}, nil
}

// Close is a no-op; sockets hold nothing between TryConnect and Bind.
func (s *Socket) Close() error {
	return nil
}

type socketConn struct {
	conn net.Conn
}

func (c *socketConn) Send(ctx context.Context, u model.NotificationUpdate) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(2 * time.Second)
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	_, err := c.conn.Write(Encode(u))
	return err
}

func (c *socketConn) Close() error {
	return c.conn.Close()
}

type socketListener struct {
	ln          net.Listener
	path        string
	lockPath    string
	lockTimeout time.Duration
	logger      *slog.Logger
	readTimeout time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

func (l *socketListener) Endpoint() string {
	return l.path
}

// Prime is a no-op: every accepted frame is an explicit send.
func (l *socketListener) Prime(model.NotificationUpdate) {}

func (l *socketListener) Serve(ctx context.Context, sink Sink) error {
	go func() {
		select {
		case <-ctx.Done():
			_ = l.Close()
		case <-l.done:
		}
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			l.logger.Warn("accept failed", "path", l.path, "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		l.handle(conn, sink)
	}
}

// handle reads one bounded frame and pushes it. It never returns an error:
// a bad client must not stop the acceptor.
func (l *socketListener) handle(conn net.Conn, sink Sink) {
	defer func() { _ = conn.Close() }()

	if uc, ok := conn.(*net.UnixConn); ok {
		if err := checkPeer(uc); err != nil {
			l.logger.Warn("rejected connection", "path", l.path, "error", err)
			return
		}
	}

	if err := conn.SetReadDeadline(time.Now().Add(l.readTimeout)); err != nil {
		l.logger.Debug("failed to set read deadline", "error", err)
	}

	data, err := io.ReadAll(io.LimitReader(conn, MaxFrameSize))
	if err != nil && len(data) == 0 {
		l.logger.Warn("failed to read frame", "error", err)
		return
	}
	if len(data) == 0 {
		// liveness probes connect and hang up without sending
		l.logger.Debug("empty connection")
		return
	}

	u, err := Decode(data)
	switch {
	case errors.Is(err, ErrBadDelay):
		l.logger.Warn("bad delay in frame", "id", u.ID, "error", err)
	case err != nil:
		l.logger.Warn("dropping frame", "error", err, "size", len(data))
		return
	}

	l.logger.Debug("received update", "id", u.ID, "title", u.Title, "delay", u.DelaySeconds)
	sink.Push(u)
}

func (l *socketListener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		if lock, lerr := waitLock(l.lockPath, l.lockTimeout); lerr == nil {
			defer func() { _ = lock.Close() }()
		} else {
			l.logger.Debug("closing socket without bind lock", "lock", l.lockPath, "error", lerr)
		}
		err = l.ln.Close()
		if rmErr := os.Remove(l.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
		l.logger.Debug("socket closed", "path", l.path)
	})
	return err
}
