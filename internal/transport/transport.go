package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/pino/internal/model"
	"github.com/jmylchreest/pino/internal/session"
)

// Kind names a transport implementation.
type Kind string

const (
	KindSocket Kind = "socket"
	KindFile   Kind = "file"
)

// ValidKinds returns all transport names.
func ValidKinds() []Kind {
	return []Kind{KindSocket, KindFile}
}

// Sink receives decoded updates. Push must not block.
type Sink interface {
	Push(u model.NotificationUpdate)
}

// Conn delivers updates to the process that owns an endpoint.
type Conn interface {
	Send(ctx context.Context, u model.NotificationUpdate) error
	Close() error
}

// Listener is a bound endpoint.
type Listener interface {
	// Prime records the update already on screen so that transports which
	// detect changes do not report it again.
	Prime(u model.NotificationUpdate)
	// Serve runs the acceptor loop until ctx is done or Close is called.
	// Connections are handled one at a time in arrival order.
	Serve(ctx context.Context, sink Sink) error
	// Close stops Serve and removes the endpoint artifacts.
	Close() error
	Endpoint() string
}

// Transport coordinates the single visible popup of a session.
type Transport interface {
	// TryConnect reaches the current owner. It returns false when no
	// owner is reachable, in which case the caller should Bind.
	TryConnect(ctx context.Context) (Conn, bool)
	// Bind claims the endpoint, clearing artifacts left by a dead owner.
	Bind() (Listener, error)
	// Close releases anything TryConnect acquired that Bind did not take over.
	Close() error
	Endpoint() string
}

// New returns the transport of the given kind for a session.
func New(kind Kind, sess session.Session, logger *slog.Logger) (Transport, error) {
	switch kind {
	case KindSocket, "":
		path, err := sess.SocketPath()
		if err != nil {
			return nil, err
		}
		return NewSocket(path, logger), nil
	case KindFile:
		framePath, err := sess.FramePath()
		if err != nil {
			return nil, err
		}
		lockPath, err := sess.LockPath()
		if err != nil {
			return nil, err
		}
		return NewFile(framePath, lockPath, logger), nil
	default:
		return nil, fmt.Errorf("%w %q, must be one of: %v", ErrUnknownKind, kind, ValidKinds())
	}
}

// Forward sends u to the current owner. It reports false, with no error,
// when nothing owns the endpoint, including an owner that left while u was
// being sent.
func Forward(ctx context.Context, t Transport, u model.NotificationUpdate) (bool, error) {
	conn, ok := t.TryConnect(ctx)
	if !ok {
		return false, nil
	}
	defer func() { _ = conn.Close() }()

	if err := conn.Send(ctx, u); err != nil {
		if errors.Is(err, ErrNoOwner) {
			return false, nil
		}
		return true, &EndpointError{Endpoint: t.Endpoint(), Op: "send", Err: err}
	}
	return true, nil
}

// Probe reports whether something owns the endpoint without sending an
// update or keeping anything claimed. It returns ErrNoOwner when nothing is
// reachable.
func Probe(ctx context.Context, t Transport) error {
	conn, ok := t.TryConnect(ctx)
	if !ok {
		_ = t.Close()
		return &EndpointError{Endpoint: t.Endpoint(), Op: "probe", Err: ErrNoOwner}
	}
	return conn.Close()
}
