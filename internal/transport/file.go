package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/pino/internal/model"
)

// DefaultPollInterval is how often the file owner re-reads the frame file.
const DefaultPollInterval = 200 * time.Millisecond

// File is the polled shared-file transport. The owner holds an exclusive
// lock file; senders atomically replace a three-line frame file which the
// owner reads on every poll and on fsnotify wake-ups.
type File struct {
	mu           sync.Mutex
	framePath    string
	lockPath     string
	logger       *slog.Logger
	pollInterval time.Duration

	// lock is held after a TryConnect that found no owner, until Bind
	// takes it over or Close releases it.
	lock *os.File
}

// NewFile creates a file transport.
func NewFile(framePath, lockPath string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{
		framePath:    framePath,
		lockPath:     lockPath,
		logger:       logger,
		pollInterval: DefaultPollInterval,
	}
}

// SetPollInterval sets how often the owner checks the frame file.
func (f *File) SetPollInterval(interval time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollInterval = interval
}

// Endpoint returns the frame file path.
func (f *File) Endpoint() string {
	return f.framePath
}

// TryConnect reports an owner when the lock file is held by another process.
// Acquiring the lock here makes the following Bind race-free.
func (f *File) TryConnect(ctx context.Context) (Conn, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lock != nil {
		return nil, false
	}

	lock, err := acquireLock(f.lockPath)
	if err == nil {
		f.lock = lock
		return nil, false
	}
	if !lockHeld(err) {
		// Bind hits the same error and reports it.
		f.logger.Debug("lock unusable", "lock", f.lockPath, "error", err)
		return nil, false
	}

	owner, err := os.Stat(f.lockPath)
	if err != nil {
		f.logger.Debug("owner released the lock", "lock", f.lockPath, "error", err)
		return nil, false
	}
	f.logger.Debug("lock held by owner", "lock", f.lockPath)
	return &fileConn{path: f.framePath, lockPath: f.lockPath, owner: owner}, true
}

// Bind takes the owner lock and clears any frame left by a dead owner.
func (f *File) Bind() (Listener, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lock == nil {
		lock, err := acquireLock(f.lockPath)
		if err != nil {
			if lockHeld(err) {
				err = fmt.Errorf("%w: %v", ErrOwnerExists, err)
			}
			return nil, &EndpointError{Endpoint: f.lockPath, Op: "bind", Err: err}
		}
		f.lock = lock
	}

	if err := os.Remove(f.framePath); err == nil {
		f.logger.Info("removed stale frame file", "path", f.framePath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, &EndpointError{Endpoint: f.framePath, Op: "remove", Err: err}
	}

	l := &fileListener{
		framePath:    f.framePath,
		lockPath:     f.lockPath,
		lock:         f.lock,
		logger:       f.logger,
		pollInterval: f.pollInterval,
		done:         make(chan struct{}),
	}
	f.lock = nil
	return l, nil
}

// Close releases a lock acquired by TryConnect that was never bound.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lock == nil {
		return nil
	}
	_ = os.Remove(f.lockPath)
	err := f.lock.Close()
	f.lock = nil
	return err
}

type fileConn struct {
	path     string
	lockPath string
	owner    os.FileInfo
}

// Send writes the frame, then confirms the owner seen by TryConnect still
// holds the endpoint. An owner that left meanwhile never reads the frame,
// so Send reports ErrNoOwner.
func (c *fileConn) Send(_ context.Context, u model.NotificationUpdate) error {
	if err := atomicWriteFile(c.path, EncodeLines(u), 0600); err != nil {
		return err
	}
	current, err := os.Stat(c.lockPath)
	if err != nil || !os.SameFile(current, c.owner) {
		return ErrNoOwner
	}
	return nil
}

func (c *fileConn) Close() error {
	return nil
}

type fileListener struct {
	mu           sync.Mutex
	framePath    string
	lockPath     string
	lock         *os.File
	logger       *slog.Logger
	pollInterval time.Duration

	last    model.NotificationUpdate
	hasLast bool

	closeOnce sync.Once
	done      chan struct{}
}

func (l *fileListener) Endpoint() string {
	return l.framePath
}

func (l *fileListener) Prime(u model.NotificationUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = u
	l.hasLast = true
}

func (l *fileListener) Serve(ctx context.Context, sink Sink) error {
	var events <-chan fsnotify.Event
	var errs <-chan error

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		l.logger.Warn("fsnotify unavailable, polling only", "error", err)
	} else {
		defer func() { _ = watcher.Close() }()
		if err := watcher.Add(filepath.Dir(l.framePath)); err != nil {
			l.logger.Warn("failed to watch frame directory, polling only", "error", err)
		} else {
			events = watcher.Events
			errs = watcher.Errors
		}
	}

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	name := filepath.Base(l.framePath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.done:
			return nil
		case <-ticker.C:
			l.check(sink)
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				l.check(sink)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			l.logger.Warn("frame watcher error", "error", err)
		}
	}
}

// check pushes the frame file contents when any field differs from the
// last update seen.
func (l *fileListener) check(sink Sink) {
	data, err := os.ReadFile(l.framePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Debug("failed to read frame file", "path", l.framePath, "error", err)
		}
		return
	}

	u, err := DecodeLines(data)
	if err != nil && !errors.Is(err, ErrBadDelay) {
		l.logger.Debug("ignoring incomplete frame file", "error", err)
		return
	}

	l.mu.Lock()
	changed := !l.hasLast || !u.SameText(l.last) || u.DelaySeconds != l.last.DelaySeconds
	if changed {
		l.last = u
		l.hasLast = true
	}
	l.mu.Unlock()

	if !changed {
		return
	}
	if err != nil {
		l.logger.Warn("bad delay in frame file", "id", u.ID, "error", err)
	}
	l.logger.Debug("frame file changed", "id", u.ID, "title", u.Title, "delay", u.DelaySeconds)
	sink.Push(u)
}

func (l *fileListener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		// The lock path goes first: Send checks it after writing.
		if l.lock != nil {
			_ = os.Remove(l.lockPath)
		}
		close(l.done)
		if rmErr := os.Remove(l.framePath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = rmErr
		}
		if l.lock != nil {
			if cerr := l.lock.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

// atomicWriteFile replaces filename so readers never see a partial frame.
func atomicWriteFile(filename string, data []byte, perm os.FileMode) error {
	dir, name := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filename)
}
