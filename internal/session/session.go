// Package session maps a session identifier to its endpoint paths.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultName is the session used when none is given on the command line.
const DefaultName = "default"

// Session partitions independent popups so several can coexist.
type Session struct {
	name string
}

// Default returns the default session.
func Default() Session {
	return Session{name: DefaultName}
}

// Parse accepts an empty string (default session) or a non-negative integer.
func Parse(s string) (Session, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == DefaultName {
		return Default(), nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return Session{}, fmt.Errorf("invalid session %q: must be a non-negative integer", s)
	}
	return Session{name: strconv.FormatUint(n, 10)}, nil
}

// Name returns the session identifier.
func (s Session) Name() string {
	if s.name == "" {
		return DefaultName
	}
	return s.name
}

// String implements fmt.Stringer.
func (s Session) String() string {
	return s.Name()
}

// SocketPath returns the unix socket endpoint for this session.
func (s Session) SocketPath() (string, error) {
	return RuntimePath("pino-" + s.Name() + ".sock")
}

// FramePath returns the shared frame file used by the file transport.
func (s Session) FramePath() (string, error) {
	return RuntimePath("pino-" + s.Name() + ".frame")
}

// LockPath returns the owner lock file used by the file transport.
func (s Session) LockPath() (string, error) {
	return RuntimePath("pino-" + s.Name() + ".lock")
}

// RuntimeDir returns the per-user directory holding endpoints.
// Uses $XDG_RUNTIME_DIR/pino, falling back to $TMPDIR/pino-<uid>.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "pino")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("pino-%d", os.Getuid()))
}

// RuntimePath returns a path under RuntimeDir, creating the directory if needed.
func RuntimePath(name string) (string, error) {
	dir := RuntimeDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}
