// Package model defines the data carried between pino processes.
package model

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Defaults used when an invocation leaves a field unset.
const (
	DefaultTitle   = "Title"
	DefaultMessage = "you didn't set the title or message"
)

// NotificationUpdate is one (title, message, delay) triple sent to the
// visible popup. Values are immutable once constructed; copy them freely.
type NotificationUpdate struct {
	// ID correlates log lines for a single update. It is local to the
	// process that created or decoded the update and is never sent.
	ID string

	Title        string
	Message      string
	DelaySeconds uint64
}

// NewUpdate creates an update with a fresh correlation ID.
func NewUpdate(title, message string, delaySeconds uint64) NotificationUpdate {
	return NotificationUpdate{
		ID:           newID(),
		Title:        title,
		Message:      message,
		DelaySeconds: delaySeconds,
	}
}

// Delay returns the auto-close delay. Zero means the popup stays until dismissed.
func (u NotificationUpdate) Delay() time.Duration {
	return time.Duration(u.DelaySeconds) * time.Second
}

// SameText reports whether u and other would render identically.
func (u NotificationUpdate) SameText(other NotificationUpdate) bool {
	return u.Title == other.Title && u.Message == other.Message
}

// WithDefaults fills an empty title or message with the CLI defaults.
func (u NotificationUpdate) WithDefaults() NotificationUpdate {
	if strings.TrimSpace(u.Title) == "" {
		u.Title = DefaultTitle
	}
	if strings.TrimSpace(u.Message) == "" {
		u.Message = DefaultMessage
	}
	return u
}

func newID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		// fall back to the package entropy source
		return ulid.Make().String()
	}
	return id.String()
}
