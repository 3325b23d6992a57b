package transport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/pino/internal/model"
)

const (
	// Separator delimits the fields of a wire frame.
	Separator = "|+|"
	// MaxFrameSize bounds how much of a connection is read.
	MaxFrameSize = 4096
	// DefaultDelaySeconds replaces a delay that fails to parse.
	DefaultDelaySeconds = 3
)

// escapedNewline is rendered as a line break by the popup.
const escapedNewline = `\n`

// Encode renders u as a single frame: title|+|message|+|delay.
// Real line breaks become the two-character escape so they survive the
// newline stripping on the receiving side.
func Encode(u model.NotificationUpdate) []byte {
	var b strings.Builder
	b.WriteString(encodeField(u.Title))
	b.WriteString(Separator)
	b.WriteString(encodeField(u.Message))
	b.WriteString(Separator)
	b.WriteString(strconv.FormatUint(u.DelaySeconds, 10))
	return []byte(b.String())
}

// Decode parses a frame produced by Encode (or by older clients that wrote
// the same format by hand). Newlines anywhere in the frame are dropped.
//
// When only the delay is bad the returned update is valid, carries
// DefaultDelaySeconds, and the error wraps ErrBadDelay.
func Decode(frame []byte) (model.NotificationUpdate, error) {
	s := stripNewlines(string(frame))

	parts := strings.SplitN(s, Separator, 3)
	if len(parts) < 3 {
		return model.NotificationUpdate{}, fmt.Errorf("%w: want 3 fields, got %d", ErrMalformedFrame, len(parts))
	}
	return fromFields(parts[0], parts[1], parts[2])
}

// EncodeLines renders u in the three-line layout of the file transport.
func EncodeLines(u model.NotificationUpdate) []byte {
	return []byte(encodeField(u.Title) + "\n" + encodeField(u.Message) + "\n" +
		strconv.FormatUint(u.DelaySeconds, 10) + "\n")
}

// DecodeLines parses the three-line layout. Errors follow Decode.
func DecodeLines(data []byte) (model.NotificationUpdate, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r", ""), "\n")
	if len(lines) < 3 {
		return model.NotificationUpdate{}, fmt.Errorf("%w: want 3 lines, got %d", ErrMalformedFrame, len(lines))
	}
	return fromFields(lines[0], lines[1], lines[2])
}

func fromFields(title, message, delay string) (model.NotificationUpdate, error) {
	secs, err := strconv.ParseUint(strings.TrimSpace(delay), 10, 64)
	if err != nil {
		u := model.NewUpdate(title, message, DefaultDelaySeconds)
		return u, fmt.Errorf("%w %q, using %ds", ErrBadDelay, delay, DefaultDelaySeconds)
	}
	return model.NewUpdate(title, message, secs), nil
}

func encodeField(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", escapedNewline)
	for strings.Contains(s, Separator) {
		s = strings.ReplaceAll(s, Separator, "|")
	}
	return s
}

func stripNewlines(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}
