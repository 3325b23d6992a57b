package daemon

import (
	"time"

	"github.com/jmylchreest/pino/internal/model"
)

// Phase is the lifecycle phase of the popup.
type Phase int

const (
	// PhaseIdle means the popup is visible with no pending close.
	PhaseIdle Phase = iota
	// PhaseArmed means the popup closes at the armed deadline.
	PhaseArmed
	// PhaseClosed is terminal.
	PhaseClosed
)

// String returns the string representation of Phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options tune how updates rearm the timer.
type Options struct {
	// RearmOnUpdate restarts the timer on every update, not only when the
	// delay changes.
	RearmOnUpdate bool
}

// DisplayState is the text on screen and the pending close.
// It is not safe for concurrent use; the UI goroutine owns it.
type DisplayState struct {
	opts Options

	title   string
	message string

	phase    Phase
	delay    time.Duration
	deadline time.Time
}

// NewDisplayState starts armed with the initial update's delay.
func NewDisplayState(initial model.NotificationUpdate, now time.Time, opts Options) *DisplayState {
	s := &DisplayState{
		opts:    opts,
		title:   initial.Title,
		message: initial.Message,
	}
	s.arm(initial.Delay(), now)
	return s
}

// Apply takes the update's text and rearms the timer when the delay changed
// or nothing is armed. It reports whether the visible text changed.
// Updates after close are ignored.
func (s *DisplayState) Apply(u model.NotificationUpdate, now time.Time) bool {
	if s.phase == PhaseClosed {
		return false
	}

	redraw := u.Title != s.title || u.Message != s.message
	s.title = u.Title
	s.message = u.Message

	delay := u.Delay()
	if s.opts.RearmOnUpdate || s.phase != PhaseArmed || delay != s.delay {
		s.arm(delay, now)
	}
	return redraw
}

// Tick closes the popup once the armed deadline has passed.
// It reports whether this call closed it.
func (s *DisplayState) Tick(now time.Time) bool {
	if s.phase != PhaseArmed || now.Before(s.deadline) {
		return false
	}
	s.phase = PhaseClosed
	s.deadline = time.Time{}
	return true
}

// Dismiss closes the popup regardless of the timer.
// It reports whether this call closed it.
func (s *DisplayState) Dismiss() bool {
	if s.phase == PhaseClosed {
		return false
	}
	s.phase = PhaseClosed
	s.deadline = time.Time{}
	return true
}

// arm replaces any pending deadline. A zero delay leaves the popup up
// until dismissed or rearmed.
func (s *DisplayState) arm(delay time.Duration, now time.Time) {
	s.delay = delay
	if delay <= 0 {
		s.phase = PhaseIdle
		s.deadline = time.Time{}
		return
	}
	s.phase = PhaseArmed
	s.deadline = now.Add(delay)
}

// Title returns the title on screen.
func (s *DisplayState) Title() string { return s.title }

// Message returns the message on screen.
func (s *DisplayState) Message() string { return s.message }

// Phase returns the current phase.
func (s *DisplayState) Phase() Phase { return s.phase }

// Delay returns the most recently armed delay.
func (s *DisplayState) Delay() time.Duration { return s.delay }

// Deadline returns the armed deadline. ok is false unless the phase is armed.
func (s *DisplayState) Deadline() (deadline time.Time, ok bool) {
	return s.deadline, s.phase == PhaseArmed
}

// Closed reports whether the popup has closed.
func (s *DisplayState) Closed() bool { return s.phase == PhaseClosed }
