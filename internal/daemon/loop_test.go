package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/pino/internal/model"
	"github.com/jmylchreest/pino/internal/queue"
)

type fakeSurface struct {
	mu       sync.Mutex
	repaints [][2]string
	hidden   int
	press    func()
}

func (s *fakeSurface) Repaint(title, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repaints = append(s.repaints, [2]string{title, message})
}

func (s *fakeSurface) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden++
}

func (s *fakeSurface) OnPointerPress(fn func()) {
	s.press = fn
}

func (s *fakeSurface) Repaints() [][2]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]string(nil), s.repaints...)
}

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	ticks chan time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, ticks: make(chan time.Time, 1)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *fakeClock) Ticker(time.Duration) Ticker {
	return fakeTicker{c.ticks}
}

type fakeTicker struct {
	c chan time.Time
}

func (f fakeTicker) C() <-chan time.Time { return f.c }
func (f fakeTicker) Stop()               {}

func newTestLoop(initial model.NotificationUpdate, opts Options) (*Loop, *queue.Queue[model.NotificationUpdate], *fakeSurface, *fakeClock) {
	q := queue.New[model.NotificationUpdate]()
	surface := &fakeSurface{}
	clock := newFakeClock(t0)
	l := NewLoop(q, NewDisplayState(initial, t0, opts), surface, clock, nil)
	return l, q, surface, clock
}

func TestLoop_BuildScenario(t *testing.T) {
	l, q, surface, clock := newTestLoop(model.NewUpdate("Build", "Started", 5), Options{})

	var reasons []CloseReason
	l.SetCloseCallback(func(r CloseReason) { reasons = append(reasons, r) })
	l.Show()

	clock.Set(at(2))
	q.Push(model.NewUpdate("Build", "Passed", 2))
	require.True(t, l.Step())

	clock.Set(at(3.95))
	require.True(t, l.Step())

	clock.Set(at(4))
	assert.False(t, l.Step())
	assert.False(t, l.Step(), "stays closed")

	assert.Equal(t, [][2]string{{"Build", "Started"}, {"Build", "Passed"}}, surface.Repaints())
	assert.Equal(t, 1, surface.hidden)
	assert.Equal(t, []CloseReason{CloseExpired}, reasons)
	assert.Equal(t, CloseExpired, l.Reason())
}

func TestLoop_RepaintsOncePerBatch(t *testing.T) {
	l, q, surface, _ := newTestLoop(model.NewUpdate("a", "m", 5), Options{})

	var applied []string
	l.SetUpdateCallback(func(u model.NotificationUpdate) { applied = append(applied, u.Title) })

	q.Push(model.NewUpdate("b", "m", 5))
	q.Push(model.NewUpdate("c", "m", 5))
	q.Push(model.NewUpdate("d", "m", 7))
	require.True(t, l.Step())

	assert.Equal(t, [][2]string{{"d", "m"}}, surface.Repaints())
	assert.Equal(t, []string{"b", "c", "d"}, applied)
	assert.Equal(t, 7*time.Second, l.State().Delay())
	assert.Equal(t, 0, q.Len())
}

func TestLoop_NoRepaintForSameText(t *testing.T) {
	l, q, surface, _ := newTestLoop(model.NewUpdate("a", "m", 5), Options{})

	q.Push(model.NewUpdate("a", "m", 9))
	require.True(t, l.Step())

	assert.Empty(t, surface.Repaints())
	assert.Equal(t, 9*time.Second, l.State().Delay())
}

func TestLoop_PointerPressDismisses(t *testing.T) {
	l, _, surface, _ := newTestLoop(model.NewUpdate("a", "m", 60), Options{})

	var reasons []CloseReason
	l.SetCloseCallback(func(r CloseReason) { reasons = append(reasons, r) })

	require.NotNil(t, surface.press, "loop registers a press handler")
	surface.press()
	surface.press()

	assert.False(t, l.Step())
	assert.Equal(t, []CloseReason{CloseDismissed}, reasons)
	assert.Equal(t, 1, surface.hidden)
}

func TestLoop_StickyUntilDismissed(t *testing.T) {
	l, _, _, clock := newTestLoop(model.NewUpdate("a", "m", 0), Options{})

	clock.Set(at(24 * 3600))
	assert.True(t, l.Step())

	l.Dismiss()
	assert.False(t, l.Step())
	assert.Equal(t, CloseDismissed, l.Reason())
}

func TestLoop_RunUntilExpired(t *testing.T) {
	l, q, surface, clock := newTestLoop(model.NewUpdate("a", "m", 2), Options{})

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background(), time.Millisecond) }()

	q.Push(model.NewUpdate("b", "m", 2))
	clock.Set(at(3))
	clock.ticks <- at(3)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after expiry")
	}
	assert.Equal(t, CloseExpired, l.Reason())
	assert.Equal(t, 1, surface.hidden)
}

func TestLoop_RunCancelled(t *testing.T) {
	l, _, _, _ := newTestLoop(model.NewUpdate("a", "m", 2), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Run(ctx, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, CloseReason(""), l.Reason())
}
