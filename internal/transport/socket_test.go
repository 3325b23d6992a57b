package transport

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/pino/internal/model"
	"github.com/jmylchreest/pino/internal/queue"
)

// waitPop blocks until the queue yields an update or the timeout passes.
func waitPop(t *testing.T, q *queue.Queue[model.NotificationUpdate], timeout time.Duration) (model.NotificationUpdate, bool) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if u, ok := q.TryPop(); ok {
			return u, true
		}
		select {
		case <-q.Ready():
		case <-deadline:
			return model.NotificationUpdate{}, false
		}
	}
}

func serveSocket(t *testing.T, path string) (*queue.Queue[model.NotificationUpdate], Listener) {
	t.Helper()
	ln, err := NewSocket(path, nil).Bind()
	require.NoError(t, err)

	q := queue.New[model.NotificationUpdate]()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ln.Serve(ctx, q)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return q, ln
}

func TestSocket_TryConnectWithoutOwner(t *testing.T) {
	s := NewSocket(filepath.Join(t.TempDir(), "pino.sock"), nil)
	conn, ok := s.TryConnect(context.Background())
	assert.False(t, ok)
	assert.Nil(t, conn)
}

func TestSocket_ForwardDelivers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pino.sock")
	q, _ := serveSocket(t, path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	sent, err := Forward(context.Background(), NewSocket(path, nil), model.NewUpdate("Build", "Passed", 2))
	require.NoError(t, err)
	assert.True(t, sent)

	u, ok := waitPop(t, q, 2*time.Second)
	require.True(t, ok, "update not delivered")
	assert.Equal(t, "Build", u.Title)
	assert.Equal(t, "Passed", u.Message)
	assert.Equal(t, uint64(2), u.DelaySeconds)
}

func TestSocket_PreservesArrivalOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pino.sock")
	q, _ := serveSocket(t, path)

	titles := []string{"one", "two", "three"}
	for _, title := range titles {
		_, err := Forward(context.Background(), NewSocket(path, nil), model.NewUpdate(title, "m", 1))
		require.NoError(t, err)
	}

	for _, want := range titles {
		u, ok := waitPop(t, q, 2*time.Second)
		require.True(t, ok)
		assert.Equal(t, want, u.Title)
	}
}

func TestSocket_BadDelayStillDelivered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pino.sock")
	q, _ := serveSocket(t, path)

	c, err := net.Dial("unix", path)
	require.NoError(t, err)
	_, err = c.Write([]byte("t|+|m|+|abc"))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	u, ok := waitPop(t, q, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, uint64(DefaultDelaySeconds), u.DelaySeconds)
}

func TestSocket_MalformedAndEmptyFramesDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pino.sock")
	q, _ := serveSocket(t, path)

	for _, frame := range []string{"", "only|+|two"} {
		c, err := net.Dial("unix", path)
		require.NoError(t, err)
		if frame != "" {
			_, err = c.Write([]byte(frame))
			require.NoError(t, err)
		}
		require.NoError(t, c.Close())
	}

	// a good frame after the bad ones proves the acceptor survived them
	_, err := Forward(context.Background(), NewSocket(path, nil), model.NewUpdate("ok", "m", 1))
	require.NoError(t, err)

	u, ok := waitPop(t, q, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, "ok", u.Title)
	assert.Equal(t, 0, q.Len())
}

func TestSocket_SecondBindFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pino.sock")
	serveSocket(t, path)

	_, err := NewSocket(path, nil).Bind()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOwnerExists)
}

func TestSocket_BindRemovesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pino.sock")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	ln, err := NewSocket(path, nil).Bind()
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	conn, ok := NewSocket(path, nil).TryConnect(context.Background())
	require.True(t, ok)
	_ = conn.Close()
}

func TestSocket_ConcurrentBindOverStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pino.sock")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	const starters = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		owners []Listener
		errs   []error
	)
	for i := 0; i < starters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ln, err := NewSocket(path, nil).Bind()
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			owners = append(owners, ln)
		}()
	}
	wg.Wait()

	require.Len(t, owners, 1, "exactly one starter owns the endpoint")
	defer func() { _ = owners[0].Close() }()
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrOwnerExists)
	}

	conn, ok := NewSocket(path, nil).TryConnect(context.Background())
	require.True(t, ok, "owner must stay reachable")
	_ = conn.Close()
}

func TestSocket_CloseRemovesEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pino.sock")
	ln, err := NewSocket(path, nil).Bind()
	require.NoError(t, err)
	assert.Equal(t, path, ln.Endpoint())

	require.NoError(t, ln.Close())
	require.NoError(t, ln.Close(), "close is idempotent")

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSocket_ServeStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pino.sock")
	ln, err := NewSocket(path, nil).Bind()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ln.Serve(ctx, queue.New[model.NotificationUpdate]()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestProbe(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pino.sock")

	err := Probe(ctx, NewSocket(path, nil))
	require.ErrorIs(t, err, ErrNoOwner)
	var endpointErr *EndpointError
	require.ErrorAs(t, err, &endpointErr)
	assert.Equal(t, "probe", endpointErr.Op)

	q, _ := serveSocket(t, path)
	require.NoError(t, Probe(ctx, NewSocket(path, nil)))

	_, ok := waitPop(t, q, 100*time.Millisecond)
	assert.False(t, ok, "probing must not deliver an update")
}
