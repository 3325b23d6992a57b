package daemon

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/pino/internal/model"
	"github.com/jmylchreest/pino/internal/queue"
	"github.com/jmylchreest/pino/internal/session"
	"github.com/jmylchreest/pino/internal/transport"
)

type spawnRecorder struct {
	calls [][]string
}

func (r *spawnRecorder) spawn(name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil
}

func TestForwarder_SpawnsWithoutOwner(t *testing.T) {
	sock := transport.NewSocket(filepath.Join(t.TempDir(), "pino.sock"), nil)
	sess, err := session.Parse("2")
	require.NoError(t, err)

	rec := &spawnRecorder{}
	f := NewForwarder(sock, transport.KindSocket, sess, "/usr/bin/pino", nil)
	f.SetSpawnFunc(rec.spawn)

	require.NoError(t, f.Send(context.Background(), model.NewUpdate("Spotify - Playing", "Artist - Song", 5)))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{
		"/usr/bin/pino",
		"-t", "Spotify - Playing",
		"-m", "Artist - Song",
		"-d", "5",
		"-s", "2",
		"--transport", "socket",
	}, rec.calls[0])
}

func TestForwarder_ForwardsToOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pino.sock")
	ln, err := transport.NewSocket(path, nil).Bind()
	require.NoError(t, err)

	q := queue.New[model.NotificationUpdate]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ln.Serve(ctx, q) }()

	rec := &spawnRecorder{}
	f := NewForwarder(transport.NewSocket(path, nil), transport.KindSocket, session.Default(), "", nil)
	f.SetSpawnFunc(rec.spawn)

	require.NoError(t, f.Send(context.Background(), model.NewUpdate("Discord: hi", "there", 3)))
	assert.Empty(t, rec.calls)

	select {
	case <-q.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("update not forwarded")
	}
	u, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "Discord: hi", u.Title)
}

func TestForwarder_ReleasesFileLockBeforeSpawn(t *testing.T) {
	dir := t.TempDir()
	framePath := filepath.Join(dir, "pino.frame")
	lockPath := filepath.Join(dir, "pino.lock")

	rec := &spawnRecorder{}
	f := NewForwarder(transport.NewFile(framePath, lockPath, nil), transport.KindFile, session.Default(), "pino", nil)
	f.SetSpawnFunc(rec.spawn)

	require.NoError(t, f.Send(context.Background(), model.NewUpdate("t", "m", 1)))
	require.Len(t, rec.calls, 1)

	// the spawned popup must be able to take ownership
	ln, err := transport.NewFile(framePath, lockPath, nil).Bind()
	require.NoError(t, err)
	_ = ln.Close()
}

func TestForwarder_SpawnRateLimited(t *testing.T) {
	sock := transport.NewSocket(filepath.Join(t.TempDir(), "pino.sock"), nil)
	rec := &spawnRecorder{}
	f := NewForwarder(sock, transport.KindSocket, session.Default(), "pino", nil)
	f.SetSpawnFunc(rec.spawn)
	f.SetSpawnInterval(time.Hour)

	require.NoError(t, f.Send(context.Background(), model.NewUpdate("a", "m", 1)))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := f.Send(ctx, model.NewUpdate("b", "m", 1))
	require.Error(t, err)
	assert.Len(t, rec.calls, 1)
}

func TestForwarder_RunDeliversQueuedUpdatesInOrder(t *testing.T) {
	sock := transport.NewSocket(filepath.Join(t.TempDir(), "pino.sock"), nil)

	spawned := make(chan []string, 4)
	f := NewForwarder(sock, transport.KindSocket, session.Default(), "pino", nil)
	f.SetSpawnInterval(time.Millisecond)
	f.SetSpawnFunc(func(name string, args ...string) error {
		spawned <- args
		return nil
	})

	q := queue.New[model.NotificationUpdate]()
	q.Push(model.NewUpdate("one", "m", 1))
	q.Push(model.NewUpdate("two", "m", 1))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.Run(ctx, q) }()

	var titles []string
	for len(titles) < 3 {
		if len(titles) == 2 {
			q.Push(model.NewUpdate("three", "m", 1))
		}
		select {
		case args := <-spawned:
			titles = append(titles, args[1])
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d updates delivered", len(titles))
		}
	}
	assert.Equal(t, []string{"one", "two", "three"}, titles)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
