package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/pino/internal/config"
	"github.com/jmylchreest/pino/internal/dbus"
	"github.com/jmylchreest/pino/internal/model"
	"github.com/jmylchreest/pino/internal/queue"
	"github.com/jmylchreest/pino/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, o *options)
	}{
		{
			name: "defaults",
			args: nil,
			check: func(t *testing.T, o *options) {
				assert.Empty(t, o.session)
				sess, err := session.Parse(o.session)
				require.NoError(t, err)
				assert.Equal(t, session.Default(), sess, "shares the endpoint of plain pino")
				assert.Equal(t, "pino", o.binary)
				assert.False(t, o.monitor)
				assert.False(t, o.mpris)
				assert.Equal(t, dbus.DefaultMPRISInterval, o.mprisInterval)
				assert.Equal(t, dbus.DefaultPlayers, splitPlayers(o.mprisPlayers))
			},
		},
		{
			name: "monitor with mpris",
			args: []string{"-monitor", "-mpris", "-mpris-interval", "2s", "-mpris-players", "mpv, spotify", "-s", "3"},
			check: func(t *testing.T, o *options) {
				assert.True(t, o.monitor)
				assert.True(t, o.mpris)
				assert.Equal(t, 2*time.Second, o.mprisInterval)
				assert.Equal(t, []string{"mpv", "spotify"}, splitPlayers(o.mprisPlayers))
				assert.Equal(t, "3", o.session)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("pino-dbus", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			opts, err := parseFlags(fs, tt.args)
			require.NoError(t, err)
			tt.check(t, opts)
		})
	}
}

func TestSplitPlayers(t *testing.T) {
	assert.Nil(t, splitPlayers(""))
	assert.Nil(t, splitPlayers(" , "))
	assert.Equal(t, []string{"vlc"}, splitPlayers("vlc,"))
}

func TestNotifyHandler(t *testing.T) {
	q := queue.New[model.NotificationUpdate]()
	handler := newNotifyHandler(q, 7, nil, discardLogger())

	handler(&dbus.DBusNotification{AppName: "pino", Summary: "pino failed", ExpireTimeout: -1}, 1)
	assert.Equal(t, 0, q.Len())

	handler(&dbus.DBusNotification{AppName: "firefox", Summary: "Download", Body: "done", ExpireTimeout: -1}, 2)
	handler(&dbus.DBusNotification{AppName: "mail", Summary: "Inbox", Body: "1 new", ExpireTimeout: 2500}, 3)

	got := q.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "Download", got[0].Title)
	assert.Equal(t, "done", got[0].Message)
	assert.Equal(t, uint64(7), got[0].DelaySeconds)
	assert.Equal(t, "Inbox", got[1].Title)
	assert.Equal(t, uint64(3), got[1].DelaySeconds)
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := loadConfig(filepath.Join(t.TempDir(), "config.toml"))
		require.NoError(t, err)
		assert.Equal(t, config.DefaultConfig().Screen.Delay, cfg.Screen.Delay)
	})

	t.Run("existing file is loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[screen]\ndelay = 11\n"), 0o644))
		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, uint64(11), cfg.Screen.Delay)
	})

	t.Run("invalid file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[behavior]\ntransport = \"pigeon\"\n"), 0o644))
		_, err := loadConfig(path)
		require.ErrorIs(t, err, config.ErrInvalid)
	})
}
