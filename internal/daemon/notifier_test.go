package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type sentNotification struct {
	summary string
	body    string
	level   NotificationLevel
}

func newRecordingNotifier() (*InternalNotifier, *[]sentNotification) {
	var sent []sentNotification
	n := NewInternalNotifier(nil)
	n.SetNotifyHandler(func(summary, body string, level NotificationLevel) error {
		sent = append(sent, sentNotification{summary, body, level})
		return nil
	})
	return n, &sent
}

func TestInternalNotifier_RateLimitsPerKey(t *testing.T) {
	n, sent := newRecordingNotifier()
	n.SetMinInterval(time.Hour)

	assert.True(t, n.NotifyConfigError(errors.New("bad width")))
	assert.False(t, n.NotifyConfigError(errors.New("bad width again")))
	assert.True(t, n.NotifyThemeError(errors.New("missing color3")), "different key is not limited")

	assert.Len(t, *sent, 2)
	assert.Equal(t, "pino: configuration error", (*sent)[0].summary)
	assert.Equal(t, "bad width", (*sent)[0].body)
	assert.Equal(t, NotificationLevelError, (*sent)[0].level)
	assert.Equal(t, NotificationLevelWarning, (*sent)[1].level)
}

func TestInternalNotifier_AllowsAfterInterval(t *testing.T) {
	n, sent := newRecordingNotifier()
	n.SetMinInterval(10 * time.Millisecond)

	assert.True(t, n.NotifyAudioError(errors.New("no device")))
	time.Sleep(30 * time.Millisecond)
	assert.True(t, n.NotifyAudioError(errors.New("no device")))
	assert.Len(t, *sent, 2)
}

func TestInternalNotifier_ConfigReloaded(t *testing.T) {
	n, sent := newRecordingNotifier()

	assert.True(t, n.NotifyConfigReloaded("/tmp/config.toml"))
	assert.False(t, n.NotifyConfigReloaded("/tmp/config.toml"), "reloads share a key")
	assert.Equal(t, []sentNotification{
		{"pino: configuration reloaded", "/tmp/config.toml", NotificationLevelInfo},
	}, *sent)
}

func TestInternalNotifier_NoHandler(t *testing.T) {
	n := NewInternalNotifier(nil)
	n.SetNotifyHandler(nil)
	assert.False(t, n.NotifyConfigError(errors.New("bad width")))
}

func TestInternalNotifier_HandlerError(t *testing.T) {
	n := NewInternalNotifier(nil)
	n.SetNotifyHandler(func(string, string, NotificationLevel) error {
		return errors.New("no notification daemon")
	})
	assert.False(t, n.Notify("k", "s", "b", NotificationLevelInfo))
}

func TestNotificationLevelString(t *testing.T) {
	assert.Equal(t, "info", NotificationLevelInfo.String())
	assert.Equal(t, "warning", NotificationLevelWarning.String())
	assert.Equal(t, "error", NotificationLevelError.String())
	assert.Equal(t, "unknown", NotificationLevel(9).String())
}
