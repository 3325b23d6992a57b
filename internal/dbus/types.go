package dbus

import (
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/pino/internal/model"
)

// CloseReason is the reason code carried by NotificationClosed.
type CloseReason uint32

const (
	CloseReasonExpired CloseReason = iota + 1
	CloseReasonDismissed
	CloseReasonClosed
	CloseReasonUndefined
)

var closeReasonNames = [...]string{"", "expired", "dismissed", "closed", "undefined"}

func (r CloseReason) String() string {
	if r == 0 || int(r) >= len(closeReasonNames) {
		return "unknown"
	}
	return closeReasonNames[r]
}

// DiscordPrefix is prepended to the summary of Discord notifications.
const DiscordPrefix = "Discord: "

// DBusNotification holds the arguments of one Notify call, whether received
// by the server or observed by the monitor.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // milliseconds; -1 server default, 0 never
}

// DesktopEntry returns the desktop-entry hint, or "".
func (n *DBusNotification) DesktopEntry() string {
	v, ok := n.Hints["desktop-entry"]
	if !ok {
		return ""
	}
	s, _ := v.Value().(string)
	return s
}

// IsDiscord reports whether Discord sent the notification. Electron builds
// often report a generic app name, so the desktop entry is checked too.
func (n *DBusNotification) IsDiscord() bool {
	for _, s := range []string{n.AppName, n.DesktopEntry()} {
		if strings.Contains(strings.ToLower(s), "discord") {
			return true
		}
	}
	return false
}

// IsMediaPlayer reports whether the app name contains one of players.
func (n *DBusNotification) IsMediaPlayer(players []string) bool {
	name := strings.ToLower(n.AppName)
	for _, p := range players {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// Title is the popup title: the summary, prefixed for Discord.
func (n *DBusNotification) Title() string {
	if n.IsDiscord() {
		return DiscordPrefix + n.Summary
	}
	return n.Summary
}

// DelaySeconds rounds a positive expire timeout up to whole seconds. Other
// timeouts leave the choice to the popup, so defaultDelay is returned.
func (n *DBusNotification) DelaySeconds(defaultDelay uint64) uint64 {
	if n.ExpireTimeout <= 0 {
		return defaultDelay
	}
	return (uint64(n.ExpireTimeout) + 999) / 1000
}

// ToUpdate converts the notification into a popup update.
func (n *DBusNotification) ToUpdate(defaultDelay uint64) model.NotificationUpdate {
	return model.NewUpdate(n.Title(), n.Body, n.DelaySeconds(defaultDelay))
}

// ServerCapabilities is the GetCapabilities reply.
var ServerCapabilities = []string{"actions", "body", "body-markup", "icon-static"}

// ServerInfo is the GetServerInformation reply.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns pino-dbus's server information for version.
func DefaultServerInfo(version string) ServerInfo {
	return ServerInfo{Name: "pino-dbus", Vendor: "pino", Version: version, SpecVersion: "1.2"}
}
