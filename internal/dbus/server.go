package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// Interface is the freedesktop notification interface, also used as the
	// well-known bus name.
	Interface = "org.freedesktop.Notifications"
	// ObjectPath is where the notification object lives.
	ObjectPath = "/org/freedesktop/Notifications"
)

// ErrNameTaken is returned by Start when another server owns Interface.
var ErrNameTaken = errors.New("bus name already taken")

// NotifyHandler receives every notification along with the id returned to
// the sender.
type NotifyHandler func(n *DBusNotification, id uint32)

const introspectXML = `<node>
	<interface name="` + Interface + `">
		<method name="GetCapabilities">
			<arg name="capabilities" type="as" direction="out"/>
		</method>
		<method name="GetServerInformation">
			<arg name="name" type="s" direction="out"/>
			<arg name="vendor" type="s" direction="out"/>
			<arg name="version" type="s" direction="out"/>
			<arg name="spec_version" type="s" direction="out"/>
		</method>
		<method name="Notify">
			<arg name="app_name" type="s" direction="in"/>
			<arg name="replaces_id" type="u" direction="in"/>
			<arg name="app_icon" type="s" direction="in"/>
			<arg name="summary" type="s" direction="in"/>
			<arg name="body" type="s" direction="in"/>
			<arg name="actions" type="as" direction="in"/>
			<arg name="hints" type="a{sv}" direction="in"/>
			<arg name="expire_timeout" type="i" direction="in"/>
			<arg name="id" type="u" direction="out"/>
		</method>
		<method name="CloseNotification">
			<arg name="id" type="u" direction="in"/>
		</method>
		<signal name="NotificationClosed">
			<arg name="id" type="u"/>
			<arg name="reason" type="u"/>
		</signal>
	</interface>` + introspect.IntrospectDataString + `</node>`

// Server owns org.freedesktop.Notifications and turns each Notify call into
// a handler call. Popups are shown elsewhere, so the server keeps no record
// of what it has received.
type Server struct {
	logger *slog.Logger
	info   ServerInfo
	lastID atomic.Uint32

	mu       sync.Mutex
	conn     *dbus.Conn
	onNotify NotifyHandler
	owned    bool
}

// NewServer creates a server that reports version in GetServerInformation.
func NewServer(version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{logger: logger, info: DefaultServerInfo(version)}
}

// SetNotifyHandler sets the callback for Notify. It runs on the godbus
// dispatch goroutine and must not block.
func (s *Server) SetNotifyHandler(handler NotifyHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNotify = handler
}

// Start claims the notification name on the shared session bus.
func (s *Server) Start() error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return s.Serve(conn)
}

// Serve exports the server on conn and claims the notification name.
// The connection is kept even when the name is taken so the caller can ask
// the current owner who it is.
func (s *Server) Serve(conn *dbus.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owned {
		return fmt.Errorf("%s: already serving", Interface)
	}
	s.conn = conn

	if err := conn.Export(s, ObjectPath, Interface); err != nil {
		return fmt.Errorf("failed to export %s: %w", ObjectPath, err)
	}
	if err := conn.Export(introspect.Introspectable(introspectXML), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	reply, err := conn.RequestName(Interface, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request %s: %w", Interface, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("%s: %w", Interface, ErrNameTaken)
	}
	s.owned = true

	s.logger.Info("claimed notification bus name", "name", Interface, "version", s.info.Version)
	return nil
}

// Stop gives up the bus name. The shared session connection stays open.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.owned {
		return nil
	}
	s.owned = false

	if _, err := s.conn.ReleaseName(Interface); err != nil {
		return fmt.Errorf("failed to release %s: %w", Interface, err)
	}
	s.logger.Info("released notification bus name")
	return nil
}

// Connection returns the bus connection, or nil before Start.
func (s *Server) Connection() *dbus.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// GetCapabilities implements the D-Bus method of the same name.
func (s *Server) GetCapabilities() ([]string, *dbus.Error) {
	return ServerCapabilities, nil
}

// GetServerInformation implements the D-Bus method of the same name.
func (s *Server) GetServerInformation() (string, string, string, string, *dbus.Error) {
	return s.info.Name, s.info.Vendor, s.info.Version, s.info.SpecVersion, nil
}

// Notify implements the D-Bus method of the same name. A non-zero
// replacesID is echoed back so the sender keeps updating "its" popup.
func (s *Server) Notify(appName string, replacesID uint32, appIcon, summary, body string,
	actions []string, hints map[string]dbus.Variant, expireTimeout int32) (uint32, *dbus.Error) {
	id := replacesID
	if id == 0 {
		id = s.lastID.Add(1)
	}

	n := &DBusNotification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}
	s.logger.Debug("notify", "id", id, "app", appName, "summary", summary, "expire_timeout", expireTimeout)

	s.mu.Lock()
	handler := s.onNotify
	s.mu.Unlock()
	if handler != nil {
		handler(n, id)
	}
	return id, nil
}

// CloseNotification implements the D-Bus method of the same name. The
// popup closes on its own timer, so this only confirms the close to the
// sender.
func (s *Server) CloseNotification(id uint32) *dbus.Error {
	if err := s.emitClosed(id, CloseReasonClosed); err != nil {
		s.logger.Warn("failed to confirm close", "id", id, "error", err)
	}
	return nil
}

func (s *Server) emitClosed(id uint32, reason CloseReason) error {
	conn := s.Connection()
	if conn == nil {
		return errors.New("not connected to the session bus")
	}
	if err := conn.Emit(ObjectPath, Interface+".NotificationClosed", id, uint32(reason)); err != nil {
		return fmt.Errorf("failed to emit NotificationClosed: %w", err)
	}
	s.logger.Debug("notification closed", "id", id, "reason", reason)
	return nil
}
