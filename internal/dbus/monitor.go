package dbus

import (
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// notifyMatch selects Notify calls to the notification service.
const notifyMatch = "type='method_call',interface='" + Interface + "',member='Notify'"

// Monitor watches Notify calls addressed to another notification server,
// for desktops where pino-dbus cannot own the name.
type Monitor struct {
	conn   *dbus.Conn
	logger *slog.Logger

	onNotify NotifyHandler
}

// NewMonitor creates a monitor. Nothing is observed until Start.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{logger: logger}
}

// SetNotifyHandler sets the callback for observed notifications. It runs on
// the monitor goroutine.
func (m *Monitor) SetNotifyHandler(handler NotifyHandler) {
	m.onNotify = handler
}

// Start opens a private session connection and subscribes to Notify calls.
// The shared connection cannot be used: once it becomes a monitor the bus
// stops delivering ordinary replies to it.
func (m *Monitor) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	method, err := subscribe(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}
	m.conn = conn
	m.logger.Info("watching notifications", "method", method)

	msgs := make(chan *dbus.Message, 64)
	conn.Eavesdrop(msgs)
	go m.dispatch(msgs)
	return nil
}

// subscribe asks the bus for Notify traffic, preferring BecomeMonitor and
// falling back to an eavesdropping match rule on older buses.
func subscribe(conn *dbus.Conn) (string, error) {
	bus := conn.BusObject()
	err := bus.Call("org.freedesktop.DBus.Monitoring.BecomeMonitor", 0, []string{notifyMatch}, uint32(0)).Err
	if err == nil {
		return "BecomeMonitor", nil
	}
	if err := bus.Call("org.freedesktop.DBus.AddMatch", 0, notifyMatch+",eavesdrop='true'").Err; err != nil {
		return "", fmt.Errorf("bus refused both monitoring and eavesdropping: %w", err)
	}
	return "AddMatch", nil
}

func (m *Monitor) dispatch(msgs <-chan *dbus.Message) {
	for msg := range msgs {
		n, ok := parseNotify(msg)
		if !ok || m.onNotify == nil {
			continue
		}
		id := monitorID(n)
		m.logger.Debug("observed notification", "id", id, "app", n.AppName, "summary", n.Summary)
		m.onNotify(n, id)
	}
}

// parseNotify decodes the arguments of a Notify call. Any other message, or
// a body that does not match the Notify signature, is rejected.
func parseNotify(msg *dbus.Message) (*DBusNotification, bool) {
	if msg == nil || msg.Type != dbus.TypeMethodCall {
		return nil, false
	}
	var iface, member string
	if v, ok := msg.Headers[dbus.FieldInterface]; ok {
		iface, _ = v.Value().(string)
	}
	if v, ok := msg.Headers[dbus.FieldMember]; ok {
		member, _ = v.Value().(string)
	}
	if iface != Interface || member != "Notify" {
		return nil, false
	}

	n := &DBusNotification{}
	err := dbus.Store(msg.Body,
		&n.AppName, &n.ReplacesID, &n.AppIcon, &n.Summary, &n.Body,
		&n.Actions, &n.Hints, &n.ExpireTimeout,
	)
	if err != nil {
		return nil, false
	}
	return n, true
}

// monitorID derives an id for an observed notification. The real id is in
// the server's reply, which a monitor does not correlate.
func monitorID(n *DBusNotification) uint32 {
	if n.ReplacesID != 0 {
		return n.ReplacesID
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(n.AppName))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(n.Summary))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(n.Body))
	return h.Sum32()
}

// Stop closes the private connection, which also ends dispatch.
func (m *Monitor) Stop() error {
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}
