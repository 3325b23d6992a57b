// Package dbus bridges desktop notifications into pino. It implements the
// org.freedesktop.Notifications server, a passive bus monitor for running
// alongside another notification daemon, and an MPRIS poller that turns
// media player state into popup updates.
package dbus
