// Package daemon runs the visible popup: it owns the display state machine
// and the loop that drains incoming updates, repaints the surface and closes
// it when the armed deadline passes or the user dismisses it.
//
// Everything here except ConfigWatcher and Forwarder runs on the UI
// goroutine. Updates reach it only through a queue.Queue.
package daemon
