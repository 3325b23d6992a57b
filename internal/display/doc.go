// Package display is the GTK4 surface of the popup. It builds the
// undecorated layer-shell window, places it on the configured monitor and
// drives the daemon loop from the GTK main loop.
package display
