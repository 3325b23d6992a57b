// Package theme turns the configured colours, fonts and sizes into the
// stylesheet applied to the popup, optionally taking colours from the
// current pywal palette.
package theme
