//go:build !linux

package transport

import "net"

// checkPeer relies on the 0700 runtime directory where SO_PEERCRED is unavailable.
func checkPeer(*net.UnixConn) error {
	return nil
}
