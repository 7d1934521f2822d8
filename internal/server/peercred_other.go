//go:build !linux

package server

import "net"

// Peer identifies the process on the other end of a unix socket.
type Peer struct {
	Pid int32
	Uid uint32
}

// peerCred is a stub on platforms without SO_PEERCRED; selector-less detach
// then requires an explicit selector or the no-peer-check override.
func peerCred(conn net.Conn) (Peer, error) {
	return Peer{}, nil
}
