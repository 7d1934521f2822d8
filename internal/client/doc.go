// Package client implements the sesh side of the wire: unary RPC calls on
// fresh connections, server auto-start, and the attach bridge that turns
// the local terminal into a transparent conduit to a session's PTY.
package client
