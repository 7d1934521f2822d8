// Package session is the server's stateful core: the table of live
// sessions, attachment stealing, the byte pumps between PTY masters and
// client streams, and child reaping.
package session
