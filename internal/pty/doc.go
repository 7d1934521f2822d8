// Package pty allocates pseudoterminal pairs and owns the child process
// launched on the slave side: spawn, read/write on the master, window
// resizing, process-group signalling, and idempotent reaping.
package pty
