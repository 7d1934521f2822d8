package client

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/willothy/sesh/internal/logger"
	"github.com/willothy/sesh/internal/protocol"
)

// AttachOutcome is how an attach ended: the child exited with a status, or
// the attachment was severed (hotkey, remote detach, steal) and the session
// lives on.
type AttachOutcome struct {
	Exited   bool
	Status   int
	Detached bool
}

// Attach turns the calling terminal into a transparent conduit to the
// selected session until the child exits or the attachment is severed. The
// terminal is restored on every exit path before this function returns.
func (c *Client) Attach(selector string) (*AttachOutcome, error) {
	stdin, stdout := os.Stdin, os.Stdout

	size, err := termSize(stdin)
	if err != nil {
		return nil, err
	}

	conn, err := c.dialAttach(&protocol.AttachRequest{Selector: selector, Size: size})
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	guard, err := enterRaw(stdin, stdout)
	if err != nil {
		return nil, err
	}
	defer guard.Restore()

	var writeMu sync.Mutex
	send := func(f protocol.ClientFrame) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return protocol.WriteFrame(conn, f)
	}

	// Curses-style programs repaint on SIGWINCH; nudging the width by one
	// column and back forces a redraw, since there is no scrollback replay.
	nudge := size
	if nudge.Cols > 1 {
		nudge.Cols--
	} else {
		nudge.Cols++
	}
	send(protocol.ClientFrame{Resize: &nudge})
	send(protocol.ClientFrame{Resize: &size})

	type outcome struct {
		exited bool
		status int
		err    error
	}
	done := make(chan outcome, 1)

	// Server → stdout. A stream that ends without the Exited sentinel is a
	// detach; the session is still alive.
	go func() {
		for {
			var f protocol.ServerFrame
			if err := protocol.ReadFrame(conn, &f); err != nil {
				done <- outcome{}
				return
			}
			switch {
			case f.Error != nil:
				done <- outcome{err: f.Error.Err()}
				return
			case f.Exited != nil:
				done <- outcome{exited: true, status: *f.Exited}
				return
			case len(f.Output) > 0:
				if _, err := stdout.Write(f.Output); err != nil {
					done <- outcome{err: err}
					return
				}
			}
		}
	}()

	// Stdin → server, watching for the detach hotkey. Bytes ahead of the
	// hotkey in the same read are still delivered; the hotkey itself never
	// is.
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := stdin.Read(buf)
			if err != nil {
				return
			}
			forward, hotkey := scanDetachHotkey(buf[:n])
			if forward > 0 {
				input := make([]byte, forward)
				copy(input, buf[:forward])
				if err := send(protocol.ClientFrame{Input: input}); err != nil {
					return
				}
			}
			if hotkey {
				if ok, err := c.Detach("", false); err != nil || !ok {
					logger.Warn("detach request failed, closing stream", "err", err)
					conn.Close()
				}
				return
			}
		}
	}()

	// Window-size changes and SIGTERM. SIGINT is not trapped: in raw mode
	// Ctrl-C arrives as a byte and belongs to the session.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGWINCH:
				if size, err := termSize(stdin); err == nil {
					send(protocol.ClientFrame{Resize: &size})
				}
			case syscall.SIGTERM:
				if ok, err := c.Detach("", false); err != nil || !ok {
					conn.Close()
				}
			}
		}
	}()

	res := <-done
	guard.Restore()
	if res.err != nil {
		return nil, res.err
	}
	if res.exited {
		return &AttachOutcome{Exited: true, Status: res.status}, nil
	}
	return &AttachOutcome{Detached: true}, nil
}
