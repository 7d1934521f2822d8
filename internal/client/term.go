package client

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/willothy/sesh/internal/protocol"
)

const (
	enterAltScreen = "\x1b[?1049h\x1b[?25l"
	leaveAltScreen = "\x1b[?25h\x1b[?1049l"
)

// detachHotkey is ESC followed by backslash, i.e. Alt+\ as most terminals
// encode it.
var detachHotkey = []byte{0x1b, '\\'}

// termGuard holds the terminal in raw mode on the alternate screen and
// restores it exactly once, on whichever exit path runs first.
type termGuard struct {
	fd    int
	out   *os.File
	state *term.State

	once sync.Once
}

// enterRaw switches the terminal into raw mode and the alternate screen
// with the cursor hidden. The caller must arrange for Restore to run on
// every exit path, including signals.
func enterRaw(in, out *os.File) (*termGuard, error) {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}
	fmt.Fprint(out, enterAltScreen)
	return &termGuard{fd: fd, out: out, state: state}, nil
}

// Restore leaves the alternate screen and puts the terminal modes back.
// Safe to call from multiple goroutines; only the first call acts.
func (g *termGuard) Restore() {
	g.once.Do(func() {
		fmt.Fprint(g.out, leaveAltScreen)
		term.Restore(g.fd, g.state)
	})
}

// termSize reads the full window size, pixel fields included, from the
// terminal behind f.
func termSize(f *os.File) (protocol.WinSize, error) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return protocol.WinSize{}, fmt.Errorf("query terminal size: %w", err)
	}
	size := protocol.WinSize{Rows: ws.Row, Cols: ws.Col, X: ws.Xpixel, Y: ws.Ypixel}
	if !size.Valid() {
		return protocol.WinSize{Rows: 24, Cols: 80}, nil
	}
	return size, nil
}

// scanDetachHotkey looks for the detach sequence within a single read. It
// returns the number of leading bytes that should still be forwarded and
// whether the hotkey was found; the hotkey bytes themselves are never
// forwarded.
func scanDetachHotkey(buf []byte) (forward int, found bool) {
	if i := bytes.Index(buf, detachHotkey); i >= 0 {
		return i, true
	}
	return len(buf), false
}
