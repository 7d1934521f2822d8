package cli

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/willothy/sesh/internal/client"
	"github.com/willothy/sesh/internal/config"
	"github.com/willothy/sesh/internal/logger"
	"github.com/willothy/sesh/internal/protocol"
)

// connect loads config, points logging at the client log file, and returns
// a client. autoStart controls whether a missing server is daemonized.
func connect(autoStart bool) (*client.Client, error) {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return nil, err
	}
	logger.SetDebug(cfg.Debug)
	logger.Init(config.ClientLogPath())
	return client.Connect(cfg.SocketPath, autoStart)
}

// environMap converts this process's environment for the wire.
func environMap() map[string]string {
	env := make(map[string]string)
	for _, e := range os.Environ() {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return env
}

// terminalSize reads the caller's window size, defaulting to 80x24 when
// stdin is not a terminal (e.g. detached starts from scripts).
func terminalSize() protocol.WinSize {
	ws, err := unix.IoctlGetWinsize(int(os.Stdin.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Row == 0 || ws.Col == 0 {
		return protocol.WinSize{Rows: 24, Cols: 80}
	}
	return protocol.WinSize{Rows: ws.Row, Cols: ws.Col, X: ws.Xpixel, Y: ws.Ypixel}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// successText colors a status line green on terminals.
func successText(s string) string {
	if !isTerminal() {
		return s
	}
	return "\x1b[32m" + s + "\x1b[0m"
}

// errorText colors an error line red on terminals.
func errorText(s string) string {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return s
	}
	return "\x1b[31m" + s + "\x1b[0m"
}
