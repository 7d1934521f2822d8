package client

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// serverBinary locates the seshd executable: $SESHD_PATH wins, then PATH,
// then a seshd sitting next to the sesh binary itself.
func serverBinary() (string, error) {
	if path := os.Getenv("SESHD_PATH"); path != "" {
		return path, nil
	}
	if path, err := exec.LookPath("seshd"); err == nil {
		return path, nil
	}
	self, err := os.Executable()
	if err == nil {
		sibling := filepath.Join(filepath.Dir(self), "seshd")
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}
	return "", fmt.Errorf("seshd not found: set SESHD_PATH or add it to PATH")
}

// spawnServer daemonizes a seshd: new session, no controlling terminal,
// stdio on /dev/null. The child is released so it outlives this process.
func spawnServer(socketPath string) error {
	bin, err := serverBinary()
	if err != nil {
		return err
	}

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	defer devnull.Close()

	cmd := exec.Command(bin)
	cmd.Env = append(os.Environ(), "SESH_SOCKET="+socketPath)
	cmd.Stdin = devnull
	cmd.Stdout = devnull
	cmd.Stderr = devnull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", bin, err)
	}
	return cmd.Process.Release()
}
