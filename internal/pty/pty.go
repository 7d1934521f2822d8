package pty

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	ptylib "github.com/creack/pty"
	"golang.org/x/sys/unix"

	"github.com/willothy/sesh/internal/protocol"
)

// Pty owns the master side of a pseudoterminal and the child process
// launched on its slave side. The child runs as a session leader with the
// slave as its controlling terminal, so job control inside it works.
type Pty struct {
	master *os.File
	cmd    *exec.Cmd
	pid    int

	waitOnce sync.Once
	waitErr  error
	status   int
	waitDone chan struct{}
}

// Spawn allocates a PTY pair, applies the initial window size, and launches
// program with args on the slave side. env is the full child environment;
// cwd is the working directory. All failures surface as SpawnError.
func Spawn(program string, args []string, env []string, cwd string, size protocol.WinSize) (*Pty, error) {
	path, err := exec.LookPath(program)
	if err != nil {
		return nil, protocol.WrapErr(protocol.KindSpawnError, fmt.Sprintf("resolve program %q", program), err)
	}

	cmd := exec.Command(path, args...)
	cmd.Env = env
	cmd.Dir = cwd

	master, err := ptylib.StartWithSize(cmd, &ptylib.Winsize{
		Rows: size.Rows,
		Cols: size.Cols,
		X:    size.X,
		Y:    size.Y,
	})
	if err != nil {
		return nil, protocol.WrapErr(protocol.KindSpawnError, fmt.Sprintf("spawn %q", program), err)
	}

	p := &Pty{
		master:   master,
		cmd:      cmd,
		pid:      cmd.Process.Pid,
		waitDone: make(chan struct{}),
	}
	return p, nil
}

// Pid returns the child's process id.
func (p *Pty) Pid() int { return p.pid }

// Read reads output produced by the child from the master side.
func (p *Pty) Read(buf []byte) (int, error) { return p.master.Read(buf) }

// Write delivers input bytes to the child via the master side.
func (p *Pty) Write(buf []byte) (int, error) { return p.master.Write(buf) }

// Resize applies a new window size to the slave side. The foreground
// process group receives SIGWINCH from the kernel as a side effect.
func (p *Pty) Resize(size protocol.WinSize) error {
	if !size.Valid() {
		return protocol.Errorf(protocol.KindProtocolError, "invalid window size %dx%d", size.Cols, size.Rows)
	}
	if err := ptylib.Setsize(p.master, &ptylib.Winsize{
		Rows: size.Rows,
		Cols: size.Cols,
		X:    size.X,
		Y:    size.Y,
	}); err != nil {
		return fmt.Errorf("resize pty: %w", err)
	}
	return nil
}

// Signal sends sig to the child's process group so foreground jobs and
// subshells receive it too. The child is a session leader, so its pid is
// also its process group id.
func (p *Pty) Signal(sig syscall.Signal) error {
	if err := unix.Kill(-p.pid, sig); err != nil {
		return fmt.Errorf("signal process group %d: %w", p.pid, err)
	}
	return nil
}

// Wait reaps the child and returns its exit status. It is idempotent: the
// first call performs the wait, later calls return the recorded status.
// A signal death is reported as 128+signo, matching shell convention.
func (p *Pty) Wait() (int, error) {
	p.waitOnce.Do(func() {
		defer close(p.waitDone)
		err := p.cmd.Wait()
		if err == nil {
			p.status = 0
			return
		}
		if exit, ok := err.(*exec.ExitError); ok {
			if ws, ok := exit.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				p.status = 128 + int(ws.Signal())
			} else {
				p.status = exit.ExitCode()
			}
			return
		}
		p.waitErr = fmt.Errorf("wait for pid %d: %w", p.pid, err)
	})
	<-p.waitDone
	return p.status, p.waitErr
}

// Done is closed once the child has been reaped.
func (p *Pty) Done() <-chan struct{} { return p.waitDone }

// Close closes the master fd. The child, if still running, keeps the slave
// and will see EIO/SIGHUP semantics from the kernel.
func (p *Pty) Close() error { return p.master.Close() }
