package session

import (
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/willothy/sesh/internal/logger"
	"github.com/willothy/sesh/internal/protocol"
	"github.com/willothy/sesh/internal/pty"
)

// Session is one live PTY and the process running on it. The manager is the
// single strong owner; pumps reference only the fields they need.
type Session struct {
	ID        int
	Name      string
	Program   string
	Args      []string
	CreatedAt time.Time

	pty *pty.Pty

	mu             sync.Mutex
	attached       *attachment
	size           protocol.WinSize
	lastAttachedAt time.Time
	lastUsed       time.Time
	terminating    bool
}

// attachment binds one client stream to the session. At most one exists at
// a time; a new attach tears down the previous one first.
type attachment struct {
	id      uuid.UUID
	stream  io.ReadWriteCloser
	peerPid int32

	// writeMu serializes frames: output comes from the session read loop,
	// the Exited sentinel from the reaper.
	writeMu sync.Mutex
	closed  chan struct{}
}

func (a *attachment) writeFrame(f protocol.ServerFrame) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return protocol.WriteFrame(a.stream, f)
}

// close tears the attachment down exactly once. Closing the stream also
// unblocks the input pump's pending read.
func (a *attachment) close() {
	select {
	case <-a.closed:
	default:
		close(a.closed)
		a.stream.Close()
	}
}

// Pid returns the child's process id.
func (s *Session) Pid() int { return s.pty.Pid() }

// Info returns a snapshot for ListSessions.
func (s *Session) Info() protocol.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.SessionInfo{
		ID:             s.ID,
		Name:           s.Name,
		Program:        s.Program,
		CreatedAt:      s.CreatedAt,
		LastAttachedAt: s.lastAttachedAt,
		Attached:       s.attached != nil,
		ChildPid:       s.pty.Pid(),
		Size:           s.size,
	}
}

// attach installs a new attachment, stealing any existing one. The previous
// client's stream is closed without an Exited sentinel, so its bridge exits
// cleanly and the session stays alive.
func (s *Session) attach(stream io.ReadWriteCloser, peerPid int32, size protocol.WinSize) (*attachment, error) {
	if err := s.pty.Resize(size); err != nil {
		return nil, err
	}

	a := &attachment{
		id:      uuid.New(),
		stream:  stream,
		peerPid: peerPid,
		closed:  make(chan struct{}),
	}

	s.mu.Lock()
	prev := s.attached
	s.attached = a
	s.size = size
	now := time.Now()
	s.lastAttachedAt = now
	s.lastUsed = now
	s.mu.Unlock()

	if prev != nil {
		logger.Info("attachment stolen", "session", s.Name, "old", prev.id, "new", a.id)
		prev.close()
	}
	return a, nil
}

// detach clears the current attachment and closes its stream without an
// Exited sentinel. Returns false when nothing was attached.
func (s *Session) detach() bool {
	s.mu.Lock()
	a := s.attached
	s.attached = nil
	s.mu.Unlock()

	if a == nil {
		return false
	}
	logger.Info("detached", "session", s.Name, "attachment", a.id)
	a.close()
	return true
}

// detachPeer detaches only if the current attachment belongs to peerPid.
func (s *Session) detachPeer(peerPid int32) bool {
	s.mu.Lock()
	a := s.attached
	if a == nil || a.peerPid != peerPid {
		s.mu.Unlock()
		return false
	}
	s.attached = nil
	s.mu.Unlock()
	a.close()
	return true
}

// clearAttachment drops a specific attachment if it is still current. Used
// by the pumps on stream errors, where a newer attachment may already have
// replaced the failing one.
func (s *Session) clearAttachment(a *attachment) {
	s.mu.Lock()
	if s.attached == a {
		s.attached = nil
	}
	s.mu.Unlock()
	a.close()
}

func (s *Session) currentAttachment() *attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// readLoop pumps child output to whichever client is attached. Output
// produced while detached is discarded; sesh is not a logger. The loop ends
// on read error, typically EOF when the child closes the slave. EOF here is
// advisory only; the reaper owns removal.
func (s *Session) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := s.pty.Read(buf)
		if err != nil {
			logger.Debug("pty read loop done", "session", s.Name, "err", err)
			return
		}
		if n == 0 {
			continue
		}
		a := s.currentAttachment()
		if a == nil {
			continue
		}
		if err := a.writeFrame(protocol.ServerFrame{Output: buf[:n]}); err != nil {
			logger.Warn("client write failed, detaching", "session", s.Name, "err", err)
			s.clearAttachment(a)
		}
	}
}

// inputLoop pumps client frames into the PTY until the stream ends or the
// attachment is replaced. A resize frame is applied before any input that
// follows it on the stream, since frames are processed in order here.
func (s *Session) inputLoop(a *attachment) {
	defer s.clearAttachment(a)
	for {
		var f protocol.ClientFrame
		if err := protocol.ReadFrame(a.stream, &f); err != nil {
			if err != io.EOF {
				logger.Debug("attach stream closed", "session", s.Name, "err", err)
			}
			return
		}
		switch {
		case f.Resize != nil:
			if err := s.pty.Resize(*f.Resize); err != nil {
				logger.Warn("resize failed", "session", s.Name, "err", err)
				continue
			}
			s.mu.Lock()
			s.size = *f.Resize
			s.mu.Unlock()
		case len(f.Input) > 0:
			if _, err := s.pty.Write(f.Input); err != nil {
				logger.Warn("pty write failed", "session", s.Name, "err", err)
				return
			}
		}
	}
}
