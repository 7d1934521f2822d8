package session

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/willothy/sesh/internal/logger"
	"github.com/willothy/sesh/internal/protocol"
	"github.com/willothy/sesh/internal/pty"
)

// Manager owns every live session. The table lock covers only
// lookup/insert/remove; per-session state is guarded by the session's own
// mutex.
type Manager struct {
	grace       time.Duration
	exitOnEmpty bool

	mu           sync.RWMutex
	sessions     map[int]*Session
	names        map[string]int
	removed      map[int]chan struct{}
	nextID       int
	shuttingDown bool

	exitCh chan struct{}
}

// NewManager creates an empty session table. grace is the SIGHUP-to-SIGKILL
// window applied when killing sessions.
func NewManager(grace time.Duration, exitOnEmpty bool) *Manager {
	return &Manager{
		grace:       grace,
		exitOnEmpty: exitOnEmpty,
		sessions:    make(map[int]*Session),
		names:       make(map[string]int),
		removed:     make(map[int]chan struct{}),
		nextID:      1,
		exitCh:      make(chan struct{}, 1),
	}
}

// ExitRequests delivers a value when the server should exit because the
// last session died and exit_on_empty is set.
func (m *Manager) ExitRequests() <-chan struct{} { return m.exitCh }

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Start spawns a new session. The name is reserved before the spawn and
// released again on failure, so a failed spawn leaves no partial state.
func (m *Manager) Start(req *protocol.StartRequest) (*protocol.StartResponse, error) {
	program := req.Program
	if program == "" {
		shell, err := pty.DetectShell()
		if err != nil {
			return nil, protocol.WrapErr(protocol.KindSpawnError, "no program given", err)
		}
		program = shell
	}
	if !req.Size.Valid() {
		return nil, protocol.Errorf(protocol.KindProtocolError, "invalid window size %dx%d", req.Size.Cols, req.Size.Rows)
	}

	m.mu.Lock()
	if m.shuttingDown {
		m.mu.Unlock()
		return nil, protocol.Errorf(protocol.KindServerUnavailable, "server is shutting down")
	}
	name := req.Name
	if name != "" {
		if err := validateName(name); err != nil {
			m.mu.Unlock()
			return nil, err
		}
		if _, taken := m.names[name]; taken {
			m.mu.Unlock()
			return nil, protocol.Errorf(protocol.KindNameTaken, "session name %q already in use", name)
		}
	} else {
		name = synthesizeName(program, func(n string) bool {
			_, taken := m.names[n]
			return taken
		})
	}
	id := m.nextID
	m.nextID++
	m.names[name] = id
	m.mu.Unlock()

	p, err := pty.Spawn(program, req.Args, buildEnv(req.Env, name, id), req.Cwd, req.Size)
	if err != nil {
		m.mu.Lock()
		delete(m.names, name)
		m.mu.Unlock()
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:        id,
		Name:      name,
		Program:   program,
		Args:      req.Args,
		CreatedAt: now,
		pty:       p,
		size:      req.Size,
		lastUsed:  now,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.removed[id] = make(chan struct{})
	m.mu.Unlock()

	go s.readLoop()
	go m.reap(s)

	logger.Info("session started", "id", id, "name", name, "program", program, "pid", p.Pid())
	return &protocol.StartResponse{ID: id, Name: name}, nil
}

// List snapshots all live sessions, ordered by id ascending.
func (m *Manager) List() *protocol.ListResponse {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	infos := make([]protocol.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	return &protocol.ListResponse{Sessions: infos}
}

// Kill terminates the selected session: SIGHUP to the process group, a
// grace period, then SIGKILL. It returns once the child is reaped and the
// session removed from the table. Killing a session whose child already
// exited is idempotent and still reports true.
func (m *Manager) Kill(selector string) (bool, error) {
	s, err := m.resolve(selector)
	if err != nil {
		return false, err
	}
	m.terminate(s)
	return true, nil
}

// terminate runs the SIGHUP/grace/SIGKILL ladder and waits for removal.
func (m *Manager) terminate(s *Session) {
	s.mu.Lock()
	already := s.terminating
	s.terminating = true
	s.mu.Unlock()

	m.mu.RLock()
	removed := m.removed[s.ID]
	m.mu.RUnlock()

	if !already {
		// ESRCH here just means the child beat us to the exit.
		if err := s.pty.Signal(syscall.SIGHUP); err != nil {
			logger.Debug("SIGHUP failed", "session", s.Name, "err", err)
		}
		select {
		case <-s.pty.Done():
		case <-time.After(m.grace):
			logger.Warn("kill grace expired, escalating", "session", s.Name)
			if err := s.pty.Signal(syscall.SIGKILL); err != nil {
				logger.Debug("SIGKILL failed", "session", s.Name, "err", err)
			}
		}
	}
	if removed != nil {
		<-removed
	}
}

// Detach severs an attachment without touching the session itself.
//
// With a selector, whatever is attached to that session is detached; an
// unknown selector is NotFound, an unattached session is a false no-op.
// Without a selector the caller's own attachment is found by peer pid,
// unless noPeerCheck is set, which detaches every attachment regardless of
// owner.
func (m *Manager) Detach(selector string, peerPid int32, noPeerCheck bool) (bool, error) {
	if selector != "" {
		s, err := m.resolve(selector)
		if err != nil {
			return false, err
		}
		return s.detach(), nil
	}

	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	detached := false
	for _, s := range sessions {
		if noPeerCheck {
			if s.detach() {
				detached = true
			}
		} else if s.detachPeer(peerPid) {
			return true, nil
		}
	}
	return detached, nil
}

// Attach binds stream to the selected session and pumps client frames into
// the PTY until the stream ends or the attachment is replaced. The caller's
// goroutine is borrowed for the input pump; output flows from the session's
// long-lived read loop.
func (m *Manager) Attach(req *protocol.AttachRequest, stream io.ReadWriteCloser, peerPid int32) error {
	s, err := m.resolve(req.Selector)
	if err != nil {
		return err
	}
	if !req.Size.Valid() {
		return protocol.Errorf(protocol.KindProtocolError, "invalid window size %dx%d", req.Size.Cols, req.Size.Rows)
	}
	a, err := s.attach(stream, peerPid, req.Size)
	if err != nil {
		return err
	}
	logger.Info("attached", "session", s.Name, "attachment", a.id, "peer", peerPid)
	s.inputLoop(a)
	return nil
}

// Shutdown kills every session in parallel and waits for all reapers to
// finish. Further Start calls fail with ServerUnavailable.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.shuttingDown = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	logger.Info("shutting down", "sessions", len(sessions))
	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			m.terminate(s)
		}(s)
	}
	wg.Wait()
}

// reap blocks until the session's child exits, then tears the session down:
// table removal first, then the Exited sentinel to any attached client and
// the stream close.
func (m *Manager) reap(s *Session) {
	status, err := s.pty.Wait()
	if err != nil {
		logger.Error("wait failed", "session", s.Name, "err", err)
	}

	m.mu.Lock()
	_, present := m.sessions[s.ID]
	delete(m.sessions, s.ID)
	delete(m.names, s.Name)
	removed := m.removed[s.ID]
	delete(m.removed, s.ID)
	empty := len(m.sessions) == 0
	shutting := m.shuttingDown
	m.mu.Unlock()

	if present {
		logger.Info("session exited", "id", s.ID, "name", s.Name, "status", status)
	}

	s.mu.Lock()
	a := s.attached
	s.attached = nil
	s.mu.Unlock()
	if a != nil {
		if werr := a.writeFrame(protocol.ServerFrame{Exited: &status}); werr != nil {
			logger.Debug("exit sentinel not delivered", "session", s.Name, "err", werr)
		}
		a.close()
	}
	s.pty.Close()

	if removed != nil {
		close(removed)
	}
	if empty && m.exitOnEmpty && !shutting {
		select {
		case m.exitCh <- struct{}{}:
		default:
		}
	}
}

// buildEnv flattens the inherited environment and injects SESH_NAME and
// SESH_SESSION_ID, overriding any values the creating client carried from
// its own enclosing session.
func buildEnv(env map[string]string, name string, id int) []string {
	out := make([]string, 0, len(env)+2)
	for k, v := range env {
		switch k {
		case "SESH_NAME", "SESH_SESSION_ID":
		default:
			out = append(out, k+"="+v)
		}
	}
	out = append(out, "SESH_NAME="+name, fmt.Sprintf("SESH_SESSION_ID=%d", id))
	return out
}

// resolve maps a selector to a live session: a numeric selector matching a
// live id wins, otherwise exact name lookup, otherwise NotFound.
func (m *Manager) resolve(selector string) (*Session, error) {
	if selector == "" {
		return nil, protocol.Errorf(protocol.KindNotFound, "empty session selector")
	}
	sel := protocol.ParseSelector(selector)

	m.mu.RLock()
	defer m.mu.RUnlock()
	if sel.IsID {
		if s, ok := m.sessions[sel.ID]; ok {
			return s, nil
		}
	}
	if id, ok := m.names[sel.Name]; ok {
		if s, ok := m.sessions[id]; ok {
			return s, nil
		}
	}
	return nil, protocol.Errorf(protocol.KindNotFound, "no session matches %q", selector)
}
