package server

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/willothy/sesh/internal/logger"
	"github.com/willothy/sesh/internal/protocol"
	"github.com/willothy/sesh/internal/session"
)

// Server accepts client connections on a unix socket and dispatches
// requests to the session manager. Every unary request arrives on a fresh
// connection; an Attach request upgrades its connection to a frame stream.
type Server struct {
	socketPath string
	manager    *session.Manager
	listener   net.Listener
	stopCh     chan struct{}
	shutdownCh chan struct{}
}

// NewServer creates a server for the given socket path and manager.
func NewServer(socketPath string, manager *session.Manager) *Server {
	return &Server{
		socketPath: socketPath,
		manager:    manager,
		stopCh:     make(chan struct{}),
		shutdownCh: make(chan struct{}, 1),
	}
}

// ShutdownRequests delivers a value when a client asked the server to shut
// down. The main loop owns the actual teardown ordering.
func (s *Server) ShutdownRequests() <-chan struct{} { return s.shutdownCh }

// Start binds the socket and serves until Stop is called. A stale socket
// file with no listener behind it is removed and replaced; a live one means
// another server owns this path.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o700); err != nil {
		return fmt.Errorf("create runtime directory: %w", err)
	}

	if _, err := os.Stat(s.socketPath); err == nil {
		if probe, err := net.Dial("unix", s.socketPath); err == nil {
			probe.Close()
			return fmt.Errorf("server already listening on %s", s.socketPath)
		}
		logger.Warn("removing stale socket", "path", s.socketPath)
		if err := os.Remove(s.socketPath); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}
	s.listener = listener
	logger.Info("listening", "path", s.socketPath)

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}
		go s.handleConn(conn)
	}
}

// Stop closes the listener and removes the socket file.
func (s *Server) Stop() {
	select {
	case <-s.stopCh:
		return
	default:
		close(s.stopCh)
	}
	if s.listener != nil {
		s.listener.Close()
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove socket", "path", s.socketPath, "err", err)
	}
	logger.Info("stopped", "path", s.socketPath)
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	peer, err := peerCred(conn)
	if err != nil {
		logger.Debug("no peer credentials", "err", err)
	}

	var req protocol.Request
	if err := protocol.ReadFrame(conn, &req); err != nil {
		if err != io.EOF {
			s.reply(conn, protocol.Response{Error: protocol.ToWire(
				protocol.WrapErr(protocol.KindProtocolError, "bad request", err))})
		}
		return
	}

	switch {
	case req.Start != nil:
		res, err := s.manager.Start(req.Start)
		if err != nil {
			s.reply(conn, protocol.Response{Error: protocol.ToWire(err)})
			return
		}
		s.reply(conn, protocol.Response{Start: res})

	case req.Attach != nil:
		// Streaming: the connection now belongs to the attachment. Attach
		// returns once the stream ends or the attachment is replaced.
		if err := s.manager.Attach(req.Attach, conn, peer.Pid); err != nil {
			protocol.WriteFrame(conn, protocol.ServerFrame{Error: protocol.ToWire(err)})
		}

	case req.List != nil:
		s.reply(conn, protocol.Response{List: s.manager.List()})

	case req.Kill != nil:
		killed, err := s.manager.Kill(req.Kill.Selector)
		if err != nil {
			s.reply(conn, protocol.Response{Error: protocol.ToWire(err)})
			return
		}
		s.reply(conn, protocol.Response{Kill: &protocol.KillResponse{Killed: killed}})

	case req.Detach != nil:
		if req.Detach.Selector == "" && !req.Detach.NoPeerCheck && peer.Pid == 0 {
			s.reply(conn, protocol.Response{Error: protocol.ToWire(protocol.Errorf(protocol.KindProtocolError,
				"no peer credentials: detach needs a session selector or the no-peer-check override"))})
			return
		}
		detached, err := s.manager.Detach(req.Detach.Selector, peer.Pid, req.Detach.NoPeerCheck)
		if err != nil {
			s.reply(conn, protocol.Response{Error: protocol.ToWire(err)})
			return
		}
		s.reply(conn, protocol.Response{Detach: &protocol.DetachResponse{Detached: detached}})

	case req.Shutdown != nil:
		s.reply(conn, protocol.Response{Shutdown: &protocol.ShutdownResponse{}})
		select {
		case s.shutdownCh <- struct{}{}:
		default:
		}

	default:
		s.reply(conn, protocol.Response{Error: protocol.ToWire(
			protocol.Errorf(protocol.KindProtocolError, "empty request"))})
	}
}

func (s *Server) reply(conn net.Conn, res protocol.Response) {
	if err := protocol.WriteFrame(conn, res); err != nil {
		logger.Debug("reply failed", "err", err)
	}
}
