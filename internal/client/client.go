package client

import (
	"fmt"
	"net"
	"time"

	"github.com/willothy/sesh/internal/logger"
	"github.com/willothy/sesh/internal/protocol"
)

// Client issues requests against the server socket. Every unary request
// uses a fresh connection, matching the server's one-request-per-connection
// dispatch.
type Client struct {
	socketPath string
}

// Connect returns a client for socketPath. When no server is listening and
// autoStart is set, a server is daemonized and the connection retried with
// a bounded backoff before giving up with ServerUnavailable.
func Connect(socketPath string, autoStart bool) (*Client, error) {
	c := &Client{socketPath: socketPath}
	if conn, err := c.dial(); err == nil {
		conn.Close()
		return c, nil
	}
	if !autoStart {
		return nil, protocol.Errorf(protocol.KindServerUnavailable, "no server at %s", socketPath)
	}

	if err := spawnServer(socketPath); err != nil {
		return nil, protocol.WrapErr(protocol.KindServerUnavailable, "failed to start server", err)
	}
	// Roughly one second of retries while the daemon boots.
	for wait := 25 * time.Millisecond; wait <= 400*time.Millisecond; wait *= 2 {
		time.Sleep(wait)
		if conn, err := c.dial(); err == nil {
			conn.Close()
			logger.Debug("server came up", "socket", socketPath)
			return c, nil
		}
	}
	return nil, protocol.Errorf(protocol.KindServerUnavailable, "server did not come up at %s", socketPath)
}

func (c *Client) dial() (net.Conn, error) {
	return net.DialTimeout("unix", c.socketPath, time.Second)
}

func (c *Client) roundTrip(req protocol.Request) (*protocol.Response, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, protocol.WrapErr(protocol.KindServerUnavailable, "connect", err)
	}
	defer conn.Close()

	if err := protocol.WriteFrame(conn, req); err != nil {
		return nil, err
	}
	var res protocol.Response
	if err := protocol.ReadFrame(conn, &res); err != nil {
		return nil, protocol.WrapErr(protocol.KindIoError, "read response", err)
	}
	if res.Error != nil {
		return nil, res.Error.Err()
	}
	return &res, nil
}

// Start asks the server to spawn a new session.
func (c *Client) Start(req *protocol.StartRequest) (*protocol.StartResponse, error) {
	res, err := c.roundTrip(protocol.Request{Start: req})
	if err != nil {
		return nil, err
	}
	if res.Start == nil {
		return nil, protocol.Errorf(protocol.KindProtocolError, "missing start response")
	}
	return res.Start, nil
}

// List fetches a snapshot of all live sessions, ordered by id.
func (c *Client) List() ([]protocol.SessionInfo, error) {
	res, err := c.roundTrip(protocol.Request{List: &protocol.ListRequest{}})
	if err != nil {
		return nil, err
	}
	if res.List == nil {
		return nil, protocol.Errorf(protocol.KindProtocolError, "missing list response")
	}
	return res.List.Sessions, nil
}

// Kill terminates the selected session.
func (c *Client) Kill(selector string) (bool, error) {
	res, err := c.roundTrip(protocol.Request{Kill: &protocol.KillRequest{Selector: selector}})
	if err != nil {
		return false, err
	}
	if res.Kill == nil {
		return false, protocol.Errorf(protocol.KindProtocolError, "missing kill response")
	}
	return res.Kill.Killed, nil
}

// Detach severs an attachment. With an empty selector the server finds this
// process's own attachment via peer credentials.
func (c *Client) Detach(selector string, noPeerCheck bool) (bool, error) {
	res, err := c.roundTrip(protocol.Request{Detach: &protocol.DetachRequest{
		Selector:    selector,
		NoPeerCheck: noPeerCheck,
	}})
	if err != nil {
		return false, err
	}
	if res.Detach == nil {
		return false, protocol.Errorf(protocol.KindProtocolError, "missing detach response")
	}
	return res.Detach.Detached, nil
}

// Shutdown asks the server to kill all sessions and exit.
func (c *Client) Shutdown() error {
	_, err := c.roundTrip(protocol.Request{Shutdown: &protocol.ShutdownRequest{}})
	return err
}

// dialAttach opens the streaming attach connection and sends the initial
// request carrying the selector and window size. The returned connection
// then speaks ClientFrame/ServerFrame until closed.
func (c *Client) dialAttach(req *protocol.AttachRequest) (net.Conn, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, protocol.WrapErr(protocol.KindServerUnavailable, "connect", err)
	}
	if err := protocol.WriteFrame(conn, protocol.Request{Attach: req}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send attach request: %w", err)
	}
	return conn, nil
}
