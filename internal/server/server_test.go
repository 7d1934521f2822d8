package server

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willothy/sesh/internal/client"
	"github.com/willothy/sesh/internal/protocol"
	"github.com/willothy/sesh/internal/session"
)

func startTestServer(t *testing.T) (string, *session.Manager, *Server) {
	t.Helper()
	requireShell(t)

	sock := filepath.Join(t.TempDir(), "sesh.sock")
	manager := session.NewManager(200*time.Millisecond, false)
	srv := NewServer(sock, manager)
	go srv.Start()
	t.Cleanup(func() {
		manager.Shutdown()
		srv.Stop()
	})

	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond, "server never came up")
	return sock, manager, srv
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

func testStartRequest(name string) *protocol.StartRequest {
	return &protocol.StartRequest{
		Name:    name,
		Program: "/bin/sh",
		Args:    []string{"-c", "sleep 30"},
		Cwd:     "/",
		Size:    protocol.WinSize{Rows: 24, Cols: 80},
	}
}

func TestUnaryRoundTrips(t *testing.T) {
	sock, _, _ := startTestServer(t)

	c, err := client.Connect(sock, false)
	require.NoError(t, err)

	res, err := c.Start(testStartRequest("work"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.ID)
	assert.Equal(t, "work", res.Name)

	sessions, err := c.List()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "work", sessions[0].Name)
	assert.Equal(t, "/bin/sh", sessions[0].Program)
	assert.False(t, sessions[0].Attached)

	detached, err := c.Detach("work", false)
	require.NoError(t, err)
	assert.False(t, detached)

	killed, err := c.Kill("work")
	require.NoError(t, err)
	assert.True(t, killed)

	sessions, err = c.List()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestErrorKindsCrossTheWire(t *testing.T) {
	sock, _, _ := startTestServer(t)
	c, err := client.Connect(sock, false)
	require.NoError(t, err)

	_, err = c.Kill("ghost")
	require.Error(t, err)
	assert.Equal(t, protocol.KindNotFound, protocol.KindOf(err))

	_, err = c.Start(testStartRequest("dup"))
	require.NoError(t, err)
	_, err = c.Start(testStartRequest("dup"))
	require.Error(t, err)
	assert.Equal(t, protocol.KindNameTaken, protocol.KindOf(err))

	bad := testStartRequest("zero")
	bad.Size = protocol.WinSize{}
	_, err = c.Start(bad)
	require.Error(t, err)
	assert.Equal(t, protocol.KindProtocolError, protocol.KindOf(err))
}

func TestSocketPermissions(t *testing.T) {
	sock, _, _ := startTestServer(t)
	info, err := os.Stat(sock)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStaleSocketIsReplaced(t *testing.T) {
	requireShell(t)
	sock := filepath.Join(t.TempDir(), "sesh.sock")
	require.NoError(t, os.WriteFile(sock, nil, 0o600))

	manager := session.NewManager(200*time.Millisecond, false)
	srv := NewServer(sock, manager)
	go srv.Start()
	defer func() {
		manager.Shutdown()
		srv.Stop()
	}()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)
}

func TestAttachStreamOverSocket(t *testing.T) {
	sock, _, _ := startTestServer(t)
	if _, err := os.Stat("/bin/cat"); err != nil {
		t.Skip("/bin/cat not available")
	}

	c, err := client.Connect(sock, false)
	require.NoError(t, err)
	_, err = c.Start(&protocol.StartRequest{
		Name:    "echoer",
		Program: "/bin/cat",
		Cwd:     "/",
		Size:    protocol.WinSize{Rows: 24, Cols: 80},
	})
	require.NoError(t, err)

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, protocol.WriteFrame(conn, protocol.Request{Attach: &protocol.AttachRequest{
		Selector: "echoer",
		Size:     protocol.WinSize{Rows: 24, Cols: 80},
	}}))
	require.NoError(t, protocol.WriteFrame(conn, protocol.ClientFrame{Input: []byte("hello\n")}))

	var out bytes.Buffer
	for !bytes.Contains(out.Bytes(), []byte("hello")) {
		var f protocol.ServerFrame
		require.NoError(t, protocol.ReadFrame(conn, &f))
		require.Nil(t, f.Error)
		out.Write(f.Output)
	}

	// The attach and this unary detach come from the same process, so the
	// peer-credential match finds our attachment without a selector.
	detached, err := c.Detach("", false)
	require.NoError(t, err)
	assert.True(t, detached)

	for {
		var f protocol.ServerFrame
		if err := protocol.ReadFrame(conn, &f); err != nil {
			break
		}
		require.Nil(t, f.Exited, "detach must not deliver an exit sentinel")
	}

	sessions, err := c.List()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.False(t, sessions[0].Attached)
}

func TestAttachUnknownSessionGetsErrorFrame(t *testing.T) {
	sock, _, _ := startTestServer(t)

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, protocol.WriteFrame(conn, protocol.Request{Attach: &protocol.AttachRequest{
		Selector: "ghost",
		Size:     protocol.WinSize{Rows: 24, Cols: 80},
	}}))

	var f protocol.ServerFrame
	require.NoError(t, protocol.ReadFrame(conn, &f))
	require.NotNil(t, f.Error)
	assert.Equal(t, protocol.KindNotFound, f.Error.Kind)
}

func TestShutdownRequestSurfaces(t *testing.T) {
	sock, manager, srv := startTestServer(t)

	c, err := client.Connect(sock, false)
	require.NoError(t, err)
	_, err = c.Start(testStartRequest("doomed"))
	require.NoError(t, err)

	require.NoError(t, c.Shutdown())

	select {
	case <-srv.ShutdownRequests():
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown request never surfaced")
	}

	// The main loop's teardown ordering: sessions die, socket disappears.
	manager.Shutdown()
	srv.Stop()
	assert.Zero(t, manager.Count())
	_, err = os.Stat(sock)
	assert.True(t, os.IsNotExist(err))

	_, err = client.Connect(sock, false)
	require.Error(t, err)
	assert.Equal(t, protocol.KindServerUnavailable, protocol.KindOf(err))
}

func TestMalformedRequestGetsProtocolError(t *testing.T) {
	sock, _, _ := startTestServer(t)

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, protocol.WriteFrame(conn, protocol.Request{}))

	var res protocol.Response
	require.NoError(t, protocol.ReadFrame(conn, &res))
	require.NotNil(t, res.Error)
	assert.Equal(t, protocol.KindProtocolError, res.Error.Kind)
}
