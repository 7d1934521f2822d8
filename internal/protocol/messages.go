package protocol

import "time"

// WinSize is a terminal window size, including the pixel dimensions some
// programs (notably sixel-aware ones) read via TIOCGWINSZ.
type WinSize struct {
	Rows uint16 `json:"rows"`
	Cols uint16 `json:"cols"`
	X    uint16 `json:"x,omitempty"`
	Y    uint16 `json:"y,omitempty"`
}

// Valid reports whether the size is usable for a PTY. A (0,0) size is
// rejected at the protocol layer.
func (w WinSize) Valid() bool {
	return w.Rows > 0 && w.Cols > 0
}

// Request is the union of all unary requests plus the attach upgrade.
// Exactly one field is non-nil per message.
type Request struct {
	Start    *StartRequest    `json:"start,omitempty"`
	Attach   *AttachRequest   `json:"attach,omitempty"`
	List     *ListRequest     `json:"list,omitempty"`
	Kill     *KillRequest     `json:"kill,omitempty"`
	Detach   *DetachRequest   `json:"detach,omitempty"`
	Shutdown *ShutdownRequest `json:"shutdown,omitempty"`
}

// Response is the union of all unary responses. Error is set instead of a
// result field when the request failed.
type Response struct {
	Start    *StartResponse    `json:"start,omitempty"`
	List     *ListResponse     `json:"list,omitempty"`
	Kill     *KillResponse     `json:"kill,omitempty"`
	Detach   *DetachResponse   `json:"detach,omitempty"`
	Shutdown *ShutdownResponse `json:"shutdown,omitempty"`
	Error    *WireError        `json:"error,omitempty"`
}

type StartRequest struct {
	Name     string            `json:"name,omitempty"`
	Program  string            `json:"program,omitempty"`
	Args     []string          `json:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Cwd      string            `json:"cwd"`
	Size     WinSize           `json:"size"`
	Detached bool              `json:"detached,omitempty"`
}

type StartResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// AttachRequest is the first frame of the streaming attach protocol. After
// the server accepts it, the connection carries ClientFrame / ServerFrame
// messages until one side closes.
type AttachRequest struct {
	Selector string  `json:"selector"`
	Size     WinSize `json:"size"`
}

type ListRequest struct{}

type ListResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// SessionInfo is the snapshot of one session returned by List.
type SessionInfo struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Program        string    `json:"program"`
	CreatedAt      time.Time `json:"created_at"`
	LastAttachedAt time.Time `json:"last_attached_at,omitempty"`
	Attached       bool      `json:"attached"`
	ChildPid       int       `json:"child_pid"`
	Size           WinSize   `json:"size"`
}

type KillRequest struct {
	Selector string `json:"selector"`
}

type KillResponse struct {
	Killed bool `json:"killed"`
}

// DetachRequest with an empty selector detaches whatever attachment
// originates from the calling client, identified by the connection's peer
// credentials. NoPeerCheck disables that filter so a client can detach
// sessions it did not attach.
type DetachRequest struct {
	Selector    string `json:"selector,omitempty"`
	NoPeerCheck bool   `json:"no_peer_check,omitempty"`
}

type DetachResponse struct {
	Detached bool `json:"detached"`
}

type ShutdownRequest struct{}

type ShutdownResponse struct{}

// ClientFrame is a client-to-server message on an attach stream.
type ClientFrame struct {
	Input  []byte   `json:"input,omitempty"`
	Resize *WinSize `json:"resize,omitempty"`
}

// ServerFrame is a server-to-client message on an attach stream. Exited is
// the terminal sentinel carrying the child's exit status; a stream closed
// without it means the client was detached and the session lives on.
type ServerFrame struct {
	Output []byte     `json:"output,omitempty"`
	Exited *int       `json:"exited,omitempty"`
	Error  *WireError `json:"error,omitempty"`
}
