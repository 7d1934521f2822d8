package protocol

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	req := Request{Start: &StartRequest{
		Name:    "work",
		Program: "/bin/sh",
		Args:    []string{"-l"},
		Env:     map[string]string{"TERM": "xterm-256color"},
		Cwd:     "/home/user",
		Size:    WinSize{Rows: 24, Cols: 80},
	}}
	require.NoError(t, WriteFrame(&buf, req))

	var got Request
	require.NoError(t, ReadFrame(&buf, &got))
	require.NotNil(t, got.Start)
	assert.Equal(t, "work", got.Start.Name)
	assert.Equal(t, "/bin/sh", got.Start.Program)
	assert.Equal(t, []string{"-l"}, got.Start.Args)
	assert.Equal(t, WinSize{Rows: 24, Cols: 80}, got.Start.Size)
	assert.Nil(t, got.Attach)
}

func TestFrameStreamOrdering(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, ClientFrame{Resize: &WinSize{Rows: 40, Cols: 120}}))
	require.NoError(t, WriteFrame(&buf, ClientFrame{Input: []byte("echo hi\n")}))

	var first, second ClientFrame
	require.NoError(t, ReadFrame(&buf, &first))
	require.NoError(t, ReadFrame(&buf, &second))
	require.NotNil(t, first.Resize)
	assert.Equal(t, uint16(120), first.Resize.Cols)
	assert.Equal(t, []byte("echo hi\n"), second.Input)
}

func TestFrameBinaryOutput(t *testing.T) {
	var buf bytes.Buffer
	raw := []byte{0x1b, '[', '2', 'J', 0x00, 0xff, '\r', '\n'}
	require.NoError(t, WriteFrame(&buf, ServerFrame{Output: raw}))

	var got ServerFrame
	require.NoError(t, ReadFrame(&buf, &got))
	assert.Equal(t, raw, got.Output)
}

func TestFrameExitedSentinel(t *testing.T) {
	var buf bytes.Buffer
	status := 7
	require.NoError(t, WriteFrame(&buf, ServerFrame{Exited: &status}))

	var got ServerFrame
	require.NoError(t, ReadFrame(&buf, &got))
	require.NotNil(t, got.Exited)
	assert.Equal(t, 7, *got.Exited)
}

func TestReadFrameCleanEOF(t *testing.T) {
	var got Request
	err := ReadFrame(bytes.NewReader(nil), &got)
	assert.Equal(t, io.EOF, err)
}

func TestReadFrameOversized(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0xff, 0xff, 0xff, 0xff})
	var got Request
	err := ReadFrame(buf, &got)
	require.Error(t, err)
	assert.Equal(t, KindProtocolError, KindOf(err))
}

func TestReadFrameTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Request{List: &ListRequest{}}))
	truncated := buf.Bytes()[:buf.Len()-2]

	var got Request
	err := ReadFrame(bytes.NewReader(truncated), &got)
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}
