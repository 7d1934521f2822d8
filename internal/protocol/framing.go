package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single frame. Input and output chunks are at most a
// few KiB, so anything larger is a corrupt or hostile stream.
const MaxFrameSize = 1 << 20

// WriteFrame writes one length-prefixed JSON message: a 4-byte big-endian
// length followed by the encoded body.
func WriteFrame(w io.Writer, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return WrapErr(KindProtocolError, "encode frame", err)
	}
	if len(body) > MaxFrameSize {
		return Errorf(KindProtocolError, "frame too large: %d bytes", len(body))
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed JSON message into msg. It returns
// io.EOF untouched when the stream ends cleanly on a frame boundary.
func ReadFrame(r io.Reader, msg any) error {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("read frame header: %w", err)
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return Errorf(KindProtocolError, "frame too large: %d bytes", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("read frame body: %w", err)
	}
	if err := json.Unmarshal(body, msg); err != nil {
		return WrapErr(KindProtocolError, "decode frame", err)
	}
	return nil
}
