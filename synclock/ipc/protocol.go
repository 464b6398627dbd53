// Package ipc implements the length-prefixed string-array wire protocol
// the sync-context daemon speaks over a TCP or UNIX socket (§4.I), so that
// multiple processes sharing a local artifact store can coordinate through
// one lock-holding daemon instead of racing each other directly.
package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
)

const maxFrameStrings = 1 << 16
const maxStringLen = 1 << 24

// WriteFrame writes a length-prefixed UTF-8 string array: a 4-byte
// big-endian count, followed by each string as a 4-byte big-endian byte
// length and its raw bytes.
func WriteFrame(w io.Writer, fields []string) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(fields)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	for _, f := range fields {
		binary.BigEndian.PutUint32(hdr[:], uint32(len(f)))
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		if _, err := io.WriteString(w, f); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrame reads one frame written by WriteFrame.
func ReadFrame(r io.Reader) ([]string, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxFrameStrings {
		return nil, fmt.Errorf("ipc: frame field count %d exceeds limit", n)
	}
	fields := make([]string, n)
	for i := range fields {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, err
		}
		l := binary.BigEndian.Uint32(hdr[:])
		if l > maxStringLen {
			return nil, fmt.Errorf("ipc: frame string length %d exceeds limit", l)
		}
		buf := make([]byte, l)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		fields[i] = string(buf)
	}
	return fields, nil
}
