// Package transport implements component D: the Transport contract, its
// two mandated implementations (file and HTTP), the multi-algorithm
// checksum calculator, and the partial-file resume protocol (§4.D).
package transport

import (
	"context"
	"errors"
	"io"
)

// ErrorKind classifies a transport failure for caching and policy
// decisions (§4.D.1).
type ErrorKind int

const (
	// KindOther is any failure that isn't a clean "does not exist".
	KindOther ErrorKind = iota
	// KindNotFound means the remote resource does not exist.
	KindNotFound
)

// TransferError wraps a transport failure with its ErrorKind.
type TransferError struct {
	Kind ErrorKind
	Op   string
	Loc  string
	Err  error
}

func (e *TransferError) Error() string {
	return e.Op + " " + e.Loc + ": " + e.Err.Error()
}

func (e *TransferError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a TransferError classified
// as KindNotFound.
func IsNotFound(err error) bool {
	var te *TransferError
	return errors.As(err, &te) && te.Kind == KindNotFound
}

// Listener receives progress notifications for a single transport
// operation. Implementations must not block.
type Listener interface {
	Started(loc string, totalBytes int64)
	Progress(loc string, transferredBytes int64)
	Finished(loc string, err error)
}

// NopListener discards all progress notifications.
type NopListener struct{}

func (NopListener) Started(string, int64)  {}
func (NopListener) Progress(string, int64) {}
func (NopListener) Finished(string, error) {}

// Sink is the destination for a Get, a plain io.Writer so callers can point
// it at a bytes.Buffer, an *os.File, or the partial-file writer below.
type Sink = io.Writer

// Source is the origin for a Put.
type Source = io.Reader

// Transport is the contract every concrete transport (file, HTTP, ...)
// implements (§4.D.1). loc is a transport-specific location string (a
// path for the file transport, a URL for HTTP).
type Transport interface {
	// Peek checks existence without transferring a body.
	Peek(ctx context.Context, loc string) error
	// Get streams loc's content into sink, starting at offset bytes in
	// (0 for a full transfer), reporting progress through l.
	Get(ctx context.Context, loc string, sink Sink, offset int64, l Listener) error
	// Put uploads source's content to loc.
	Put(ctx context.Context, loc string, source Source, l Listener) error
}
