package synclock

import (
	"context"
	"sync"

	"github.com/artifactgraph/resolve/synclock/ipc"
)

// contextLocker adapts a synclock.Context to the ipc.Locker interface the
// daemon dispatches request-acquire calls against.
type contextLocker struct{ c Context }

func (l contextLocker) Acquire(ctx context.Context, shared bool, keys ...string) (func(), error) {
	mode := Exclusive
	if shared {
		mode = Shared
	}
	release, err := l.c.Acquire(ctx, mode, keys...)
	if err != nil {
		return nil, err
	}
	return func() { release() }, nil
}

func (l contextLocker) Close() error { return l.c.Close() }

// NewDaemonLockerFactory adapts an in-process Backend into the
// ipc.LockerFactory a Daemon needs, so the daemon process arbitrates locks
// for every client connection through one shared Backend.
func NewDaemonLockerFactory(backend Backend) ipc.LockerFactory {
	return func() (ipc.Locker, error) {
		c, err := backend.NewContext()
		if err != nil {
			return nil, err
		}
		return contextLocker{c: c}, nil
	}
}

// IPCBackend is a Backend whose Contexts forward every Acquire/Close call
// to a remote daemon over an ipc.Client connection (§4.I "inter-process
// lock via a sidecar daemon").
type IPCBackend struct {
	client *ipc.Client
}

// NewIPCBackend wraps an already-dialled ipc.Client as a Backend.
func NewIPCBackend(client *ipc.Client) *IPCBackend {
	return &IPCBackend{client: client}
}

func (b *IPCBackend) NewContext() (Context, error) {
	return &ipcContext{backend: b}, nil
}

type ipcContext struct {
	backend *IPCBackend

	mu        sync.Mutex
	contextID string
	mode      Mode
	opened    bool
}

func (c *ipcContext) ensureContext(mode Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened {
		if c.mode == Shared && mode == Exclusive {
			return ErrLockUpgradeNotSupported
		}
		return nil
	}
	id, err := c.backend.client.RequestContext(mode == Shared)
	if err != nil {
		return err
	}
	c.contextID = id
	c.mode = mode
	c.opened = true
	return nil
}

func (c *ipcContext) Acquire(_ context.Context, mode Mode, keys ...string) (Release, error) {
	if err := c.ensureContext(mode); err != nil {
		return nil, err
	}
	c.mu.Lock()
	id := c.contextID
	c.mu.Unlock()

	if err := c.backend.client.RequestAcquire(id, keys...); err != nil {
		return nil, err
	}
	// The daemon holds the lock for the lifetime of the context; individual
	// Acquire calls within one ipcContext are cumulative rather than
	// independently releasable, matching the wire protocol (there is no
	// request-release, only request-close).
	return func() {}, nil
}

func (c *ipcContext) Close() error {
	c.mu.Lock()
	id, opened := c.contextID, c.opened
	c.opened = false
	c.mu.Unlock()
	if !opened {
		return nil
	}
	return c.backend.client.RequestClose(id)
}
