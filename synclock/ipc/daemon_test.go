package ipc

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: map[string]bool{}} }

func (f *fakeLocker) Acquire(_ context.Context, _ bool, keys ...string) (func(), error) {
	f.mu.Lock()
	for _, k := range keys {
		f.held[k] = true
	}
	f.mu.Unlock()
	return func() {}, nil
}

func (f *fakeLocker) Close() error { return nil }

func startTestDaemon(t *testing.T) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	d := NewDaemon(func() (Locker, error) { return newFakeLocker(), nil }, nil)
	go d.Serve(ln)
	return "tcp:" + ln.Addr().String(), func() { ln.Close() }
}

func TestClientContextAcquireClose(t *testing.T) {
	addr, stop := startTestDaemon(t)
	defer stop()

	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	ctxID, err := c.RequestContext(false)
	require.NoError(t, err)
	require.NotEmpty(t, ctxID)

	require.NoError(t, c.RequestAcquire(ctxID, "com.example:lib:jar"))
	require.NoError(t, c.RequestClose(ctxID))
}

func TestClientUnknownContextErrors(t *testing.T) {
	addr, stop := startTestDaemon(t)
	defer stop()

	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	err = c.RequestAcquire("nonexistent", "k")
	require.Error(t, err)
}
