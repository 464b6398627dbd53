package ipc

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
)

// Client speaks the sync-context IPC protocol to a Daemon over one
// connection, serializing requests (the protocol is a simple synchronous
// request/response exchange per the wire format, not pipelined).
type Client struct {
	conn   net.Conn
	mu     sync.Mutex
	nextID uint32
}

// Dial connects to a daemon already listening at addr ("tcp:host:port" or
// "unix:/path/to/socket").
func Dial(addr string) (*Client, error) {
	network, address, err := splitAddr(addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialTimeout(network, address, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func splitAddr(addr string) (network, address string, err error) {
	for _, n := range []string{"tcp", "unix"} {
		if len(addr) > len(n)+1 && addr[:len(n)+1] == n+":" {
			return n, addr[len(n)+1:], nil
		}
	}
	return "", "", fmt.Errorf("ipc: unrecognised address %q", addr)
}

func (c *Client) call(cmd string, args ...string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := atomic.AddUint32(&c.nextID, 1)
	frame := append([]string{strconv.FormatUint(uint64(id), 10), cmd}, args...)
	if err := WriteFrame(c.conn, frame); err != nil {
		return nil, err
	}

	resp, err := ReadFrame(c.conn)
	if err != nil {
		return nil, err
	}
	if len(resp) < 2 || resp[0] != strconv.FormatUint(uint64(id), 10) {
		return nil, fmt.Errorf("ipc: response id mismatch for %s", cmd)
	}
	if resp[1] == "response-error" {
		msg := ""
		if len(resp) > 2 {
			msg = resp[2]
		}
		return nil, fmt.Errorf("ipc: %s", msg)
	}
	return resp[2:], nil
}

// RequestContext opens a new lock-holding context on the daemon.
func (c *Client) RequestContext(shared bool) (string, error) {
	resp, err := c.call("request-context", strconv.FormatBool(shared))
	if err != nil {
		return "", err
	}
	if len(resp) < 1 {
		return "", fmt.Errorf("ipc: malformed response-context")
	}
	return resp[0], nil
}

// RequestAcquire acquires keys under contextID, blocking on the daemon.
func (c *Client) RequestAcquire(contextID string, keys ...string) error {
	_, err := c.call("request-acquire", append([]string{contextID}, keys...)...)
	return err
}

// RequestClose releases every lock held by contextID.
func (c *Client) RequestClose(contextID string) error {
	_, err := c.call("request-close", contextID)
	return err
}

// RequestStop sends request-stop (test-only, per §4.I). The daemon answers
// and closes this connection; it keeps serving other connections.
func (c *Client) RequestStop() error {
	_, err := c.call("request-stop")
	return err
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// EnsureDaemon reads the daemon's published address from lockFilePath,
// spawning a fresh daemon via spawn if none is present or reachable, and
// retries on a stale/torn-down address (§4.I "auto-spawns the daemon if no
// lock-file address is present ... retries connection on EOF").
func EnsureDaemon(lockFilePath string, spawn func() (addr string, err error)) (addr string, err error) {
	fl := flock.New(lockFilePath + ".lock")
	if err := fl.Lock(); err != nil {
		return "", err
	}
	defer fl.Unlock()

	if data, err := os.ReadFile(lockFilePath); err == nil && len(data) > 0 {
		addr := string(data)
		if c, dialErr := Dial(addr); dialErr == nil {
			c.Close()
			return addr, nil
		}
		// Stale address: fall through and respawn.
	}

	addr, err = spawn()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(lockFilePath, []byte(addr), 0o644); err != nil {
		return "", err
	}
	return addr, nil
}
