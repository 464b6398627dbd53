package ipc

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Locker is the minimal surface the daemon needs from a lock backend —
// satisfied by synclock.Backend/synclock.Context without this package
// importing synclock (which would create an import cycle, since synclock
// imports ipc to build its IPC-backed Backend).
type Locker interface {
	Acquire(ctx context.Context, shared bool, keys ...string) (release func(), err error)
	Close() error
}

// LockerFactory creates a new Locker for one request-context call.
type LockerFactory func() (Locker, error)

// Daemon serves the sync-context IPC protocol over any net.Listener.
type Daemon struct {
	newLocker LockerFactory
	log       hclog.Logger

	mu       sync.Mutex
	contexts map[string]*daemonContext
}

type daemonContext struct {
	locker   Locker
	shared   bool
	releases []func()
}

// NewDaemon creates a Daemon that hands out Lockers from factory.
func NewDaemon(factory LockerFactory, log hclog.Logger) *Daemon {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Daemon{newLocker: factory, log: log, contexts: map[string]*daemonContext{}}
}

// Serve accepts connections on ln until it errors (typically because the
// caller closed the listener). A request-stop ends only the connection it
// arrived on; it does not close ln.
func (d *Daemon) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go d.handle(conn)
	}
}

func (d *Daemon) handle(conn net.Conn) {
	defer conn.Close()
	for {
		frame, err := ReadFrame(conn)
		if err != nil {
			return
		}
		if len(frame) < 2 {
			continue
		}
		reqID, cmd, args := frame[0], frame[1], frame[2:]
		resp := d.dispatch(cmd, args)
		if err := WriteFrame(conn, append([]string{reqID}, resp...)); err != nil {
			return
		}
		if cmd == "request-stop" {
			return
		}
	}
}

func (d *Daemon) dispatch(cmd string, args []string) []string {
	switch cmd {
	case "request-context":
		shared := len(args) > 0 && args[0] == "true"
		locker, err := d.newLocker()
		if err != nil {
			return []string{"response-error", err.Error()}
		}
		id := uuid.NewString()
		d.mu.Lock()
		d.contexts[id] = &daemonContext{locker: locker, shared: shared}
		d.mu.Unlock()
		return []string{"response-context", id}

	case "request-acquire":
		if len(args) < 1 {
			return []string{"response-error", "missing context id"}
		}
		id, keys := args[0], args[1:]
		d.mu.Lock()
		dc, ok := d.contexts[id]
		d.mu.Unlock()
		if !ok {
			return []string{"response-error", fmt.Sprintf("unknown context %s", id)}
		}
		release, err := dc.locker.Acquire(context.Background(), dc.shared, keys...)
		if err != nil {
			return []string{"response-error", err.Error()}
		}
		d.mu.Lock()
		dc.releases = append(dc.releases, release)
		d.mu.Unlock()
		return []string{"response-acquire"}

	case "request-close":
		if len(args) < 1 {
			return []string{"response-error", "missing context id"}
		}
		id := args[0]
		d.mu.Lock()
		dc, ok := d.contexts[id]
		delete(d.contexts, id)
		d.mu.Unlock()
		if ok {
			for _, r := range dc.releases {
				r()
			}
			_ = dc.locker.Close()
		}
		return []string{"response-close"}

	case "request-stop":
		return []string{"response-stop"}

	default:
		return []string{"response-error", fmt.Sprintf("unknown command %q", cmd)}
	}
}
