// Package synclock implements component I: named, reentrant shared/
// exclusive locks over logical keys, backed by a pluggable Backend (§4.I).
package synclock

import (
	"context"
	"errors"
)

// Mode distinguishes shared (read) from exclusive (write) acquisition.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// ErrLockUpgradeNotSupported is returned when a Context that already holds
// a key in Shared mode attempts to re-acquire it in Exclusive mode.
var ErrLockUpgradeNotSupported = errors.New("synclock: lock upgrade not supported")

// Release unlocks everything a single Acquire call took.
type Release func()

// Context is one logical caller's lock-holding session: acquiring the same
// key twice is reentrant, and attempting to upgrade a held shared lock to
// exclusive fails with ErrLockUpgradeNotSupported instead of deadlocking.
type Context interface {
	// Acquire blocks, bounded by ctx, until every key is held in mode.
	// On success it returns a Release that must be called exactly once.
	// On failure, any keys it had already acquired during this call are
	// released before returning.
	Acquire(ctx context.Context, mode Mode, keys ...string) (Release, error)

	// Close releases every lock still held by this Context. Backends that
	// track per-process resources (the IPC backend) also use Close to
	// free them server-side.
	Close() error
}

// Backend creates Contexts. Each Context is independent: two Contexts from
// the same Backend contend for the same keys but track their own held-set
// for upgrade detection.
type Backend interface {
	NewContext() (Context, error)
}
