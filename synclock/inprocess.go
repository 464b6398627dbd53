package synclock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// RWMutexBackend is the simplest backend: one sync.RWMutex per key, shared
// across every Context the backend produces. It gives true concurrent
// shared readers at the cost of no bound on how many can pile up.
type RWMutexBackend struct {
	locks *xsync.MapOf[string, *sync.RWMutex]
}

// NewRWMutexBackend creates an in-process reader/writer-lock backend.
func NewRWMutexBackend() *RWMutexBackend {
	return &RWMutexBackend{locks: xsync.NewMapOf[string, *sync.RWMutex]()}
}

func (b *RWMutexBackend) lockFor(key string) *sync.RWMutex {
	l, _ := b.locks.LoadOrStore(key, &sync.RWMutex{})
	return l
}

func (b *RWMutexBackend) NewContext() (Context, error) {
	return &rwContext{backend: b, held: map[string]Mode{}}, nil
}

type rwContext struct {
	backend *RWMutexBackend
	mu      sync.Mutex
	held    map[string]Mode
}

func (c *rwContext) Acquire(ctx context.Context, mode Mode, keys ...string) (Release, error) {
	sorted := sortedUnique(keys)

	var unlockers []func()
	rollback := func() {
		for i := len(unlockers) - 1; i >= 0; i-- {
			unlockers[i]()
		}
	}

	c.mu.Lock()
	for _, k := range sorted {
		if prev, ok := c.held[k]; ok && prev == Shared && mode == Exclusive {
			c.mu.Unlock()
			rollback()
			return nil, ErrLockUpgradeNotSupported
		}
	}
	c.mu.Unlock()

	var acquired []string
	for _, k := range sorted {
		c.mu.Lock()
		prev, already := c.held[k]
		c.mu.Unlock()
		if already && modeAtLeast(prev, mode) {
			continue
		}

		l := c.backend.lockFor(k)
		if mode == Exclusive {
			if err := pollLock(ctx, l.TryLock); err != nil {
				rollback()
				return nil, err
			}
			unlockers = append(unlockers, l.Unlock)
		} else {
			if err := pollLock(ctx, l.TryRLock); err != nil {
				rollback()
				return nil, err
			}
			unlockers = append(unlockers, l.RUnlock)
		}

		c.mu.Lock()
		c.held[k] = mode
		c.mu.Unlock()
		acquired = append(acquired, k)
	}

	release := func() {
		rollback()
		c.mu.Lock()
		for _, k := range acquired {
			delete(c.held, k)
		}
		c.mu.Unlock()
	}
	return release, nil
}

func (c *rwContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held = map[string]Mode{}
	return nil
}

func modeAtLeast(held, want Mode) bool {
	return held == Exclusive || want == Shared
}

func sortedUnique(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// pollLockInterval is the backoff between TryLock attempts. sync.Mutex and
// sync.RWMutex offer no cancellable blocking acquire, so a bounded caller
// must poll rather than leak a goroutine parked on Lock() forever.
const pollLockInterval = 1 * time.Millisecond

func pollLock(ctx context.Context, tryLock func() bool) error {
	if tryLock() {
		return nil
	}
	t := time.NewTicker(pollLockInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if tryLock() {
				return nil
			}
		}
	}
}
