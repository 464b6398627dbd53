package synclock

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/semaphore"
)

// SemaphoreBackend bounds the total number of concurrent holders per key
// instead of allowing unbounded concurrent readers, trading isolation for
// a fixed contention ceiling — useful when the shared resource behind a
// key (a connection pool slot, a bounded download queue) cannot serve
// arbitrarily many readers even though it tolerates more than one.
type SemaphoreBackend struct {
	maxShared int64
	sems      *xsync.MapOf[string, *semaphore.Weighted]
}

// NewSemaphoreBackend creates a backend allowing at most maxShared
// concurrent shared holders per key; an exclusive acquire takes the full
// weight, so it waits for every shared holder to release first.
func NewSemaphoreBackend(maxShared int) *SemaphoreBackend {
	if maxShared < 1 {
		maxShared = 1
	}
	return &SemaphoreBackend{
		maxShared: int64(maxShared),
		sems:      xsync.NewMapOf[string, *semaphore.Weighted](),
	}
}

func (b *SemaphoreBackend) semFor(key string) *semaphore.Weighted {
	s, _ := b.sems.LoadOrStore(key, semaphore.NewWeighted(b.maxShared))
	return s
}

func (b *SemaphoreBackend) NewContext() (Context, error) {
	return &semContext{backend: b, held: map[string]Mode{}}, nil
}

type semContext struct {
	backend *SemaphoreBackend
	mu      sync.Mutex
	held    map[string]Mode
}

func (c *semContext) weight(mode Mode) int64 {
	if mode == Exclusive {
		return c.backend.maxShared
	}
	return 1
}

func (c *semContext) Acquire(ctx context.Context, mode Mode, keys ...string) (Release, error) {
	sorted := sortedUnique(keys)

	c.mu.Lock()
	for _, k := range sorted {
		if prev, ok := c.held[k]; ok && prev == Shared && mode == Exclusive {
			c.mu.Unlock()
			return nil, ErrLockUpgradeNotSupported
		}
	}
	c.mu.Unlock()

	var acquired []struct {
		key string
		w   int64
	}
	rollback := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			c.backend.semFor(acquired[i].key).Release(acquired[i].w)
		}
	}

	for _, k := range sorted {
		c.mu.Lock()
		prev, already := c.held[k]
		c.mu.Unlock()
		if already && modeAtLeast(prev, mode) {
			continue
		}

		w := c.weight(mode)
		if err := c.backend.semFor(k).Acquire(ctx, w); err != nil {
			rollback()
			return nil, err
		}
		acquired = append(acquired, struct {
			key string
			w   int64
		}{k, w})

		c.mu.Lock()
		c.held[k] = mode
		c.mu.Unlock()
	}

	release := func() {
		rollback()
		c.mu.Lock()
		for _, a := range acquired {
			delete(c.held, a.key)
		}
		c.mu.Unlock()
	}
	return release, nil
}

func (c *semContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held = map[string]Mode{}
	return nil
}
