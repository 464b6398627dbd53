package synclock

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// FileBackend guards keys with advisory file locks under a directory, one
// lock file per key, so unrelated processes sharing the same local
// artifact store serialize on the same resource (§4.I, §5 "writes to any
// artifact path must be guarded by a sync-context exclusive lock").
type FileBackend struct {
	dir         string
	retryDelay  time.Duration
	sanitizeKey func(string) string
}

// NewFileBackend creates a backend storing lock files under dir.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir, retryDelay: 25 * time.Millisecond, sanitizeKey: defaultSanitizeKey}
}

func defaultSanitizeKey(key string) string {
	out := make([]rune, 0, len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

func (b *FileBackend) pathFor(key string) string {
	return filepath.Join(b.dir, b.sanitizeKey(key)+".lock")
}

func (b *FileBackend) NewContext() (Context, error) {
	return &fileContext{backend: b, held: map[string]*heldFileLock{}}, nil
}

type heldFileLock struct {
	mode Mode
	fl   *flock.Flock
}

type fileContext struct {
	backend *FileBackend
	mu      sync.Mutex
	held    map[string]*heldFileLock
}

func (c *fileContext) Acquire(ctx context.Context, mode Mode, keys ...string) (Release, error) {
	sorted := sortedUnique(keys)

	c.mu.Lock()
	for _, k := range sorted {
		if h, ok := c.held[k]; ok && h.mode == Shared && mode == Exclusive {
			c.mu.Unlock()
			return nil, ErrLockUpgradeNotSupported
		}
	}
	c.mu.Unlock()

	var acquired []string
	rollback := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			k := acquired[i]
			c.mu.Lock()
			h := c.held[k]
			c.mu.Unlock()
			if h != nil {
				_ = h.fl.Unlock()
			}
		}
	}

	for _, k := range sorted {
		c.mu.Lock()
		h, already := c.held[k]
		c.mu.Unlock()
		if already && modeAtLeast(h.mode, mode) {
			continue
		}

		fl := flock.New(c.backend.pathFor(k))
		var ok bool
		var err error
		if mode == Exclusive {
			ok, err = fl.TryLockContext(ctx, c.backend.retryDelay)
		} else {
			ok, err = fl.TryRLockContext(ctx, c.backend.retryDelay)
		}
		if err != nil || !ok {
			rollback()
			if err == nil {
				err = ctx.Err()
			}
			return nil, err
		}

		c.mu.Lock()
		c.held[k] = &heldFileLock{mode: mode, fl: fl}
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

func (c *fileContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, h := range c.held {
		_ = h.fl.Unlock()
		delete(c.held, k)
	}
	return nil
}
