package transport

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// PartialFile implements the resume protocol of §4.D.3: writes go to
// "<target>.part" guarded by an advisory lock on "<target>.part.lock", so
// at most one process writes a given target's partial file at a time while
// others either wait for it to finish or discover it is already complete.
type PartialFile struct {
	target string
	part   string
	lock   *flock.Flock

	file   *os.File
	offset int64
}

// ResumeThreshold configures how a waiter behaves when it cannot acquire
// the exclusive writer lock immediately.
type ResumeThreshold struct {
	// Enabled selects waiting for a live peer writer over failing fast.
	Enabled bool
	// RequestTimeout bounds how long to wait on the peer's shared lock.
	RequestTimeout time.Duration
	// PollInterval is the delay between attempts to take the shared lock
	// (200ms when zero). The target's mtime is not checked between
	// attempts, so a live peer writer is not told apart from a stalled one.
	PollInterval time.Duration
}

// OpenForResume implements steps 1-4 of §4.D.3. It returns a ready-to-use
// PartialFile positioned at the correct resume offset when the caller
// should perform the transfer itself, or (nil, 0, nil) when a concurrent
// peer already completed the download (the caller should skip the
// transfer and run its remote-access check instead).
func OpenForResume(ctx context.Context, target string, rt ResumeThreshold) (*PartialFile, int64, error) {
	lockPath := target + ".part.lock"
	fl := flock.New(lockPath)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, 0, fmt.Errorf("transport: locking %s: %w", lockPath, err)
	}
	if locked {
		return openPartWriter(target, fl)
	}

	if !rt.Enabled {
		return nil, 0, fmt.Errorf("transport: %s is locked by another process", lockPath)
	}

	for {
		waitCtx, cancel := context.WithTimeout(ctx, rt.RequestTimeout)
		acquired, err := fl.TryRLockContext(waitCtx, pollInterval(rt))
		cancel()
		if err != nil {
			return nil, 0, fmt.Errorf("transport: waiting for %s: %w", lockPath, err)
		}
		if !acquired {
			if info, statErr := os.Stat(target); statErr == nil && info.Size() > 0 {
				// Peer finished while we were waiting.
				fl.Unlock()
				return nil, 0, nil
			}
			return nil, 0, fmt.Errorf("transport: timed out waiting for %s", lockPath)
		}

		// We hold the shared lock: the peer either finished or crashed.
		info, statErr := os.Stat(target)
		fl.Unlock()
		if statErr == nil && info.Size() > 0 {
			return nil, 0, nil
		}
		// Peer failed without producing a final target; retry from step 1.
		locked, err = fl.TryLock()
		if err != nil {
			return nil, 0, fmt.Errorf("transport: locking %s: %w", lockPath, err)
		}
		if locked {
			return openPartWriter(target, fl)
		}
	}
}

func pollInterval(rt ResumeThreshold) time.Duration {
	if rt.PollInterval > 0 {
		return rt.PollInterval
	}
	return 200 * time.Millisecond
}

func openPartWriter(target string, fl *flock.Flock) (*PartialFile, int64, error) {
	part := target + ".part"
	f, err := os.OpenFile(part, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		fl.Unlock()
		return nil, 0, fmt.Errorf("transport: opening %s: %w", part, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		fl.Unlock()
		return nil, 0, fmt.Errorf("transport: stating %s: %w", part, err)
	}
	offset := info.Size()
	if _, err := f.Seek(offset, 0); err != nil {
		f.Close()
		fl.Unlock()
		return nil, 0, fmt.Errorf("transport: seeking %s: %w", part, err)
	}
	return &PartialFile{target: target, part: part, lock: fl, file: f, offset: offset}, offset, nil
}

// Write appends to the partial file, satisfying io.Writer.
func (p *PartialFile) Write(b []byte) (int, error) { return p.file.Write(b) }

// Offset is the byte offset the transfer resumed from.
func (p *PartialFile) Offset() int64 { return p.offset }

// Commit renames the partial file to its final target atomically and
// releases the lock. A cancelled transfer should call Abort instead,
// leaving the ".part" file intact so a later request can resume (§5
// "a cancel during a get leaves the .part file intact").
func (p *PartialFile) Commit() error {
	if err := p.file.Close(); err != nil {
		p.lock.Unlock()
		return err
	}
	if err := os.Rename(p.part, p.target); err != nil {
		p.lock.Unlock()
		return fmt.Errorf("transport: renaming %s to %s: %w", p.part, p.target, err)
	}
	return p.lock.Unlock()
}

// Abort closes the partial file and releases the lock without renaming,
// preserving ".part" for a future resume.
func (p *PartialFile) Abort() error {
	_ = p.file.Close()
	return p.lock.Unlock()
}
