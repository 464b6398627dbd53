package connector

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/session"
	"github.com/artifactgraph/resolve/transport"
	"golang.org/x/sync/errgroup"
)

// Task is one artifact transfer request submitted to a Connector's Get or
// Put (§4.C "get(tasks)/put(tasks)").
type Task struct {
	Coordinate coordinate.Coordinate
	Sink       transport.Sink   // for Get
	Source     transport.Source // for Put
	Listener   transport.Listener
	Offset     int64 // resume offset for Get, ignored for Put
}

// Result reports one Task's outcome.
type Result struct {
	Task Task
	Err  error
}

// Connector composes a Transport with a Layout and checksum policy for one
// (session, repository) pair, running transfers over a bounded parallel
// pool (§4.C).
type Connector struct {
	repo      Repository
	transport transport.Transport
	layout    Layout
	sess      *session.Session
}

// NewConnector builds a Connector. Factory implementations call this once
// they've matched repo's URL scheme to a concrete transport.Transport.
func NewConnector(sess *session.Session, repo Repository, t transport.Transport, layout Layout) *Connector {
	return &Connector{repo: repo, transport: t, layout: layout, sess: sess}
}

// WithLayout returns a copy of c addressing the same repository and
// transport through a different Layout, for reaching a repository's
// metadata documents, which live outside the per-coordinate artifact
// layout.
func (c *Connector) WithLayout(l Layout) *Connector {
	cp := *c
	cp.layout = l
	return &cp
}

func (c *Connector) limit() int {
	n := c.sess.Config().Connector.MaxConcurrentTransfers
	if n <= 0 {
		return 1
	}
	return n
}

// Get fetches every task's artifact in parallel, bounded by the session's
// connector.maxConcurrentTransfers. Each task's Listener (if non-nil) is
// invoked from whichever goroutine runs that task.
func (c *Connector) Get(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit())
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			l := t.Listener
			if l == nil {
				l = transport.NopListener{}
			}
			loc := c.layout.Path(t.Coordinate)
			err := c.transport.Get(gctx, loc, t.Sink, t.Offset, l)
			results[i] = Result{Task: t, Err: err}
			return nil // per-task errors are reported in results, not propagated
		})
	}
	_ = g.Wait()
	return results
}

// Put uploads every task's artifact in parallel under the same bound.
func (c *Connector) Put(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit())
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			l := t.Listener
			if l == nil {
				l = transport.NopListener{}
			}
			loc := c.layout.Path(t.Coordinate)
			err := c.transport.Put(gctx, loc, t.Source, l)
			results[i] = Result{Task: t, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Peek checks a single coordinate's existence on the connector's
// repository, classifying a missing artifact as transport.KindNotFound.
func (c *Connector) Peek(ctx context.Context, coord coordinate.Coordinate) error {
	if err := c.transport.Peek(ctx, c.layout.Path(coord)); err != nil {
		return fmt.Errorf("connector: peek %s on %s: %w", coord, c.repo.ID, err)
	}
	return nil
}

// FetchChecksum downloads the sibling checksum file for algorithm and
// returns its trimmed content, for the caller to compare via
// transport.VerifySiblingDigest (§4.D.2).
func (c *Connector) FetchChecksum(ctx context.Context, coord coordinate.Coordinate, algorithm string) (string, error) {
	var buf bytes.Buffer
	loc := c.layout.ChecksumPath(coord, algorithm)
	if err := c.transport.Get(ctx, loc, &buf, 0, transport.NopListener{}); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
