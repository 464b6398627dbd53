package connector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artifactgraph/resolve/session"
)

// ErrNoTransporter is returned by a Factory when it does not recognise
// repo.URL's scheme (§4.C, §6 "unknown schemes must produce NoTransporter").
var ErrNoTransporter = errors.New("connector: no transporter for repository")

// ErrNoRepositoryConnector is returned when every registered Factory
// declined a repository.
var ErrNoRepositoryConnector = errors.New("connector: no repository connector")

// Factory produces a Connector for one repository, or ErrNoTransporter if
// it does not recognise repo's URL scheme. Factories are tried by
// descending Priority (§4.C).
type Factory interface {
	Priority() int
	New(sess *session.Session, repo Repository) (*Connector, error)
}

// Registry is an ordered set of Factory implementations, tried highest
// priority first.
type Registry struct {
	factories []Factory
}

// NewRegistry builds a Registry from factories, sorting them by descending
// priority. Equal priorities keep their given relative order.
func NewRegistry(factories ...Factory) *Registry {
	r := &Registry{factories: append([]Factory(nil), factories...)}
	// Simple stable insertion sort: registries are tiny (a handful of
	// factories at most), so there is no need for sort.Slice's overhead
	// or its non-stability guarantees here.
	for i := 1; i < len(r.factories); i++ {
		for j := i; j > 0 && r.factories[j].Priority() > r.factories[j-1].Priority(); j-- {
			r.factories[j], r.factories[j-1] = r.factories[j-1], r.factories[j]
		}
	}
	return r
}

// Connect tries every registered factory in priority order, returning the
// first connector produced. If every factory declines with
// ErrNoTransporter, the returned error enumerates them (§4.C).
func (r *Registry) Connect(sess *session.Session, repo Repository) (*Connector, error) {
	var attempted []string
	for _, f := range r.factories {
		c, err := f.New(sess, repo)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrNoTransporter) {
			return nil, err
		}
		attempted = append(attempted, fmt.Sprintf("%T", f))
	}
	return nil, fmt.Errorf("%w for %q (tried: %s)", ErrNoRepositoryConnector, repo.URL, strings.Join(attempted, ", "))
}
