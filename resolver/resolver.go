package resolver

import (
	"fmt"

	"github.com/artifactgraph/resolve/collector"
	"github.com/artifactgraph/resolve/conflict"
	"github.com/artifactgraph/resolve/connector"
	"github.com/artifactgraph/resolve/dep"
	"github.com/artifactgraph/resolve/descriptor"
	"github.com/artifactgraph/resolve/graph"
	"github.com/artifactgraph/resolve/session"
)

// descriptorCacheSize bounds the reader's per-session LRU of resolved
// descriptors, sized generously since a single resolution can revisit the
// same handful of coordinates from many branches of the graph.
const descriptorCacheSize = 4096

// Resolver is the top-level façade wiring a session, a connector
// registry, the Maven descriptor parser/management resolver, a
// version-range metadata fetcher, the dependency collector and the
// conflict resolver into one entry point.
type Resolver struct {
	sess     *session.Session
	registry *connector.Registry
	repoIDs  []string

	reader   *descriptor.Reader
	fetcher  *PomMetadataFetcher
	pool     *collector.Pool
	conflict *conflict.Resolver
}

// New builds a Resolver over the given repositories, tried in the given
// priority order for every fetch. sess supplies the connector/collector
// configuration and selector/traverser/version-filter policy; its
// DependencyManager is overridden per-call by Resolve (see
// managementOverrideManager).
func New(sess *session.Session, registry *connector.Registry, repos []connector.Repository, versionSelector conflict.VersionSelector) *Resolver {
	source := newPomSource(sess, registry, repos)
	repoIDs := make([]string, len(repos))
	for i, r := range repos {
		repoIDs[i] = r.ID
	}

	parser := NewPomParser(source, repoIDs)
	reader := descriptor.NewReader(parser, parser, descriptor.NewCache(descriptorCacheSize))

	return &Resolver{
		sess:     sess,
		registry: registry,
		repoIDs:  repoIDs,
		reader:   reader,
		fetcher:  NewPomMetadataFetcher(source),
		pool:     collector.NewPool(),
		conflict: conflict.New(versionSelector),
	}
}

// Resolve runs the full pipeline for root: read its descriptor to seed a
// session-wide dependency manager from its own managed-dependency block,
// collect the raw transitive graph, then reduce it to one winner per
// conflict group.
func (r *Resolver) Resolve(root dep.Dependency) (*graph.Graph, error) {
	rootResult, err := r.reader.Read(root.Coordinate, r.repoIDs)
	if err != nil {
		return nil, fmt.Errorf("resolver: reading root descriptor for %s: %w", root.Coordinate, err)
	}

	sess := r.sess.WithManager(newManagementOverrideManager(rootResult.ManagedDeps))
	coll := collector.New(sess, r.reader, r.fetcher, collector.NewPool())

	raw, err := coll.Collect(collector.Request{
		Root:         root,
		Repositories: r.repoIDs,
		FailOnError:  true,
	})
	if err != nil {
		return nil, err
	}

	return r.conflict.Resolve(raw)
}
