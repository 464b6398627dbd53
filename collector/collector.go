// Package collector implements component G: the depth-first, memoised
// dependency collector (§4.G).
package collector

import (
	"fmt"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
	"github.com/artifactgraph/resolve/descriptor"
	"github.com/artifactgraph/resolve/graph"
	"github.com/artifactgraph/resolve/session"
	"github.com/artifactgraph/resolve/versionrange"
	"github.com/hashicorp/go-multierror"
)

// Request is a single collection request (§4.G "args = (session, pool,
// node_stack, coll_ctx, ver_ctx, request)").
type Request struct {
	Root         dep.Dependency
	Repositories []string
	// FailOnError makes the root itself fatal on any resolution failure
	// rather than recording it into the results bag (§4.G Failure semantics).
	FailOnError bool
}

// Collector runs §4.G's algorithm against a descriptor reader and version
// range resolver shared across requests in the same session.
type Collector struct {
	sess    *session.Session
	reader  *descriptor.Reader
	fetcher versionrange.MetadataFetcher
	pool    *Pool
}

// New builds a Collector. pool holds NodeIDs of the graph a Collect call
// builds, so it memoises identical subtrees within one Collect call; a
// later Collect call needs a fresh pool.
func New(sess *session.Session, reader *descriptor.Reader, fetcher versionrange.MetadataFetcher, pool *Pool) *Collector {
	return &Collector{sess: sess, reader: reader, fetcher: fetcher, pool: pool}
}

// state threads the per-request mutable pieces (graph under construction,
// ancestor stack, accumulated errors) through the recursive descent
// without polluting every function signature with them individually.
type state struct {
	g     *graph.Graph
	stack []graph.NodeID
	errs  *multierror.Error
}

// Collect runs the full §4.G algorithm for req and returns the resulting
// raw graph (pre conflict-resolution). A non-nil error is only returned
// when the root itself is unresolvable and req.FailOnError is set (§4.G
// "DependencyCollection failures are fatal when the root itself is
// unresolvable"); per-dependency failures elsewhere are recorded into
// Graph.Error instead of aborting the walk, and a descriptor-read failure
// is also recorded on a stub node. A version range that fails to resolve
// or matches nothing gets no node.
func (c *Collector) Collect(req Request) (*graph.Graph, error) {
	g := &graph.Graph{}
	root := g.AddNode(graph.Node{
		Coordinate:   req.Root.Coordinate,
		Requirement:  req.Root,
		Managed:      req.Root,
		Repositories: req.Repositories,
		State:        graph.StateExpanding,
	})

	result, err := c.reader.Read(req.Root.Coordinate, req.Repositories)
	if err != nil {
		g.Nodes[root].State = graph.StateStub
		g.Nodes[root].Errors = append(g.Nodes[root].Errors, graph.NodeError{
			Requirement: req.Root.Coordinate.String(), Error: err.Error(),
		})
		g.Error = err.Error()
		if req.FailOnError {
			return g, fmt.Errorf("collector: root %s unresolvable: %w", req.Root.Coordinate, err)
		}
		return g, nil
	}
	g.Nodes[root].Coordinate = result.EffectiveCoordinate
	rootRepos := aggregateRepos(req.Repositories, result.DeclaredRepos)
	g.Nodes[root].Repositories = rootRepos

	st := &state{g: g, stack: []graph.NodeID{root}}
	c.process(st, root, 0, dep.Compile, result.DirectDeps, rootRepos,
		c.sess.Selector(), c.sess.Manager(), c.sess.Traverser(), c.sess.VersionFilter())

	g.Nodes[root].State = graph.StateExpanded
	if st.errs.ErrorOrNil() != nil {
		g.Error = st.errs.Error()
	}
	return g, nil
}

// process implements §4.G's `process`: visit each declared dependency of
// the current node under the given derived policy set. parentScope is the
// effective scope already derived for parent, used to derive each child
// edge's own effective scope (§6 scope inheritance table).
func (c *Collector) process(st *state, parent graph.NodeID, depth int, parentScope dep.Scope, deps []dep.Dependency, repos []string,
	sel session.DependencySelector, mgr session.DependencyManager, trv session.DependencyTraverser, vf session.VersionFilter) {
	for _, d := range deps {
		c.processDependency(st, parent, depth, parentScope, d, repos, sel, mgr, trv, vf, nil, false)
	}
}

// premanaged holds a dependency's state before and after a DependencyManager
// override (§4.G "pre_manage... records original scope/version/optional").
type premanaged struct {
	original dep.Dependency
	managed  dep.Dependency
}

func preManage(mgr session.DependencyManager, d dep.Dependency, disableVerMgmt bool) premanaged {
	if disableVerMgmt || mgr == nil {
		return premanaged{original: d, managed: d}
	}
	managed, _ := mgr.Manage(d)
	return premanaged{original: d, managed: managed}
}

// processDependency implements §4.G's `process_dependency`.
func (c *Collector) processDependency(st *state, parent graph.NodeID, depth int, parentScope dep.Scope, d dep.Dependency, repos []string,
	sel session.DependencySelector, mgr session.DependencyManager, trv session.DependencyTraverser, vf session.VersionFilter,
	relocations []coordinate.Coordinate, disableVerMgmt bool) {

	if sel != nil && !sel.Select(d, depth) {
		return
	}
	pre := preManage(mgr, d, disableVerMgmt)
	managed := pre.managed
	effScope := dep.Derive(parentScope, d.Scope)

	noDesc := c.reader.IsKnownUnresolvable(managed.Coordinate, repos)
	traverse := !noDesc && (trv == nil || trv.Traverse(managed))

	defaultRepo := ""
	if len(repos) > 0 {
		defaultRepo = repos[0]
	}
	vres, err := versionrange.Resolve(c.fetcher, managed, repos, vf, defaultRepo)
	if err != nil {
		st.errs = multierror.Append(st.errs, fmt.Errorf("version range for %s: %w", managed.Coordinate, err))
		return
	}

	if len(vres.Versions) == 0 {
		st.errs = multierror.Append(st.errs, fmt.Errorf("no versions satisfy %s", managed.Coordinate))
		return
	}
	// vres.Versions is sorted ascending (§4.F); absent a pinned/soft
	// version, the highest match wins the slot a concrete artifact needs —
	// multiple candidate versions exist only to give conflict resolution a
	// range to intersect against later, not multiple sibling nodes here.
	d2 := managed.WithVersion(vres.Versions[len(vres.Versions)-1])

	result, derr := c.reader.Read(d2.Coordinate, repos)
	if derr != nil {
		child := st.g.AddNode(graph.Node{
			Coordinate:   d2.Coordinate,
			Requirement:  pre.original,
			Managed:      d2,
			Repositories: repos,
			State:        graph.StateStub,
			Depth:        depth + 1,
			Errors:       []graph.NodeError{{Requirement: d2.Coordinate.String(), Error: derr.Error()}},
		})
		_ = st.g.AddEdge(parent, child, d2.Coordinate.String(), edgeType(d, effScope, pre))
		st.errs = multierror.Append(st.errs, fmt.Errorf("descriptor for %s: %w", d2.Coordinate, derr))
		return
	}
	d2.Coordinate = result.EffectiveCoordinate

	if cycle, found := c.findCycle(st, result.EffectiveCoordinate.Identity); found {
		c.recordCycle(st, cycle, d2, parent, d, effScope, pre, depth)
		return
	}

	if len(result.RelocationChain) > 0 {
		same := d.Coordinate.Group == result.EffectiveCoordinate.Group && d.Coordinate.Artifact == result.EffectiveCoordinate.Artifact
		c.processDependency(st, parent, depth, parentScope, d2, repos, sel, mgr, trv, vf,
			append(relocations, result.RelocationChain...), same)
		return
	}

	childRepos := aggregateRepos(repos, result.DeclaredRepos)
	key := Key(d2.Coordinate, childRepos, sel, mgr, trv, vf)

	// A cache hit reuses the node already built for this (coordinate, repos,
	// policy) combination wholesale: one new edge into the existing NodeID
	// brings its entire already-expanded subtree along, rather than cloning
	// or re-walking it (§4.G memoisation).
	if cachedID, ok := c.pool.Get(key); ok {
		if st.g.Nodes[cachedID].Depth > depth+1 {
			st.g.Nodes[cachedID].Depth = depth + 1
		}
		_ = st.g.AddEdge(parent, cachedID, d2.Coordinate.String(), edgeType(d, effScope, pre))
		return
	}

	node := graph.Node{
		Coordinate:   d2.Coordinate,
		Requirement:  pre.original,
		Managed:      d2,
		Repositories: childRepos,
		State:        graph.StateExpanded,
		Depth:        depth + 1,
	}
	childID := st.g.AddNode(node)
	_ = st.g.AddEdge(parent, childID, d2.Coordinate.String(), edgeType(d, effScope, pre))
	c.pool.Put(key, childID)

	if !traverse || len(result.DirectDeps) == 0 {
		return
	}

	childSel, childMgr, childTrv, childVf := sel, mgr, trv, vf
	if sel != nil {
		childSel = sel.Derive(d2)
	}
	if trv != nil {
		childTrv = trv.Derive(d2)
	}
	_ = childMgr

	st.stack = append(st.stack, childID)
	c.process(st, childID, depth+1, effScope, result.DirectDeps, childRepos, childSel, childMgr, childTrv, childVf)
	st.stack = st.stack[:len(st.stack)-1]
}

// edgeType builds the dep.Type attribute bitset for one edge, carrying its
// effective (parent-derived) scope rather than the dependency's own
// undecorated declared scope (§6 scope inheritance table).
func edgeType(d dep.Dependency, effScope dep.Scope, pre premanaged) dep.Type {
	var t dep.Type
	t.SetScope(effScope)
	t.SetOptional(d.Optional)
	if pre.original.Scope != pre.managed.Scope || pre.original.Coordinate.Version != pre.managed.Coordinate.Version {
		t.SetManagedOrigin(dep.OriginManagement)
	}
	return t
}

// findCycle searches the ancestor stack for a node sharing d's identity,
// ignoring version (§4.G "Cycle truncation: uses coordinate identity...
// ignoring version").
func (c *Collector) findCycle(st *state, id coordinate.Identity) (graph.NodeID, bool) {
	for _, ancestor := range st.stack {
		if st.g.Nodes[ancestor].Coordinate.Identity == id {
			return ancestor, true
		}
	}
	return 0, false
}

// recordCycle attaches a truncated cyclic node under parent, pointing at
// the ancestor it cycles back to, rather than re-expanding the subtree.
func (c *Collector) recordCycle(st *state, ancestor graph.NodeID, d dep.Dependency, parent graph.NodeID, original dep.Dependency, effScope dep.Scope, pre premanaged, depth int) {
	node := graph.Node{
		Coordinate:  st.g.Nodes[ancestor].Coordinate,
		Requirement: pre.original,
		Managed:     d,
		State:       graph.StateCyclic,
		CycleOf:     ancestor,
		Depth:       depth + 1,
	}
	childID := st.g.AddNode(node)
	_ = st.g.AddEdge(parent, childID, d.Coordinate.String(), edgeType(original, effScope, pre))
}

// aggregateRepos merges a node's repositories with its descriptor's
// declared repositories, recessively: already-known repositories keep
// their position/priority, declared ones are appended only if new (§4.G
// "child_repos = aggregate(repos, desc.repositories, recessive=true)").
func aggregateRepos(repos, declared []string) []string {
	seen := make(map[string]bool, len(repos))
	out := append([]string(nil), repos...)
	for _, r := range repos {
		seen[r] = true
	}
	for _, d := range declared {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
