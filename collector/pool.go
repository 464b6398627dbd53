package collector

import (
	"fmt"
	"sort"
	"strings"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/graph"
	"github.com/artifactgraph/resolve/session"
	"github.com/cespare/xxhash/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

// Pool memoises the already-built node for a (coordinate, repo set,
// derived-policy) combination so identical subtrees are shared rather than
// re-expanded (§4.G "Memoisation key combines coordinate + child repo set +
// identity of derived selector/manager/traverser/filter"). A cache hit adds
// a single new edge pointing at the node already built for that key; its
// whole subtree comes along for free since Graph's arena lets several edges
// target the same NodeID.
type Pool struct {
	nodes *xsync.MapOf[uint64, graph.NodeID]
}

// NewPool creates an empty memoisation pool, scoped to a single Graph.
func NewPool() *Pool {
	return &Pool{nodes: xsync.NewMapOf[uint64, graph.NodeID]()}
}

// Key hashes the memoisation key for one (coordinate, repos, policy) combo.
//
// The spec calls for "identity of derived selector/manager/traverser/
// filter", which in a language with reference-identity would mean pointer
// equality of the derived instances. Go interfaces holding immutable
// value-type policies don't carry a stable pointer across `derive` calls,
// so this hashes each policy's %v/%T representation instead — two structurally
// identical derived policies collide onto the same key (the desired
// behaviour: "same effective rules" should share a subtree), while the
// xxhash already wired in for this package (SPEC_FULL §2) keeps the key
// compact. A selector capturing an uncomparable field (a func value, a
// channel) would break %v formatting's usefulness for this purpose — none
// of this module's default or derived selectors do.
func Key(coord coordinate.Coordinate, repos []string, sel session.DependencySelector, mgr session.DependencyManager, trv session.DependencyTraverser, vf session.VersionFilter) uint64 {
	sorted := append([]string(nil), repos...)
	sort.Strings(sorted)
	s := fmt.Sprintf("%s|%s|%T:%+v|%T:%+v|%T:%+v|%T:%+v",
		coord, strings.Join(sorted, ","),
		sel, sel, mgr, mgr, trv, trv, vf, vf)
	return xxhash.Sum64String(s)
}

func (p *Pool) Get(key uint64) (graph.NodeID, bool) {
	return p.nodes.Load(key)
}

func (p *Pool) Put(key uint64, n graph.NodeID) {
	p.nodes.Store(key, n)
}
