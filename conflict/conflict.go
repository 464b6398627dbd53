// Package conflict implements component H: the post-order conflict
// resolver that reduces a raw, possibly redundant collector graph down to
// one winning node per coordinate identity (§4.H).
package conflict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
	"github.com/artifactgraph/resolve/graph"
)

// UnsolvableVersionConflictError reports that a conflict group's winner
// does not satisfy the intersection of version constraints contributed by
// its edges, or — under ConvergenceEnforcing — that the group contains
// more than one distinct version at all (§7 `UnsolvableVersionConflict`).
type UnsolvableVersionConflictError struct {
	Identity coordinate.Identity
	Paths    []string
}

func (e *UnsolvableVersionConflictError) Error() string {
	return fmt.Sprintf("unsolvable version conflict for %s: contributing paths: %s",
		e.Identity, strings.Join(e.Paths, "; "))
}

// VersionSelector picks the winning node within one conflict group — the
// set of raw-graph nodes sharing a coordinate identity (§4.H step 2).
// members is ordered by Discovery.
type VersionSelector interface {
	Select(g *graph.Graph, members []graph.NodeID) (winner graph.NodeID, err error)
}

// NearestWins is the default selector: the member with the smallest Depth
// wins, ties broken by earliest Discovery (§4.H step 2, SPEC_FULL §4
// Open Question 1).
type NearestWins struct{}

func (NearestWins) Select(g *graph.Graph, members []graph.NodeID) (graph.NodeID, error) {
	best := members[0]
	for _, m := range members[1:] {
		bn, mn := g.Nodes[best], g.Nodes[m]
		if mn.Depth < bn.Depth || (mn.Depth == bn.Depth && mn.Discovery < bn.Discovery) {
			best = m
		}
	}
	return best, nil
}

// ConvergenceEnforcing rejects any conflict group containing more than one
// distinct version, reporting every contributing path (§4.H "variant
// convergence-enforcing selector").
type ConvergenceEnforcing struct {
	fallback VersionSelector
}

func NewConvergenceEnforcing() ConvergenceEnforcing {
	return ConvergenceEnforcing{fallback: NearestWins{}}
}

func (c ConvergenceEnforcing) Select(g *graph.Graph, members []graph.NodeID) (graph.NodeID, error) {
	versions := make(map[string]bool)
	for _, m := range members {
		versions[g.Nodes[m].Coordinate.Version] = true
	}
	if len(versions) > 1 {
		paths := make([]string, len(members))
		creator := buildCreatorMap(g)
		for i, m := range members {
			paths[i] = pathString(g, creator, m)
		}
		return 0, &UnsolvableVersionConflictError{Identity: g.Nodes[members[0]].Coordinate.Identity, Paths: paths}
	}
	return c.fallback.Select(g, members)
}

// Resolver runs the §4.H phases over a raw collector graph.
type Resolver struct {
	versionSelector VersionSelector
}

// New builds a Resolver. A nil selector defaults to NearestWins.
func New(sel VersionSelector) *Resolver {
	if sel == nil {
		sel = NearestWins{}
	}
	return &Resolver{versionSelector: sel}
}

// Resolve mutates and returns g, reduced to one winner per conflict group
// (§4.H phases 1-7). The returned graph's edges are canonicalised.
func (r *Resolver) Resolve(g *graph.Graph) (*graph.Graph, error) {
	groups := groupByIdentity(g)
	creator := buildCreatorMap(g)

	for _, members := range groups {
		// A single-member group still needs scope/optionality resolution: the
		// collector's memoisation already collapses repeat encounters of the
		// same coordinate onto one NodeID, so "the same node reached via two
		// parents with different declared scopes" shows up here as one member
		// with several incoming edges, not several members — it is the common
		// case, not the exception, and step 3/4 still apply to it.
		winner := members[0]
		if len(members) > 1 {
			var err error
			winner, err = r.versionSelector.Select(g, members)
			if err != nil {
				return g, err
			}
			if err := r.checkConstraint(g, members, winner, creator); err != nil {
				return g, err
			}
		}

		resolveScope(g, members, winner)
		resolveOptionality(g, members, winner)
		prunePaths(g, members, winner)
	}

	cycleCleanup(g)
	refineManagedContext(g)
	g.Canon()
	return g, nil
}

// checkConstraint implements §4.H step 2's "effective version constraint
// is the intersection of version constraints from all contributing
// edges; if the winner does not satisfy the intersection, fail". Each
// member node's own Requirement.Coordinate.Version is the range or
// concrete version declared by the edge(s) that produced that
// particular resolved version — the collector's memoisation already
// collapses edges that agree on a resolved version onto one node, so the
// distinct members of a group are exactly the set of distinct
// constraints that produced version diversity; a per-edge range stored on
// graph.Edge itself was not needed beyond that to reconstruct this.
//
// Only hard ranges (brackets) actually constrain the winner: two members
// disagreeing on a soft preference ("1.0" vs "2.0") is the ordinary case
// nearest-wins exists to resolve, not a conflict — Range.Intersect treats
// two different soft preferences as mutually unsatisfiable, which would
// otherwise turn every ordinary version disagreement into a failure.
// Only a hard range that the winner's version falls outside of, or two
// hard ranges that don't overlap at all, are genuine unsolvable conflicts.
func (r *Resolver) checkConstraint(g *graph.Graph, members []graph.NodeID, winner graph.NodeID, creator map[graph.NodeID]graph.NodeID) error {
	var intersected *coordinate.Range
	for _, m := range members {
		rng, err := coordinate.ParseRange(g.Nodes[m].Requirement.Coordinate.Version)
		if err != nil || rng.IsSoft() {
			continue
		}
		if intersected == nil {
			intersected = rng
			continue
		}
		merged, ok := intersected.Intersect(rng)
		if !ok {
			return r.unsolvable(g, members, creator)
		}
		intersected = merged
	}
	if intersected == nil {
		return nil
	}
	wv, err := coordinate.ParseVersion(g.Nodes[winner].Coordinate.Version)
	if err != nil {
		return nil
	}
	if !intersected.Contains(wv) {
		return r.unsolvable(g, members, creator)
	}
	g.Nodes[winner].Constraint = intersected
	return nil
}

func (r *Resolver) unsolvable(g *graph.Graph, members []graph.NodeID, creator map[graph.NodeID]graph.NodeID) error {
	paths := make([]string, len(members))
	for i, m := range members {
		paths[i] = pathString(g, creator, m)
	}
	return &UnsolvableVersionConflictError{Identity: g.Nodes[members[0]].Coordinate.Identity, Paths: paths}
}

// groupByIdentity partitions every node's index by coordinate.Identity,
// skipping cyclic markers (they are not independent versions to resolve,
// just truncation breadcrumbs cleaned up in cycleCleanup) (§4.H step 1).
func groupByIdentity(g *graph.Graph) map[coordinate.Identity][]graph.NodeID {
	groups := make(map[coordinate.Identity][]graph.NodeID)
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.State == graph.StateCyclic {
			continue
		}
		id := n.Coordinate.Identity
		groups[id] = append(groups[id], graph.NodeID(i))
	}
	for _, members := range groups {
		sort.Slice(members, func(i, j int) bool {
			return g.Nodes[members[i]].Discovery < g.Nodes[members[j]].Discovery
		})
	}
	return groups
}

// scopeWidth orders the default scope vocabulary from widest to narrowest
// for §4.H step 3's "widest scope along the shortest path wins" rule
// (§6 scope table). system ranks below every other named scope, so on a
// depth tie a system edge loses to any sibling edge with a named scope.
func scopeWidth(s dep.Scope) int {
	switch s {
	case dep.Compile:
		return 5
	case dep.Runtime:
		return 4
	case dep.Provided:
		return 3
	case dep.Test:
		return 2
	case dep.System:
		return 1
	default: // compileOnly, testRuntime, testOnly, none
		return 0
	}
}

// resolveScope computes the winner's effective scope from the edges
// pointing at it: the widest scope among edges on the shallowest
// contributing path, with a managed-scope override taking precedence
// when present on any such edge (§4.H step 3).
func resolveScope(g *graph.Graph, members []graph.NodeID, winner graph.NodeID) {
	var best *graph.Edge
	var bestDepth = -1
	var managedOverride *dep.Scope

	for i := range g.Edges {
		e := &g.Edges[i]
		if !memberSet(members)[e.To] {
			continue
		}
		depth := g.Nodes[e.From].Depth
		if e.Type.ManagedOrigin() == dep.OriginManagement {
			s := e.Type.Scope()
			managedOverride = &s
		}
		if best == nil || depth < bestDepth || (depth == bestDepth && scopeWidth(e.Type.Scope()) > scopeWidth(best.Type.Scope())) {
			best = e
			bestDepth = depth
		}
	}

	effective := dep.Compile
	if best != nil {
		effective = best.Type.Scope()
	}
	if managedOverride != nil {
		effective = *managedOverride
	}
	set := memberSet(members)
	for i := range g.Edges {
		if set[g.Edges[i].To] {
			g.Edges[i].Type.SetScope(effective)
		}
	}
}

// resolveOptionality marks the winner optional iff every edge pointing at
// any member of its conflict group (which, after pruning, collapse onto
// the winner) is optional (§4.H step 4).
func resolveOptionality(g *graph.Graph, members []graph.NodeID, winner graph.NodeID) {
	set := memberSet(members)
	allOptional := true
	any := false
	for i := range g.Edges {
		if set[g.Edges[i].To] {
			any = true
			if !g.Edges[i].Type.Optional() {
				allOptional = false
			}
		}
	}
	if any {
		for i := range g.Edges {
			if set[g.Edges[i].To] {
				g.Edges[i].Type.SetOptional(allOptional)
			}
		}
	}
}

// prunePaths rewrites every edge that targeted a loser in this conflict
// group to target the winner instead, marks the original edge Pruned, and
// records each loser as an alias on the winner for diagnostics (§4.H
// step 5).
func prunePaths(g *graph.Graph, members []graph.NodeID, winner graph.NodeID) {
	g.Nodes[winner].Selected = true
	for _, m := range members {
		if m == winner {
			continue
		}
		g.Nodes[winner].Aliases = append(g.Nodes[winner].Aliases, m)
	}
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.To != winner && isMember(members, e.To) {
			e.Pruned = true
			e.To = winner
		}
	}
}

// cycleCleanup re-points any cyclic marker whose CycleOf ancestor lost its
// conflict group onto that ancestor's winner, following alias chains, or
// leaves it untouched if the ancestor itself is the surviving winner
// (§4.H step 6).
func cycleCleanup(g *graph.Graph) {
	winnerOf := make(map[graph.NodeID]graph.NodeID)
	for i := range g.Nodes {
		for _, alias := range g.Nodes[i].Aliases {
			winnerOf[alias] = graph.NodeID(i)
		}
	}
	for i := range g.Nodes {
		if g.Nodes[i].State != graph.StateCyclic {
			continue
		}
		target := g.Nodes[i].CycleOf
		for {
			w, ok := winnerOf[target]
			if !ok {
				break
			}
			target = w
		}
		g.Nodes[i].CycleOf = target
	}
}

// refineManagedContext sets each selected node's Managed.Coordinate to the
// node's own winning Coordinate. Requirement is left as the collector set
// it (the pre-managed declaration), so downstream consumers can see both
// (§4.H step 7).
func refineManagedContext(g *graph.Graph) {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if !n.Selected {
			continue
		}
		// Requirement already holds the pre-managed declaration (set at
		// construction time in the collector); nothing further to
		// restore here beyond ensuring Managed reflects what actually won.
		if n.Coordinate.Version != "" {
			n.Managed.Coordinate = n.Coordinate
		}
	}
}

func memberSet(members []graph.NodeID) map[graph.NodeID]bool {
	set := make(map[graph.NodeID]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	return set
}

func isMember(members []graph.NodeID, n graph.NodeID) bool {
	for _, m := range members {
		if m == n {
			return true
		}
	}
	return false
}

// buildCreatorMap records, for each node, the edge that first discovered
// it — used to reconstruct one representative root-to-node path for
// diagnostics, mirroring graph.Graph.String's own creator map.
func buildCreatorMap(g *graph.Graph) map[graph.NodeID]graph.NodeID {
	creator := make(map[graph.NodeID]graph.NodeID, len(g.Nodes))
	for _, e := range g.Edges {
		if _, ok := creator[e.To]; !ok && e.To != e.From {
			creator[e.To] = e.From
		}
	}
	return creator
}

// pathString renders one representative root-to-n path as a slash-joined
// chain of coordinates, for UnsolvableVersionConflictError diagnostics.
func pathString(g *graph.Graph, creator map[graph.NodeID]graph.NodeID, n graph.NodeID) string {
	var chain []string
	cur := n
	seen := make(map[graph.NodeID]bool)
	for {
		chain = append([]string{g.Nodes[cur].Coordinate.String()}, chain...)
		if seen[cur] {
			break
		}
		seen[cur] = true
		parent, ok := creator[cur]
		if !ok || parent == cur {
			break
		}
		cur = parent
	}
	return strings.Join(chain, " -> ")
}
