package conflict

import (
	"testing"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
	"github.com/artifactgraph/resolve/graph"
	"github.com/stretchr/testify/require"
)

func mustCoord(t *testing.T, group, artifact, version string) coordinate.Coordinate {
	t.Helper()
	c, err := coordinate.New(group, artifact, "", "", version)
	require.NoError(t, err)
	return c
}

func typeOf(scope dep.Scope, optional bool) dep.Type {
	var ty dep.Type
	ty.SetScope(scope)
	ty.SetOptional(optional)
	return ty
}

func TestResolveSingleMemberIsSelectedWithoutContest(t *testing.T) {
	g := &graph.Graph{}
	root := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "root", "1.0")})
	a := mustCoord(t, "com.example", "a", "1.0")
	n := g.AddNode(graph.Node{Coordinate: a, Requirement: dep.Dependency{Coordinate: a}, Depth: 1})
	require.NoError(t, g.AddEdge(root, n, a.String(), typeOf(dep.Compile, false)))

	out, err := New(nil).Resolve(g)
	require.NoError(t, err)
	require.True(t, out.Nodes[n].Selected)
}

func TestResolveNearestWinsByDepth(t *testing.T) {
	g := &graph.Graph{}
	root := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "root", "1.0")})

	near := mustCoord(t, "com.example", "lib", "1.0")
	far := mustCoord(t, "com.example", "lib", "2.0")

	nearID := g.AddNode(graph.Node{Coordinate: near, Requirement: dep.Dependency{Coordinate: near}, Depth: 1})
	farID := g.AddNode(graph.Node{Coordinate: far, Requirement: dep.Dependency{Coordinate: far}, Depth: 3})

	require.NoError(t, g.AddEdge(root, nearID, near.String(), typeOf(dep.Compile, false)))
	require.NoError(t, g.AddEdge(root, farID, far.String(), typeOf(dep.Compile, false)))

	out, err := New(NearestWins{}).Resolve(g)
	require.NoError(t, err)
	require.True(t, out.Nodes[nearID].Selected)
	require.False(t, out.Nodes[farID].Selected)
	require.Contains(t, out.Nodes[nearID].Aliases, farID)
}

func TestResolveTieBreakByDiscoveryOrder(t *testing.T) {
	g := &graph.Graph{}
	root := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "root", "1.0")})

	first := mustCoord(t, "com.example", "lib", "1.0")
	second := mustCoord(t, "com.example", "lib", "2.0")

	firstID := g.AddNode(graph.Node{Coordinate: first, Requirement: dep.Dependency{Coordinate: first}, Depth: 1})
	secondID := g.AddNode(graph.Node{Coordinate: second, Requirement: dep.Dependency{Coordinate: second}, Depth: 1})

	require.NoError(t, g.AddEdge(root, firstID, first.String(), typeOf(dep.Compile, false)))
	require.NoError(t, g.AddEdge(root, secondID, second.String(), typeOf(dep.Compile, false)))

	out, err := New(NearestWins{}).Resolve(g)
	require.NoError(t, err)
	require.True(t, out.Nodes[firstID].Selected, "earlier-discovered node should win an equal-depth tie")
}

func TestResolveUnsolvableOnDisjointHardRanges(t *testing.T) {
	g := &graph.Graph{}
	root := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "root", "1.0")})

	v1 := mustCoord(t, "com.example", "lib", "1.5")
	v2 := mustCoord(t, "com.example", "lib", "2.5")

	req1 := dep.Dependency{Coordinate: coordinate.Coordinate{Identity: v1.Identity, Version: "[1.0,2.0)"}}
	req2 := dep.Dependency{Coordinate: coordinate.Coordinate{Identity: v2.Identity, Version: "[2.0,3.0)"}}

	n1 := g.AddNode(graph.Node{Coordinate: v1, Requirement: req1, Depth: 1})
	n2 := g.AddNode(graph.Node{Coordinate: v2, Requirement: req2, Depth: 1})

	require.NoError(t, g.AddEdge(root, n1, v1.String(), typeOf(dep.Compile, false)))
	require.NoError(t, g.AddEdge(root, n2, v2.String(), typeOf(dep.Compile, false)))

	_, err := New(NearestWins{}).Resolve(g)
	require.Error(t, err)
	var uvc *UnsolvableVersionConflictError
	require.ErrorAs(t, err, &uvc)
}

func TestResolveDivergentSoftPreferencesIsNotAConflict(t *testing.T) {
	g := &graph.Graph{}
	root := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "root", "1.0")})

	v1 := mustCoord(t, "com.example", "lib", "1.0")
	v2 := mustCoord(t, "com.example", "lib", "2.0")

	n1 := g.AddNode(graph.Node{Coordinate: v1, Requirement: dep.Dependency{Coordinate: v1}, Depth: 1})
	n2 := g.AddNode(graph.Node{Coordinate: v2, Requirement: dep.Dependency{Coordinate: v2}, Depth: 2})

	require.NoError(t, g.AddEdge(root, n1, v1.String(), typeOf(dep.Compile, false)))
	require.NoError(t, g.AddEdge(root, n2, v2.String(), typeOf(dep.Compile, false)))

	_, err := New(NearestWins{}).Resolve(g)
	require.NoError(t, err, "two differing soft preferences is the ordinary nearest-wins case, not a failure")
}

func TestResolveScopeFollowsShortestPathThenWidest(t *testing.T) {
	g := &graph.Graph{}
	root := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "root", "1.0")})

	lib := mustCoord(t, "com.example", "lib", "1.0")
	n := g.AddNode(graph.Node{Coordinate: lib, Requirement: dep.Dependency{Coordinate: lib}, Depth: 1})
	mid := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "mid", "1.0"), Depth: 1})

	// n is reached directly from root (depth 0, narrower "test" scope) and
	// also via mid (depth 1, wider "compile" scope). The shallower path wins
	// outright regardless of its narrower scope.
	require.NoError(t, g.AddEdge(root, mid, "mid", typeOf(dep.Compile, false)))
	require.NoError(t, g.AddEdge(root, n, lib.String(), typeOf(dep.Test, false)))
	require.NoError(t, g.AddEdge(mid, n, lib.String(), typeOf(dep.Compile, false)))

	_, err := New(NearestWins{}).Resolve(g)
	require.NoError(t, err)

	for _, e := range g.Edges {
		if e.To == n {
			require.Equal(t, dep.Test, e.Type.Scope())
		}
	}
}

func TestResolveScopeTiesBreakToWidest(t *testing.T) {
	g := &graph.Graph{}
	root := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "root", "1.0")})
	a := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "a", "1.0"), Depth: 1})
	b := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "b", "1.0"), Depth: 1})
	lib := mustCoord(t, "com.example", "lib", "1.0")
	n := g.AddNode(graph.Node{Coordinate: lib, Requirement: dep.Dependency{Coordinate: lib}, Depth: 2})

	require.NoError(t, g.AddEdge(root, a, "a", typeOf(dep.Compile, false)))
	require.NoError(t, g.AddEdge(root, b, "b", typeOf(dep.Compile, false)))
	require.NoError(t, g.AddEdge(a, n, lib.String(), typeOf(dep.Test, false)))
	require.NoError(t, g.AddEdge(b, n, lib.String(), typeOf(dep.Runtime, false)))

	_, err := New(NearestWins{}).Resolve(g)
	require.NoError(t, err)

	for _, e := range g.Edges {
		if e.To == n {
			require.Equal(t, dep.Runtime, e.Type.Scope(), "equal-depth edges should pick the widest scope")
		}
	}
}

func TestResolveOptionalOnlyWhenAllIncomingEdgesOptional(t *testing.T) {
	g := &graph.Graph{}
	root := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "root", "1.0")})
	lib := mustCoord(t, "com.example", "lib", "1.0")
	n := g.AddNode(graph.Node{Coordinate: lib, Requirement: dep.Dependency{Coordinate: lib}, Depth: 1})
	other := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "other", "1.0"), Depth: 1})

	require.NoError(t, g.AddEdge(root, n, lib.String(), typeOf(dep.Compile, true)))
	require.NoError(t, g.AddEdge(other, n, lib.String(), typeOf(dep.Compile, false)))

	_, err := New(NearestWins{}).Resolve(g)
	require.NoError(t, err)

	var anyRequired bool
	for _, e := range g.Edges {
		if e.To == n && !e.Type.Optional() {
			anyRequired = true
		}
	}
	require.True(t, anyRequired, "node fed by at least one required edge must not end up optional-only")
}

func TestResolvePrunesLoserEdgesAndRecordsAlias(t *testing.T) {
	g := &graph.Graph{}
	root := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "root", "1.0")})

	near := mustCoord(t, "com.example", "lib", "1.0")
	far := mustCoord(t, "com.example", "lib", "2.0")
	nearID := g.AddNode(graph.Node{Coordinate: near, Requirement: dep.Dependency{Coordinate: near}, Depth: 1})
	farID := g.AddNode(graph.Node{Coordinate: far, Requirement: dep.Dependency{Coordinate: far}, Depth: 2})

	require.NoError(t, g.AddEdge(root, nearID, near.String(), typeOf(dep.Compile, false)))
	require.NoError(t, g.AddEdge(root, farID, far.String(), typeOf(dep.Compile, false)))

	out, err := New(NearestWins{}).Resolve(g)
	require.NoError(t, err)

	var sawPrunedToWinner bool
	for _, e := range out.Edges {
		if e.Pruned && e.To == nearID {
			sawPrunedToWinner = true
		}
	}
	require.True(t, sawPrunedToWinner)
	require.Contains(t, out.Nodes[nearID].Aliases, farID)
}

func TestResolveCycleCleanupRepointsToWinner(t *testing.T) {
	g := &graph.Graph{}
	root := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "root", "1.0")})

	near := mustCoord(t, "com.example", "lib", "1.0")
	far := mustCoord(t, "com.example", "lib", "2.0")
	nearID := g.AddNode(graph.Node{Coordinate: near, Requirement: dep.Dependency{Coordinate: near}, Depth: 1})
	farID := g.AddNode(graph.Node{Coordinate: far, Requirement: dep.Dependency{Coordinate: far}, Depth: 2})
	cyclic := g.AddNode(graph.Node{Coordinate: far, State: graph.StateCyclic, CycleOf: farID, Depth: 3})

	require.NoError(t, g.AddEdge(root, nearID, near.String(), typeOf(dep.Compile, false)))
	require.NoError(t, g.AddEdge(root, farID, far.String(), typeOf(dep.Compile, false)))
	require.NoError(t, g.AddEdge(farID, cyclic, far.String(), typeOf(dep.Compile, false)))

	out, err := New(NearestWins{}).Resolve(g)
	require.NoError(t, err)
	require.Equal(t, nearID, out.Nodes[cyclic].CycleOf)
}

func TestConvergenceEnforcingRejectsMultipleDistinctVersions(t *testing.T) {
	g := &graph.Graph{}
	root := g.AddNode(graph.Node{Coordinate: mustCoord(t, "com.example", "root", "1.0")})

	v1 := mustCoord(t, "com.example", "lib", "1.0")
	v2 := mustCoord(t, "com.example", "lib", "2.0")
	n1 := g.AddNode(graph.Node{Coordinate: v1, Requirement: dep.Dependency{Coordinate: v1}, Depth: 1})
	n2 := g.AddNode(graph.Node{Coordinate: v2, Requirement: dep.Dependency{Coordinate: v2}, Depth: 1})

	require.NoError(t, g.AddEdge(root, n1, v1.String(), typeOf(dep.Compile, false)))
	require.NoError(t, g.AddEdge(root, n2, v2.String(), typeOf(dep.Compile, false)))

	_, err := New(NewConvergenceEnforcing()).Resolve(g)
	require.Error(t, err)
	var uvc *UnsolvableVersionConflictError
	require.ErrorAs(t, err, &uvc)
	require.Len(t, uvc.Paths, 2)
}
