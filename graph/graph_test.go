package graph

import (
	"testing"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
	"github.com/stretchr/testify/require"
)

func coord(t *testing.T, group, artifact, version string) coordinate.Coordinate {
	t.Helper()
	c, err := coordinate.New(group, artifact, "", "", version)
	require.NoError(t, err)
	return c
}

func TestAddNodeAssignsDiscovery(t *testing.T) {
	var g Graph
	root := g.AddNode(Node{Coordinate: coord(t, "com.example", "root", "1.0")})
	child := g.AddNode(Node{Coordinate: coord(t, "com.example", "child", "1.0")})

	require.Equal(t, 0, g.Nodes[root].Discovery)
	require.Equal(t, 1, g.Nodes[child].Discovery)
}

func TestAddEdgeRejectsUnknownNode(t *testing.T) {
	var g Graph
	root := g.AddNode(Node{Coordinate: coord(t, "com.example", "root", "1.0")})

	err := g.AddEdge(root, NodeID(5), "[1.0]", dep.Type{})
	require.Error(t, err)
}

func TestChildrenReturnsOutgoingEdges(t *testing.T) {
	var g Graph
	root := g.AddNode(Node{Coordinate: coord(t, "com.example", "root", "1.0")})
	a := g.AddNode(Node{Coordinate: coord(t, "com.example", "a", "1.0")})
	b := g.AddNode(Node{Coordinate: coord(t, "com.example", "b", "1.0")})

	require.NoError(t, g.AddEdge(root, a, "1.0", dep.Type{}))
	require.NoError(t, g.AddEdge(root, b, "1.0", dep.Type{}))
	require.NoError(t, g.AddEdge(a, b, "1.0", dep.Type{}))

	require.Len(t, g.Children(root), 2)
	require.Len(t, g.Children(a), 1)
	require.Empty(t, g.Children(b))
}

func TestCanonSortsEdgesDeterministically(t *testing.T) {
	build := func() *Graph {
		g := &Graph{}
		root := g.AddNode(Node{Coordinate: coord(t, "com.example", "root", "1.0")})
		b := g.AddNode(Node{Coordinate: coord(t, "com.example", "b", "1.0")})
		a := g.AddNode(Node{Coordinate: coord(t, "com.example", "a", "1.0")})
		_ = g.AddEdge(root, b, "1.0", dep.Type{})
		_ = g.AddEdge(root, a, "1.0", dep.Type{})
		return g
	}

	g1, g2 := build(), build()
	g1.Canon()
	g2.Canon()
	require.Equal(t, g1.Edges, g2.Edges)
	require.True(t, g1.Edges[0].To < g1.Edges[1].To)
}

func TestStringRendersTreeAndErrors(t *testing.T) {
	var g Graph
	root := g.AddNode(Node{Coordinate: coord(t, "com.example", "root", "1.0")})
	child := g.AddNode(Node{Coordinate: coord(t, "com.example", "child", "2.0")})
	require.NoError(t, g.AddEdge(root, child, "[2.0,)", dep.Type{}))
	require.NoError(t, g.AddError(child, "[3.0,)", "no versions satisfy range"))

	out := g.String()
	require.Contains(t, out, "com.example:root:jar")
	require.Contains(t, out, "com.example:child:jar@[2.0,)")
	require.Contains(t, out, "ERROR: no versions satisfy range")
}

func TestNodeStateString(t *testing.T) {
	require.Equal(t, "unexpanded", StateUnexpanded.String())
	require.Equal(t, "cyclic", StateCyclic.String())
}
