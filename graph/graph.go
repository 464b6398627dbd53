// Package graph holds the arena-based dependency graph shared by the
// collector (which builds the raw, possibly-redundant graph) and the
// conflict resolver (which prunes it to one winner per conflict group).
//
// Nodes and edges are addressed by integer index into the Graph's own
// slices rather than by pointer, so a Graph can be copied, diffed and
// canonicalized cheaply and carries no reference cycles even when the
// dependencies it represents do.
package graph

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
)

// NodeID identifies a node in a Graph. It is always scoped to a specific
// Graph and is an index into that Graph's Nodes slice.
type NodeID int

// State is the collector's state machine for a node (§4.G).
type State int8

const (
	StateUnexpanded State = iota
	StateExpanding
	StateExpanded
	StateStub   // descriptor fetch failed or was skipped; node carries Errors
	StateCyclic // this node is a truncated copy of an ancestor by identity
)

func (s State) String() string {
	switch s {
	case StateUnexpanded:
		return "unexpanded"
	case StateExpanding:
		return "expanding"
	case StateExpanded:
		return "expanded"
	case StateStub:
		return "stub"
	case StateCyclic:
		return "cyclic"
	default:
		return "unknown"
	}
}

// Node is a single resolved coordinate in the graph.
type Node struct {
	Coordinate coordinate.Coordinate

	// Requirement is the dependency as declared by the importer, before
	// any managed-dependency override was applied.
	Requirement dep.Dependency
	// Managed is the dependency after management overrides (§3, §6
	// ProcessDependencies import chain) were applied to Requirement.
	Managed dep.Dependency

	Repositories []string
	// Constraint is the effective version constraint this node must
	// satisfy, refined by the conflict resolver when multiple edges
	// target the same conflict identity with different ranges.
	Constraint *coordinate.Range

	State State
	// CycleOf is valid when State == StateCyclic: the ancestor node this
	// one is a truncated copy of, by coordinate identity.
	CycleOf NodeID

	// Discovery is a monotonic counter assigned when the node is first
	// appended to the raw graph. The conflict resolver uses it to break
	// nearest-wins ties between edges discovered at the same depth.
	Discovery int
	// Depth is the shortest number of edges from the root to this node
	// seen so far during collection.
	Depth int

	// Aliases lists the NodeIDs of losing nodes folded into this one by
	// the conflict resolver's path-pruning phase (§4.H step 5).
	Aliases []NodeID
	// Selected is set once this node is confirmed the winner of its
	// conflict group.
	Selected bool

	Errors []NodeError
}

// NodeError records a resolution failure tied to a specific requirement.
type NodeError struct {
	Requirement string
	Error       string
}

func (e NodeError) Compare(o NodeError) int {
	if c := strings.Compare(e.Requirement, o.Requirement); c != 0 {
		return c
	}
	return strings.Compare(e.Error, o.Error)
}

// Edge represents a resolution from an importer node to an imported node,
// satisfying the importer's requirement string for the given dependency
// Type.
type Edge struct {
	From, To    NodeID
	Requirement string
	Type        dep.Type
	// Pruned is set by the conflict resolver once it determines this
	// edge's target lost its conflict group.
	Pruned bool
}

// Graph holds the result of a dependency resolution, before or after
// conflict resolution.
type Graph struct {
	// Nodes[0] is always the root.
	Nodes []Node
	Edges []Edge

	// Error is a graph-wide resolution error, set when the resolver could
	// not complete based on its input data.
	Error string

	Duration time.Duration
}

// AddNode inserts an unconnected node and returns its ID.
func (g *Graph) AddNode(n Node) NodeID {
	n.Discovery = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	return NodeID(len(g.Nodes) - 1)
}

// AddEdge inserts an edge between two existing nodes.
func (g *Graph) AddEdge(from, to NodeID, req string, t dep.Type) error {
	if !g.contains(from) {
		return fmt.Errorf("node not in graph: %v", from)
	}
	if !g.contains(to) {
		return fmt.Errorf("node not in graph: %v", to)
	}
	g.Edges = append(g.Edges, Edge{From: from, To: to, Requirement: req, Type: t})
	return nil
}

// AddError associates a resolution error with a node.
func (g *Graph) AddError(n NodeID, req, err string) error {
	if !g.contains(n) {
		return fmt.Errorf("node not in graph: %v", n)
	}
	g.Nodes[n].Errors = append(g.Nodes[n].Errors, NodeError{Requirement: req, Error: err})
	return nil
}

func (g *Graph) contains(n NodeID) bool { return n >= 0 && int(n) < len(g.Nodes) }

// Children returns the edges leading out of n, in insertion order.
func (g *Graph) Children(n NodeID) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == n {
			out = append(out, e)
		}
	}
	return out
}

// Compare orders two nodes for canonicalization: by coordinate first, then
// by error count/content.
func (n Node) Compare(o Node) int {
	if c := strings.Compare(n.Coordinate.String(), o.Coordinate.String()); c != 0 {
		return c
	}
	if li, lj := len(n.Errors), len(o.Errors); li != lj {
		if li < lj {
			return -1
		}
		return 1
	}
	for i := range n.Errors {
		if c := n.Errors[i].Compare(o.Errors[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Canon renumbers the graph's edges into a deterministic order without
// disturbing node identity. Because the collector produces nodes in a
// fixed DFS discovery order (unlike a resolver that might merge several
// independent passes), a full isomorphism-canonicalizing BFS relabeling
// is unnecessary here: sorting edges by (From, To, Requirement, Type) is
// enough to make two resolutions of the same input byte-for-byte
// comparable.
func (g *Graph) Canon() {
	for i := range g.Nodes {
		sort.Slice(g.Nodes[i].Errors, func(a, b int) bool {
			return g.Nodes[i].Errors[a].Compare(g.Nodes[i].Errors[b]) < 0
		})
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		ei, ej := g.Edges[i], g.Edges[j]
		if ei.From != ej.From {
			return ei.From < ej.From
		}
		if ei.To != ej.To {
			return ei.To < ej.To
		}
		if ei.Requirement != ej.Requirement {
			return ei.Requirement < ej.Requirement
		}
		return ei.Type.Compare(ej.Type) < 0
	})
}

// String produces a text tree of the graph, rooted via the "creator"
// relationship (the first edge seen targeting a node), with extraneous
// edges rendered as labeled references and per-node errors as leaves.
func (g *Graph) String() string {
	var b strings.Builder
	if g.Error != "" {
		for _, l := range strings.Split(g.Error, "\n") {
			fmt.Fprintf(&b, "ERROR: %s\n", l)
		}
	}
	if len(g.Nodes) == 0 {
		return b.String()
	}

	creator := make(map[NodeID]NodeID, len(g.Nodes))
	dependents := make([]int, len(g.Nodes))
	creator[0] = 0
	dependents[0] = 1
	for _, e := range g.Edges {
		dependents[e.To]++
		if _, ok := creator[e.To]; !ok && e.To != e.From {
			creator[e.To] = e.From
		}
	}

	type tnode struct {
		label    int
		nid      NodeID
		n        *Node
		req      string
		err      string
		children []*tnode
		dt       dep.Type
	}
	nodes := make([]*tnode, len(g.Nodes))
	label := 0
	for i := range g.Nodes {
		id := NodeID(i)
		nodes[id] = &tnode{nid: id, n: &g.Nodes[i]}
		if dependents[id] > 1 {
			label++
			nodes[id].label = label
		}
	}
	seen := make([]bool, len(g.Nodes))
	for _, e := range g.Edges {
		nf, nt := nodes[e.From], nodes[e.To]
		if e.From != creator[e.To] || seen[e.To] || e.From == e.To {
			nt = &tnode{label: nt.label}
		}
		if e.From == creator[e.To] {
			seen[e.To] = true
		}
		nt.req = e.Requirement
		nt.dt = e.Type
		nf.children = append(nf.children, nt)
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		tn := nodes[i]
		for _, ne := range n.Errors {
			tn.children = append(tn.children, &tnode{req: ne.Requirement, err: ne.Error})
		}
	}

	seen = make([]bool, len(g.Nodes))
	var walk func(n *tnode, req, prefix1, prefix2 string)
	walk = func(n *tnode, req, prefix1, prefix2 string) {
		fmt.Fprint(&b, prefix1)
		if n.err != "" {
			fmt.Fprintf(&b, "%s ERROR: %s\n", req, n.err)
			return
		}
		if n.n == nil {
			if !n.dt.IsRegular() {
				fmt.Fprintf(&b, "%s | ", n.dt)
			}
			fmt.Fprintf(&b, "$%d@%s\n", n.label, req)
			return
		}
		seen[n.nid] = true
		if n.label > 0 {
			fmt.Fprintf(&b, "%d: ", n.label)
		}
		if !n.dt.IsRegular() {
			fmt.Fprintf(&b, "%s | ", n.dt)
		}
		if prefix1 == "" {
			fmt.Fprintf(&b, "%s ", n.n.Coordinate.Identity.String())
		} else {
			fmt.Fprintf(&b, "%s@%s ", n.n.Coordinate.Identity.String(), req)
		}
		if n.err != "" {
			fmt.Fprintf(&b, "ERROR: %s\n", n.err)
		} else {
			fmt.Fprintf(&b, "%s\n", n.n.Coordinate.Version)
		}
		for i, c := range n.children {
			p1, p2 := "├─ ", "│  "
			if i == len(n.children)-1 {
				p1, p2 = "└─ ", "   "
			}
			walk(c, c.req, prefix2+p1, prefix2+p2)
		}
	}
	walk(nodes[0], "", "", "")
	for i, ok := range seen {
		if !ok {
			fmt.Fprintf(&b, "ORPHAN: %s\n", g.Nodes[i].Coordinate)
		}
	}
	return b.String()
}
