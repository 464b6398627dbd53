package session

import (
	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
)

// DependencySelector decides whether a dependency edge should be included
// in the graph at all (§4.G). Select is consulted once per edge; Derive
// returns the selector to use for that edge's own children, letting a
// selector narrow its rules as it descends (e.g. "stop including test-scope
// dependencies below the first level").
type DependencySelector interface {
	Select(d dep.Dependency, depth int) bool
	Derive(d dep.Dependency) DependencySelector
}

// DependencyManager rewrites a dependency before it is collected — applying
// managed-dependency overrides (version/scope/exclusions, §3, §6). The
// second return value reports whether anything changed.
type DependencyManager interface {
	Manage(d dep.Dependency) (dep.Dependency, bool)
}

// DependencyTraverser decides whether a node's own dependencies should be
// read and collected, independent of whether the node itself was selected
// (used to include a node in the graph without expanding its subtree).
type DependencyTraverser interface {
	Traverse(d dep.Dependency) bool
	Derive(d dep.Dependency) DependencyTraverser
}

// VersionFilter accepts or rejects candidate versions during range
// resolution (§4.F step 4), e.g. to exclude snapshots.
type VersionFilter interface {
	Accept(c coordinate.Coordinate) bool
}

// defaultSelector selects every dependency and never narrows.
type defaultSelector struct{}

func (defaultSelector) Select(dep.Dependency, int) bool       { return true }
func (s defaultSelector) Derive(dep.Dependency) DependencySelector { return s }

// defaultManager applies no overrides.
type defaultManager struct{}

func (defaultManager) Manage(d dep.Dependency) (dep.Dependency, bool) { return d, false }

// defaultTraverser always traverses and never narrows.
type defaultTraverser struct{}

func (defaultTraverser) Traverse(dep.Dependency) bool                 { return true }
func (t defaultTraverser) Derive(dep.Dependency) DependencyTraverser { return t }

// defaultVersionFilter accepts every version, including snapshots.
type defaultVersionFilter struct{}

func (defaultVersionFilter) Accept(coordinate.Coordinate) bool { return true }
