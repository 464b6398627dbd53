package dep

import "github.com/artifactgraph/resolve/coordinate"

// Dependency is a single declared dependency: a coordinate (whose Version
// may be a range), a scope, optionality, and the exclusion patterns
// declared directly on it (§3).
type Dependency struct {
	Coordinate coordinate.Coordinate
	Scope      Scope
	Optional   bool
	Exclusions ExclusionSet
}

// WithVersion returns a copy of d with its coordinate's version replaced —
// used once a version range has been resolved to a concrete version.
func (d Dependency) WithVersion(v string) Dependency {
	d.Coordinate = d.Coordinate.WithVersion(v)
	return d
}

// ManagementOverride is a managed-dependency declaration that can override
// the version, scope and/or exclusions of a matching dependency identity
// lower in the graph (§3 "Managed dependency").
type ManagementOverride struct {
	Identity   coordinate.Identity
	Version    string // empty: don't override
	Scope      Scope  // empty: don't override
	Exclusions ExclusionSet
	Origin     ManagedOrigin
}

// Apply returns a copy of d with any non-empty ManagementOverride fields
// applied, and reports whether anything changed.
func (m ManagementOverride) Apply(d Dependency) (out Dependency, pre Dependency, changed bool) {
	pre = d
	out = d
	if m.Version != "" {
		out.Coordinate = out.Coordinate.WithVersion(m.Version)
		changed = true
	}
	if m.Scope != "" {
		out.Scope = m.Scope
		changed = true
	}
	if !m.Exclusions.IsEmpty() {
		out.Exclusions = out.Exclusions.Union(m.Exclusions)
		changed = true
	}
	return out, pre, changed
}
