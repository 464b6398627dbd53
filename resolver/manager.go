package resolver

import (
	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
)

// managementOverrideManager is a session.DependencyManager seeded from one
// project's own effective <dependencyManagement> block (a descriptor's
// ManagedDeps, already flattened through any scope="import" chain by the
// descriptor.Reader). It is installed session-wide for a Resolve call: the
// root coordinate's own BOM-style declarations reach every dependency
// collected beneath it, the same way a reactor's top-level POM manages
// every module under it.
type managementOverrideManager struct {
	byIdentity map[coordinate.Identity]dep.ManagementOverride
}

// newManagementOverrideManager indexes overrides by identity, keeping the
// first override seen per identity, mirroring
// util/maven.Dependency.ProcessDependencies' own "first declaration wins,
// later duplicates dropped" dedup rule, since overrides arrive in
// nearest-declared-first order (a project's own block before its parent's,
// a parent's before an imported BOM's).
func newManagementOverrideManager(overrides []dep.ManagementOverride) *managementOverrideManager {
	m := &managementOverrideManager{byIdentity: make(map[coordinate.Identity]dep.ManagementOverride, len(overrides))}
	for _, o := range overrides {
		if _, ok := m.byIdentity[o.Identity]; ok {
			continue
		}
		m.byIdentity[o.Identity] = o
	}
	return m
}

// Manage implements session.DependencyManager.
func (m *managementOverrideManager) Manage(d dep.Dependency) (dep.Dependency, bool) {
	o, ok := m.byIdentity[d.Coordinate.Identity]
	if !ok {
		return d, false
	}
	out, _, changed := o.Apply(d)
	return out, changed
}
