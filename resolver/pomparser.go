package resolver

import (
	"context"

	"deps.dev/util/maven"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
	"github.com/artifactgraph/resolve/descriptor"
)

// PomParser is a descriptor.Parser backed by real POM documents fetched
// through a connector.Registry: it assembles a coordinate's fully merged
// Project (own POM, parent chain, active profiles, interpolation) and
// converts it into a descriptor.Descriptor.
type PomParser struct {
	source *pomSource
	// importRepos is the repository set used to resolve scope="import"
	// management entries, resolved session-wide rather than per
	// traversal-branch since descriptor.ManagementResolver carries no
	// repoIDs argument of its own.
	importRepos []string
}

// NewPomParser builds a PomParser. importRepos fixes the repository set
// used to resolve scope="import" managed-dependency pointers.
func NewPomParser(source *pomSource, importRepos []string) *PomParser {
	return &PomParser{source: source, importRepos: importRepos}
}

// Parse implements descriptor.Parser.
func (p *PomParser) Parse(coord coordinate.Coordinate, repoIDs []string) (descriptor.Descriptor, error) {
	proj, err := p.source.resolveProject(context.Background(), coord, repoIDs)
	if err != nil {
		return descriptor.Descriptor{}, err
	}

	if reloc := proj.DistributionManagement.Relocation; reloc.GroupID != "" || reloc.ArtifactID != "" || reloc.Version != "" {
		target := coord
		if reloc.GroupID != "" {
			target.Group = string(reloc.GroupID)
		}
		if reloc.ArtifactID != "" {
			target.Artifact = string(reloc.ArtifactID)
		}
		if reloc.Version != "" {
			target.Version = string(reloc.Version)
		}
		return descriptor.Descriptor{
			Coordinate: coord,
			Relocation: &descriptor.Relocation{Target: target},
		}, nil
	}

	localMgmt, imports := splitManagement(proj.DependencyManagement.Dependencies)
	directDeps := buildDirectDeps(proj.Dependencies, localMgmt)
	managedDeps := buildManagedOverrides(localMgmt, dep.OriginManagement)

	repoNames := make([]string, 0, len(proj.Repositories))
	for _, r := range proj.Repositories {
		if r.ID != "" {
			repoNames = append(repoNames, string(r.ID))
		}
	}

	effective := coord
	effective.Group = string(proj.GroupID)
	effective.Artifact = string(proj.ArtifactID)
	effective.Version = string(proj.Version)

	return descriptor.Descriptor{
		Coordinate:        effective,
		DirectDeps:        directDeps,
		ManagedDeps:       managedDeps,
		DeclaredRepos:     repoNames,
		ManagementImports: imports,
	}, nil
}

// Resolve implements descriptor.ManagementResolver, fetching and merging
// the dependencyManagement-equivalent block of another project, the
// target of a scope="import" managed dependency. further re-queues any
// import-scoped entries the imported project itself declares, mirroring
// util/maven.Dependency.ProcessDependencies' own nested import loop.
func (p *PomParser) Resolve(coord coordinate.Coordinate) (overrides []dep.ManagementOverride, further []descriptor.ManagementImport, err error) {
	pomCoord := coord
	pomCoord.Extension = "pom"
	proj, _, err := p.source.parsePOM(context.Background(), pomCoord, p.importRepos)
	if err != nil {
		return nil, nil, err
	}
	if err := proj.Interpolate(); err != nil {
		return nil, nil, err
	}
	localMgmt, imports := splitManagement(proj.DependencyManagement.Dependencies)
	return buildManagedOverrides(localMgmt, dep.OriginImport), imports, nil
}

// splitManagement partitions a project's own <dependencyManagement>
// entries into locally-applicable overrides and deferred scope="import"
// pointers, mirroring util/maven.Dependency.ProcessDependencies'
// addDepManagement split without eagerly fetching the imported project
// (the descriptor.Reader's resolveManagementImports owns that instead).
func splitManagement(deps []maven.Dependency) (local []maven.Dependency, imports []descriptor.ManagementImport) {
	seen := make(map[maven.DependencyKey]bool, len(deps))
	for _, d := range deps {
		if d.Scope == "import" {
			c, err := coordinate.New(string(d.GroupID), string(d.ArtifactID), "pom", "", string(d.Version))
			if err != nil {
				continue
			}
			imports = append(imports, descriptor.ManagementImport{Coordinate: c})
			continue
		}
		dk := d.Key()
		if seen[dk] {
			continue
		}
		seen[dk] = true
		local = append(local, d)
	}
	return local, imports
}

// buildDirectDeps converts a project's own <dependencies> into
// dep.Dependency, filling version/scope/exclusions left unset from the
// local (non-import) management block, the fill-in-if-missing half of
// ProcessDependencies, the other half (dedup, import expansion) having
// already happened in splitManagement/the descriptor.Reader.
func buildDirectDeps(deps []maven.Dependency, mgmt []maven.Dependency) []dep.Dependency {
	byKey := make(map[maven.DependencyKey]maven.Dependency, len(mgmt))
	for _, m := range mgmt {
		byKey[m.Key()] = m
	}

	seen := make(map[maven.DependencyKey]bool, len(deps))
	out := make([]dep.Dependency, 0, len(deps))
	for _, d := range deps {
		dk := d.Key()
		if seen[dk] {
			continue
		}
		seen[dk] = true

		if m, ok := byKey[dk]; ok {
			if d.Version == "" {
				d.Version = m.Version
			}
			if d.Scope == "" {
				d.Scope = m.Scope
			}
			if len(d.Exclusions) == 0 {
				d.Exclusions = m.Exclusions
			}
		}
		if d.GroupID == "" || d.ArtifactID == "" || d.Version == "" {
			continue
		}
		out = append(out, toDep(d))
	}
	return out
}

// buildManagedOverrides converts a project's local management entries
// into dep.ManagementOverride values tagged with origin.
func buildManagedOverrides(mgmt []maven.Dependency, origin dep.ManagedOrigin) []dep.ManagementOverride {
	out := make([]dep.ManagementOverride, 0, len(mgmt))
	for _, m := range mgmt {
		if m.GroupID == "" || m.ArtifactID == "" {
			continue
		}
		out = append(out, dep.ManagementOverride{
			Identity:   coordinate.Identity{Group: string(m.GroupID), Artifact: string(m.ArtifactID), Extension: extensionOf(m), Classifier: string(m.Classifier)},
			Version:    string(m.Version),
			Scope:      scopeOf(m),
			Exclusions: exclusionsOf(m),
			Origin:     origin,
		})
	}
	return out
}

func toDep(d maven.Dependency) dep.Dependency {
	c, err := coordinate.New(string(d.GroupID), string(d.ArtifactID), extensionOf(d), string(d.Classifier), string(d.Version))
	if err != nil {
		c = coordinate.Coordinate{Identity: coordinate.Identity{Group: string(d.GroupID), Artifact: string(d.ArtifactID), Extension: extensionOf(d), Classifier: string(d.Classifier)}, Version: string(d.Version)}
	}
	return dep.Dependency{
		Coordinate: c,
		Scope:      scopeOf(d),
		Optional:   d.Optional.Boolean(),
		Exclusions: exclusionsOf(d),
	}
}

func extensionOf(d maven.Dependency) string {
	if d.Type == "" {
		return "jar"
	}
	return string(d.Type)
}

func scopeOf(d maven.Dependency) dep.Scope {
	if d.Scope == "" {
		return dep.Compile
	}
	return dep.Scope(d.Scope)
}

func exclusionsOf(d maven.Dependency) dep.ExclusionSet {
	patterns := make([]dep.Exclusion, 0, len(d.Exclusions))
	for _, e := range d.Exclusions {
		patterns = append(patterns, dep.Exclusion{Group: string(e.GroupID), Artifact: string(e.ArtifactID)})
	}
	return dep.NewExclusionSet(patterns...)
}
