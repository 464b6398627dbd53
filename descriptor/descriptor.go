// Package descriptor implements component E: the artifact descriptor
// reader, its relocation-chain handling, and the management-import chain
// supplemented from the teacher's ProcessDependencies algorithm (§4.E,
// SPEC_FULL §3).
package descriptor

import (
	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
)

// Descriptor is the parsed metadata document for one coordinate (§4.E
// step 2's "descriptor record"). Parsing the wire document itself is out
// of scope (spec §1); callers supply a Parser that already produces this
// shape.
type Descriptor struct {
	Coordinate      coordinate.Coordinate
	DirectDeps      []dep.Dependency
	ManagedDeps     []dep.ManagementOverride
	DeclaredRepos   []string
	Aliases         []coordinate.Identity
	Relocation      *Relocation // nil when this coordinate is not relocated
	ManagementImports []ManagementImport // scope="import" entries, pre-resolution
}

// ManagementImport is a not-yet-resolved "import" scoped managed
// dependency: a pointer at another project's <dependencyManagement>-
// equivalent block, to be merged in transitively (SPEC_FULL §3).
type ManagementImport struct {
	Coordinate coordinate.Coordinate
}

// Relocation records a descriptor's "this artifact moved" pointer (§4.E
// step 3).
type Relocation struct {
	Target  coordinate.Coordinate
	Message string
}

// Result is what the reader returns for a successful read (§4.E step 4):
// the coordinate finally settled on after following any relocation chain,
// its direct/managed dependencies, declared repositories, aliases, and the
// chain of relocations followed to reach it.
type Result struct {
	EffectiveCoordinate coordinate.Coordinate
	DirectDeps          []dep.Dependency
	ManagedDeps         []dep.ManagementOverride
	DeclaredRepos       []string
	Aliases             []coordinate.Identity
	RelocationChain     []coordinate.Coordinate
}

// Parser fetches and parses one coordinate's descriptor document. It is
// the injected seam that keeps POM/XML parsing itself out of this
// module's scope (spec §1 Non-goals); a real implementation resolves the
// metadata artifact through the connector/local-repo manager (§4.E step 1)
// and parses the wire format.
type Parser interface {
	Parse(coord coordinate.Coordinate, repos []string) (Descriptor, error)
}

// ManagementResolver fetches another project's dependency-management block
// by coordinate, used to satisfy ManagementImport entries (SPEC_FULL §3,
// grounded on util/maven's ProcessDependencies callback parameter). The
// imported block can itself declare further "import"-scoped entries,
// returned as further so the reader's queue can keep expanding them up to
// MaxManagementImports, mirroring ProcessDependencies' own nested-import
// loop.
type ManagementResolver interface {
	Resolve(coord coordinate.Coordinate) (overrides []dep.ManagementOverride, further []ManagementImport, err error)
}
