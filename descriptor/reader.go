package descriptor

import (
	"fmt"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
	"golang.org/x/sync/singleflight"
)

// MaxManagementImports bounds the dependency-management import chain
// (SPEC_FULL §3), mirroring the teacher's util/maven.MaxImports constant
// at the same order of magnitude.
const MaxManagementImports = 300

// Reader implements the §4.E algorithm: resolve a coordinate's descriptor,
// follow any relocation chain, resolve its management-import chain, and
// cache both positive and negative results for the life of the session.
type Reader struct {
	parser  Parser
	mgmt    ManagementResolver
	cache   *Cache
	inflight singleflight.Group
}

// NewReader builds a Reader. cache may be shared across readers that
// operate on the same session.
func NewReader(parser Parser, mgmt ManagementResolver, cache *Cache) *Reader {
	return &Reader{parser: parser, mgmt: mgmt, cache: cache}
}

// IsKnownUnresolvable peeks the cache (no fetch) for a prior negative
// result, letting callers skip traversal-planning work for a coordinate
// already known unresolvable this session (§4.G "is_no_descriptor_artifact"
// check ahead of resolve_versions) without forcing a fetch.
func (r *Reader) IsKnownUnresolvable(coord coordinate.Coordinate, repoIDs []string) bool {
	key := cacheKey{coord: coord, fingerprint: Fingerprint(repoIDs)}
	e, ok := r.cache.get(key)
	return ok && e.err != nil
}

// Read resolves coord's effective descriptor, following relocations and
// resolving its management-import chain (§4.E, SPEC_FULL §3). repoIDs is
// the set of repositories this coordinate is eligible to resolve against;
// it participates in the cache key since the same coordinate can resolve
// differently depending on which repositories are visible.
func (r *Reader) Read(coord coordinate.Coordinate, repoIDs []string) (Result, error) {
	key := cacheKey{coord: coord, fingerprint: Fingerprint(repoIDs)}
	if e, ok := r.cache.get(key); ok {
		return e.result, e.err
	}

	v, err, _ := r.inflight.Do(fmt.Sprintf("%s@%s", coord, key.fingerprint), func() (any, error) {
		result, readErr := r.read(coord, repoIDs, nil)
		e := entry{result: result, err: readErr}
		if readErr != nil {
			e.err = fmt.Errorf("%w: %w", ErrNoDescriptor, readErr)
		}
		r.cache.put(key, e)
		return e, nil
	})
	if err != nil {
		return Result{}, err
	}
	e := v.(entry)
	return e.result, e.err
}

// read performs one pass of §4.E steps 1-4, following the relocation
// chain (chain accumulates coordinates already visited so step 3's loop
// bound can detect a repeat).
func (r *Reader) read(coord coordinate.Coordinate, repoIDs []string, chain []coordinate.Coordinate) (Result, error) {
	for _, seen := range chain {
		if seen == coord {
			return Result{}, &CircularRelocationError{Chain: chain, Repeat: coord}
		}
	}
	chain = append(chain, coord)

	desc, err := r.parser.Parse(coord, repoIDs)
	if err != nil {
		return Result{}, fmt.Errorf("descriptor: parsing %s: %w", coord, err)
	}

	if desc.Relocation != nil {
		return r.read(desc.Relocation.Target, repoIDs, chain)
	}

	managed, err := r.resolveManagementImports(desc)
	if err != nil {
		return Result{}, err
	}

	relocationChain := chain[:len(chain)-1]
	return Result{
		EffectiveCoordinate: desc.Coordinate,
		DirectDeps:          desc.DirectDeps,
		ManagedDeps:         managed,
		DeclaredRepos:       desc.DeclaredRepos,
		Aliases:             desc.Aliases,
		RelocationChain:     relocationChain,
	}, nil
}

// resolveManagementImports expands desc's "import"-scoped management
// entries transitively, bounded by MaxManagementImports, deduping already-
// imported coordinates — the algorithm shape of util/maven's
// ProcessDependencies, generalised from raw POM dependency lists to
// already-parsed ManagementOverride records (SPEC_FULL §3).
func (r *Reader) resolveManagementImports(desc Descriptor) ([]dep.ManagementOverride, error) {
	out := append([]dep.ManagementOverride(nil), desc.ManagedDeps...)
	if len(desc.ManagementImports) == 0 {
		return out, nil
	}
	if r.mgmt == nil {
		return out, nil
	}

	queue := append([]ManagementImport(nil), desc.ManagementImports...)
	imported := make(map[coordinate.Coordinate]bool)
	for n := 0; n < MaxManagementImports && len(queue) > 0; n++ {
		next := queue[0]
		queue = queue[1:]
		if imported[next.Coordinate] {
			continue
		}
		imported[next.Coordinate] = true

		overrides, further, err := r.mgmt.Resolve(next.Coordinate)
		if err != nil {
			// A failed import is skipped rather than fatal, matching the
			// teacher's tolerant "failed to fetch, continue" behaviour.
			continue
		}
		out = append(out, overrides...)
		queue = append(queue, further...)
	}
	return out, nil
}
