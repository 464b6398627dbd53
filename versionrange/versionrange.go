// Package versionrange implements component F: fetching a coordinate's
// advertised versions from each candidate repository, union-merging,
// range-filtering, applying the session's version filter, and returning
// the sorted result with its repository provenance map (§4.F).
package versionrange

import (
	"fmt"
	"sort"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
	"github.com/artifactgraph/resolve/session"
)

// MetadataFetcher fetches the raw advertised version strings for a
// (group, artifact) identity from one repository — the injected seam over
// the connector/local-repo manager this package operates through (§4.F
// step 1), matching descriptor.Parser's "wire format is someone else's
// concern" boundary.
type MetadataFetcher interface {
	Fetch(id coordinate.Identity, repoID string) ([]string, error)
}

// Result is §4.F's return shape: the sorted list of versions that satisfy
// the dependency's range, plus which repository first advertised each one
// (used to pin later fetches to that repository).
type Result struct {
	Versions []string
	RepoOf   map[string]string
}

// Resolve implements §4.F. For a non-range (soft) version it short-circuits
// to [version] -> defaultRepo per the spec; for a range it fetches from
// every repoID, union-merges, filters to the range, applies filter, and
// returns the sorted result.
func Resolve(fetcher MetadataFetcher, d dep.Dependency, repoIDs []string, filter session.VersionFilter, defaultRepo string) (Result, error) {
	if !d.Coordinate.IsRange() {
		return Result{
			Versions: []string{d.Coordinate.Version},
			RepoOf:   map[string]string{d.Coordinate.Version: defaultRepo},
		}, nil
	}

	rng, err := coordinate.ParseRange(d.Coordinate.Version)
	if err != nil {
		return Result{}, fmt.Errorf("versionrange: parsing %s: %w", d.Coordinate.Version, err)
	}

	repoOf := make(map[string]string)
	for _, repoID := range repoIDs {
		raws, err := fetcher.Fetch(d.Coordinate.Identity, repoID)
		if err != nil {
			continue // one repo's failure doesn't block the union merge
		}
		for _, raw := range raws {
			if _, exists := repoOf[raw]; !exists {
				repoOf[raw] = repoID
			}
		}
	}

	var matched []string
	for raw := range repoOf {
		v, err := coordinate.ParseVersion(raw)
		if err != nil {
			continue
		}
		if !rng.Contains(v) {
			continue
		}
		if filter != nil {
			cand := d.Coordinate.WithVersion(raw)
			if !filter.Accept(cand) {
				continue
			}
		}
		matched = append(matched, raw)
	}

	sort.Slice(matched, func(i, j int) bool {
		vi, _ := coordinate.ParseVersion(matched[i])
		vj, _ := coordinate.ParseVersion(matched[j])
		return vi.Compare(vj) < 0
	})

	filteredRepoOf := make(map[string]string, len(matched))
	for _, v := range matched {
		filteredRepoOf[v] = repoOf[v]
	}
	return Result{Versions: matched, RepoOf: filteredRepoOf}, nil
}
