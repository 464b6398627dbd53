package versionrange

import (
	"testing"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
	"github.com/stretchr/testify/require"
)

func mustDep(t *testing.T, group, artifact, version string) dep.Dependency {
	t.Helper()
	c, err := coordinate.New(group, artifact, "", "", version)
	require.NoError(t, err)
	return dep.Dependency{Coordinate: c}
}

type fakeFetcher struct {
	byRepo map[string][]string
}

func (f fakeFetcher) Fetch(_ coordinate.Identity, repoID string) ([]string, error) {
	return f.byRepo[repoID], nil
}

func TestResolveSoftVersionShortCircuits(t *testing.T) {
	d := mustDep(t, "com.example", "lib", "1.2.3")
	res, err := Resolve(fakeFetcher{}, d, []string{"central"}, nil, "central")
	require.NoError(t, err)
	require.Equal(t, []string{"1.2.3"}, res.Versions)
	require.Equal(t, "central", res.RepoOf["1.2.3"])
}

func TestResolveRangeUnionMergesAndFilters(t *testing.T) {
	d := mustDep(t, "com.example", "lib", "[1.0,2.0)")
	fetcher := fakeFetcher{byRepo: map[string][]string{
		"central": {"0.9", "1.0", "1.5"},
		"other":   {"1.5", "1.9", "2.0"},
	}}
	res, err := Resolve(fetcher, d, []string{"central", "other"}, nil, "central")
	require.NoError(t, err)
	require.Equal(t, []string{"1.0", "1.5", "1.9"}, res.Versions)
	require.Equal(t, "central", res.RepoOf["1.0"])
	require.Equal(t, "central", res.RepoOf["1.5"])
	require.Equal(t, "other", res.RepoOf["1.9"])
}

type snapshotExcludingFilter struct{}

func (snapshotExcludingFilter) Accept(c coordinate.Coordinate) bool {
	v, err := coordinate.ParseVersion(c.Version)
	if err != nil {
		return true
	}
	return !v.IsSnapshot()
}

func TestResolveAppliesVersionFilter(t *testing.T) {
	d := mustDep(t, "com.example", "lib", "[1.0,2.0)")
	fetcher := fakeFetcher{byRepo: map[string][]string{
		"central": {"1.0", "1.1-SNAPSHOT"},
	}}
	res, err := Resolve(fetcher, d, []string{"central"}, snapshotExcludingFilter{}, "central")
	require.NoError(t, err)
	require.Equal(t, []string{"1.0"}, res.Versions)
}

func TestResolveSkipsUnresponsiveRepo(t *testing.T) {
	d := mustDep(t, "com.example", "lib", "[1.0,2.0)")
	fetcher := fakeFetcher{byRepo: map[string][]string{
		"central": {"1.0"},
	}}
	res, err := Resolve(fetcher, d, []string{"central", "missing-repo"}, nil, "central")
	require.NoError(t, err)
	require.Equal(t, []string{"1.0"}, res.Versions)
}
