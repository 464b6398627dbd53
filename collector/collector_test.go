package collector

import (
	"fmt"
	"testing"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/dep"
	"github.com/artifactgraph/resolve/descriptor"
	"github.com/artifactgraph/resolve/session"
	"github.com/stretchr/testify/require"
)

func mustCoord(t *testing.T, group, artifact, version string) coordinate.Coordinate {
	t.Helper()
	c, err := coordinate.New(group, artifact, "", "", version)
	require.NoError(t, err)
	return c
}

// fakeParser serves descriptors from a fixed map, keyed by coordinate
// string, recording how many times each coordinate was parsed.
type fakeParser struct {
	byCoord map[string]descriptor.Descriptor
}

func (p *fakeParser) Parse(c coordinate.Coordinate, _ []string) (descriptor.Descriptor, error) {
	d, ok := p.byCoord[c.String()]
	if !ok {
		return descriptor.Descriptor{}, fmt.Errorf("no descriptor for %s", c)
	}
	return d, nil
}

// fakeFetcher returns a fixed version list regardless of repository.
type fakeFetcher struct {
	versions map[string][]string
}

func (f *fakeFetcher) Fetch(id coordinate.Identity, _ string) ([]string, error) {
	return f.versions[id.String()], nil
}

func newTestCollector(t *testing.T, parser *fakeParser, fetcher *fakeFetcher) (*Collector, *session.Session) {
	t.Helper()
	sess := session.New()
	reader := descriptor.NewReader(parser, nil, descriptor.NewCache(1024))
	return New(sess, reader, fetcher, NewPool()), sess
}

func depOn(t *testing.T, group, artifact, version string, scope dep.Scope) dep.Dependency {
	t.Helper()
	return dep.Dependency{Coordinate: mustCoord(t, group, artifact, version), Scope: scope}
}

func TestCollectLinearChain(t *testing.T) {
	a := mustCoord(t, "com.example", "a", "1.0")
	b := mustCoord(t, "com.example", "b", "1.0")

	parser := &fakeParser{byCoord: map[string]descriptor.Descriptor{
		a.String(): {Coordinate: a, DirectDeps: []dep.Dependency{depOn(t, "com.example", "b", "1.0", dep.Compile)}},
		b.String(): {Coordinate: b},
	}}
	fetcher := &fakeFetcher{}
	c, _ := newTestCollector(t, parser, fetcher)

	g, err := c.Collect(Request{Root: dep.Dependency{Coordinate: a, Scope: dep.Compile}, Repositories: []string{"central"}})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Equal(t, a, g.Nodes[0].Coordinate)
	require.Equal(t, b, g.Nodes[1].Coordinate)
	require.Len(t, g.Children(0), 1)
}

func TestCollectSharesMemoisedSubtree(t *testing.T) {
	a := mustCoord(t, "com.example", "a", "1.0")
	b := mustCoord(t, "com.example", "b", "1.0")
	c1 := mustCoord(t, "com.example", "c", "1.0")
	shared := mustCoord(t, "com.example", "shared", "1.0")

	parser := &fakeParser{byCoord: map[string]descriptor.Descriptor{
		a.String(): {Coordinate: a, DirectDeps: []dep.Dependency{
			depOn(t, "com.example", "b", "1.0", dep.Compile),
			depOn(t, "com.example", "c", "1.0", dep.Compile),
		}},
		b.String(): {Coordinate: b, DirectDeps: []dep.Dependency{depOn(t, "com.example", "shared", "1.0", dep.Compile)}},
		c1.String(): {Coordinate: c1, DirectDeps: []dep.Dependency{depOn(t, "com.example", "shared", "1.0", dep.Compile)}},
		shared.String(): {Coordinate: shared},
	}}
	col, _ := newTestCollector(t, parser, &fakeFetcher{})

	g, err := col.Collect(Request{Root: dep.Dependency{Coordinate: a, Scope: dep.Compile}, Repositories: []string{"central"}})
	require.NoError(t, err)

	var sharedIDs []int
	for i, n := range g.Nodes {
		if n.Coordinate == shared {
			sharedIDs = append(sharedIDs, i)
		}
	}
	require.Len(t, sharedIDs, 1, "shared should only be built once and referenced by two edges")

	var edgesIntoShared int
	for _, e := range g.Edges {
		if int(e.To) == sharedIDs[0] {
			edgesIntoShared++
		}
	}
	require.Equal(t, 2, edgesIntoShared)
}

func TestCollectTruncatesCycle(t *testing.T) {
	a := mustCoord(t, "com.example", "a", "1.0")
	b := mustCoord(t, "com.example", "b", "1.0")

	parser := &fakeParser{byCoord: map[string]descriptor.Descriptor{
		a.String(): {Coordinate: a, DirectDeps: []dep.Dependency{depOn(t, "com.example", "b", "1.0", dep.Compile)}},
		b.String(): {Coordinate: b, DirectDeps: []dep.Dependency{depOn(t, "com.example", "a", "1.0", dep.Compile)}},
	}}
	col, _ := newTestCollector(t, parser, &fakeFetcher{})

	g, err := col.Collect(Request{Root: dep.Dependency{Coordinate: a, Scope: dep.Compile}, Repositories: []string{"central"}})
	require.NoError(t, err)

	var cyclic []int
	for i, n := range g.Nodes {
		if n.State.String() == "cyclic" {
			cyclic = append(cyclic, i)
		}
	}
	require.Len(t, cyclic, 1)
	require.Equal(t, a, g.Nodes[cyclic[0]].Coordinate)
	require.Equal(t, 0, int(g.Nodes[cyclic[0]].CycleOf))
}

func TestCollectRecordsStubOnMissingDescriptor(t *testing.T) {
	a := mustCoord(t, "com.example", "a", "1.0")

	parser := &fakeParser{byCoord: map[string]descriptor.Descriptor{
		a.String(): {Coordinate: a, DirectDeps: []dep.Dependency{depOn(t, "com.example", "missing", "1.0", dep.Compile)}},
	}}
	col, _ := newTestCollector(t, parser, &fakeFetcher{})

	g, err := col.Collect(Request{Root: dep.Dependency{Coordinate: a, Scope: dep.Compile}, Repositories: []string{"central"}})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Equal(t, "stub", g.Nodes[1].State.String())
	require.NotEmpty(t, g.Nodes[1].Errors)
	require.NotEmpty(t, g.Error)
}

func TestCollectFailOnErrorFailsUnresolvableRoot(t *testing.T) {
	a := mustCoord(t, "com.example", "missing-root", "1.0")
	col, _ := newTestCollector(t, &fakeParser{byCoord: map[string]descriptor.Descriptor{}}, &fakeFetcher{})

	_, err := col.Collect(Request{
		Root:        dep.Dependency{Coordinate: a, Scope: dep.Compile},
		Repositories: []string{"central"},
		FailOnError: true,
	})
	require.Error(t, err)
}

func TestCollectVersionRangeResolvesHighestMatch(t *testing.T) {
	a := mustCoord(t, "com.example", "a", "1.0")
	depC := dep.Dependency{Coordinate: coordinate.Coordinate{Identity: coordinate.Identity{Group: "com.example", Artifact: "lib", Extension: "jar"}, Version: "[1.0,2.0)"}, Scope: dep.Compile}

	v1 := mustCoord(t, "com.example", "lib", "1.0")
	v15 := mustCoord(t, "com.example", "lib", "1.5")

	parser := &fakeParser{byCoord: map[string]descriptor.Descriptor{
		a.String():   {Coordinate: a, DirectDeps: []dep.Dependency{depC}},
		v1.String():  {Coordinate: v1},
		v15.String(): {Coordinate: v15},
	}}
	fetcher := &fakeFetcher{versions: map[string][]string{
		"com.example:lib:jar": {"1.0", "1.5", "2.0"},
	}}
	col, _ := newTestCollector(t, parser, fetcher)

	g, err := col.Collect(Request{Root: dep.Dependency{Coordinate: a, Scope: dep.Compile}, Repositories: []string{"central"}})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Equal(t, "1.5", g.Nodes[1].Coordinate.Version)
}

func TestCollectFollowsRelocation(t *testing.T) {
	a := mustCoord(t, "com.example", "a", "1.0")
	old := mustCoord(t, "com.example", "old", "1.0")
	newer := mustCoord(t, "com.example", "new", "1.0")

	parser := &fakeParser{byCoord: map[string]descriptor.Descriptor{
		a.String(): {Coordinate: a, DirectDeps: []dep.Dependency{depOn(t, "com.example", "old", "1.0", dep.Compile)}},
		old.String(): {Coordinate: old, Relocation: &descriptor.Relocation{Target: newer}},
		newer.String(): {Coordinate: newer},
	}}
	col, _ := newTestCollector(t, parser, &fakeFetcher{})

	g, err := col.Collect(Request{Root: dep.Dependency{Coordinate: a, Scope: dep.Compile}, Repositories: []string{"central"}})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Equal(t, newer, g.Nodes[1].Coordinate)
}
