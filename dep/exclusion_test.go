package dep

import (
	"testing"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/stretchr/testify/require"
)

func TestExclusionMatches(t *testing.T) {
	id := coordinate.Identity{Group: "com.example", Artifact: "lib", Extension: "jar"}

	require.True(t, Exclusion{Group: "com.example", Artifact: "lib"}.Matches(id))
	require.True(t, Exclusion{Group: "*", Artifact: "lib"}.Matches(id))
	require.True(t, Exclusion{Group: "com.example", Artifact: "*"}.Matches(id))
	require.True(t, Exclusion{Group: "*", Artifact: "*"}.Matches(id))
	require.False(t, Exclusion{Group: "other", Artifact: "lib"}.Matches(id))
}

func TestParseExclusionsRoundtrip(t *testing.T) {
	set := ParseExclusions("a:b|c:*|*:d")
	require.False(t, set.IsEmpty())
	require.True(t, set.Matches(coordinate.Identity{Group: "a", Artifact: "b"}))
	require.True(t, set.Matches(coordinate.Identity{Group: "c", Artifact: "anything"}))
	require.True(t, set.Matches(coordinate.Identity{Group: "anything", Artifact: "d"}))
	require.False(t, set.Matches(coordinate.Identity{Group: "x", Artifact: "y"}))
}

func TestExclusionSetUnion(t *testing.T) {
	a := ParseExclusions("a:b")
	b := ParseExclusions("c:d")
	u := a.Union(b)
	require.True(t, u.Matches(coordinate.Identity{Group: "a", Artifact: "b"}))
	require.True(t, u.Matches(coordinate.Identity{Group: "c", Artifact: "d"}))
}
