package coordinate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustVersion(t *testing.T, s string) *Version {
	t.Helper()
	v, err := ParseVersion(s)
	require.NoError(t, err, "ParseVersion(%q)", s)
	return v
}

func TestParseVersionEmpty(t *testing.T) {
	_, err := ParseVersion("")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1", "1", 0},
		{"1.0", "1", 0},
		{"1.0.0", "1", 0},
		{"1.0.0-alpha", "1-alpha", 0},
		{"1.ga", "1", 0},
		{"1.final", "1", 0},
		{"1-alpha", "1", -1},
		{"1-beta", "1-alpha", 1},
		{"1-milestone", "1-beta", 1},
		{"1-rc", "1-milestone", 1},
		{"1-cr", "1-rc", 0},
		{"1-snapshot", "1-rc", 1},
		{"1", "1-snapshot", 1},
		{"1-sp", "1", 1},
		{"1.0", "1.1", -1},
		{"2.0", "1.9", 1},
		{"1.0-foo", "1.0", 1}, // unknown qualifiers sort after known ones
		{"1.0-foo", "1.0-bar", 1},
		{"1.0-bar", "1.0-foo", -1},
	}
	for _, tc := range tests {
		a, b := mustVersion(t, tc.a), mustVersion(t, tc.b)
		if got := a.Compare(b); got != tc.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
		// Antisymmetry.
		if got := b.Compare(a); got != -tc.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tc.b, tc.a, got, -tc.want)
		}
	}
}

func TestVersionSnapshotTimestamp(t *testing.T) {
	base := mustVersion(t, "1.0-SNAPSHOT")
	ts1 := mustVersion(t, "1.0-20210101.120000-1")
	ts2 := mustVersion(t, "1.0-20210101.120000-2")

	require.True(t, ts1.IsSnapshot())
	require.Equal(t, 0, base.BaseVersion().Compare(base))
	require.Equal(t, base.String(), ts1.BaseVersion().String())
	require.Equal(t, base.String(), ts2.BaseVersion().String())

	// Full comparison: increasing build number compares greater.
	require.Equal(t, -1, ts1.Compare(ts2))
	require.Equal(t, 1, ts2.Compare(ts1))
}

func TestVersionTrailingZeroNormalisation(t *testing.T) {
	a := mustVersion(t, "1.0.0")
	b := mustVersion(t, "1")
	require.Equal(t, 0, a.Compare(b))
	require.Equal(t, a.BaseVersion().String(), a.String())
}
