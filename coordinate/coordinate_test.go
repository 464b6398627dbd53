package coordinate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaultsExtension(t *testing.T) {
	c, err := New("com.example", "lib", "", "", "1.0")
	require.NoError(t, err)
	require.Equal(t, DefaultExtension, c.Extension)
}

func TestNewRequiresFields(t *testing.T) {
	_, err := New("", "lib", "", "", "1.0")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = New("com.example", "", "", "", "1.0")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = New("com.example", "lib", "", "", "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestIdentityEquality(t *testing.T) {
	a, err := New("g", "a", "", "", "1.0")
	require.NoError(t, err)
	b, err := New("g", "a", "", "", "2.0")
	require.NoError(t, err)
	require.Equal(t, a.Identity, b.Identity)
	require.NotEqual(t, a, b)
}

func TestIsRange(t *testing.T) {
	c, _ := New("g", "a", "", "", "[1.0,2.0)")
	require.True(t, c.IsRange())
	c2, _ := New("g", "a", "", "", "1.0")
	require.False(t, c2.IsRange())
}

func TestBaseVersionCollapsesSnapshotTimestamp(t *testing.T) {
	c, _ := New("g", "a", "", "", "1.0-20210101.120000-3")
	require.Equal(t, "1.0-SNAPSHOT", c.BaseVersion())
}
