package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodePropertiesOverridesDefaults(t *testing.T) {
	cfg, err := DecodeProperties(map[string]string{
		"connector.requestTimeout":         "30s",
		"connector.maxConcurrentTransfers": "10",
		"dependencyCollector.maxImports":   "8",
		"checksum.algorithms":              "sha1,sha256",
		"checksum.failIfMissing":           "true",
		"ignoredNamespace.whatever":        "x",
	})
	require.NoError(t, err)

	require.Equal(t, 30*time.Second, cfg.Connector.RequestTimeout)
	require.Equal(t, 10, cfg.Connector.MaxConcurrentTransfers)
	require.Equal(t, 8, cfg.DependencyCollector.MaxImports)
	require.Equal(t, []string{"sha1", "sha256"}, cfg.Checksum.Algorithms)
	require.True(t, cfg.Checksum.FailIfMissing)

	// Unmodified fields retain their defaults.
	require.Equal(t, "artifactgraph-resolve/1", cfg.Connector.UserAgent)
}

func TestDecodePropertiesEmpty(t *testing.T) {
	cfg, err := DecodeProperties(nil)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}
