package session

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/artifactgraph/resolve/coordinate"
)

// LocalRepositoryManager maps coordinates onto paths in the local
// repository (§4.B "a local-repository manager"), using the conventional
// Maven layout: <base>/<group-with-slashes>/<artifact>/<version>/<artifact>-<version>[-<classifier>].<extension>.
type LocalRepositoryManager struct {
	base string
}

// NewLocalRepositoryManager creates a manager rooted at base.
func NewLocalRepositoryManager(base string) *LocalRepositoryManager {
	return &LocalRepositoryManager{base: base}
}

// Base returns the repository's root directory.
func (m *LocalRepositoryManager) Base() string { return m.base }

// Path returns the local path for a coordinate's artifact file.
func (m *LocalRepositoryManager) Path(c coordinate.Coordinate) string {
	dir := filepath.Join(m.base, strings.ReplaceAll(c.Group, ".", string(filepath.Separator)), c.Artifact, c.Version)
	name := fmt.Sprintf("%s-%s", c.Artifact, c.Version)
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	name += "." + c.Extension
	return filepath.Join(dir, name)
}

// MetadataPath returns the local path for a (group, artifact) tuple's
// versioning metadata document, consulted by the version range resolver
// (§4.F) before falling back to remote repositories.
func (m *LocalRepositoryManager) MetadataPath(group, artifact string) string {
	return filepath.Join(m.base, strings.ReplaceAll(group, ".", string(filepath.Separator)), artifact, "maven-metadata-local.xml")
}
