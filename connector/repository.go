// Package connector implements component C: repository connector
// production, factory selection by priority, and the bounded parallel
// get/put pool (§4.C).
package connector

import (
	"strings"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/session"
)

// Repository describes one remote (or local-alias) artifact store (§6).
// URL carries a scheme a Factory recognises: "file:", "http:", "https:",
// "symlink+file:", "hardlink+file:". No factory in this package recognises
// "bundle:<path>"; such a URL fails with ErrNoRepositoryConnector.
type Repository struct {
	ID             string
	URL            string
	ChecksumPolicy session.ChecksumPolicy
}

// Layout maps a coordinate to the relative location a transport operates
// on, and to its checksum sibling locations (§6 "g/a/v/a-v[-c].e").
type Layout interface {
	Path(id coordinate.Coordinate) string
	ChecksumPath(id coordinate.Coordinate, algorithm string) string
}

// MavenLayout is the conventional layout named in §6: a coordinate
// (g, a, e, c, v) maps to "g/a/v/a-v[-c].e" with '.' replaced by '/' in
// the group segment.
type MavenLayout struct{}

func (MavenLayout) Path(c coordinate.Coordinate) string {
	group := strings.ReplaceAll(c.Group, ".", "/")
	name := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	name += "." + c.Extension
	return group + "/" + c.Artifact + "/" + c.Version + "/" + name
}

func (l MavenLayout) ChecksumPath(c coordinate.Coordinate, algorithm string) string {
	return l.Path(c) + "." + algorithm
}

// MavenMetadataLayout maps an identity (the coordinate's Version is
// ignored) to its repository-metadata document "g/a/maven-metadata.xml",
// the document versionrange.MetadataFetcher reads to enumerate an
// artifact's advertised versions.
type MavenMetadataLayout struct{}

func (MavenMetadataLayout) Path(c coordinate.Coordinate) string {
	group := strings.ReplaceAll(c.Group, ".", "/")
	return group + "/" + c.Artifact + "/maven-metadata.xml"
}

func (l MavenMetadataLayout) ChecksumPath(c coordinate.Coordinate, algorithm string) string {
	return l.Path(c) + "." + algorithm
}
