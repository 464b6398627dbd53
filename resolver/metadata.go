package resolver

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"

	"deps.dev/util/maven"

	"github.com/artifactgraph/resolve/connector"
	"github.com/artifactgraph/resolve/coordinate"
)

// PomMetadataFetcher is a versionrange.MetadataFetcher backed by
// maven-metadata.xml documents, fetched through the same connectors the
// PomParser uses but addressed through MavenMetadataLayout instead of the
// per-version artifact layout.
type PomMetadataFetcher struct {
	source *pomSource
}

// NewPomMetadataFetcher builds a PomMetadataFetcher sharing source's
// connector cache with a PomParser built over the same repositories.
func NewPomMetadataFetcher(source *pomSource) *PomMetadataFetcher {
	return &PomMetadataFetcher{source: source}
}

// Fetch implements versionrange.MetadataFetcher.
func (f *PomMetadataFetcher) Fetch(id coordinate.Identity, repoID string) ([]string, error) {
	conn, err := f.source.connectorFor(repoID)
	if err != nil {
		return nil, err
	}
	conn = conn.WithLayout(connector.MavenMetadataLayout{})

	metaCoord := coordinate.Coordinate{Identity: id, Version: "metadata"}
	var buf bytes.Buffer
	results := conn.Get(context.Background(), []connector.Task{{Coordinate: metaCoord, Sink: &buf}})
	if len(results) != 1 {
		return nil, fmt.Errorf("resolver: no result fetching metadata for %s from %s", id, repoID)
	}
	if results[0].Err != nil {
		return nil, results[0].Err
	}

	var md maven.Metadata
	if err := xml.Unmarshal(buf.Bytes(), &md); err != nil {
		return nil, fmt.Errorf("resolver: parsing maven-metadata.xml for %s: %w", id, err)
	}
	versions := make([]string, 0, len(md.Versioning.Versions))
	for _, v := range md.Versioning.Versions {
		if v != "" {
			versions = append(versions, string(v))
		}
	}
	return versions, nil
}
