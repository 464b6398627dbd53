// Package resolver implements the top-level façade that wires the
// session, connector, descriptor reader, version range resolver,
// dependency collector and conflict resolver into a single entry point,
// plus the concrete Maven POM/metadata descriptor.Parser and
// versionrange.MetadataFetcher that drive them over a real repository.
// The parent-chain walk mirrors Maven's own ancestor-POM inheritance:
// fetch, merge profiles, merge onto the running project, advance to the
// next parent.
package resolver

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"

	"deps.dev/util/maven"

	"github.com/artifactgraph/resolve/connector"
	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/session"
)

// MaxParents bounds the Maven parent-POM chain walk, mirroring
// util/resolve's MaxMavenParent at the same order of magnitude.
const MaxParents = 32

// pomSource fetches and assembles a fully merged maven.Project for a
// coordinate: its own POM, its parent chain, active profiles, and
// interpolated properties. It is the shared plumbing behind both
// PomParser (descriptor.Parser) and PomMetadataFetcher
// (versionrange.MetadataFetcher).
type pomSource struct {
	sess     *session.Session
	registry *connector.Registry
	repos    map[string]connector.Repository
	conns    map[string]*connector.Connector
}

// newPomSource builds a pomSource over the given repositories, keyed by
// their ID. Connectors are produced lazily and cached per repository.
func newPomSource(sess *session.Session, registry *connector.Registry, repos []connector.Repository) *pomSource {
	byID := make(map[string]connector.Repository, len(repos))
	for _, r := range repos {
		byID[r.ID] = r
	}
	return &pomSource{sess: sess, registry: registry, repos: byID, conns: make(map[string]*connector.Connector)}
}

func (s *pomSource) connectorFor(repoID string) (*connector.Connector, error) {
	if c, ok := s.conns[repoID]; ok {
		return c, nil
	}
	repo, ok := s.repos[repoID]
	if !ok {
		return nil, fmt.Errorf("resolver: unknown repository %q", repoID)
	}
	c, err := s.registry.Connect(s.sess, repo)
	if err != nil {
		return nil, fmt.Errorf("resolver: connecting to repository %q: %w", repoID, err)
	}
	s.conns[repoID] = c
	return c, nil
}

// fetch downloads loc's bytes from the first of repoIDs that has it,
// returning which repository served it.
func (s *pomSource) fetch(ctx context.Context, coord coordinate.Coordinate, repoIDs []string) ([]byte, string, error) {
	var lastErr error
	for _, repoID := range repoIDs {
		conn, err := s.connectorFor(repoID)
		if err != nil {
			lastErr = err
			continue
		}
		var buf bytes.Buffer
		results := conn.Get(ctx, []connector.Task{{Coordinate: coord, Sink: &buf}})
		if len(results) != 1 {
			continue
		}
		if results[0].Err != nil {
			lastErr = results[0].Err
			continue
		}
		return buf.Bytes(), repoID, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("resolver: %s not found in any of %v", coord, repoIDs)
	}
	return nil, "", lastErr
}

// parsePOM fetches and unmarshals the raw project document for coord
// (whose Extension must already be "pom"), without following its parent
// chain or merging profiles.
func (s *pomSource) parsePOM(ctx context.Context, coord coordinate.Coordinate, repoIDs []string) (maven.Project, string, error) {
	data, repoID, err := s.fetch(ctx, coord, repoIDs)
	if err != nil {
		return maven.Project{}, "", err
	}
	var proj maven.Project
	if err := xml.Unmarshal(data, &proj); err != nil {
		return maven.Project{}, "", fmt.Errorf("resolver: parsing POM for %s: %w", coord, err)
	}
	if proj.GroupID == "" {
		proj.GroupID = maven.String(coord.Group)
	}
	if proj.ArtifactID == "" {
		proj.ArtifactID = maven.String(coord.Artifact)
	}
	if proj.Version == "" {
		proj.Version = maven.String(coord.Version)
	}
	return proj, repoID, nil
}

// resolveProject builds coord's fully merged project: fetch, walk the
// parent chain merging each ancestor's raw (not yet further-merged) data
// in turn, merge active profiles, then interpolate, the same sequence as
// util/resolve's fetchMavenParents, adapted to fetch ancestors from a real
// repository instead of an internal API.
func (s *pomSource) resolveProject(ctx context.Context, coord coordinate.Coordinate, repoIDs []string) (maven.Project, error) {
	pomCoord := coord
	pomCoord.Extension = "pom"
	proj, _, err := s.parsePOM(ctx, pomCoord, repoIDs)
	if err != nil {
		return maven.Project{}, err
	}

	visited := map[string]bool{pomCoord.Identity.Group + ":" + pomCoord.Identity.Artifact + ":" + pomCoord.Version: true}
	current := proj.Parent
	for n := 0; n < MaxParents && current.GroupID != "" && current.ArtifactID != "" && current.Version != ""; n++ {
		key := string(current.GroupID) + ":" + string(current.ArtifactID) + ":" + string(current.Version)
		if visited[key] {
			return maven.Project{}, fmt.Errorf("resolver: cycle in Maven parent chain at %s", key)
		}
		visited[key] = true

		parentCoord, cerr := coordinate.New(string(current.GroupID), string(current.ArtifactID), "pom", "", string(current.Version))
		if cerr != nil {
			break
		}
		parentProj, _, perr := s.parsePOM(ctx, parentCoord, repoIDs)
		if perr != nil {
			// An unreachable ancestor truncates inheritance rather than
			// failing the whole descriptor.
			break
		}
		if err := parentProj.MergeProfiles("", maven.ActivationOS{}); err != nil {
			return maven.Project{}, err
		}
		proj.MergeParent(parentProj)
		current = parentProj.Parent
	}

	if err := proj.MergeProfiles("", maven.ActivationOS{}); err != nil {
		return maven.Project{}, err
	}
	if err := proj.Interpolate(); err != nil {
		return maven.Project{}, err
	}
	return proj, nil
}
