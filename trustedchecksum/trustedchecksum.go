// Package trustedchecksum implements the §4.D.4 trusted-checksums
// post-processor: independently of per-download checksum validation, it
// re-hashes a resolved artifact file and compares it against an
// out-of-band trusted record, either recording a fresh one or verifying
// against an existing one.
package trustedchecksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strings"

	"path/filepath"

	"github.com/artifactgraph/resolve/connector"
	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/session"
	"github.com/artifactgraph/resolve/transport"
)

// Mode selects whether the post-processor writes a fresh trusted record or
// checks the artifact against an existing one (§4.D.4 "record-vs-verify
// mode").
type Mode int

const (
	Verify Mode = iota
	Record
)

// ErrNoTrustedRecord is returned by a TrustedSource's Reader when no
// record exists yet for a coordinate.
var ErrNoTrustedRecord = errors.New("trustedchecksum: no trusted record")

// ChecksumFailureError reports a trusted-checksum mismatch or, under
// FailIfMissing, a missing trusted record (§7 `ChecksumFailure`).
type ChecksumFailureError struct {
	Coordinate coordinate.Coordinate
	Algorithm  string
	Want, Got  string
}

func (e *ChecksumFailureError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("trustedchecksum: no trusted %s record for %s and failIfMissing is set", e.Algorithm, e.Coordinate)
	}
	return fmt.Sprintf("trustedchecksum: %s mismatch for %s: trusted %s, computed %s", e.Algorithm, e.Coordinate, e.Want, e.Got)
}

// TrustedSource stores and retrieves a coordinate's trusted digest record,
// one record per coordinate holding every configured algorithm (§4.D.4
// "an out-of-band record"). Implementations are free to back this with a
// local properties file, a remote service, or anything else; FileSource
// below is the reference implementation.
type TrustedSource interface {
	// Reader opens the existing record for coord, or returns
	// ErrNoTrustedRecord if none exists.
	Reader(coord coordinate.Coordinate) (io.ReadCloser, error)
	// Writer opens the record for coord for writing a fresh one, replacing
	// any prior content.
	Writer(coord coordinate.Coordinate) (io.WriteCloser, error)
}

// Policy governs one post-processor run (§4.D.4).
type Policy struct {
	// Algorithms is the set of digest algorithms to compute and
	// record/verify, e.g. {"sha1"}. Defaults to {"sha1"} if empty.
	Algorithms []string
	// FailIfMissing makes Verify mode a ChecksumFailureError when no
	// trusted record exists, rather than silently passing the artifact
	// through.
	FailIfMissing bool
	// SnapshotsIncluded controls whether snapshot artifacts are
	// processed at all; by default they are skipped, since a snapshot's
	// content legitimately changes build to build.
	SnapshotsIncluded bool
	Mode              Mode
}

// PolicyFromConfig builds a Policy from the session's "checksum.*"
// namespace (§6). TrustedAlgorithm is always used as the lone algorithm
// (SHA-1 when it is empty); the per-download Algorithms list is not
// consulted, since the trusted-checksum record is conventionally narrower
// than the download-time checksum set (§4.D.4 "default SHA-1").
func PolicyFromConfig(cfg session.ChecksumConfig) Policy {
	algorithms := []string{cfg.TrustedAlgorithm}
	if algorithms[0] == "" {
		algorithms = []string{transport.SHA1}
	}
	return Policy{
		Algorithms:        algorithms,
		FailIfMissing:     cfg.FailIfMissing,
		SnapshotsIncluded: cfg.SnapshotsIncluded,
		Mode:              Verify,
	}
}

// Artifact is one resolved, locally-present file the post-processor
// inspects.
type Artifact struct {
	Coordinate coordinate.Coordinate
	// Path is the local filesystem path of the resolved artifact. Result
	// clears this when a trusted digest does not match, marking the
	// artifact unresolved (§4.D.4 "clearing its resolved path"); other
	// failures leave it set.
	Path       string
	IsSnapshot bool
}

// Result reports the outcome for one Artifact.
type Result struct {
	Artifact Artifact
	// Recorded lists the algorithms whose digest was written to the
	// trusted source (Record mode only).
	Recorded []string
	// Skipped is set when the artifact was left untouched — a snapshot
	// with SnapshotsIncluded unset.
	Skipped bool
	Err     error
}

// PostProcessor runs one Policy against a TrustedSource.
type PostProcessor struct {
	source TrustedSource
	policy Policy
}

// New builds a PostProcessor. An empty policy.Algorithms defaults to
// {sha1}.
func New(source TrustedSource, policy Policy) *PostProcessor {
	if len(policy.Algorithms) == 0 {
		policy.Algorithms = []string{transport.SHA1}
	}
	return &PostProcessor{source: source, policy: policy}
}

// Process runs the configured mode against every artifact in turn.
func (p *PostProcessor) Process(artifacts []Artifact) []Result {
	out := make([]Result, len(artifacts))
	for i, a := range artifacts {
		out[i] = p.processOne(a)
	}
	return out
}

func (p *PostProcessor) processOne(a Artifact) Result {
	if a.IsSnapshot && !p.policy.SnapshotsIncluded {
		return Result{Artifact: a, Skipped: true}
	}

	digests, err := digestFile(a.Path, p.policy.Algorithms)
	if err != nil {
		return Result{Artifact: a, Err: fmt.Errorf("trustedchecksum: hashing %s: %w", a.Path, err)}
	}

	if p.policy.Mode == Record {
		if err := p.record(a.Coordinate, digests); err != nil {
			return Result{Artifact: a, Err: err}
		}
		return Result{Artifact: a, Recorded: p.policy.Algorithms}
	}
	return p.verify(a, digests)
}

func (p *PostProcessor) record(coord coordinate.Coordinate, digests map[string]string) error {
	w, err := p.source.Writer(coord)
	if err != nil {
		return fmt.Errorf("trustedchecksum: opening trusted record for %s: %w", coord, err)
	}
	defer w.Close()
	if err := writeRecord(w, digests); err != nil {
		return fmt.Errorf("trustedchecksum: writing trusted record for %s: %w", coord, err)
	}
	return nil
}

func (p *PostProcessor) verify(a Artifact, digests map[string]string) Result {
	r, err := p.source.Reader(a.Coordinate)
	if errors.Is(err, ErrNoTrustedRecord) {
		if p.policy.FailIfMissing {
			return Result{Artifact: a, Err: &ChecksumFailureError{Coordinate: a.Coordinate, Algorithm: p.policy.Algorithms[0]}}
		}
		return Result{Artifact: a}
	}
	if err != nil {
		return Result{Artifact: a, Err: fmt.Errorf("trustedchecksum: reading trusted record for %s: %w", a.Coordinate, err)}
	}
	defer r.Close()

	trusted, err := parseRecord(r)
	if err != nil {
		return Result{Artifact: a, Err: fmt.Errorf("trustedchecksum: parsing trusted record for %s: %w", a.Coordinate, err)}
	}

	for _, algorithm := range p.policy.Algorithms {
		want, ok := trusted[algorithm]
		if !ok {
			if p.policy.FailIfMissing {
				return Result{Artifact: a, Err: &ChecksumFailureError{Coordinate: a.Coordinate, Algorithm: algorithm}}
			}
			continue
		}
		if got := digests[algorithm]; !strings.EqualFold(want, got) {
			failed := a
			failed.Path = ""
			return Result{Artifact: failed, Err: &ChecksumFailureError{Coordinate: a.Coordinate, Algorithm: algorithm, Want: want, Got: got}}
		}
	}
	return Result{Artifact: a}
}

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case transport.MD5:
		return md5.New(), nil
	case transport.SHA1:
		return sha1.New(), nil
	case transport.SHA256:
		return sha256.New(), nil
	case transport.SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("trustedchecksum: unsupported algorithm %q", algorithm)
	}
}

func digestFile(path string, algorithms []string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hashers := make(map[string]hash.Hash, len(algorithms))
	writers := make([]io.Writer, 0, len(algorithms))
	for _, a := range algorithms {
		h, err := newHash(a)
		if err != nil {
			return nil, err
		}
		hashers[a] = h
		writers = append(writers, h)
	}
	if _, err := io.Copy(io.MultiWriter(writers...), f); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(hashers))
	for a, h := range hashers {
		out[a] = fmt.Sprintf("%x", h.Sum(nil))
	}
	return out, nil
}

// writeRecord/parseRecord use a simple "<algorithm> <hexdigest>" per-line
// format, one trusted record per coordinate. This differs from the sibling
// checksum files transport.ParseSiblingDigest reads, which hold a bare
// digest optionally followed by a file name.
func writeRecord(w io.Writer, digests map[string]string) error {
	algorithms := make([]string, 0, len(digests))
	for a := range digests {
		algorithms = append(algorithms, a)
	}
	sort.Strings(algorithms)
	for _, a := range algorithms {
		if _, err := fmt.Fprintf(w, "%s %s\n", a, digests[a]); err != nil {
			return err
		}
	}
	return nil
}

// FileSource is a TrustedSource backed by a local directory tree, one
// ".trusted" sibling file per coordinate, laid out with the same
// conventional Maven path formula the connector uses for artifacts and
// checksum siblings (§6).
type FileSource struct {
	baseDir string
	layout  connector.Layout
}

// NewFileSource builds a FileSource rooted at baseDir.
func NewFileSource(baseDir string) *FileSource {
	return &FileSource{baseDir: baseDir, layout: connector.MavenLayout{}}
}

func (s *FileSource) path(coord coordinate.Coordinate) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(s.layout.Path(coord))+".trusted")
}

func (s *FileSource) Reader(coord coordinate.Coordinate) (io.ReadCloser, error) {
	f, err := os.Open(s.path(coord))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoTrustedRecord
	}
	return f, err
}

func (s *FileSource) Writer(coord coordinate.Coordinate) (io.WriteCloser, error) {
	p := s.path(coord)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	return os.Create(p)
}

func parseRecord(r io.Reader) (map[string]string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("trustedchecksum: malformed record line %q", line)
		}
		out[fields[0]] = strings.ToLower(fields[1])
	}
	return out, nil
}
