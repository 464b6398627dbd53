package connector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/artifactgraph/resolve/session"
	"github.com/artifactgraph/resolve/transport"
)

// FileFactory produces FileTransport-backed connectors for the "file:",
// "symlink+file:" and "hardlink+file:" schemes (§6).
type FileFactory struct {
	// PriorityValue defaults to 100 when zero; local transports are tried
	// before network ones since they never need DNS/TLS setup.
	PriorityValue int
}

func (f FileFactory) Priority() int {
	if f.PriorityValue != 0 {
		return f.PriorityValue
	}
	return 100
}

func (f FileFactory) New(sess *session.Session, repo Repository) (*Connector, error) {
	scheme, rest, ok := strings.Cut(repo.URL, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoTransporter, repo.URL)
	}

	var strategy transport.WriteStrategy
	switch scheme {
	case "file":
		strategy = transport.WriteCopy
	case "symlink+file":
		strategy = transport.WriteSymlink
	case "hardlink+file":
		strategy = transport.WriteHardlink
	default:
		return nil, fmt.Errorf("%w: %q", ErrNoTransporter, repo.URL)
	}

	base, err := filePathFromURL(rest)
	if err != nil {
		return nil, err
	}

	t := transport.NewFileTransport(base, strategy)
	return NewConnector(sess, repo, t, MavenLayout{}), nil
}

// filePathFromURL strips the leading "//" a file URL conventionally
// carries after its scheme and decodes any percent-escapes, without
// pulling in the full net/url authority-parsing machinery this degenerate
// scheme doesn't need.
func filePathFromURL(rest string) (string, error) {
	rest = strings.TrimPrefix(rest, "//")
	decoded, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("connector: decoding file path %q: %w", rest, err)
	}
	return decoded, nil
}
