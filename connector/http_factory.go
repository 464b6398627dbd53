package connector

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/artifactgraph/resolve/session"
	"github.com/artifactgraph/resolve/transport"
)

// HTTPFactory produces HTTPTransport-backed connectors for the "http:"
// and "https:" schemes (§6).
type HTTPFactory struct {
	PriorityValue int
}

func (f HTTPFactory) Priority() int {
	if f.PriorityValue != 0 {
		return f.PriorityValue
	}
	return 50
}

func (f HTTPFactory) New(sess *session.Session, repo Repository) (*Connector, error) {
	if !strings.HasPrefix(repo.URL, "http://") && !strings.HasPrefix(repo.URL, "https://") {
		return nil, fmt.Errorf("%w: %q", ErrNoTransporter, repo.URL)
	}

	cfg := sess.Config().Connector
	httpCfg := transport.HTTPConfig{
		BaseURL:        strings.TrimSuffix(repo.URL, "/"),
		UserAgent:      cfg.UserAgent,
		ConnectTimeout: cfg.ConnectTimeout,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         sess.Logger(),
	}
	if user, pass, ok := sess.Credentials(repo.ID); ok {
		httpCfg.Username, httpCfg.Password = user, pass
	}
	if proxyURL, ok := sess.Proxy(repo.ID); ok {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("connector: parsing proxy URL %q: %w", proxyURL, err)
		}
		httpCfg.Proxy = http.ProxyURL(u)
	}

	t := transport.NewHTTPTransport(httpCfg)
	return NewConnector(sess, repo, t, MavenLayout{}), nil
}
