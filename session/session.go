// Package session implements component B: the immutable per-operation
// session that every other component is threaded through (§4.B).
package session

import (
	"github.com/hashicorp/go-hclog"
)

// MirrorSelector resolves the mirror (if any) that should be used instead
// of a given remote repository ID.
type MirrorSelector func(repositoryID string) (mirrorURL string, ok bool)

// AuthSelector resolves credentials for a given repository ID.
type AuthSelector func(repositoryID string) (username, password string, ok bool)

// ProxySelector resolves the proxy URL (if any) that should front requests
// to a given repository ID.
type ProxySelector func(repositoryID string) (proxyURL string, ok bool)

// Session bundles everything resolution operations need (§4.B): selectors,
// mirror/auth/proxy lookups, a config property map, system/user property
// maps, a local-repository manager, a per-session cache and the current
// request trace. Session values are immutable; every With* method returns
// a new Session, leaving the receiver untouched.
type Session struct {
	config Config

	selector      DependencySelector
	manager       DependencyManager
	traverser     DependencyTraverser
	versionFilter VersionFilter

	mirrors MirrorSelector
	auth    AuthSelector
	proxies ProxySelector

	systemProperties map[string]string
	userProperties   map[string]string

	localRepo *LocalRepositoryManager
	cache     *Cache
	trace     *RequestTrace

	logger hclog.Logger
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithConfig overrides the session's decoded Config.
func WithConfig(cfg Config) Option { return func(s *Session) { s.config = cfg } }

// WithProperties decodes a raw namespaced property map into the session's
// Config (§4.B "config property map").
func WithProperties(props map[string]string) Option {
	return func(s *Session) {
		if cfg, err := DecodeProperties(props); err == nil {
			s.config = cfg
		}
	}
}

func WithSelector(sel DependencySelector) Option         { return func(s *Session) { s.selector = sel } }
func WithManager(mgr DependencyManager) Option           { return func(s *Session) { s.manager = mgr } }
func WithTraverser(tr DependencyTraverser) Option        { return func(s *Session) { s.traverser = tr } }
func WithVersionFilter(vf VersionFilter) Option          { return func(s *Session) { s.versionFilter = vf } }
func WithMirrors(m MirrorSelector) Option                { return func(s *Session) { s.mirrors = m } }
func WithAuth(a AuthSelector) Option                     { return func(s *Session) { s.auth = a } }
func WithProxies(p ProxySelector) Option                 { return func(s *Session) { s.proxies = p } }
func WithLocalRepository(base string) Option {
	return func(s *Session) { s.localRepo = NewLocalRepositoryManager(base) }
}
func WithLogger(l hclog.Logger) Option { return func(s *Session) { s.logger = l } }

// WithSystemProperties replaces the session's system property map, used for
// descriptor interpolation (mirrors util/maven's properties.go map).
func WithSystemProperties(p map[string]string) Option {
	return func(s *Session) { s.systemProperties = p }
}

// WithUserProperties replaces the session's user property map, which takes
// precedence over system properties during interpolation.
func WithUserProperties(p map[string]string) Option {
	return func(s *Session) { s.userProperties = p }
}

// New constructs a Session with defaults for anything not set by opts.
func New(opts ...Option) *Session {
	s := &Session{
		config:        DefaultConfig(),
		selector:      defaultSelector{},
		manager:       defaultManager{},
		traverser:     defaultTraverser{},
		versionFilter: defaultVersionFilter{},
		mirrors:       func(string) (string, bool) { return "", false },
		auth:          func(string) (string, string, bool) { return "", "", false },
		proxies:       func(string) (string, bool) { return "", false },
		cache:         NewCache(),
		trace:         NewRequestTrace(),
		logger:        hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.localRepo == nil {
		s.localRepo = NewLocalRepositoryManager(".m2/repository")
	}
	return s
}

func (s *Session) Config() Config                       { return s.config }
func (s *Session) Selector() DependencySelector         { return s.selector }
func (s *Session) Manager() DependencyManager           { return s.manager }
func (s *Session) Traverser() DependencyTraverser       { return s.traverser }
func (s *Session) VersionFilter() VersionFilter         { return s.versionFilter }
func (s *Session) LocalRepository() *LocalRepositoryManager { return s.localRepo }
func (s *Session) Cache() *Cache                        { return s.cache }
func (s *Session) Trace() *RequestTrace                 { return s.trace }
func (s *Session) Logger() hclog.Logger                 { return s.logger }

// Mirror resolves the mirror URL for a repository ID, if any.
func (s *Session) Mirror(repositoryID string) (string, bool) { return s.mirrors(repositoryID) }

// Credentials resolves auth for a repository ID, if any.
func (s *Session) Credentials(repositoryID string) (string, string, bool) {
	return s.auth(repositoryID)
}

// Proxy resolves the proxy URL for a repository ID, if any.
func (s *Session) Proxy(repositoryID string) (string, bool) { return s.proxies(repositoryID) }

// SystemProperty looks up a system property.
func (s *Session) SystemProperty(key string) (string, bool) {
	v, ok := s.systemProperties[key]
	return v, ok
}

// UserProperty looks up a user property; user properties shadow system
// properties of the same name when both maps are consulted together.
func (s *Session) UserProperty(key string) (string, bool) {
	v, ok := s.userProperties[key]
	return v, ok
}

// derive returns a shallow copy of s, the basis for every With* builder
// method below — keeps Session immutable from the caller's perspective.
func (s *Session) derive() *Session {
	cp := *s
	return &cp
}

// WithTrace returns a new Session whose request trace is extended with a
// child frame carrying data.
func (s *Session) WithTrace(data map[string]any) *Session {
	cp := s.derive()
	cp.trace = s.trace.Child(data)
	return cp
}

// WithSelector returns a new Session using sel in place of the current
// dependency selector.
func (s *Session) WithSelector(sel DependencySelector) *Session {
	cp := s.derive()
	cp.selector = sel
	return cp
}

// WithManager returns a new Session using mgr in place of the current
// dependency manager.
func (s *Session) WithManager(mgr DependencyManager) *Session {
	cp := s.derive()
	cp.manager = mgr
	return cp
}

// WithTraverser returns a new Session using tr in place of the current
// dependency traverser.
func (s *Session) WithTraverser(tr DependencyTraverser) *Session {
	cp := s.derive()
	cp.traverser = tr
	return cp
}
