package session

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ChecksumPolicy governs behaviour on a checksum mismatch (§4.D.2).
type ChecksumPolicy string

const (
	ChecksumFail   ChecksumPolicy = "fail"
	ChecksumWarn   ChecksumPolicy = "warn"
	ChecksumIgnore ChecksumPolicy = "ignore"
)

// ConnectorConfig namespaces the "connector.*" property keys (§4.B, §4.C).
type ConnectorConfig struct {
	UserAgent              string        `mapstructure:"userAgent"`
	ConnectTimeout         time.Duration `mapstructure:"connectTimeout"`
	RequestTimeout         time.Duration `mapstructure:"requestTimeout"`
	MaxConcurrentTransfers int           `mapstructure:"maxConcurrentTransfers"`
	ResumeThreshold        bool          `mapstructure:"resumeThreshold"`
}

// CollectorConfig namespaces the "dependencyCollector.*" property keys
// (§4.G, and the management import chain supplemented in SPEC_FULL §3).
type CollectorConfig struct {
	MaxImports int `mapstructure:"maxImports"`
}

// ChecksumConfig namespaces the "checksum.*" property keys (§4.D.2, §4.D.4).
type ChecksumConfig struct {
	Policy           ChecksumPolicy `mapstructure:"policy"`
	Algorithms       []string       `mapstructure:"algorithms"`
	TrustedAlgorithm string         `mapstructure:"trustedAlgorithm"`
	FailIfMissing    bool           `mapstructure:"failIfMissing"`
	SnapshotsIncluded bool          `mapstructure:"snapshotsIncluded"`
}

// Config is the session's typed configuration, decoded from a raw
// namespaced property map (§4.B "config property map").
type Config struct {
	Connector           ConnectorConfig
	DependencyCollector CollectorConfig
	Checksum            ChecksumConfig
}

// DefaultConfig returns sane defaults for every namespace.
func DefaultConfig() Config {
	return Config{
		Connector: ConnectorConfig{
			UserAgent:              "artifactgraph-resolve/1",
			ConnectTimeout:         10 * time.Second,
			RequestTimeout:         60 * time.Second,
			MaxConcurrentTransfers: 5,
			ResumeThreshold:        true,
		},
		DependencyCollector: CollectorConfig{
			MaxImports: 32,
		},
		Checksum: ChecksumConfig{
			Policy:           ChecksumWarn,
			Algorithms:       []string{"sha1", "sha256"},
			TrustedAlgorithm: "sha1",
			FailIfMissing:    false,
			SnapshotsIncluded: false,
		},
	}
}

// DecodeProperties decodes a flat, namespaced property map (e.g.
// "connector.requestTimeout" => "30s") into a Config, starting from
// DefaultConfig. Namespace is the substring before the first '.'; unknown
// namespaces are ignored, matching Maven's own tolerant property handling.
func DecodeProperties(props map[string]string) (Config, error) {
	cfg := DefaultConfig()

	grouped := map[string]map[string]any{
		"connector":           {},
		"dependencyCollector": {},
		"checksum":            {},
	}
	for k, v := range props {
		ns, rest, ok := strings.Cut(k, ".")
		if !ok {
			continue
		}
		m, ok := grouped[ns]
		if !ok {
			continue
		}
		if rest == "algorithms" {
			m[rest] = splitList(v)
			continue
		}
		m[rest] = v
	}

	decode := func(raw map[string]any, out any) error {
		if len(raw) == 0 {
			return nil
		}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			WeaklyTypedInput: true,
			Result:           out,
		})
		if err != nil {
			return err
		}
		return dec.Decode(raw)
	}

	if err := decode(grouped["connector"], &cfg.Connector); err != nil {
		return Config{}, err
	}
	if err := decode(grouped["dependencyCollector"], &cfg.DependencyCollector); err != nil {
		return Config{}, err
	}
	if err := decode(grouped["checksum"], &cfg.Checksum); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' })
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}
