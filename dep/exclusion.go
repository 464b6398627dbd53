package dep

import (
	"sort"
	"strings"

	"github.com/artifactgraph/resolve/coordinate"
)

// Exclusion is a (group, artifact) wildcard pattern; "*" matches any
// value in that position.
type Exclusion struct {
	Group    string
	Artifact string
}

const wildcard = "*"

// Matches reports whether the exclusion pattern matches the given
// identity.
func (e Exclusion) Matches(id coordinate.Identity) bool {
	return (e.Group == wildcard || e.Group == id.Group) &&
		(e.Artifact == wildcard || e.Artifact == id.Artifact)
}

func (e Exclusion) String() string { return e.Group + ":" + e.Artifact }

// ExclusionSet is an immutable set of Exclusion patterns. The zero value
// is an empty set.
type ExclusionSet struct {
	patterns []Exclusion
}

// NewExclusionSet builds a set from the given patterns, deduplicating.
func NewExclusionSet(patterns ...Exclusion) ExclusionSet {
	seen := make(map[Exclusion]bool, len(patterns))
	var out []Exclusion
	for _, p := range patterns {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Artifact < out[j].Artifact
	})
	return ExclusionSet{patterns: out}
}

// IsEmpty reports whether the set has no patterns.
func (s ExclusionSet) IsEmpty() bool { return len(s.patterns) == 0 }

// Matches reports whether any pattern in the set excludes id.
func (s ExclusionSet) Matches(id coordinate.Identity) bool {
	for _, p := range s.patterns {
		if p.Matches(id) {
			return true
		}
	}
	return false
}

// Union returns the set containing every pattern in s or o — used to
// propagate an ancestor's exclusions onto its descendants (§3: "a node's
// effective exclusions are the union of exclusions declared by any
// ancestor on the path leading to it").
func (s ExclusionSet) Union(o ExclusionSet) ExclusionSet {
	if s.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return s
	}
	merged := make([]Exclusion, 0, len(s.patterns)+len(o.patterns))
	merged = append(merged, s.patterns...)
	merged = append(merged, o.patterns...)
	return NewExclusionSet(merged...)
}

// ParseExclusions parses a comma- or pipe-separated "group:artifact" list,
// as found in a descriptor's raw exclusion attribute.
func ParseExclusions(s string) ExclusionSet {
	if s == "" {
		return ExclusionSet{}
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' })
	var patterns []Exclusion
	for _, f := range fields {
		g, a, ok := strings.Cut(f, ":")
		if !ok {
			continue
		}
		patterns = append(patterns, Exclusion{Group: g, Artifact: a})
	}
	return NewExclusionSet(patterns...)
}

// String renders the set back into the pipe-separated form ParseExclusions
// accepts.
func (s ExclusionSet) String() string {
	parts := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		parts[i] = p.String()
	}
	return strings.Join(parts, "|")
}
