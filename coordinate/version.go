/*
Package coordinate implements the artifact coordinate and version model
(component A): parsing and comparison of versions and version ranges, and
the canonical (group, artifact, extension, classifier, version) coordinate
tuple used throughout the resolver.

Version ordering follows the segment-by-segment algorithm described for
Maven-style artifact versions: a version string is tokenised into
alternating numeric and alphabetic runs, numeric segments compare
numerically, and alphabetic segments compare through a fixed qualifier
order table, with unrecognised qualifiers sorting after all recognised
ones.
*/
package coordinate

import (
	"fmt"
	"strconv"
	"strings"
)

type segKind int8

const (
	segNumeric segKind = iota
	segQualifier
)

// segment is one element of a tokenised version string: a run of digits or
// a run of letters, preceded by the separator that introduced it ('.', '-',
// or 0 for the first segment).
type segment struct {
	sep  byte
	kind segKind
	num  int64
	str  string // lowercased qualifier text; unset for numeric segments
}

// Version is a parsed, comparable artifact version.
type Version struct {
	raw      string
	segs     []segment
	snapshot bool // raw ends in -SNAPSHOT or is a timestamped snapshot
	tsBuild  int64
	tsDate   string // "YYYYMMDD.HHMMSS" portion of a timestamped snapshot, empty otherwise
}

// String returns the original, unnormalised version string.
func (v *Version) String() string {
	if v == nil {
		return ""
	}
	return v.raw
}

// qualifierOrder ranks well-known qualifiers. Qualifiers absent from this
// table sort after every entry here, in lexicographic order among
// themselves. The empty string is equivalent to "ga" and "final".
var qualifierOrder = map[string]int{
	"alpha":     -6,
	"beta":      -5,
	"milestone": -4,
	"m":         -4,
	"rc":        -3,
	"cr":        -3,
	"snapshot":  -2,
	"":          -1,
	"ga":        -1,
	"final":     -1,
	"release":   -1,
	"sp":        0,
}

const unknownQualifierOrder = 1

func rankQualifier(s string) int {
	if o, ok := qualifierOrder[s]; ok {
		return o
	}
	return unknownQualifierOrder
}

// isZeroLike reports whether the segment is equivalent to the empty
// string for the purposes of trailing-segment trimming: numeric zero or a
// qualifier ranked as the neutral "ga"/"final" position.
func isZeroLike(s segment) bool {
	if s.kind == segNumeric {
		return s.num == 0
	}
	return rankQualifier(s.str) == qualifierOrder[""]
}

// ParseVersion parses a version string into its comparable form.
//
// An empty string is invalid input.
func ParseVersion(s string) (*Version, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty version", ErrInvalidInput)
	}
	v := &Version{raw: s}
	lower := strings.ToLower(s)
	v.snapshot = strings.HasSuffix(lower, "-snapshot")

	if date, build, ok := parseSnapshotTimestamp(lower); ok {
		v.snapshot = true
		v.tsDate = date
		v.tsBuild = build
	}

	segs, err := tokenize(lower)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, s, err)
	}
	v.segs = trimTrailing(segs)
	return v, nil
}

// parseSnapshotTimestamp recognises the Maven timestamped-snapshot form
// "...-YYYYMMDD.HHMMSS-N" and extracts the date-time stamp and build
// number N. The returned date string is the "YYYYMMDD.HHMMSS" portion.
func parseSnapshotTimestamp(lower string) (date string, build int64, ok bool) {
	idx := strings.LastIndexByte(lower, '-')
	if idx < 0 {
		return "", 0, false
	}
	buildStr := lower[idx+1:]
	n, err := strconv.ParseInt(buildStr, 10, 64)
	if err != nil || n < 0 {
		return "", 0, false
	}
	rest := lower[:idx]
	idx2 := strings.LastIndexByte(rest, '-')
	if idx2 < 0 {
		return "", 0, false
	}
	stamp := rest[idx2+1:]
	parts := strings.SplitN(stamp, ".", 2)
	if len(parts) != 2 || len(parts[0]) != 8 || len(parts[1]) != 6 {
		return "", 0, false
	}
	if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
		return "", 0, false
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		return "", 0, false
	}
	return stamp, n, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// tokenize splits a lowercased version string into alternating numeric and
// qualifier segments, separated by '.', '-', or a transition between digit
// and non-digit runs (which is treated as an implicit '-').
func tokenize(s string) ([]segment, error) {
	var segs []segment
	first := true
	i := 0
	for i < len(s) {
		sep := byte(0)
		if s[i] == '.' || s[i] == '-' {
			sep = s[i]
			i++
			if i >= len(s) {
				// Trailing separator: treat as an empty qualifier segment.
				segs = append(segs, segment{sep: sep, kind: segQualifier, str: ""})
				break
			}
		} else if !first {
			sep = '-'
		}

		start := i
		if isDigit(s[i]) {
			for i < len(s) && isDigit(s[i]) {
				i++
			}
			n, err := strconv.ParseInt(s[start:i], 10, 64)
			if err != nil {
				// Overflow: clamp, extremely long numeric runs are rare and
				// only their relative order among themselves matters less
				// than not erroring out.
				n = int64(1) << 62
			}
			segs = append(segs, segment{sep: sep, kind: segNumeric, num: n})
		} else {
			for i < len(s) && !isDigit(s[i]) && s[i] != '.' && s[i] != '-' {
				i++
			}
			segs = append(segs, segment{sep: sep, kind: segQualifier, str: s[start:i]})
		}
		first = false
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("no segments")
	}
	return segs, nil
}

// trimTrailing removes zero-like segments at the end and immediately before
// each '-'-separated segment, so that "1.0.0", "1.0" and "1" compare equal,
// as do "1.0.0-alpha" and "1-alpha".
func trimTrailing(segs []segment) []segment {
	out := make([]segment, 0, len(segs))
	for _, s := range segs {
		if s.sep == '-' {
			for len(out) > 1 && isZeroLike(out[len(out)-1]) {
				out = out[:len(out)-1]
			}
		}
		out = append(out, s)
	}
	for len(out) > 1 && isZeroLike(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

// BaseVersion collapses a timestamped snapshot revision (e.g.
// "1.0-20210101.120000-3") back to its base form ("1.0-SNAPSHOT"). Versions
// that are not timestamped snapshots return themselves unchanged.
func (v *Version) BaseVersion() *Version {
	if v.tsDate == "" {
		return v
	}
	base := strings.TrimSuffix(v.raw, "-"+v.tsDate+"-"+strconv.FormatInt(v.tsBuild, 10))
	bv, err := ParseVersion(base + "-SNAPSHOT")
	if err != nil {
		return v
	}
	return bv
}

// IsSnapshot reports whether the version is a mutable snapshot revision,
// either the literal "-SNAPSHOT" suffix or a timestamped snapshot build.
func (v *Version) IsSnapshot() bool { return v.snapshot }

// Compare returns -1, 0 or 1 depending on whether v sorts before, equal to
// or after w.
//
// Timestamped snapshots compare strictly by increasing build number
// against one another when they share the same date stamp and base
// segments; otherwise comparison proceeds purely on the tokenised
// segments (so a timestamped snapshot compares equal to "-SNAPSHOT" only
// when segment-for-segment equal, i.e. never, since "SNAPSHOT" and the
// date digits differ as qualifiers/numerics — base-level equivalence is
// obtained explicitly through BaseVersion, per spec).
func (v *Version) Compare(w *Version) int {
	if v == w {
		return 0
	}
	if v == nil {
		return -1
	}
	if w == nil {
		return 1
	}
	max := len(v.segs)
	if len(w.segs) > max {
		max = len(w.segs)
	}
	for i := 0; i < max; i++ {
		a, aOK := at(v.segs, i)
		b, bOK := at(w.segs, i)
		if !aOK {
			a = padSegment(b.sep)
		}
		if !bOK {
			b = padSegment(a.sep)
		}
		if c := compareSegment(a, b); c != 0 {
			return c
		}
	}
	if v.tsDate != "" && w.tsDate != "" && v.tsDate == w.tsDate {
		return sgn64(v.tsBuild, w.tsBuild)
	}
	return 0
}

func at(segs []segment, i int) (segment, bool) {
	if i >= len(segs) {
		return segment{}, false
	}
	return segs[i], true
}

// padSegment produces the implicit zero segment used to compare against a
// version with fewer segments: numeric 0 following a '.' separator, empty
// qualifier following a '-' separator.
func padSegment(sep byte) segment {
	if sep == '-' {
		return segment{sep: '-', kind: segQualifier, str: ""}
	}
	return segment{sep: '.', kind: segNumeric, num: 0}
}

func compareSegment(a, b segment) int {
	if a.kind != b.kind {
		// A numeric segment always outranks a qualifier segment at the
		// same position (e.g. "1.1" > "1.a"). "1.0" > "1.0-alpha" does not
		// come from this rule: padding after '-' supplies an empty
		// qualifier, which ranks above "alpha" below.
		if a.kind == segNumeric {
			return 1
		}
		return -1
	}
	if a.kind == segNumeric {
		return sgn64(a.num, b.num)
	}
	ra, rb := rankQualifier(a.str), rankQualifier(b.str)
	if ra != rb {
		return sgn64(int64(ra), int64(rb))
	}
	if ra == unknownQualifierOrder {
		return strings.Compare(a.str, b.str)
	}
	return 0
}

func sgn64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// bumpLastNumeric returns a copy of v with the last numeric segment
// incremented by one and every following segment dropped — the version
// immediately above every version sharing v's prefix. It underlies the
// "[v.*]" range shorthand (§4.A).
func (v *Version) bumpLastNumeric() *Version {
	segs := append([]segment(nil), v.segs...)
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i].kind == segNumeric {
			segs[i].num++
			segs = segs[:i+1]
			n := &Version{segs: segs}
			n.raw = n.render()
			return n
		}
	}
	// No numeric segment at all: treat as strictly greater than every
	// possible suffix by appending a very large numeric segment.
	segs = append(segs, segment{sep: '.', kind: segNumeric, num: 1 << 62})
	n := &Version{segs: segs}
	n.raw = n.render()
	return n
}

func (v *Version) render() string {
	var b strings.Builder
	for i, s := range v.segs {
		if i > 0 {
			if s.sep != 0 {
				b.WriteByte(s.sep)
			} else {
				b.WriteByte('.')
			}
		}
		if s.kind == segNumeric {
			b.WriteString(strconv.FormatInt(s.num, 10))
		} else {
			b.WriteString(s.str)
		}
	}
	return b.String()
}
