package coordinate

import (
	"fmt"
	"strings"
)

// Range is a version range: an interval over the version ordering with
// either bound possibly absent (unbounded), or a single "soft" preferred
// version with no constraining brackets at all (§3).
type Range struct {
	raw string

	// soft holds the preferred version when the range has no brackets at
	// all (e.g. "1.2.3"): a preference, not a hard constraint.
	soft *Version

	lo, hi           *Version
	loInclusive      bool
	hiInclusive      bool
	loUnbounded      bool
	hiUnbounded      bool
}

// IsSoft reports whether the range is an unconstrained soft preference
// rather than a hard interval.
func (r *Range) IsSoft() bool { return r.soft != nil }

// Soft returns the preferred version for a soft range, or nil.
func (r *Range) Soft() *Version { return r.soft }

func (r *Range) String() string { return r.raw }

// ParseRange parses a version range specification.
//
// Supported forms: "1.0" (soft preference), "[1.0]" (pin), "(1.0,2.0]",
// "[1.0,)", "(,2.0)", and the prefix shorthand "[1.2.*]" equivalent to
// "[1.2, 1.3)".
func ParseRange(s string) (*Range, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty version range", ErrInvalidInput)
	}

	first, last := trimmed[0], trimmed[len(trimmed)-1]
	isOpen := first == '[' || first == '('
	isClose := last == ']' || last == ')'
	if !isOpen && !isClose {
		v, err := ParseVersion(trimmed)
		if err != nil {
			return nil, err
		}
		return &Range{raw: trimmed, soft: v}, nil
	}
	if isOpen != isClose {
		return nil, fmt.Errorf("%w: unbalanced range delimiters %q", ErrInvalidInput, s)
	}

	body := trimmed[1 : len(trimmed)-1]
	loInclusive := first == '['
	hiInclusive := last == ']'

	if !strings.Contains(body, ",") {
		// Single-version pin, e.g. "[1.0]", or the "[1.2.*]" shorthand.
		if strings.HasSuffix(body, ".*") {
			return parsePrefixShorthand(trimmed, strings.TrimSuffix(body, ".*"))
		}
		if body == "" {
			return nil, fmt.Errorf("%w: empty pin in range %q", ErrInvalidInput, s)
		}
		v, err := ParseVersion(body)
		if err != nil {
			return nil, err
		}
		return &Range{raw: trimmed, lo: v, hi: v, loInclusive: true, hiInclusive: true}, nil
	}

	parts := strings.SplitN(body, ",", 2)
	loStr, hiStr := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

	rg := &Range{raw: trimmed, loInclusive: loInclusive, hiInclusive: hiInclusive}
	if loStr == "" {
		rg.loUnbounded = true
	} else {
		v, err := ParseVersion(loStr)
		if err != nil {
			return nil, err
		}
		rg.lo = v
	}
	if hiStr == "" {
		rg.hiUnbounded = true
	} else {
		v, err := ParseVersion(hiStr)
		if err != nil {
			return nil, err
		}
		rg.hi = v
	}
	if !rg.loUnbounded && !rg.hiUnbounded && rg.lo.Compare(rg.hi) > 0 {
		return nil, fmt.Errorf("%w: range %q has lower bound greater than upper bound", ErrInvalidInput, s)
	}
	return rg, nil
}

// parsePrefixShorthand implements "[v.*]" / "(v.*)" as the half-open
// interval [v, bump(v)), where bump(v) increments the last numeric segment
// of v and drops everything after it — the version immediately above every
// version sharing v's prefix.
func parsePrefixShorthand(raw, prefix string) (*Range, error) {
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty prefix in range %q", ErrInvalidInput, raw)
	}
	lo, err := ParseVersion(prefix)
	if err != nil {
		return nil, err
	}
	// Bump the prefix as written: lo has its trailing zeros trimmed, so
	// bumping lo would turn "1.0.*" into an upper bound of 2 instead of 1.1.
	segs, _ := tokenize(strings.ToLower(prefix))
	hi := (&Version{segs: segs}).bumpLastNumeric()
	return &Range{raw: raw, lo: lo, hi: hi, loInclusive: true, hiInclusive: false}, nil
}

// Contains reports whether v falls within the range. A soft range contains
// only its own preferred version.
func (r *Range) Contains(v *Version) bool {
	if r.soft != nil {
		return r.soft.Compare(v) == 0
	}
	if !r.loUnbounded {
		c := r.lo.Compare(v)
		if c > 0 || (c == 0 && !r.loInclusive) {
			return false
		}
	}
	if !r.hiUnbounded {
		c := r.hi.Compare(v)
		if c < 0 || (c == 0 && !r.hiInclusive) {
			return false
		}
	}
	return true
}

// Intersect returns the range representing the intersection of r and o, or
// ok=false if the two ranges cannot both be satisfied (used by the
// conflict resolver's effective-constraint computation, §4.H step 2). Soft
// ranges intersect only with ranges that contain their preferred version,
// yielding the soft side itself (its single preferred version), or with
// each other only if they agree on the preferred version.
func (r *Range) Intersect(o *Range) (result *Range, ok bool) {
	if r.soft != nil && o.soft != nil {
		if r.soft.Compare(o.soft) == 0 {
			return r, true
		}
		return nil, false
	}
	if r.soft != nil {
		if o.Contains(r.soft) {
			return r, true
		}
		return nil, false
	}
	if o.soft != nil {
		if r.Contains(o.soft) {
			return o, true
		}
		return nil, false
	}

	out := &Range{raw: r.raw + " ∩ " + o.raw}

	switch {
	case r.loUnbounded:
		out.lo, out.loInclusive, out.loUnbounded = o.lo, o.loInclusive, o.loUnbounded
	case o.loUnbounded:
		out.lo, out.loInclusive, out.loUnbounded = r.lo, r.loInclusive, r.loUnbounded
	default:
		switch c := r.lo.Compare(o.lo); {
		case c > 0:
			out.lo, out.loInclusive = r.lo, r.loInclusive
		case c < 0:
			out.lo, out.loInclusive = o.lo, o.loInclusive
		default:
			out.lo, out.loInclusive = r.lo, r.loInclusive && o.loInclusive
		}
	}

	switch {
	case r.hiUnbounded:
		out.hi, out.hiInclusive, out.hiUnbounded = o.hi, o.hiInclusive, o.hiUnbounded
	case o.hiUnbounded:
		out.hi, out.hiInclusive, out.hiUnbounded = r.hi, r.hiInclusive, r.hiUnbounded
	default:
		switch c := r.hi.Compare(o.hi); {
		case c < 0:
			out.hi, out.hiInclusive = r.hi, r.hiInclusive
		case c > 0:
			out.hi, out.hiInclusive = o.hi, o.hiInclusive
		default:
			out.hi, out.hiInclusive = r.hi, r.hiInclusive && o.hiInclusive
		}
	}

	if !out.loUnbounded && !out.hiUnbounded {
		c := out.lo.Compare(out.hi)
		if c > 0 || (c == 0 && !(out.loInclusive && out.hiInclusive)) {
			return nil, false
		}
	}
	return out, true
}
