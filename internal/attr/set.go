/*
Package attr provides a compact representation for a set of keyed,
optionally value-less attributes.

It backs dep.Type (dependency edge attributes: scope, optional,
exclusions), its only importer in this module. Keeping it separate from
its caller keeps the comparison and cloning bit-twiddling out of dep.
*/
package attr

import (
	"math/bits"
	"strings"
)

// Set is a collection of attributes: a Mask of flag-only bits plus a sparse
// map of small integer keys to string values.
//
// The zero value of Set is an empty, default set.
type Set struct {
	// Mask holds flag attributes whose mere presence is the signal, no
	// value attached (e.g. "optional", "test-scope").
	Mask Mask

	attrs map[uint8]string

	// attrBits tracks which keys are present in attrs, so Compare and
	// ForEachAttr don't need to sort a map.
	attrBits uint64
}

// Mask is a bitmask of flag attributes. All eight bits may be set; their
// meaning is defined by the caller.
type Mask uint8

// SetAttr adds a valued attribute to the Set, replacing any existing one
// with the same key. Keys >= 64 are not supported and will panic.
func (s *Set) SetAttr(key uint8, value string) {
	if key >= 64 {
		panic("attr: key too large")
	}
	if s.attrs == nil {
		s.attrs = make(map[uint8]string)
	}
	s.attrs[key] = value
	s.attrBits |= 1 << uint(key)
}

// GetAttr returns the value for key, if present.
func (s Set) GetAttr(key uint8) (value string, ok bool) {
	value, ok = s.attrs[key]
	return
}

// Clone returns an independent copy of the Set.
func (s Set) Clone() Set {
	c := Set{
		Mask:     s.Mask,
		attrs:    make(map[uint8]string, len(s.attrs)),
		attrBits: s.attrBits,
	}
	for k, v := range s.attrs {
		c.attrs[k] = v
	}
	return c
}

// IsRegular reports whether the Set equals its zero value.
func (s Set) IsRegular() bool {
	return s.Mask == 0 && len(s.attrs) == 0
}

// Compare returns -1, 0 or 1 depending on whether s sorts before, equal
// to, or after other. Comparison is by Mask, then by the set of present
// keys, then by each value in ascending key order.
func (s Set) Compare(other Set) int {
	if s.Mask < other.Mask {
		return -1
	} else if s.Mask > other.Mask {
		return 1
	}
	if s.attrBits < other.attrBits {
		return -1
	} else if s.attrBits > other.attrBits {
		return 1
	}
	for rem := s.attrBits; rem != 0; {
		key := uint8(bits.TrailingZeros64(rem))
		rem &^= 1 << uint(key)
		if c := strings.Compare(s.attrs[key], other.attrs[key]); c != 0 {
			return c
		}
	}
	return 0
}

// ForEachAttr calls f for each valued attribute in ascending key order.
func (s Set) ForEachAttr(f func(key uint8, value string)) {
	for rem := s.attrBits; rem != 0; {
		key := uint8(bits.TrailingZeros64(rem))
		rem &^= 1 << uint(key)
		f(key, s.attrs[key])
	}
}
