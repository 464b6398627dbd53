package dep

import (
	"fmt"

	"github.com/artifactgraph/resolve/internal/attr"
)

// attrKey indexes the valued attributes stored in a Type's attr.Set.
type attrKey = uint8

const (
	attrScope attrKey = iota
	attrManagedOrigin
	attrExclusions
)

// mask bits for flag-only attributes.
const (
	maskOptional attr.Mask = 1 << iota
	maskSelector
)

// Type carries the attributes of a single dependency graph edge: its
// scope, whether it is optional, its managed-dependency origin (if any),
// the exclusions declared on that specific edge, and whether it is the
// "selector" edge used to build the creator tree for diagnostics (§4.G,
// mirroring the teacher's dep.Type attribute bitset).
//
// The zero value is a regular, unattributed Type.
type Type struct {
	set attr.Set
}

// Clone returns an independent copy of t.
func (t Type) Clone() Type { return Type{set: t.set.Clone()} }

// IsRegular reports whether t carries no attributes at all.
func (t Type) IsRegular() bool { return t.set.IsRegular() }

// Compare orders Types for stable edge sorting.
func (t Type) Compare(o Type) int { return t.set.Compare(o.set) }

func (t *Type) SetScope(s Scope) { t.set.SetAttr(attrScope, string(s)) }

func (t Type) Scope() Scope {
	v, ok := t.set.GetAttr(attrScope)
	if !ok {
		return Compile
	}
	return Scope(v)
}

func (t *Type) SetOptional(v bool) {
	if v {
		t.set.Mask |= maskOptional
	} else {
		t.set.Mask &^= maskOptional
	}
}

func (t Type) Optional() bool { return t.set.Mask&maskOptional != 0 }

func (t *Type) SetSelector(v bool) {
	if v {
		t.set.Mask |= maskSelector
	} else {
		t.set.Mask &^= maskSelector
	}
}

func (t Type) IsSelector() bool { return t.set.Mask&maskSelector != 0 }

// ManagedOrigin indicates where a managed-dependency override for this
// edge came from: "management", "parent", or "import" (§6/maven
// ProcessDependencies import chain).
type ManagedOrigin string

const (
	OriginNone       ManagedOrigin = ""
	OriginManagement ManagedOrigin = "management"
	OriginParent     ManagedOrigin = "parent"
	OriginImport     ManagedOrigin = "import"
)

func (t *Type) SetManagedOrigin(o ManagedOrigin) {
	if o == OriginNone {
		return
	}
	t.set.SetAttr(attrManagedOrigin, string(o))
}

func (t Type) ManagedOrigin() ManagedOrigin {
	v, _ := t.set.GetAttr(attrManagedOrigin)
	return ManagedOrigin(v)
}

func (t *Type) SetExclusions(e ExclusionSet) {
	if e.IsEmpty() {
		return
	}
	t.set.SetAttr(attrExclusions, e.String())
}

func (t Type) Exclusions() ExclusionSet {
	v, ok := t.set.GetAttr(attrExclusions)
	if !ok {
		return ExclusionSet{}
	}
	return ParseExclusions(v)
}

func (t Type) String() string {
	s := fmt.Sprintf("scope=%s", t.Scope())
	if t.Optional() {
		s += " optional"
	}
	if o := t.ManagedOrigin(); o != OriginNone {
		s += " origin=" + string(o)
	}
	if t.IsSelector() {
		s += " selector"
	}
	return s
}
