/*
Package dep models dependency edges: the scope vocabulary and its
inheritance rules, exclusion-pattern sets, and a compact attribute Type
attached to each collected edge (§3, §6).
*/
package dep

// Scope tags a dependency's participation in a build (§6).
type Scope string

const (
	Compile     Scope = "compile"
	Provided    Scope = "provided"
	Runtime     Scope = "runtime"
	Test        Scope = "test"
	System      Scope = "system"
	CompileOnly Scope = "compileOnly"
	TestRuntime Scope = "testRuntime"
	TestOnly    Scope = "testOnly"
	None        Scope = "none"
)

// Derive computes the effective scope of a dependency edge given the
// scope in effect for its parent and the scope the child declared for
// itself, per the inheritance table in §6.
//
// parent == "" is treated as Compile, the scope of a direct (root)
// dependency.
func Derive(parent, child Scope) Scope {
	if parent == "" {
		parent = Compile
	}
	if child == "" {
		child = Compile
	}

	switch parent {
	case Compile:
		switch child {
		case Compile:
			return Compile
		case Runtime:
			return Runtime
		case Provided:
			return Provided
		case Test:
			return Test
		}
	case Runtime:
		switch child {
		case Compile:
			return Runtime
		case Runtime:
			return Runtime
		}
	case Provided:
		return Provided
	case Test:
		return Test
	case System:
		// A system-scoped edge never widens: the subtree under a system
		// dependency is still resolved (system dependencies carry no
		// remote repository lookups of their own, but Maven does allow
		// them to declare further dependencies), and every edge beneath
		// it stays system-scoped regardless of what the child declares
		// (SPEC_FULL §4 Open Question 2).
		return System
	}
	// compileOnly/testRuntime/testOnly and any other parent scope do not
	// propagate transitively at all: Maven-family build tools treat them
	// as leaves for the purpose of transitive scope derivation.
	return None
}

// IsTransitive reports whether a dependency of this scope should have its
// own transitive dependencies collected at all. compileOnly/testRuntime/
// testOnly are leaves (Derive maps every child under them to "none");
// "none" marks an edge pruned by an exclusion or filter.
func (s Scope) IsTransitive() bool {
	switch s {
	case CompileOnly, TestRuntime, TestOnly, None:
		return false
	default:
		return true
	}
}
