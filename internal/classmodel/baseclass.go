package classmodel

import "github.com/gradualtype/tycheck/internal/pytype"

// BaseKind discriminates BaseClass variants (spec §3).
type BaseKind int

const (
	BaseNamedTuple BaseKind = iota
	BaseTypedDict
	BaseGeneric
	BaseProtocol
	BaseOrdinary
)

// BaseClass captures a base expression prior to MRO linearization. `NamedTuple`,
// `TypedDict`, `Generic[...]`, and `Protocol[...]` are special syntactic
// forms the solver recognizes before they are resolved to an ordinary
// Type(t) base.
type BaseClass struct {
	Kind BaseKind
	// Args holds the bracketed type arguments for Generic/Protocol bases.
	Args []pytype.Type
	// Class is the resolved class for BaseOrdinary (and for
	// Generic/Protocol once their class identity — typing.Generic /
	// typing.Protocol themselves — is also tracked for MRO purposes).
	Class ClassRef
	// Type is set for BaseOrdinary when the base type is not itself a
	// plain class reference (e.g. a generic alias); kept for display.
	Type pytype.Type
}

func (b BaseClass) String() string {
	switch b.Kind {
	case BaseNamedTuple:
		return "NamedTuple"
	case BaseTypedDict:
		return "TypedDict"
	case BaseGeneric:
		return "Generic[...]"
	case BaseProtocol:
		return "Protocol[...]"
	default:
		if b.Type != nil {
			return b.Type.String()
		}
		return "<base>"
	}
}
