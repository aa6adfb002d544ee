package classmodel

import "fmt"

// Issue is a class-resolution problem, translated by internal/answers into a
// diag.Diagnostic with the appropriate taxonomy code (BadProtocolBase,
// InvalidGenericArguments, InvalidBaseClass, AmbiguousMRO).
type Issue struct {
	Code    string
	Message string
}

// ValidateBases implements spec §4.2 step 2: if Protocol appears in the base
// list, every other base must itself be a protocol (or object).
func ValidateBases(cls ClassRef) []Issue {
	data := cls.Get()
	hasProtocolBase := false
	for _, b := range data.Bases {
		if b.Kind == BaseProtocol {
			hasProtocolBase = true
		}
	}
	if !hasProtocolBase {
		return nil
	}
	var issues []Issue
	for _, b := range data.Bases {
		if b.Kind == BaseProtocol || b.Kind == BaseGeneric {
			continue
		}
		if b.Kind == BaseOrdinary && !b.Class.IsZero() {
			if b.Class.Get().IsProtocol || isObjectClass(b.Class) {
				continue
			}
			issues = append(issues, Issue{
				Code:    "BadProtocolBase",
				Message: fmt.Sprintf("class %s inherits Protocol, so every other base must also be a protocol; %s is not", data.QName, b.Class.Get().QName),
			})
		}
	}
	return issues
}

func isObjectClass(c ClassRef) bool {
	return c.Get().QName.Local == "object" && len(c.Get().Bases) == 0
}

// ValidateTypeParams implements spec §4.2 step 3: type parameters come from
// PEP-695 syntax, or from a nonempty `Generic[...]`/`Protocol[...]` base; an
// empty `Generic[...]` is an error.
func ValidateTypeParams(cls ClassRef) []Issue {
	data := cls.Get()
	var issues []Issue
	for _, b := range data.Bases {
		if b.Kind == BaseGeneric && len(b.Args) == 0 {
			issues = append(issues, Issue{
				Code:    "InvalidGenericArguments",
				Message: fmt.Sprintf("class %s: Generic[...] base must not be empty", data.QName),
			})
		}
	}
	return issues
}

// Instances of a class must supply exactly cls.tparams().len() type
// arguments, or Any is substituted for all of them (spec §3 invariant).
func ExpectedArity(cls ClassRef) int {
	return len(cls.Get().TypeParams)
}
