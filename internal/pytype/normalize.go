package pytype

// NormalizeUnion flattens nested unions, drops Never members, deduplicates
// structurally-equal members, and collapses a single remaining member to
// that member directly. Idempotent: NormalizeUnion(NormalizeUnion(u)) ==
// NormalizeUnion(u), per spec §8.
func NormalizeUnion(parts ...Type) Type {
	var flat []Type
	var flatten func(Type)
	flatten = func(t Type) {
		switch u := t.(type) {
		case TUnion:
			for _, p := range u.Parts {
				flatten(p)
			}
		case TNever:
			// Never is the identity element for union; drop it.
		default:
			flat = append(flat, t)
		}
	}
	for _, p := range parts {
		flatten(p)
	}

	var deduped []Type
	for _, t := range flat {
		dup := false
		for _, d := range deduped {
			if Equals(t, d) {
				dup = true
				break
			}
		}
		if !dup {
			deduped = append(deduped, t)
		}
	}

	if len(deduped) == 0 {
		return TNever{}
	}
	if len(deduped) == 1 {
		return deduped[0]
	}
	return TUnion{Parts: deduped}
}

// Join computes the structural union of a and b for control-flow merge
// points (spec §4.9: "After a branch, types are joined by structural union,
// then simplified").
func Join(a, b Type) Type {
	return NormalizeUnion(a, b)
}

// Widen returns the nominal widening of a Literal type; non-literal types
// are returned unchanged. classResolver looks up the TClass for a widened
// constructor name (e.g. "int" -> the interned `int` class); it is supplied
// by the caller (internal/answers) to avoid an import cycle on classmodel.
func Widen(t Type, classResolver func(name string) Type) Type {
	lit, ok := t.(TLiteral)
	if !ok {
		return t
	}
	return classResolver(lit.Value.WidenedConstructorName())
}

// IsTruthyPossible / IsFalsyPossible decide, for constant folding and
// narrowing (§4.8, §4.9), whether a type's value could be truthy/falsy.
// Literals are decisive; everything else is assumed capable of both unless
// it is NoneType (always falsy) or a non-empty-only literal container.
func IsTruthyPossible(t Type) bool {
	if lit, ok := t.(TLiteral); ok {
		return literalTruthy(lit.Value)
	}
	if _, ok := t.(TNever); ok {
		return false
	}
	return true
}

func IsFalsyPossible(t Type) bool {
	if lit, ok := t.(TLiteral); ok {
		return !literalTruthy(lit.Value)
	}
	if _, ok := t.(TNever); ok {
		return false
	}
	return true
}

func literalTruthy(v LiteralValue) bool {
	switch {
	case v.Bool != nil:
		return *v.Bool
	case v.Int != nil:
		return *v.Int != 0
	case v.Str != nil:
		return *v.Str != ""
	case v.Bytes != nil:
		return len(v.Bytes) != 0
	case v.IsNone:
		return false
	case v.Enum != nil:
		return true
	}
	return true
}

// Truthy removes the falsy facet of t's type, as used by `a or b` (§4.8).
// For a union, drops members that cannot be truthy. For a single falsy-only
// literal, collapses to Never (the whole expression's truthy facet is
// empty). Non-literal, non-union types pass through unchanged since their
// truthy/falsy split is not representable in the type alone.
func Truthy(t Type) Type {
	if u, ok := t.(TUnion); ok {
		var kept []Type
		for _, p := range u.Parts {
			if IsTruthyPossible(p) {
				kept = append(kept, p)
			}
		}
		return NormalizeUnion(kept...)
	}
	if !IsTruthyPossible(t) {
		return TNever{}
	}
	return t
}

// Falsy is the dual of Truthy, used by `a and b`.
func Falsy(t Type) Type {
	if u, ok := t.(TUnion); ok {
		var kept []Type
		for _, p := range u.Parts {
			if IsFalsyPossible(p) {
				kept = append(kept, p)
			}
		}
		return NormalizeUnion(kept...)
	}
	if !IsFalsyPossible(t) {
		return TNever{}
	}
	return t
}
