package pytype

// ClassEnv is the hook the type algebra uses to ask the class model (see
// internal/classmodel) questions about nominal hierarchy and protocol
// structure, without pytype importing classmodel (which imports pytype for
// field/base types — the dependency only runs one way).
type ClassEnv interface {
	// IsNominalSubclass reports whether sub's MRO contains sup.
	IsNominalSubclass(sub, sup any) bool
	// IsProtocol reports whether cls is declared as a Protocol.
	IsProtocol(cls any) bool
	// ProtocolAttributes returns the attributes a protocol class requires,
	// keyed by name, with whether each is read-only.
	ProtocolAttributes(cls any) map[string]ProtocolAttr
	// Attribute looks up an attribute's type on cls (following MRO), and
	// whether it is declared read-only (e.g. via a read-only property).
	Attribute(cls any, name string) (ty Type, readOnly bool, ok bool)
}

// ProtocolAttr is one required attribute of a Protocol.
type ProtocolAttr struct {
	Type     Type
	ReadOnly bool
}

// Subtype reports whether a <: b under env. It implements spec §4.1:
//   - Never <: anything; anything <: Any and Any <: anything (both directions,
//     "bidirectionally assignable but recorded" — recording is the caller's
//     job, e.g. internal/answers when it wants to flag implicit Any use).
//   - Literal <: its own widened type (and further up that type's MRO).
//   - Union distributes: `A|B <: C` iff both `A <: C` and `B <: C`; `C <: A|B`
//     iff `C <: A` or `C <: B`.
//   - Callable is contravariant in parameters, covariant in return; keyword
//     parameter names must match for keyword-only parameters only.
//   - Protocols are structural; ordinary classes are nominal via MRO.
func Subtype(a, b Type, env ClassEnv) bool {
	if _, ok := b.(TAny); ok {
		return true
	}
	if _, ok := a.(TAny); ok {
		return true
	}
	if _, ok := a.(TNever); ok {
		return true
	}
	if ua, ok := a.(TUnion); ok {
		for _, p := range ua.Parts {
			if !Subtype(p, b, env) {
				return false
			}
		}
		return true
	}
	if ub, ok := b.(TUnion); ok {
		for _, p := range ub.Parts {
			if Subtype(a, p, env) {
				return true
			}
		}
		return false
	}
	if lit, ok := a.(TLiteral); ok {
		if litB, ok := b.(TLiteral); ok {
			return lit.Value.Equals(litB.Value)
		}
		// Literal <: its widened nominal type: internal/answers resolves the
		// widened class (it holds the class registry) and calls
		// Subtype(Widen(lit, resolver), b, env) itself before falling back
		// here, so by this point a bare a-is-literal/b-is-not-literal
		// comparison can only fail — unless b is Any/Never/Union, already
		// handled above.
	}
	if Equals(a, b) {
		return true
	}
	switch bt := b.(type) {
	case TClass:
		if env != nil && env.IsProtocol(bt.Class) {
			return structuralSatisfies(a, bt, env)
		}
		return nominalSubtype(a, bt, env)
	case TCallable:
		at, ok := a.(TCallable)
		if !ok {
			if bm, ok := a.(TBoundMethod); ok {
				at = bm.Underlying
			} else {
				return false
			}
		}
		return callableSubtype(at, bt, env)
	case TTuple:
		at, ok := a.(TTuple)
		if !ok || at.Unbounded != bt.Unbounded || len(at.Elems) != len(bt.Elems) {
			return false
		}
		for i := range at.Elems {
			if !Subtype(at.Elems[i], bt.Elems[i], env) {
				return false
			}
		}
		return true
	case TIntersection:
		for _, p := range bt.Parts {
			if !Subtype(a, p, env) {
				return false
			}
		}
		return true
	}
	return false
}

func nominalSubtype(a Type, b TClass, env ClassEnv) bool {
	at, ok := a.(TClass)
	if !ok {
		return false
	}
	if env == nil {
		return classIdentity(at.Class, b.Class)
	}
	return classIdentity(at.Class, b.Class) || env.IsNominalSubclass(at.Class, b.Class)
}

func structuralSatisfies(a Type, protocol TClass, env ClassEnv) bool {
	if env == nil {
		return false
	}
	required := env.ProtocolAttributes(protocol.Class)
	aClass, isClass := a.(TClass)
	for name, want := range required {
		var have Type
		var haveReadOnly bool
		var ok bool
		if isClass {
			have, haveReadOnly, ok = env.Attribute(aClass.Class, name)
		}
		if !ok {
			return false
		}
		if !Subtype(have, want.Type, env) {
			return false
		}
		if !want.ReadOnly {
			// Read-write protocol attribute: candidate must also satisfy the
			// reverse direction (invariance) and must not itself be
			// read-only-only (a property can't satisfy a read-write slot).
			if haveReadOnly {
				return false
			}
			if !Subtype(want.Type, have, env) {
				return false
			}
		}
	}
	return true
}

func callableSubtype(sub, sup TCallable, env ClassEnv) bool {
	if !Subtype(sub.Return, sup.Return, env) {
		return false
	}
	// Contravariance in parameters: sup's params must each be acceptable
	// where sub declares a parameter, i.e. sup.Param <: sub.Param.
	si, pi := 0, 0
	for pi < len(sup.Params) {
		supP := sup.Params[pi]
		if supP.Kind == CPKwArgs || supP.Kind == CPVarArgs {
			pi++
			continue
		}
		if si >= len(sub.Params) {
			return false
		}
		subP := sub.Params[si]
		if subP.Kind == CPKeywordOnly || supP.Kind == CPKeywordOnly {
			if subP.Name != supP.Name {
				return false
			}
		}
		if !Subtype(supP.Type, subP.Type, env) {
			return false
		}
		si++
		pi++
	}
	return true
}
