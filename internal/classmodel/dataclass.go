package classmodel

import "github.com/gradualtype/tycheck/internal/pytype"

// CollectFields gathers the declared fields of every class in cls's MRO
// (cls itself and each ancestor, dataclass or not) — preserving first-declared order and
// overriding types on duplicate names (spec §4.2 step 5). The result is in
// MRO order, ancestors first, matching §4.5's dataclass field ordering.
func CollectFields(cls ClassRef) []*Field {
	mro, _ := ComputeMRO(cls)
	// mro[0] is cls itself, most-derived first; reverse to ancestors-first.
	order := make([]ClassRef, len(mro))
	for i, c := range mro {
		order[len(mro)-1-i] = c
	}

	seen := map[string]int{} // name -> index into out
	var out []*Field
	for _, c := range order {
		for _, f := range c.Get().OrderedFields() {
			cp := *f
			cp.DeclaredIn = c.Get().QName.String()
			if idx, ok := seen[f.Name]; ok {
				// Duplicate name: override type, keep original position.
				out[idx] = &cp
				continue
			}
			seen[f.Name] = len(out)
			out = append(out, &cp)
		}
	}
	return out
}

// DataclassConstructorFields synthesizes the @dataclass constructor
// parameter list per spec §4.5: ancestor dataclass fields (in MRO order,
// ancestors first) followed by the class's own fields. An intermediate
// class without @dataclass contributes no parameters of its own (but its
// fields are still visible to a later @dataclass descendant that
// re-declares @dataclass, because CollectFields already folded them in by
// name). When @dataclass reappears on a descendant, re-declaring a name
// changes its type without reordering (handled by CollectFields' override
// semantics); field order is therefore exactly the order CollectFields
// returns, restricted to classes in the MRO that are themselves dataclasses
// plus cls.
func DataclassConstructorFields(cls ClassRef) []*Field {
	mro, _ := ComputeMRO(cls)
	dataclassAncestors := map[string]bool{}
	for _, c := range mro {
		if c.Get().IsDataclass {
			dataclassAncestors[c.String()] = true
		}
	}

	all := CollectFields(cls)
	// Only fields declared in a class that is itself (part of) the
	// dataclass chain contribute a constructor parameter; a field declared
	// on a plain (non-dataclass) intermediate class is inherited data but
	// not itself a synthesized-constructor parameter unless some dataclass
	// ancestor or cls re-declares it. Since CollectFields already keeps only
	// the first position but overrides the type from later (more derived)
	// declarations, we approximate "declared in a dataclass" by name: a
	// field counts if any dataclass in the MRO declares a field of that name.
	declaredInDataclass := map[string]bool{}
	for _, c := range mro {
		if !c.Get().IsDataclass {
			continue
		}
		for _, f := range c.Get().OrderedFields() {
			declaredInDataclass[f.Name] = true
		}
	}

	var out []*Field
	for _, f := range all {
		if declaredInDataclass[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// SynthesizedCallable builds the type-level constructor signature for a
// dataclass, typed-dict, named-tuple, or enum class, per spec §4.2 step 6.
func SynthesizedCallable(cls ClassRef, selfType pytype.Type) pytype.TCallable {
	data := cls.Get()
	switch {
	case data.IsDataclass:
		fields := DataclassConstructorFields(cls)
		params := make([]pytype.CallableParam, len(fields))
		for i, f := range fields {
			kind := pytype.CPPositionalOrKeyword
			if data.DataclassKwOnly {
				kind = pytype.CPKeywordOnly
			}
			params[i] = pytype.CallableParam{Name: f.Name, Type: f.Type, Kind: kind, HasDefault: f.HasDefault}
		}
		return pytype.TCallable{Params: params, Return: selfType}
	case data.IsTypedDict:
		return TypedDictConstructor(cls, selfType)
	case data.IsNamedTuple:
		fields := data.OrderedFields()
		params := make([]pytype.CallableParam, len(fields))
		for i, f := range fields {
			params[i] = pytype.CallableParam{Name: f.Name, Type: f.Type, Kind: pytype.CPPositionalOrKeyword}
		}
		return pytype.TCallable{Params: params, Return: selfType}
	default:
		return pytype.TCallable{Return: selfType}
	}
}
