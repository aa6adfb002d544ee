package pytype

import "fmt"

// Equals is structural equality used for union deduplication and other
// "same type" comparisons that are not the full subtype lattice. Interned
// identities (classes, type vars, param specs, typed dicts) compare by
// pointer identity via their String() form, per spec §3 ("Interned values
// compared by pointer are equal iff they are the same allocation").
func Equals(a, b Type) bool {
	switch at := a.(type) {
	case TAny:
		bt, ok := b.(TAny)
		return ok && at.Reason == bt.Reason
	case TNever:
		_, ok := b.(TNever)
		return ok
	case TSelf:
		_, ok := b.(TSelf)
		return ok
	case TModule:
		bt, ok := b.(TModule)
		return ok && at.Name == bt.Name
	case TLiteral:
		bt, ok := b.(TLiteral)
		return ok && at.Value.Equals(bt.Value)
	case TClass:
		bt, ok := b.(TClass)
		if !ok || !classIdentity(at.Class, bt.Class) || len(at.Args) != len(bt.Args) {
			return false
		}
		for i := range at.Args {
			if !Equals(at.Args[i], bt.Args[i]) {
				return false
			}
		}
		return true
	case TTuple:
		bt, ok := b.(TTuple)
		if !ok || at.Unbounded != bt.Unbounded || len(at.Elems) != len(bt.Elems) {
			return false
		}
		for i := range at.Elems {
			if !Equals(at.Elems[i], bt.Elems[i]) {
				return false
			}
		}
		return true
	case TCallable:
		bt, ok := b.(TCallable)
		if !ok || len(at.Params) != len(bt.Params) || at.IsAsync != bt.IsAsync {
			return false
		}
		for i := range at.Params {
			if at.Params[i].Kind != bt.Params[i].Kind || !Equals(at.Params[i].Type, bt.Params[i].Type) {
				return false
			}
		}
		return Equals(at.Return, bt.Return)
	case TBoundMethod:
		bt, ok := b.(TBoundMethod)
		return ok && Equals(at.Instance, bt.Instance) && Equals(at.Underlying, bt.Underlying)
	case TUnion:
		bt, ok := b.(TUnion)
		if !ok || len(at.Parts) != len(bt.Parts) {
			return false
		}
		used := make([]bool, len(bt.Parts))
		for _, p := range at.Parts {
			found := false
			for j, q := range bt.Parts {
				if !used[j] && Equals(p, q) {
					used[j] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case TIntersection:
		bt, ok := b.(TIntersection)
		if !ok || len(at.Parts) != len(bt.Parts) {
			return false
		}
		for i := range at.Parts {
			if !Equals(at.Parts[i], bt.Parts[i]) {
				return false
			}
		}
		return true
	case TTypeVar:
		bt, ok := b.(TTypeVar)
		return ok && at.Ref.Equals(bt.Ref)
	case TParamSpec:
		bt, ok := b.(TParamSpec)
		return ok && at.Ref.Equals(bt.Ref)
	case TTypeVarTuple:
		bt, ok := b.(TTypeVarTuple)
		return ok && at.Ref.Equals(bt.Ref)
	case TDecoration:
		bt, ok := b.(TDecoration)
		return ok && at.Kind == bt.Kind && Equals(at.Inner, bt.Inner)
	case TTypedDict:
		bt, ok := b.(TTypedDict)
		return ok && at.Ref.Equals(bt.Ref)
	case TSpecialForm:
		bt, ok := b.(TSpecialForm)
		return ok && at.Kind == bt.Kind
	default:
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
}
