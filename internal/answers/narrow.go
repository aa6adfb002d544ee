// Narrowing (spec §4.9): refine a binding's type along a branch using
// isinstance/issubclass, equality/identity against None or a literal,
// truthiness, and TypeGuard/TypeIs return annotations. Grounded on the
// teacher's internal/eval/guards_simple_test.go pattern-guard evaluation,
// generalized from runtime pattern matching to static control-flow
// narrowing.
package answers

import "github.com/gradualtype/tycheck/internal/pytype"

// narrowBranches returns the scope to use in the then-branch and the
// else-branch of an if/ternary. It does not type test itself; its callers
// do that for test's diagnostics.
func (s *Solver) narrowBranches(scope *Scope, test Expr) (thenScope, elseScope *Scope) {
	return s.applyNarrow(scope, test, true), s.applyNarrow(scope, test, false)
}

// applyNarrow returns a scope reflecting the bindings implied by test
// evaluating to positive.
func (s *Solver) applyNarrow(scope *Scope, test Expr, positive bool) *Scope {
	switch t := test.(type) {
	case Call:
		if (isCallNamed(t.Func, "isinstance") || isCallNamed(t.Func, "issubclass")) && len(t.Args) == 2 {
			if name, ok := t.Args[0].(Name); ok {
				target := s.ResolveAnnotation(scope, t.Args[1])
				cur, _ := scope.Lookup(name.Id)
				next := scope.Clone()
				if positive {
					next.Bind(name.Id, narrowIsinstancePositive(cur, target))
				} else {
					next.Bind(name.Id, narrowIsinstanceNegative(cur, target))
				}
				return next
			}
		}
		if g, ok := s.guardFor(t); ok && positive {
			next := scope.Clone()
			next.Bind(g.name, g.ty)
			return next
		}
		return scope
	case UnaryOp:
		if t.Op == "not" {
			return s.applyNarrow(scope, t.Operand, !positive)
		}
		return scope
	case BoolOp:
		if (t.Op == "and" && positive) || (t.Op == "or" && !positive) {
			cur := scope
			for _, v := range t.Values {
				cur = s.applyNarrow(cur, v, positive)
			}
			return cur
		}
		return scope
	case Compare:
		return s.applyCompareNarrow(scope, t, positive)
	case Name:
		cur, ok := scope.Lookup(t.Id)
		if !ok {
			return scope
		}
		next := scope.Clone()
		if positive {
			next.Bind(t.Id, pytype.Truthy(cur))
		} else {
			next.Bind(t.Id, pytype.Falsy(cur))
		}
		return next
	default:
		return scope
	}
}

func isCallNamed(f Expr, name string) bool {
	switch fn := f.(type) {
	case Name:
		return fn.Id == name
	case Attribute:
		return fn.Attr == name
	}
	return false
}

type guardTarget struct {
	name string
	ty   pytype.Type
}

// guardFor recognizes a direct call to a function previously recorded
// (stmt.go, on seeing a TypeGuard[T]/TypeIs[T] return annotation) as a
// narrowing guard over its first positional argument. Only the positive
// branch is narrowed; TypeIs additionally narrows the negative branch to the
// complement, which this solver does not attempt.
func (s *Solver) guardFor(call Call) (guardTarget, bool) {
	name, ok := call.Func.(Name)
	if !ok {
		return guardTarget{}, false
	}
	ty, ok := s.guardReturns[name.Id]
	if !ok || len(call.Args) == 0 {
		return guardTarget{}, false
	}
	argName, ok := call.Args[0].(Name)
	if !ok {
		return guardTarget{}, false
	}
	return guardTarget{name: argName.Id, ty: ty}, true
}

// narrowIsinstancePositive: within the true branch, cur is known to be an
// instance of target. For a union, keep only the members consistent with
// target; an unrelated current type is replaced by target outright (the
// runtime check is assumed correct).
func narrowIsinstancePositive(cur, target pytype.Type) pytype.Type {
	if u, ok := cur.(pytype.TUnion); ok {
		var kept []pytype.Type
		for _, p := range u.Parts {
			if _, isAny := p.(pytype.TAny); isAny {
				kept = append(kept, target)
				continue
			}
			if pytype.Equals(p, target) {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			return pytype.NormalizeUnion(kept...)
		}
	}
	return target
}

// narrowIsinstanceNegative drops target from a union, or leaves cur as-is
// when it cannot determine the complement (single non-union type equal to
// target narrows to Never; anything else is unaffected).
func narrowIsinstanceNegative(cur, target pytype.Type) pytype.Type {
	if u, ok := cur.(pytype.TUnion); ok {
		var kept []pytype.Type
		for _, p := range u.Parts {
			if !pytype.Equals(p, target) {
				kept = append(kept, p)
			}
		}
		return pytype.NormalizeUnion(kept...)
	}
	if pytype.Equals(cur, target) {
		return pytype.TNever{}
	}
	return cur
}

// applyCompareNarrow handles `x is None` / `x == None` / `x is not None` /
// `x != None`, and the same four forms against a bool, int, str or bytes
// literal, in either operand order. A match narrows x to the compared
// literal; a non-match drops that literal from x's union.
func (s *Solver) applyCompareNarrow(scope *Scope, c Compare, positive bool) *Scope {
	if len(c.Ops) != 1 || len(c.Comps) != 1 {
		return scope
	}
	name, isName := c.Left.(Name)
	rhs, rhsIsConst := c.Comps[0].(Constant)
	if !isName {
		if name2, ok := c.Comps[0].(Name); ok {
			if lhs, ok2 := c.Left.(Constant); ok2 {
				name, isName = name2, true
				rhs, rhsIsConst = lhs, true
			}
		}
	}
	if !isName || !rhsIsConst {
		return scope
	}
	lit := literalOf(rhs.Value)
	if _, ok := lit.(pytype.TLiteral); !ok {
		return scope
	}
	cur, ok := scope.Lookup(name.Id)
	if !ok {
		return scope
	}

	op := c.Ops[0]
	eqLike := op == "==" || op == "is"
	neLike := op == "!=" || op == "is not"

	next := scope.Clone()
	switch {
	case (eqLike && positive) || (neLike && !positive):
		next.Bind(name.Id, lit)
	case (neLike && positive) || (eqLike && !positive):
		if rhs.Value == nil {
			next.Bind(name.Id, removeNoneFromUnion(cur))
		} else {
			next.Bind(name.Id, narrowIsinstanceNegative(cur, lit))
		}
	default:
		return scope
	}
	return next
}

func removeNoneFromUnion(t pytype.Type) pytype.Type {
	u, ok := t.(pytype.TUnion)
	if !ok {
		return t
	}
	var kept []pytype.Type
	for _, p := range u.Parts {
		if lit, ok := p.(pytype.TLiteral); ok && lit.Value.IsNone {
			continue
		}
		kept = append(kept, p)
	}
	return pytype.NormalizeUnion(kept...)
}
