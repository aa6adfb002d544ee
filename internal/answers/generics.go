package answers

import "github.com/gradualtype/tycheck/internal/pytype"

// constraint accumulates the lower and upper bounds a single call's argument
// types impose on one free type variable, per spec §4.10: "generic inference
// uses local constraint generation with variance-aware lower/upper bounds".
type constraint struct {
	lower []pytype.Type // from covariant (parameter) positions: var >: argType
	upper []pytype.Type // from contravariant positions: var <: argType
}

// InferGenericCall solves a generic callable's free type variables against a
// concrete argument list and returns the instantiated (fully substituted)
// signature. Underdetermined variables (no lower or upper bound) default to
// Any and are reported via the returned names slice so the caller can emit
// UnboundTypeVar.
func InferGenericCall(sig pytype.TCallable, argTypes []pytype.Type, env pytype.ClassEnv) (pytype.TCallable, []string) {
	freeVars := map[*pytype.TypeVarData]*constraint{}
	var order []pytype.TTypeVar
	registerVar := func(t pytype.Type) {
		if tv, ok := t.(pytype.TTypeVar); ok {
			if _, seen := freeVars[tv.Ref.Get()]; !seen {
				freeVars[tv.Ref.Get()] = &constraint{}
				order = append(order, tv)
			}
		}
	}
	for _, p := range sig.Params {
		p.Type.Visit(registerVar)
		registerVar(p.Type)
	}
	sig.Return.Visit(registerVar)
	registerVar(sig.Return)

	positional := positionalParams(sig)
	for i, at := range argTypes {
		if i >= len(positional) {
			break
		}
		generateConstraints(positional[i].Type, at, freeVars)
	}

	subst := pytype.NewSubstitution()
	var underdetermined []string
	for _, tv := range order {
		c := freeVars[tv.Ref.Get()]
		solved := solveConstraint(c, tv.Ref.Get().Variance, env)
		if solved == nil {
			underdetermined = append(underdetermined, tv.Ref.Get().Name)
			solved = pytype.TAny{Reason: pytype.AnyError}
		}
		subst.Bind(tv, solved)
	}

	return pytype.Subst(sig, subst).(pytype.TCallable), underdetermined
}

// generateConstraints walks paramType/argType in lockstep, recording a lower
// bound (argType) wherever a bare type variable occupies a covariant
// (parameter-read, i.e. directly-typed) position. Nested positions under
// TCallable parameters are contravariant and recorded as upper bounds
// instead, matching the variance flip the subtype relation itself uses.
func generateConstraints(paramType, argType pytype.Type, freeVars map[*pytype.TypeVarData]*constraint) {
	switch pt := paramType.(type) {
	case pytype.TTypeVar:
		if c, ok := freeVars[pt.Ref.Get()]; ok {
			c.lower = append(c.lower, argType)
		}
	case pytype.TClass:
		at, ok := argType.(pytype.TClass)
		if !ok || len(at.Args) != len(pt.Args) {
			return
		}
		for i := range pt.Args {
			generateConstraints(pt.Args[i], at.Args[i], freeVars)
		}
	case pytype.TCallable:
		at, ok := argType.(pytype.TCallable)
		if !ok || len(at.Params) != len(pt.Params) {
			return
		}
		for i := range pt.Params {
			// Parameter position of a nested callable is contravariant.
			if tv, ok := pt.Params[i].Type.(pytype.TTypeVar); ok {
				if c, ok := freeVars[tv.Ref.Get()]; ok {
					c.upper = append(c.upper, at.Params[i].Type)
				}
			} else {
				generateConstraints(pt.Params[i].Type, at.Params[i].Type, freeVars)
			}
		}
		generateConstraints(pt.Return, at.Return, freeVars)
	case pytype.TUnion:
		for _, part := range pt.Parts {
			if tv, ok := part.(pytype.TTypeVar); ok {
				if c, ok := freeVars[tv.Ref.Get()]; ok {
					c.lower = append(c.lower, argType)
				}
			}
		}
	}
}

// solveConstraint resolves one type variable's accumulated bounds: join the
// lower bounds (covariant position: the variable must be at least as wide as
// every observed argument), or meet the upper bounds (contravariant
// position) when there are no lower bounds. Returns nil if nothing
// constrains the variable at all.
func solveConstraint(c *constraint, variance pytype.Variance, env pytype.ClassEnv) pytype.Type {
	if len(c.lower) > 0 {
		result := c.lower[0]
		for _, t := range c.lower[1:] {
			result = pytype.Join(result, t)
		}
		return result
	}
	if len(c.upper) > 0 {
		// No direct observations, only contravariant bounds from nested
		// callable parameters: meet them by keeping the narrowest bound; two
		// bounds neither of which is a subtype of the other meet as their
		// intersection.
		result := c.upper[0]
		for _, t := range c.upper[1:] {
			switch {
			case pytype.Subtype(t, result, env):
				result = t
			case !pytype.Subtype(result, t, env):
				result = pytype.TIntersection{Parts: []pytype.Type{result, t}}
			}
		}
		return result
	}
	return nil
}
