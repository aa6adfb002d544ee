package answers

import (
	"github.com/gradualtype/tycheck/internal/classmodel"
	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/pytype"
)

func (s *Solver) typeCall(scope *Scope, call Call) pytype.Type {
	calleeT := s.TypeOfExpr(scope, call.Func)
	argTypes := make([]pytype.Type, len(call.Args))
	for i, a := range call.Args {
		argTypes[i] = s.TypeOfExpr(scope, a)
	}
	for _, kw := range call.Keywords {
		s.TypeOfExpr(scope, kw.Value)
	}

	if name, ok := call.Func.(Name); ok {
		if overloads := s.overloadSets[name.Id]; len(overloads) > 1 {
			sig, mismatches, ok := ResolveOverload(overloads, argTypes, s.widenLiteral, s.Env)
			if !ok {
				s.errorf(diag.AmbiguousOverload, call.Range(), "no overload of %q matches the given arguments: %v", name.Id, mismatches)
			}
			return sig.Return
		}
	}

	switch callee := calleeT.(type) {
	case pytype.TAny:
		return callee
	case pytype.TClass:
		return s.typeClassCall(call, callee, argTypes)
	case pytype.TCallable:
		return s.typeCallableCall(call, callee, argTypes)
	case pytype.TBoundMethod:
		return s.typeBoundMethodCall(call, callee, argTypes)
	default:
		s.errorf(diag.ExpectedCallable, call.Range(), "%s is not callable", calleeT)
		return anyError()
	}
}

func (s *Solver) typeClassCall(call Call, callee pytype.TClass, argTypes []pytype.Type) pytype.Type {
	ref, ok := callee.Class.(classmodel.ClassRef)
	if !ok {
		return anyError()
	}
	data := ref.Get()
	if data.IsDataclass || data.IsTypedDict || data.IsNamedTuple {
		ctor := classmodel.SynthesizedCallable(ref, callee)
		s.checkArgs(call, ctor, argTypes)
		return callee
	}
	if init, _, ok := s.Env.Attribute(ref, "__init__"); ok {
		if initCallable, ok := init.(pytype.TCallable); ok {
			bound := stripSelf(initCallable)
			s.checkArgs(call, bound, argTypes)
		}
	}
	return callee
}

func (s *Solver) typeCallableCall(call Call, callee pytype.TCallable, argTypes []pytype.Type) pytype.Type {
	if freeVars := pytype.FreeTypeVars(callee); len(freeVars) > 0 {
		instantiated, underdetermined := InferGenericCall(callee, argTypes, s.Env)
		for _, name := range underdetermined {
			s.errorf(diag.UnboundTypeVar, call.Range(), "cannot infer type variable %q", name)
		}
		s.checkArgs(call, instantiated, argTypes)
		return instantiated.Return
	}
	s.checkArgs(call, callee, argTypes)
	return callee.Return
}

func (s *Solver) typeBoundMethodCall(call Call, callee pytype.TBoundMethod, argTypes []pytype.Type) pytype.Type {
	bound := stripSelf(callee.Underlying)
	return s.typeCallableCall(call, bound, argTypes)
}

func stripSelf(c pytype.TCallable) pytype.TCallable {
	if len(c.Params) == 0 {
		return c
	}
	c.Params = c.Params[1:]
	return c
}

func (s *Solver) checkArgs(call Call, sig pytype.TCallable, argTypes []pytype.Type) {
	positional := positionalParams(sig)
	for i, at := range argTypes {
		if i >= len(positional) {
			s.errorf(diag.ArgumentMismatch, call.Range(), "too many positional arguments")
			return
		}
		if !s.subtype(at, positional[i].Type) {
			s.errorf(diag.ArgumentMismatch, call.Range(), "argument %d: expected %s, got %s", i+1, positional[i].Type, at)
		}
	}
	for i := len(argTypes); i < len(positional); i++ {
		if !positional[i].HasDefault {
			hasKeyword := false
			for _, kw := range call.Keywords {
				if kw.Name == positional[i].Name {
					hasKeyword = true
					break
				}
			}
			if !hasKeyword {
				s.errorf(diag.ArgumentMismatch, call.Range(), "missing required argument %q", positional[i].Name)
			}
		}
	}
}
