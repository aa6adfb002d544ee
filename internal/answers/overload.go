package answers

import "github.com/gradualtype/tycheck/internal/pytype"

// ResolveOverload implements spec §4.10's overload resolution: iterate
// declared overloads in order and pick the first whose parameter types all
// accept the argument types; if none matches, report the last mismatch.
// widen resolves a Literal argument to its nominal class before the subtype
// check, per pytype.Subtype's contract.
func ResolveOverload(overloads []pytype.TCallable, argTypes []pytype.Type, widen func(pytype.Type) pytype.Type, env pytype.ClassEnv) (pytype.TCallable, []string, bool) {
	var lastMismatch []string
	for _, sig := range overloads {
		ok, mismatches := overloadAccepts(sig, argTypes, widen, env)
		if ok {
			return sig, nil, true
		}
		lastMismatch = mismatches
	}
	var zero pytype.TCallable
	if len(overloads) > 0 {
		zero = overloads[len(overloads)-1]
	}
	return zero, lastMismatch, false
}

func overloadAccepts(sig pytype.TCallable, argTypes []pytype.Type, widen func(pytype.Type) pytype.Type, env pytype.ClassEnv) (bool, []string) {
	positional := positionalParams(sig)
	if len(argTypes) > len(positional) && sig.Params == nil {
		return false, []string{"too many arguments"}
	}
	var mismatches []string
	for i, at := range argTypes {
		if i >= len(positional) {
			mismatches = append(mismatches, "too many positional arguments")
			break
		}
		if !pytype.Subtype(widen(at), positional[i].Type, env) {
			mismatches = append(mismatches, "argument "+positional[i].Name+" expects "+positional[i].Type.String()+", got "+at.String())
		}
	}
	for i := len(argTypes); i < len(positional); i++ {
		if !positional[i].HasDefault {
			mismatches = append(mismatches, "missing required argument "+positional[i].Name)
		}
	}
	return len(mismatches) == 0, mismatches
}

func positionalParams(sig pytype.TCallable) []pytype.CallableParam {
	var out []pytype.CallableParam
	for _, p := range sig.Params {
		if p.Kind == pytype.CPPositionalOrKeyword || p.Kind == pytype.CPPositionalOnly {
			out = append(out, p)
		}
	}
	return out
}
