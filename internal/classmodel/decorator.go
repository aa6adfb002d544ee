package classmodel

import "github.com/gradualtype/tycheck/internal/pytype"

// ApplyDecorator implements spec §4.6: a decorator expression evaluates to a
// Callable; applying it to f replaces f's type with the decorator's return
// type for that single-argument call. The actual argument-compatibility
// check (arity, type matching) is the answers solver's job (it has the full
// call-checking machinery already, for ordinary calls) — this helper only
// picks out the substituted return type for the identity-decorator fast
// path, where no solver round-trip is needed.
//
// decoratorType must be a pytype.TCallable accepting exactly one positional
// argument; ApplyDecorator reports ok=false otherwise, and the caller emits
// ExpectedCallable / ArgumentMismatch as appropriate.
func ApplyDecorator(decoratorType pytype.Type, f pytype.TCallable) (pytype.Type, bool) {
	callable, ok := decoratorType.(pytype.TCallable)
	if !ok {
		return nil, false
	}
	if len(callable.Params) != 1 {
		return nil, false
	}
	return callable.Return, true
}

// IsIdentityDecorator reports whether callable has the shape `(T) -> T` for
// some T, i.e. it preserves the decorated function's signature (spec §4.6).
func IsIdentityDecorator(callable pytype.TCallable) bool {
	if len(callable.Params) != 1 {
		return false
	}
	return pytype.Equals(callable.Params[0].Type, callable.Return)
}

// ApplyDecoratorChain applies decorators bottom-up (closest to the function
// first), as spec §4.6 requires for `@a\n@b\ndef f(): ...` (b applies
// first, then a).
func ApplyDecoratorChain(decorators []pytype.Type, f pytype.TCallable) (pytype.Type, int, bool) {
	var current pytype.Type = f
	for i := len(decorators) - 1; i >= 0; i-- {
		fc, isCallable := current.(pytype.TCallable)
		if !isCallable {
			return current, i, true
		}
		next, ok := ApplyDecorator(decorators[i], fc)
		if !ok {
			return current, i, false
		}
		current = next
	}
	return current, -1, true
}
