// Context managers (spec §4.7): `with e as x:` requires type(e).__enter__ to
// exist, be callable with zero positional args beyond self, and return T (x
// is bound to T); `__exit__` must accept the exception triple and return
// bool|None. `async with` requires both dunders to be async.
package answers

import (
	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/pytype"
)

func (s *Solver) checkWithItem(scope *Scope, item WithItem, isAsync bool) pytype.Type {
	ctxT := s.TypeOfExpr(scope, item.Context)
	if _, ok := ctxT.(pytype.TAny); ok {
		return ctxT
	}
	cls, ok := ctxT.(pytype.TClass)
	if !ok {
		s.errorf(diag.BadContextManager, item.Context.Range(), "%s is not a context manager", ctxT)
		return anyError()
	}

	enterT, _, enterOk := s.Env.Attribute(cls.Class, "__enter__")
	exitT, _, exitOk := s.Env.Attribute(cls.Class, "__exit__")
	if !enterOk || !exitOk {
		s.errorf(diag.BadContextManager, item.Context.Range(), "%s is missing __enter__ or __exit__", ctxT)
		return anyError()
	}

	enterCallable, ok := enterT.(pytype.TCallable)
	if !ok {
		s.errorf(diag.ExpectedCallable, item.Context.Range(), "%s.__enter__ is not callable", ctxT)
		return anyError()
	}
	exitCallable, ok := exitT.(pytype.TCallable)
	if !ok {
		s.errorf(diag.ExpectedCallable, item.Context.Range(), "%s.__exit__ is not callable", ctxT)
		return anyError()
	}

	if isAsync {
		if !enterCallable.IsAsync || !exitCallable.IsAsync {
			s.errorf(diag.ExpectedAsync, item.Context.Range(), "async with requires async __enter__/__exit__ on %s", ctxT)
		}
	} else if enterCallable.IsAsync || exitCallable.IsAsync {
		s.errorf(diag.ExpectedAsync, item.Context.Range(), "with requires non-async __enter__/__exit__ on %s", ctxT)
	}

	enterBound := stripSelf(enterCallable)
	if len(enterBound.Params) != 0 {
		s.errorf(diag.ArgumentMismatch, item.Context.Range(), "__enter__ must take no arguments beyond self")
	}
	exitBound := stripSelf(exitCallable)
	if len(exitBound.Params) != 3 {
		s.errorf(diag.ArgumentMismatch, item.Context.Range(), "__exit__ must accept exactly (exc_type, exc_value, traceback)")
	}
	if !isBoolOrNone(exitBound.Return) {
		s.errorf(diag.BadContextManager, item.Context.Range(), "%s cannot be used as a context manager: __exit__ must return bool | None, got %s", ctxT, exitBound.Return)
	}

	return enterBound.Return
}

func isBoolOrNone(t pytype.Type) bool {
	switch tt := t.(type) {
	case pytype.TLiteral:
		return tt.Value.IsNone
	case pytype.TClass:
		return tt.ClassName == "bool"
	case pytype.TAny:
		return true
	case pytype.TUnion:
		for _, p := range tt.Parts {
			if !isBoolOrNone(p) {
				return false
			}
		}
		return true
	}
	return false
}
