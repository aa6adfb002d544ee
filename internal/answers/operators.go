package answers

import (
	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/pytype"
)

// binOpDunder maps a surface operator to its forward/reflected dunder pair,
// per spec §4.8 ("modeled as dunder lookups").
func binOpDunder(op string) (fwd, rev string) {
	switch op {
	case "+":
		return "__add__", "__radd__"
	case "-":
		return "__sub__", "__rsub__"
	case "*":
		return "__mul__", "__rmul__"
	case "/":
		return "__truediv__", "__rtruediv__"
	case "//":
		return "__floordiv__", "__rfloordiv__"
	case "%":
		return "__mod__", "__rmod__"
	case "**":
		return "__pow__", "__rpow__"
	case "&":
		return "__and__", "__rand__"
	case "|":
		return "__or__", "__ror__"
	case "^":
		return "__xor__", "__rxor__"
	case "<<":
		return "__lshift__", "__rlshift__"
	case ">>":
		return "__rshift__", "__rrshift__"
	case "@":
		return "__matmul__", "__rmatmul__"
	}
	return "", ""
}

// typeBinOp resolves `left op right` via dunder lookup on the operand
// classes, trying the left operand's forward method then the right
// operand's reflected method, per Python's own operator protocol.
func (s *Solver) typeBinOp(scope *Scope, b BinOp) pytype.Type {
	leftT := s.TypeOfExpr(scope, b.Left)
	rightT := s.TypeOfExpr(scope, b.Right)

	if _, ok := leftT.(pytype.TAny); ok {
		return leftT
	}
	if _, ok := rightT.(pytype.TAny); ok {
		return rightT
	}

	fwd, rev := binOpDunder(b.Op)
	if fwd == "" {
		s.errorf(diag.ExpectedCallable, b.Range(), "unsupported operator %q", b.Op)
		return anyError()
	}

	if ret, ok := s.callDunder(leftT, fwd, rightT); ok {
		return ret
	}
	if ret, ok := s.callDunder(rightT, rev, leftT); ok {
		return ret
	}
	s.errorf(diag.MissingAttribute, b.Range(), "unsupported operand types for %s: %s and %s", b.Op, leftT, rightT)
	return anyError()
}

// callDunder looks up methodName on recv's class and, if it accepts arg,
// returns its declared return type.
func (s *Solver) callDunder(recv pytype.Type, methodName string, arg pytype.Type) (pytype.Type, bool) {
	cls, ok := recv.(pytype.TClass)
	if !ok {
		return nil, false
	}
	ty, _, ok := s.Env.Attribute(cls.Class, methodName)
	if !ok {
		return nil, false
	}
	callable, ok := ty.(pytype.TCallable)
	if !ok || len(callable.Params) < 2 {
		return nil, false
	}
	if !s.subtype(arg, callable.Params[1].Type) {
		return nil, false
	}
	return callable.Return, true
}

func (s *Solver) typeUnaryOp(scope *Scope, u UnaryOp) pytype.Type {
	operandT := s.TypeOfExpr(scope, u.Operand)
	if u.Op == "not" {
		if lit, ok := operandT.(pytype.TLiteral); ok {
			truthy := literalTruthy(lit)
			v := !truthy
			return pytype.TLiteral{Value: pytype.LiteralValue{Bool: &v}}
		}
		if boolT, ok := s.Classes.Resolve("bool"); ok {
			return boolT
		}
		return anyError()
	}
	if _, ok := operandT.(pytype.TAny); ok {
		return operandT
	}
	var method string
	switch u.Op {
	case "-":
		method = "__neg__"
	case "+":
		method = "__pos__"
	case "~":
		method = "__invert__"
	}
	cls, isClass := operandT.(pytype.TClass)
	if isClass {
		if ty, _, ok := s.Env.Attribute(cls.Class, method); ok {
			if callable, ok := ty.(pytype.TCallable); ok {
				return callable.Return
			}
		}
	}
	s.errorf(diag.MissingAttribute, u.Range(), "unsupported operand type for unary %s: %s", u.Op, operandT)
	return anyError()
}

// typeBoolOp implements short-circuit narrowing per spec §4.8: `a or b` has
// type truthy(a) | b (minus the branch where a alone decides); `a and b`
// dually. Constant-folds when the leading literal's truthiness is decisive.
func (s *Solver) typeBoolOp(scope *Scope, b BoolOp) pytype.Type {
	var acc pytype.Type
	for i, v := range b.Values {
		vt := s.TypeOfExpr(scope, v)
		if i == 0 {
			acc = vt
			continue
		}
		if b.Op == "or" {
			if lit, ok := acc.(pytype.TLiteral); ok && literalTruthy(lit) {
				// `True or x` ⇒ Literal[True]; remaining operands are dead
				// for typing purposes but still walked above for diagnostics.
				continue
			}
			acc = pytype.Join(pytype.Truthy(acc), vt)
		} else {
			if lit, ok := acc.(pytype.TLiteral); ok && !literalTruthy(lit) {
				continue
			}
			acc = pytype.Join(pytype.Falsy(acc), vt)
		}
	}
	return acc
}

func literalTruthy(lit pytype.TLiteral) bool {
	switch {
	case lit.Value.Bool != nil:
		return *lit.Value.Bool
	case lit.Value.Int != nil:
		return *lit.Value.Int != 0
	case lit.Value.Str != nil:
		return *lit.Value.Str != ""
	case lit.Value.Bytes != nil:
		return len(lit.Value.Bytes) != 0
	case lit.Value.IsNone:
		return false
	}
	return true
}

// typeCompare types a chained comparison as bool, evaluating each operand
// for diagnostics along the way. Narrowing for `is None`/`==` against a
// literal is handled separately by narrow.go when the Compare is a branch
// test.
func (s *Solver) typeCompare(scope *Scope, c Compare) pytype.Type {
	s.TypeOfExpr(scope, c.Left)
	for _, comp := range c.Comps {
		s.TypeOfExpr(scope, comp)
	}
	if boolT, ok := s.Classes.Resolve("bool"); ok {
		return boolT
	}
	return anyError()
}
