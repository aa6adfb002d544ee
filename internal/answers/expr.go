package answers

import (
	"github.com/gradualtype/tycheck/internal/classmodel"
	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/pyast"
	"github.com/gradualtype/tycheck/internal/pytype"
)

// TypeOfExpr types e bottom-up in scope, per spec §4.10, recording any
// diagnostics it discovers along the way and always returning a usable type
// (Any on failure) rather than aborting the walk (spec §7).
func (s *Solver) TypeOfExpr(scope *Scope, e Expr) pytype.Type {
	switch ex := e.(type) {
	case Constant:
		return literalOf(ex.Value)
	case Name:
		if t, ok := scope.Lookup(ex.Id); ok {
			return t
		}
		if t, ok := s.Classes.Resolve(ex.Id); ok {
			return t
		}
		s.errorf(diag.UnknownName, ex.Range(), "unknown name %q", ex.Id)
		return anyError()
	case Attribute:
		return s.typeAttribute(scope, ex)
	case Call:
		return s.typeCall(scope, ex)
	case BinOp:
		return s.typeBinOp(scope, ex)
	case BoolOp:
		return s.typeBoolOp(scope, ex)
	case UnaryOp:
		return s.typeUnaryOp(scope, ex)
	case Compare:
		return s.typeCompare(scope, ex)
	case Tuple:
		elems := make([]pytype.Type, len(ex.Elts))
		for i, el := range ex.Elts {
			elems[i] = s.TypeOfExpr(scope, el)
		}
		return pytype.TTuple{Elems: elems}
	case List:
		var elemType pytype.Type = pytype.TNever{}
		for _, el := range ex.Elts {
			elemType = pytype.Join(elemType, s.TypeOfExpr(scope, el))
		}
		if listT, ok := s.Classes.Resolve("list"); ok {
			if tc, ok := listT.(pytype.TClass); ok {
				tc.Args = []pytype.Type{elemType}
				return tc
			}
		}
		return anyError()
	case IfExp:
		s.TypeOfExpr(scope, ex.Test)
		bodyScope, orElseScope := s.narrowBranches(scope, ex.Test)
		bodyT := s.TypeOfExpr(bodyScope, ex.Body)
		orElseT := s.TypeOfExpr(orElseScope, ex.OrElse)
		return pytype.Join(bodyT, orElseT)
	case Subscript:
		return s.typeSubscript(scope, ex)
	case Lambda:
		return s.typeLambda(scope, ex)
	case Starred:
		return s.TypeOfExpr(scope, ex.Value)
	default:
		return anyError()
	}
}

func (s *Solver) typeAttribute(scope *Scope, a Attribute) pytype.Type {
	valueT := s.TypeOfExpr(scope, a.Value)
	if _, ok := valueT.(pytype.TAny); ok {
		return valueT
	}
	cls, isClass := valueT.(pytype.TClass)
	if !isClass {
		s.errorf(diag.MissingAttribute, a.Range(), "%s has no attribute %q", valueT.String(), a.Attr)
		return anyError()
	}
	ty, _, ok := s.Env.Attribute(cls.Class, a.Attr)
	if !ok {
		s.errorf(diag.MissingAttribute, a.Range(), "%s has no attribute %q", valueT.String(), a.Attr)
		return anyError()
	}
	if callable, ok := ty.(pytype.TCallable); ok {
		return pytype.TBoundMethod{Underlying: callable, Instance: valueT}
	}
	return ty
}

func (s *Solver) typeSubscript(scope *Scope, sub Subscript) pytype.Type {
	valueT := s.TypeOfExpr(scope, sub.Value)
	// A bare reference to a generic class (`Data` with no Args yet, still
	// declaring type parameters) subscripted here is the class being
	// parameterized (`Data[int]`), not an instance being indexed — build
	// the parameterized TClass the same way resolveAnnotationSubscript does
	// for an annotation, so a following Call sees a usable constructor.
	if tc, ok := valueT.(pytype.TClass); ok && len(tc.Args) == 0 {
		if ref, isRef := tc.Class.(classmodel.ClassRef); isRef && len(ref.Get().TypeParams) > 0 {
			args := flattenAnnotationArgs(sub.Index)
			tc.Args = make([]pytype.Type, len(args))
			for i, a := range args {
				tc.Args[i] = s.ResolveAnnotation(scope, a)
			}
			return tc
		}
	}
	s.TypeOfExpr(scope, sub.Index)
	if tc, ok := valueT.(pytype.TClass); ok && len(tc.Args) > 0 {
		return tc.Args[0]
	}
	if _, ok := valueT.(pytype.TAny); ok {
		return valueT
	}
	return anyError()
}

func (s *Solver) typeLambda(scope *Scope, lam Lambda) pytype.Type {
	inner := scope.Child()
	params := make([]pytype.CallableParam, len(lam.Params))
	for i, p := range lam.Params {
		pt := s.ResolveAnnotation(scope, p.Annotation)
		inner.Bind(p.Name, pt)
		params[i] = pytype.CallableParam{Name: p.Name, Type: pt, Kind: paramKind(p.Kind), HasDefault: p.Default != nil}
	}
	ret := s.TypeOfExpr(inner, lam.Body)
	return pytype.TCallable{Params: params, Return: ret}
}

// paramKind maps the AST's parameter-kind enum to the type algebra's.
func paramKind(k pyast.ParamKind) pytype.CallableParamKind {
	switch k {
	case pyast.ParamPositionalOnly:
		return pytype.CPPositionalOnly
	case pyast.ParamKeywordOnly:
		return pytype.CPKeywordOnly
	case pyast.ParamVarArgs:
		return pytype.CPVarArgs
	case pyast.ParamKwArgs:
		return pytype.CPKwArgs
	default:
		return pytype.CPPositionalOrKeyword
	}
}
