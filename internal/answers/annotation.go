package answers

import (
	"github.com/gradualtype/tycheck/internal/pytype"
)

// ResolveAnnotation interprets an annotation expression (a type parameter's
// bound, a variable's declared type, a parameter or return annotation) into a
// pytype.Type. It recognizes the typing-module special forms spec §4.1/§4.9
// name (Optional, Union, Literal, Callable, TypeGuard/TypeIs, ClassVar,
// Final, Annotated) in addition to plain class references and `A | B` union
// syntax.
func (s *Solver) ResolveAnnotation(scope *Scope, e Expr) pytype.Type {
	if e == nil {
		return pytype.TAny{Reason: pytype.AnyUnannotated}
	}
	switch ex := e.(type) {
	case Name:
		return s.resolveAnnotationName(scope, ex.Id)
	case Attribute:
		return s.resolveAnnotationName(scope, ex.Attr)
	case BinOp:
		if ex.Op == "|" {
			return pytype.NormalizeUnion(s.ResolveAnnotation(scope, ex.Left), s.ResolveAnnotation(scope, ex.Right))
		}
		return anyError()
	case Constant:
		// Forward-reference string annotations need a real parser re-entry
		// point to resolve; left unresolved.
		return anyError()
	case Subscript:
		return s.resolveAnnotationSubscript(scope, ex)
	default:
		return anyError()
	}
}

// resolveAnnotationName looks up name: first as a scope-bound type (a
// PEP-695 type parameter, or a local type alias), then a handful of
// typing-module bare names, then the bootstrap class table.
func (s *Solver) resolveAnnotationName(scope *Scope, name string) pytype.Type {
	if scope != nil {
		if t, ok := scope.Lookup(name); ok {
			return t
		}
	}
	switch name {
	case "Any":
		return pytype.TAny{Reason: pytype.AnyExplicit}
	case "None", "NoneType":
		if t, ok := s.Classes.Resolve("NoneType"); ok {
			return t
		}
		return pytype.TLiteral{Value: pytype.LiteralValue{IsNone: true}}
	case "Self":
		return pytype.TSelf{}
	}
	if t, ok := s.Classes.Resolve(name); ok {
		return t
	}
	return anyError()
}

func (s *Solver) resolveAnnotationSubscript(scope *Scope, sub Subscript) pytype.Type {
	baseName := subscriptBaseName(sub.Value)
	args := flattenAnnotationArgs(sub.Index)

	switch baseName {
	case "Optional":
		if len(args) != 1 {
			return anyError()
		}
		return pytype.NormalizeUnion(s.ResolveAnnotation(scope, args[0]), s.resolveAnnotationName(scope, "None"))
	case "Union":
		parts := make([]pytype.Type, len(args))
		for i, a := range args {
			parts[i] = s.ResolveAnnotation(scope, a)
		}
		return pytype.NormalizeUnion(parts...)
	case "Literal":
		parts := make([]pytype.Type, 0, len(args))
		for _, a := range args {
			if c, ok := a.(Constant); ok {
				parts = append(parts, literalOf(c.Value))
			}
		}
		return pytype.NormalizeUnion(parts...)
	case "ClassVar", "Final", "Annotated", "Required", "NotRequired":
		if len(args) == 0 {
			return anyError()
		}
		return s.ResolveAnnotation(scope, args[0])
	case "TypeGuard", "TypeIs":
		// The callable's return annotation carries this marker; narrowing
		// (narrow.go) inspects the FuncDef's Returns expression directly
		// rather than this resolved type, so the payload is the narrowed-to
		// type itself.
		if len(args) == 1 {
			return s.ResolveAnnotation(scope, args[0])
		}
		return anyError()
	case "Callable":
		return s.resolveCallableAnnotation(scope, args)
	}

	base := s.ResolveAnnotation(scope, sub.Value)
	tc, ok := base.(pytype.TClass)
	if !ok {
		return base
	}
	tc.Args = make([]pytype.Type, len(args))
	for i, a := range args {
		tc.Args[i] = s.ResolveAnnotation(scope, a)
	}
	return tc
}

func (s *Solver) resolveCallableAnnotation(scope *Scope, args []Expr) pytype.Type {
	if len(args) != 2 {
		return anyError()
	}
	ret := s.ResolveAnnotation(scope, args[1])
	paramsList, ok := args[0].(List)
	if !ok {
		// `Callable[..., T]` (unspecified parameters): no params recorded.
		return pytype.TCallable{Return: ret}
	}
	params := make([]pytype.CallableParam, len(paramsList.Elts))
	for i, p := range paramsList.Elts {
		params[i] = pytype.CallableParam{Type: s.ResolveAnnotation(scope, p), Kind: pytype.CPPositionalOnly}
	}
	return pytype.TCallable{Params: params, Return: ret}
}

// firstArg unwraps a Required[T]/NotRequired[T] subscript's single argument.
func firstArg(e Expr) Expr {
	if t, ok := e.(Tuple); ok && len(t.Elts) > 0 {
		return t.Elts[0]
	}
	return e
}

func subscriptBaseName(e Expr) string {
	switch ex := e.(type) {
	case Name:
		return ex.Id
	case Attribute:
		return ex.Attr
	}
	return ""
}

func flattenAnnotationArgs(e Expr) []Expr {
	if e == nil {
		return nil
	}
	if t, ok := e.(Tuple); ok {
		return t.Elts
	}
	return []Expr{e}
}

func literalOf(v any) pytype.Type {
	lv := pytype.LiteralValue{}
	switch val := v.(type) {
	case bool:
		lv.Bool = &val
	case int64:
		lv.Int = &val
	case string:
		lv.Str = &val
	case []byte:
		lv.Bytes = val
	case nil:
		lv.IsNone = true
	default:
		return anyError()
	}
	return pytype.TLiteral{Value: lv}
}
