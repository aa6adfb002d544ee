package answers

import (
	"testing"

	"github.com/gradualtype/tycheck/internal/classmodel"
	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/ids"
	"github.com/gradualtype/tycheck/internal/modname"
	"github.com/gradualtype/tycheck/internal/pytype"
)

func newTestSolver() (*Solver, *Builtins) {
	builtins := NewBuiltins()
	collector := diag.NewCollector(modname.NewName("m"), modname.NewFilesystemPath("m.py"), nil)
	return NewSolver(classmodel.NewRegistry(), builtins, nil, collector), builtins
}

func hasCode(ds []diag.Diagnostic, code diag.Code) bool {
	for _, d := range ds {
		if d.Code == code {
			return true
		}
	}
	return false
}

func name(id string) Name       { return Name{Id: id} }
func constInt(v int64) Constant { return Constant{Value: v} }
func constNone() Constant       { return Constant{Value: nil} }

func TestAnnAssignMismatchReportsDiagnostic(t *testing.T) {
	s, _ := newTestSolver()
	scope := NewScope(nil)
	stmt := AnnAssign{Target: name("x"), Annotation: name("str"), Value: constInt(1)}
	s.CheckBlock(scope, []Stmt{stmt})
	if !hasCode(s.collector.Diagnostics(), diag.AssignmentTypeMismatch) {
		t.Fatalf("expected AssignmentTypeMismatch, got %+v", s.collector.Diagnostics())
	}
	xt, ok := scope.Lookup("x")
	if !ok {
		t.Fatal("expected x to be bound despite the mismatch")
	}
	if _, ok := xt.(pytype.TClass); !ok {
		t.Fatalf("expected x bound to the declared class type, got %v", xt)
	}
}

func TestAnnAssignMatchingTypeReportsNoDiagnostic(t *testing.T) {
	s, _ := newTestSolver()
	scope := NewScope(nil)
	stmt := AnnAssign{Target: name("x"), Annotation: name("int"), Value: constInt(1)}
	s.CheckBlock(scope, []Stmt{stmt})
	if hasCode(s.collector.Diagnostics(), diag.AssignmentTypeMismatch) {
		t.Fatalf("unexpected diagnostics: %+v", s.collector.Diagnostics())
	}
}

func TestIfNarrowingJoinsBranchBindings(t *testing.T) {
	s, b := newTestSolver()
	scope := NewScope(nil)
	optT := pytype.NormalizeUnion(b.types["int"], pytype.TLiteral{Value: pytype.LiteralValue{IsNone: true}})
	scope.Bind("x", optT)

	stmt := If{
		Test: Compare{Left: name("x"), Ops: []string{"is not"}, Comps: []Expr{constNone()}},
		Body: []Stmt{Assign{Targets: []Expr{name("y")}, Value: name("x")}},
		OrElse: []Stmt{Assign{Targets: []Expr{name("y")}, Value: constInt(0)}},
	}
	s.CheckBlock(scope, []Stmt{stmt})

	yt, ok := scope.Lookup("y")
	if !ok {
		t.Fatal("expected y to be bound after the if/else join")
	}
	zero := int64(0)
	want := pytype.NormalizeUnion(b.types["int"], pytype.TLiteral{Value: pytype.LiteralValue{Int: &zero}})
	if !pytype.Equals(yt, want) {
		t.Fatalf("expected y joined to %v, got %v", want, yt)
	}
}

func TestIsinstanceNarrowsPositiveBranch(t *testing.T) {
	s, b := newTestSolver()
	scope := NewScope(nil)
	optT := pytype.NormalizeUnion(b.types["int"], b.types["str"])
	scope.Bind("x", optT)

	test := Call{Func: name("isinstance"), Args: []Expr{name("x"), name("int")}}
	thenScope, elseScope := s.narrowBranches(scope, test)

	xt, _ := thenScope.Lookup("x")
	if !pytype.Equals(xt, b.types["int"]) {
		t.Fatalf("expected x narrowed to int in the positive branch, got %v", xt)
	}
	if _, ok := elseScope.Lookup("x"); !ok {
		t.Fatal("expected x still bound in the negative branch")
	}
}

func TestFuncDefInfersReturnTypeFromBody(t *testing.T) {
	s, b := newTestSolver()
	scope := NewScope(nil)
	f := FuncDef{
		Name:   "f",
		Params: []Param{{Name: "n", Annotation: name("int")}},
		Body:   []Stmt{Return{Value: name("n")}},
	}
	s.CheckBlock(scope, []Stmt{f})
	ft, ok := scope.Lookup("f")
	if !ok {
		t.Fatal("expected f to be bound")
	}
	callable, ok := ft.(pytype.TCallable)
	if !ok {
		t.Fatalf("expected a TCallable, got %v", ft)
	}
	if !pytype.Equals(callable.Return, b.types["int"]) {
		t.Fatalf("expected inferred return type int, got %v", callable.Return)
	}
}

func TestFuncDefReturnTypeMismatchReportsDiagnostic(t *testing.T) {
	s, _ := newTestSolver()
	scope := NewScope(nil)
	f := FuncDef{
		Name:    "f",
		Returns: name("str"),
		Body:    []Stmt{Return{Value: constInt(1)}},
	}
	s.CheckBlock(scope, []Stmt{f})
	if !hasCode(s.collector.Diagnostics(), diag.ReturnTypeMismatch) {
		t.Fatalf("expected ReturnTypeMismatch, got %+v", s.collector.Diagnostics())
	}
}

func TestWithStatementMissingContextManagerProtocolReportsDiagnostic(t *testing.T) {
	s, _ := newTestSolver()
	scope := NewScope(nil)
	// `int` declares neither __enter__ nor __exit__.
	scope.Bind("x", s.mustResolveClass("int"))
	stmt := With{Items: []WithItem{{Context: name("x")}}}
	s.CheckBlock(scope, []Stmt{stmt})
	if !hasCode(s.collector.Diagnostics(), diag.BadContextManager) {
		t.Fatalf("expected BadContextManager, got %+v", s.collector.Diagnostics())
	}
}

func (s *Solver) mustResolveClass(name string) pytype.Type {
	t, _ := s.Classes.Resolve(name)
	return t
}

func TestWithStatementBindsEnterResult(t *testing.T) {
	s, b := newTestSolver()
	ref := classmodel.NewClass(modname.NewQName("Conn", nil))
	data := ref.Get()
	data.Bases = append(data.Bases, classmodel.BaseClass{Kind: classmodel.BaseOrdinary, Class: mustClass(b, "object")})
	data.AddField(classmodel.Field{Name: "__enter__", Type: pytype.TCallable{
		Params: []pytype.CallableParam{selfParam()}, Return: b.types["int"],
	}})
	data.AddField(classmodel.Field{Name: "__exit__", Type: pytype.TCallable{
		Params: []pytype.CallableParam{
			selfParam(),
			param("exc_type", pytype.TAny{Reason: pytype.AnyExplicit}),
			param("exc_value", pytype.TAny{Reason: pytype.AnyExplicit}),
			param("tb", pytype.TAny{Reason: pytype.AnyExplicit}),
		},
		Return: pytype.TLiteral{Value: pytype.LiteralValue{IsNone: true}},
	}})
	connT := pytype.TClass{Class: ref, ClassName: "Conn"}

	scope := NewScope(nil)
	scope.Bind("conn", connT)
	stmt := With{Items: []WithItem{{Context: name("conn"), As: name("v")}}}
	s.CheckBlock(scope, []Stmt{stmt})

	if hasCode(s.collector.Diagnostics(), diag.BadContextManager) {
		t.Fatalf("unexpected BadContextManager: %+v", s.collector.Diagnostics())
	}
	vt, ok := scope.Lookup("v")
	if !ok {
		t.Fatal("expected v to be bound from __enter__'s return type")
	}
	if !pytype.Equals(vt, b.types["int"]) {
		t.Fatalf("expected v bound to int, got %v", vt)
	}
}

func mustClass(b *Builtins, name string) classmodel.ClassRef {
	c, _ := b.Class(name)
	return c
}

func TestWithStatementWrongExitReturnReportsBadContextManager(t *testing.T) {
	// spec §8 Scenario 3: __enter__ -> int, __exit__ -> str. Grouped under
	// the single "cannot use as a context manager" diagnostic, not a
	// separate BadExitReturn code (see original_source's with.rs
	// test_with_wrong_return_type).
	s, b := newTestSolver()
	ref := classmodel.NewClass(modname.NewQName("Foo", nil))
	data := ref.Get()
	data.Bases = append(data.Bases, classmodel.BaseClass{Kind: classmodel.BaseOrdinary, Class: mustClass(b, "object")})
	data.AddField(classmodel.Field{Name: "__enter__", Type: pytype.TCallable{
		Params: []pytype.CallableParam{selfParam()}, Return: b.types["int"],
	}})
	data.AddField(classmodel.Field{Name: "__exit__", Type: pytype.TCallable{
		Params: []pytype.CallableParam{
			selfParam(),
			param("exc_type", pytype.TAny{Reason: pytype.AnyExplicit}),
			param("exc_value", pytype.TAny{Reason: pytype.AnyExplicit}),
			param("tb", pytype.TAny{Reason: pytype.AnyExplicit}),
		},
		Return: b.types["str"],
	}})
	fooT := pytype.TClass{Class: ref, ClassName: "Foo"}

	scope := NewScope(nil)
	scope.Bind("x", fooT)
	stmt := With{Items: []WithItem{{Context: name("x")}}}
	s.CheckBlock(scope, []Stmt{stmt})

	if !hasCode(s.collector.Diagnostics(), diag.BadContextManager) {
		t.Fatalf("expected BadContextManager, got %+v", s.collector.Diagnostics())
	}
	if hasCode(s.collector.Diagnostics(), diag.BadExitReturn) {
		t.Fatalf("expected BadContextManager only, not BadExitReturn: %+v", s.collector.Diagnostics())
	}
}

func TestClassDefDataclassSynthesizesConstructor(t *testing.T) {
	s, _ := newTestSolver()
	scope := NewScope(nil)
	cls := ClassDef{
		Name:       "Point",
		Decorators: []Expr{name("dataclass")},
		Body: []Stmt{
			AnnAssign{Target: name("x"), Annotation: name("int")},
			AnnAssign{Target: name("y"), Annotation: name("int")},
		},
	}
	s.CheckBlock(scope, []Stmt{cls})
	ct, ok := scope.Lookup("Point")
	if !ok {
		t.Fatal("expected Point to be bound")
	}
	tc, ok := ct.(pytype.TClass)
	if !ok {
		t.Fatalf("expected a TClass, got %v", ct)
	}
	ref, ok := tc.Class.(classmodel.ClassRef)
	if !ok {
		t.Fatal("expected the class identity to be a classmodel.ClassRef")
	}
	if !ref.Get().IsDataclass {
		t.Fatal("expected IsDataclass to be set")
	}
	ctor := classmodel.SynthesizedCallable(ref, tc)
	if len(ctor.Params) != 2 {
		t.Fatalf("expected a 2-parameter constructor, got %d params", len(ctor.Params))
	}

	call := Call{Func: name("Point"), Args: []Expr{constInt(1), constInt(2)}}
	s.TypeOfExpr(scope, call)
	if hasCode(s.collector.Diagnostics(), diag.ArgumentMismatch) {
		t.Fatalf("unexpected ArgumentMismatch calling Point(1, 2): %+v", s.collector.Diagnostics())
	}
}

func TestGenericDataclassSubscriptCallReportsArgumentMismatch(t *testing.T) {
	// spec §8 Scenario 5: `@dc class Data[T]{x:T}; Data[int](x="")` must
	// report ArgumentMismatch on x.
	s, _ := newTestSolver()
	scope := NewScope(nil)
	cls := ClassDef{
		Name:       "Data",
		TypeParams: []string{"T"},
		Decorators: []Expr{name("dataclass")},
		Body: []Stmt{
			AnnAssign{Target: name("x"), Annotation: name("T")},
		},
	}
	s.CheckBlock(scope, []Stmt{cls})

	call := Call{
		Func:     Subscript{Value: name("Data"), Index: name("int")},
		Keywords: []Keyword{{Name: "x", Value: Constant{Value: "not-an-int"}}},
	}
	s.TypeOfExpr(scope, call)
	if !hasCode(s.collector.Diagnostics(), diag.ArgumentMismatch) {
		t.Fatalf("expected ArgumentMismatch calling Data[int](x=\"not-an-int\"), got %+v", s.collector.Diagnostics())
	}
}

func TestClassDefProtocolRequiresProtocolBases(t *testing.T) {
	s, _ := newTestSolver()
	scope := NewScope(nil)
	plain := ClassDef{Name: "Plain"}
	s.CheckBlock(scope, []Stmt{plain})

	bad := ClassDef{
		Name:  "Bad",
		Bases: []Expr{name("Protocol"), name("Plain")},
	}
	s.CheckBlock(scope, []Stmt{bad})
	if !hasCode(s.collector.Diagnostics(), diag.BadProtocolBase) {
		t.Fatalf("expected BadProtocolBase, got %+v", s.collector.Diagnostics())
	}
}

func TestOverloadResolutionPicksFirstMatchingSignature(t *testing.T) {
	s, b := newTestSolver()
	intT, strT := b.types["int"], b.types["str"]
	overloads := []pytype.TCallable{
		{Params: []pytype.CallableParam{param("v", intT)}, Return: strT},
		{Params: []pytype.CallableParam{param("v", strT)}, Return: intT},
	}
	sig, _, ok := ResolveOverload(overloads, []pytype.Type{strT}, s.widenLiteral, s.Env)
	if !ok {
		t.Fatal("expected a matching overload")
	}
	if !pytype.Equals(sig.Return, intT) {
		t.Fatalf("expected the str-accepting overload to win, got return %v", sig.Return)
	}
}

func TestGenericCallInfersTypeVarFromArgument(t *testing.T) {
	s, _ := newTestSolver()
	one := int64(1)
	want := pytype.TLiteral{Value: pytype.LiteralValue{Int: &one}}
	scope := NewScope(nil)
	tv := pytype.TTypeVar{Ref: ids.New(pytype.TypeVarData{Name: "T"})}
	scope.Bind("identity", pytype.TCallable{
		Params: []pytype.CallableParam{param("v", tv)}, Return: tv,
	})
	call := Call{Func: name("identity"), Args: []Expr{constInt(1)}}
	result := s.TypeOfExpr(scope, call)
	if !pytype.Equals(result, want) {
		t.Fatalf("expected identity(1) to infer %v, got %v", want, result)
	}
}
