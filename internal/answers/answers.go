// Package answers implements spec §4.7–§4.10: the per-module solver that
// walks a module's statements and expressions bottom-up and produces a
// binding table plus a diagnostic list. The dispatch shape (one big switch
// per node kind returning a typed result or an error) follows the teacher's
// internal/elaborate/expressions.go normalize() and internal/types
// inferCore(); the bottom-up expression typing itself is grounded on
// internal/types/typechecker_operators.go and inference.go, generalized from
// a Hindley-Milner walk to the gradual/structural rules spec §4.1–§4.9 name.
package answers

import (
	"fmt"

	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/modname"
	"github.com/gradualtype/tycheck/internal/pyast"
	"github.com/gradualtype/tycheck/internal/pytype"
)

// Local aliases for the pyast node types this package switches over
// constantly; pyast nodes are plain values (not pointers), so every case
// here matches by value.
type (
	Expr       = pyast.Expr
	Stmt       = pyast.Stmt
	Name       = pyast.Name
	Attribute  = pyast.Attribute
	Call       = pyast.Call
	Keyword    = pyast.Keyword
	BinOp      = pyast.BinOp
	BoolOp     = pyast.BoolOp
	UnaryOp    = pyast.UnaryOp
	Compare    = pyast.Compare
	Constant   = pyast.Constant
	Tuple      = pyast.Tuple
	List       = pyast.List
	IfExp      = pyast.IfExp
	Subscript  = pyast.Subscript
	Lambda     = pyast.Lambda
	Starred    = pyast.Starred
	ExprStmt   = pyast.ExprStmt
	Assign     = pyast.Assign
	AnnAssign  = pyast.AnnAssign
	Return     = pyast.Return
	If         = pyast.If
	While      = pyast.While
	For        = pyast.For
	FuncDef    = pyast.FuncDef
	ClassDef   = pyast.ClassDef
	With       = pyast.With
	WithItem   = pyast.WithItem
	Assert     = pyast.Assert
	Param      = pyast.Param
	Pass       = pyast.Pass
	Break      = pyast.Break
	Continue   = pyast.Continue
	Import     = pyast.Import
	ImportFrom = pyast.ImportFrom
)

// BindingKey identifies one binding site: a name at a scope, at a specific
// source range, per spec §4.10 ("a mapping from each binding site (name at a
// scope and range) to its inferred type").
type BindingKey struct {
	Name  string
	Range pyast.Range
}

// Answers is a handle's complete solver output (spec §4.10/§4.11).
type Answers struct {
	Bindings    map[BindingKey]pytype.Type
	Diagnostics []diag.Diagnostic

	// Exports is the module's top-level scope at the end of the walk: the
	// types a dependent module sees for `from this_module import name`.
	// The driver (internal/driver) seeds a dependent handle's globals from
	// its dependencies' Exports.
	Exports map[string]pytype.Type
}

// ClassNames resolves a bare annotation/runtime name (e.g. "int", "MyClass")
// to its type. Builtins (see builtins.go) implements this for the bootstrap
// symbol table; a real binder stage would extend it with module-level class
// and import bindings before the solver runs.
type ClassNames interface {
	Resolve(name string) (pytype.Type, bool)
}

// Scope is a lexical chain of name -> type bindings.
type Scope struct {
	vars   map[string]pytype.Type
	parent *Scope
}

func NewScope(parent *Scope) *Scope {
	return &Scope{vars: map[string]pytype.Type{}, parent: parent}
}

func (s *Scope) Child() *Scope { return NewScope(s) }

func (s *Scope) Lookup(name string) (pytype.Type, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if t, ok := sc.vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// Bind sets name in this scope specifically (not an ancestor), so narrowing
// in a child scope never leaks into the parent.
func (s *Scope) Bind(name string, t pytype.Type) { s.vars[name] = t }

// Clone copies this scope's own bindings into a fresh scope sharing the same
// parent, used to fork narrowed copies for if/else branches.
func (s *Scope) Clone() *Scope {
	cp := NewScope(s.parent)
	for k, v := range s.vars {
		cp.vars[k] = v
	}
	return cp
}

// Solver carries the per-handle state spec §4.10 describes: the class
// environment (nominal/structural queries), the bootstrap name resolver, the
// diagnostic collector, and the accumulated binding table.
type Solver struct {
	Env       pytype.ClassEnv
	Classes   ClassNames
	Module    *modname.Info
	collector *diag.Collector
	bindings  map[BindingKey]pytype.Type

	// guardReturns records module-level functions declared to return
	// TypeGuard[T]/TypeIs[T], keyed by function name, so narrow.go can
	// recognize `if is_foo(x): ...` as narrowing x to T (spec §4.9).
	guardReturns map[string]pytype.Type

	// overloadSets records consecutive @overload-decorated signatures for a
	// given function name, consumed by typeCall's overload resolution
	// (spec §4.10).
	overloadSets map[string][]pytype.TCallable

	// returnsStack collects the argument types of Return statements inside
	// the FuncDef currently being walked, for return-type inference when no
	// annotation is present. nil outside of a function body.
	returnsStack *[]pytype.Type
}

func NewSolver(env pytype.ClassEnv, classes ClassNames, module *modname.Info, collector *diag.Collector) *Solver {
	return &Solver{
		Env:          env,
		Classes:      classes,
		Module:       module,
		collector:    collector,
		bindings:     map[BindingKey]pytype.Type{},
		guardReturns: map[string]pytype.Type{},
		overloadSets: map[string][]pytype.TCallable{},
	}
}

func (s *Solver) bind(name string, r pyast.Range, t pytype.Type) {
	s.bindings[BindingKey{Name: name, Range: r}] = t
}

func (s *Solver) errorf(code diag.Code, r pyast.Range, format string, args ...any) {
	s.collector.Errorf(code, r, fmt.Sprintf(format, args...), nil)
}

// anyError builds an error-recovery Any, spec §7: "the solver never halts on a
// type error" — every failure path still produces a usable type.
func anyError() pytype.Type { return pytype.TAny{Reason: pytype.AnyError} }

// widenLiteral resolves a's nominal widened class if a is a Literal,
// otherwise returns a unchanged (pytype.Widen's contract).
func (s *Solver) widenLiteral(a pytype.Type) pytype.Type {
	return pytype.Widen(a, func(name string) pytype.Type {
		if t, ok := s.Classes.Resolve(name); ok {
			return t
		}
		return anyError()
	})
}

// subtype is pytype.Subtype with the literal-widening step spec §4.1
// requires of the caller: "Literal <: its widened nominal type" is only
// checked once the literal has actually been widened to that class. The
// unwidened comparison is tried first, so a literal still matches an equal
// literal.
func (s *Solver) subtype(a, b pytype.Type) bool {
	return pytype.Subtype(a, b, s.Env) || pytype.Subtype(s.widenLiteral(a), b, s.Env)
}

// Answers returns this solver's accumulated output. exports is the root
// scope's final bindings, captured by Check after CheckBlock returns.
func (s *Solver) Answers(exports map[string]pytype.Type) Answers {
	return Answers{Bindings: s.bindings, Diagnostics: s.collector.Diagnostics(), Exports: exports}
}

// Check runs the full per-handle solve (spec §4.10): seed a root scope from
// globals (module-level imports, builtins, prior bindings the driver already
// resolved), walk body statement-by-statement in program order (spec §5:
// "within a handle, evaluation order is the program order of the AST"), and
// return the resulting Answers.
func Check(env pytype.ClassEnv, classes ClassNames, module *modname.Info, globals map[string]pytype.Type, body []pyast.Stmt, collector *diag.Collector) Answers {
	s := NewSolver(env, classes, module, collector)
	root := NewScope(nil)
	for name, t := range globals {
		root.Bind(name, t)
	}
	s.CheckBlock(root, body)
	exports := make(map[string]pytype.Type, len(root.vars))
	for name, t := range root.vars {
		exports[name] = t
	}
	return s.Answers(exports)
}
