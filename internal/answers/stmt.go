// Statement-level walking (spec §4.10): binds names, threads narrowed
// scopes through control flow, and wires class/function definitions into
// classmodel. Grounded on the teacher's internal/eval statement evaluator's
// shape (one switch per statement kind, each case mutating or forking
// scope), generalized from a runtime interpreter to a static walk that never
// executes anything.
package answers

import (
	"github.com/gradualtype/tycheck/internal/classmodel"
	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/ids"
	"github.com/gradualtype/tycheck/internal/modname"
	"github.com/gradualtype/tycheck/internal/pytype"
)

// CheckBlock walks body in program order, threading scope through each
// statement (spec §5: "within a handle, evaluation order is the program
// order of the AST").
func (s *Solver) CheckBlock(scope *Scope, body []Stmt) {
	for _, st := range body {
		s.checkStmt(scope, st)
	}
}

func (s *Solver) checkStmt(scope *Scope, stmt Stmt) {
	switch st := stmt.(type) {
	case ExprStmt:
		s.TypeOfExpr(scope, st.Value)
	case Assign:
		s.checkAssign(scope, st)
	case AnnAssign:
		s.checkAnnAssign(scope, st)
	case Return:
		s.checkReturn(scope, st)
	case If:
		s.checkIf(scope, st)
	case While:
		s.TypeOfExpr(scope, st.Test)
		bodyScope, _ := s.narrowBranches(scope, st.Test)
		s.CheckBlock(bodyScope, st.Body)
	case For:
		s.checkFor(scope, st)
	case FuncDef:
		s.checkFuncDef(scope, st, false)
	case ClassDef:
		s.checkClassDef(scope, st)
	case With:
		s.checkWith(scope, st)
	case Assert:
		s.TypeOfExpr(scope, st.Test)
		if st.Msg != nil {
			s.TypeOfExpr(scope, st.Msg)
		}
		fallthroughScope := s.applyNarrow(scope, st.Test, true)
		for k, v := range fallthroughScope.vars {
			scope.Bind(k, v)
		}
	case Pass, Break, Continue:
		// no-op
	case Import:
		for _, mod := range st.Modules {
			scope.Bind(mod, pytype.TModule{Name: mod})
		}
	case ImportFrom:
		for _, name := range st.Names {
			// A name already seeded from the dependency's Exports keeps
			// that type; any other imported name is an unresolved import.
			if _, ok := scope.Lookup(name); ok {
				continue
			}
			scope.Bind(name, pytype.TAny{Reason: pytype.AnyUnresolvedImport})
		}
	}
}

func (s *Solver) checkAssign(scope *Scope, st Assign) {
	vt := s.TypeOfExpr(scope, st.Value)
	for _, target := range st.Targets {
		s.bindTarget(scope, target, vt)
	}
}

func (s *Solver) checkAnnAssign(scope *Scope, st AnnAssign) {
	declared := s.ResolveAnnotation(scope, st.Annotation)
	if st.Value != nil {
		vt := s.TypeOfExpr(scope, st.Value)
		if !s.subtype(vt, declared) {
			s.errorf(diag.AssignmentTypeMismatch, st.Range(), "cannot assign %s to declared type %s", vt, declared)
		}
	}
	s.bindTarget(scope, st.Target, declared)
}

func (s *Solver) checkReturn(scope *Scope, st Return) {
	var vt pytype.Type
	if st.Value != nil {
		vt = s.TypeOfExpr(scope, st.Value)
	} else {
		vt = pytype.TLiteral{Value: pytype.LiteralValue{IsNone: true}}
	}
	if s.returnsStack != nil {
		*s.returnsStack = append(*s.returnsStack, vt)
	}
}

func (s *Solver) checkIf(scope *Scope, st If) {
	s.TypeOfExpr(scope, st.Test)
	thenScope, elseScope := s.narrowBranches(scope, st.Test)
	s.CheckBlock(thenScope, st.Body)
	s.CheckBlock(elseScope, st.OrElse)
	s.joinBranchBindings(scope, thenScope, elseScope)
}

// joinBranchBindings propagates names rebound in either branch back into the
// enclosing scope, joined with the other branch's type (or the
// pre-if type, for a branch that left the name untouched).
func (s *Solver) joinBranchBindings(scope, thenScope, elseScope *Scope) {
	seen := map[string]bool{}
	for n := range thenScope.vars {
		seen[n] = true
	}
	for n := range elseScope.vars {
		seen[n] = true
	}
	for n := range seen {
		tT, tOk := thenScope.vars[n]
		eT, eOk := elseScope.vars[n]
		switch {
		case tOk && eOk:
			scope.Bind(n, pytype.Join(tT, eT))
		case tOk:
			if orig, ok := scope.Lookup(n); ok {
				scope.Bind(n, pytype.Join(tT, orig))
			} else {
				scope.Bind(n, tT)
			}
		case eOk:
			if orig, ok := scope.Lookup(n); ok {
				scope.Bind(n, pytype.Join(eT, orig))
			} else {
				scope.Bind(n, eT)
			}
		}
	}
}

func (s *Solver) checkFor(scope *Scope, st For) {
	iterT := s.TypeOfExpr(scope, st.Iter)
	elemT := elementType(iterT)
	inner := scope.Child()
	s.bindTarget(inner, st.Target, elemT)
	s.CheckBlock(inner, st.Body)
}

func elementType(t pytype.Type) pytype.Type {
	switch tt := t.(type) {
	case pytype.TClass:
		if len(tt.Args) > 0 {
			return tt.Args[0]
		}
	case pytype.TTuple:
		var result pytype.Type = pytype.TNever{}
		for _, e := range tt.Elems {
			result = pytype.Join(result, e)
		}
		return result
	case pytype.TAny:
		return tt
	}
	return pytype.TAny{Reason: pytype.AnyError}
}

func (s *Solver) checkWith(scope *Scope, st With) {
	for _, item := range st.Items {
		resultT := s.checkWithItem(scope, item, st.IsAsync)
		if item.As != nil {
			s.bindTarget(scope, item.As, resultT)
		}
	}
	s.CheckBlock(scope, st.Body)
}

// bindTarget binds a Name target, or distributes elementwise over a
// Tuple/List target (destructuring assignment). Attribute and Subscript
// targets are evaluated for diagnostics but bind nothing.
func (s *Solver) bindTarget(scope *Scope, target Expr, t pytype.Type) {
	switch tgt := target.(type) {
	case Name:
		scope.Bind(tgt.Id, t)
		s.bind(tgt.Id, tgt.Range(), t)
	case Starred:
		s.bindTarget(scope, tgt.Value, t)
	case Tuple:
		s.bindDestructure(scope, tgt.Elts, t)
	case List:
		s.bindDestructure(scope, tgt.Elts, t)
	case Attribute:
		s.TypeOfExpr(scope, tgt.Value)
	case Subscript:
		s.TypeOfExpr(scope, tgt.Value)
		s.TypeOfExpr(scope, tgt.Index)
	}
}

func (s *Solver) bindDestructure(scope *Scope, elts []Expr, t pytype.Type) {
	if tup, ok := t.(pytype.TTuple); ok && len(tup.Elems) == len(elts) {
		for i, elt := range elts {
			s.bindTarget(scope, elt, tup.Elems[i])
		}
		return
	}
	elemT := elementType(t)
	for _, elt := range elts {
		s.bindTarget(scope, elt, elemT)
	}
}

// isGuardReturn reports whether a return annotation is TypeGuard[T]/TypeIs[T]
// and, if so, the T expression.
func isGuardReturn(e Expr) (Expr, bool) {
	sub, ok := e.(Subscript)
	if !ok {
		return nil, false
	}
	name := subscriptBaseName(sub.Value)
	if name != "TypeGuard" && name != "TypeIs" {
		return nil, false
	}
	args := flattenAnnotationArgs(sub.Index)
	if len(args) != 1 {
		return nil, false
	}
	return args[0], true
}

// checkFuncDef types a function/method definition, registers it for
// overload/guard bookkeeping, and binds its (possibly decorator-rewritten)
// type into scope. isMethod controls whether an unannotated first parameter
// defaults to Self rather than Any (spec §3's implicit self/cls typing).
func (s *Solver) checkFuncDef(scope *Scope, f FuncDef, isMethod bool) pytype.Type {
	defScope := scope
	if len(f.TypeParams) > 0 {
		defScope = scope.Child()
		for _, name := range f.TypeParams {
			tv := ids.New(pytype.TypeVarData{Name: name})
			defScope.Bind(name, pytype.TTypeVar{Ref: tv})
		}
	}

	inner := defScope.Child()
	params := make([]pytype.CallableParam, len(f.Params))
	for i, p := range f.Params {
		var pt pytype.Type
		if i == 0 && isMethod && p.Annotation == nil {
			pt = pytype.TSelf{}
		} else {
			pt = s.ResolveAnnotation(defScope, p.Annotation)
		}
		inner.Bind(p.Name, pt)
		params[i] = pytype.CallableParam{Name: p.Name, Type: pt, Kind: paramKind(p.Kind), HasDefault: p.Default != nil}
		if p.Default != nil {
			s.TypeOfExpr(defScope, p.Default)
		}
	}

	savedStack := s.returnsStack
	var collected []pytype.Type
	s.returnsStack = &collected
	s.CheckBlock(inner, f.Body)
	s.returnsStack = savedStack

	var retT pytype.Type
	if f.Returns != nil {
		retT = s.ResolveAnnotation(defScope, f.Returns)
		for _, t := range collected {
			if !s.subtype(t, retT) {
				s.errorf(diag.ReturnTypeMismatch, f.Range(), "return type %s is not assignable to declared return type %s", t, retT)
			}
		}
	} else if len(collected) == 0 {
		retT = pytype.TLiteral{Value: pytype.LiteralValue{IsNone: true}}
	} else {
		retT = collected[0]
		for _, t := range collected[1:] {
			retT = pytype.Join(retT, t)
		}
	}

	funcType := pytype.TCallable{Params: params, Return: retT, IsAsync: f.IsAsync}

	decTypes := make([]pytype.Type, len(f.Decorators))
	overload := false
	for i, d := range f.Decorators {
		decTypes[i] = s.TypeOfExpr(scope, d)
		if isCallNamed(d, "overload") {
			overload = true
		}
	}
	finalT, _, ok := classmodel.ApplyDecoratorChain(decTypes, funcType)
	if !ok {
		s.errorf(diag.ArgumentMismatch, f.Range(), "decorator chain could not be applied to %q", f.Name)
		finalT = funcType
	}

	if overload {
		s.overloadSets[f.Name] = append(s.overloadSets[f.Name], funcType)
	}
	if target, ok := isGuardReturn(f.Returns); ok {
		s.guardReturns[f.Name] = s.ResolveAnnotation(defScope, target)
	}

	scope.Bind(f.Name, finalT)
	s.bind(f.Name, f.Range(), finalT)
	return finalT
}

// classifyMemberInitializer recognizes the enum-member exclusions spec §4.3
// names from the shape of a class-body assignment's right-hand side.
func classifyMemberInitializer(v Expr) classmodel.MemberInitializerKind {
	switch val := v.(type) {
	case Call:
		if isCallNamed(val.Func, "nonmember") {
			return classmodel.InitNonmemberCall
		}
		if isCallNamed(val.Func, "member") {
			return classmodel.InitMemberWrapped
		}
	case Name:
		if val.Id == "staticmethod" {
			return classmodel.InitStaticMethod
		}
		if val.Id == "classmethod" {
			return classmodel.InitClassMethod
		}
	case Lambda:
		return classmodel.InitCallableOrBoundMethod
	}
	return classmodel.InitPlainValue
}

// isBaseNamed reports whether base (possibly subscripted, e.g.
// `Protocol[T]`) refers to name.
func isBaseNamed(e Expr, name string) bool {
	switch ex := e.(type) {
	case Name:
		return ex.Id == name
	case Attribute:
		return ex.Attr == name
	case Subscript:
		return isBaseNamed(ex.Value, name)
	}
	return false
}

func (s *Solver) baseSubscriptArgs(scope *Scope, e Expr) []pytype.Type {
	sub, ok := e.(Subscript)
	if !ok {
		return nil
	}
	args := flattenAnnotationArgs(sub.Index)
	out := make([]pytype.Type, len(args))
	for i, a := range args {
		out[i] = s.ResolveAnnotation(scope, a)
	}
	return out
}

// checkClassDef builds a classmodel.ClassRef from a class statement (spec
// §4.2): interns the class, resolves bases (recognizing the Protocol,
// Generic, TypedDict, NamedTuple, and Enum special forms), walks the body to
// collect fields and methods, validates bases/type-params, and computes MRO.
func (s *Solver) checkClassDef(scope *Scope, c ClassDef) pytype.Type {
	qname := modname.NewQName(c.Name, s.Module)
	ref := classmodel.NewClass(qname)
	data := ref.Get()

	classScope := scope.Child()
	for _, tpName := range c.TypeParams {
		tv := ids.New(pytype.TypeVarData{Name: tpName})
		classScope.Bind(tpName, pytype.TTypeVar{Ref: tv})
		data.TypeParams = append(data.TypeParams, classmodel.TypeParam{Name: tpName})
	}

	isDataclass, frozen, kwOnly := false, false, false
	for _, d := range c.Decorators {
		if isCallNamed(d, "dataclass") {
			isDataclass = true
		}
		if call, ok := d.(Call); ok && isCallNamed(call.Func, "dataclass") {
			isDataclass = true
			for _, kw := range call.Keywords {
				if lit, ok := kw.Value.(Constant); ok {
					if b, ok := lit.Value.(bool); ok {
						switch kw.Name {
						case "frozen":
							frozen = b
						case "kw_only":
							kwOnly = b
						}
					}
				}
			}
		}
	}
	data.IsDataclass = isDataclass
	data.DataclassFrozen = frozen
	data.DataclassKwOnly = kwOnly

	for _, kw := range c.Keywords {
		if kw.Name == "total" {
			if lit, ok := kw.Value.(Constant); ok {
				if b, ok := lit.Value.(bool); ok {
					data.TypedDictTotal = b
				}
			}
		}
	}

	isTypedDict, isNamedTuple := false, false
	for _, baseExpr := range c.Bases {
		switch {
		case isBaseNamed(baseExpr, "Protocol"):
			data.IsProtocol = true
			data.Bases = append(data.Bases, classmodel.BaseClass{Kind: classmodel.BaseProtocol, Args: s.baseSubscriptArgs(classScope, baseExpr)})
		case isBaseNamed(baseExpr, "Generic"):
			data.Bases = append(data.Bases, classmodel.BaseClass{Kind: classmodel.BaseGeneric, Args: s.baseSubscriptArgs(classScope, baseExpr)})
		case isBaseNamed(baseExpr, "TypedDict"):
			isTypedDict = true
			data.IsTypedDict = true
			data.Bases = append(data.Bases, classmodel.BaseClass{Kind: classmodel.BaseTypedDict})
		case isBaseNamed(baseExpr, "NamedTuple"):
			isNamedTuple = true
			data.IsNamedTuple = true
			data.Bases = append(data.Bases, classmodel.BaseClass{Kind: classmodel.BaseNamedTuple})
		case isBaseNamed(baseExpr, "Enum"):
			data.IsEnum = true
		default:
			baseT := s.TypeOfExpr(classScope, baseExpr)
			if baseCls, ok := baseT.(pytype.TClass); ok {
				if baseRef, ok := baseCls.Class.(classmodel.ClassRef); ok {
					data.Bases = append(data.Bases, classmodel.BaseClass{Kind: classmodel.BaseOrdinary, Class: baseRef, Type: baseT})
					continue
				}
			}
			if _, ok := baseT.(pytype.TAny); !ok {
				s.errorf(diag.InvalidBaseClass, baseExpr.Range(), "invalid base class expression")
			}
		}
	}

	for _, issue := range classmodel.ValidateBases(ref) {
		s.errorf(diag.BadProtocolBase, c.Range(), "%s", issue.Message)
	}
	for _, issue := range classmodel.ValidateTypeParams(ref) {
		s.errorf(diag.InvalidGenericArguments, c.Range(), "%s", issue.Message)
	}

	clsType := pytype.TClass{Class: ref, ClassName: c.Name}
	// Bind the name before walking the body so self-referential annotations
	// (`def copy(self) -> C`, or methods returning Self) and nested
	// accesses to the class's own name resolve.
	classScope.Bind(c.Name, clsType)
	scope.Bind(c.Name, clsType)

	for _, bodyStmt := range c.Body {
		s.checkClassBodyStmt(classScope, ref, bodyStmt, isTypedDict, isNamedTuple)
	}

	if _, err := classmodel.ComputeMRO(ref); err != nil {
		s.errorf(diag.AmbiguousMRO, c.Range(), "%s", err.Error())
	}

	s.bind(c.Name, c.Range(), clsType)
	return clsType
}

func (s *Solver) checkClassBodyStmt(classScope *Scope, ref classmodel.ClassRef, bodyStmt Stmt, isTypedDict, isNamedTuple bool) {
	data := ref.Get()
	switch bst := bodyStmt.(type) {
	case FuncDef:
		methodT := s.checkFuncDef(classScope, bst, true)
		decoKind, isDeco := decorationKind(bst.Decorators)
		if isDeco {
			methodT = pytype.TDecoration{Kind: decoKind, Inner: methodT}
		}
		data.AddField(classmodel.Field{Name: bst.Name, Type: methodT})
	case ClassDef:
		s.checkClassDef(classScope, bst)
	case AnnAssign:
		declared := s.ResolveAnnotation(classScope, bst.Annotation)
		required := data.TypedDictTotal
		if sub, ok := bst.Annotation.(Subscript); ok {
			switch subscriptBaseName(sub.Value) {
			case "Required":
				required = true
				declared = s.ResolveAnnotation(classScope, firstArg(sub.Index))
			case "NotRequired":
				required = false
				declared = s.ResolveAnnotation(classScope, firstArg(sub.Index))
			}
		}
		targetName, ok := bst.Target.(Name)
		if !ok {
			return
		}
		if bst.Value != nil {
			s.TypeOfExpr(classScope, bst.Value)
		}
		field := classmodel.Field{Name: targetName.Id, Type: declared, HasDefault: bst.Value != nil}
		data.AddField(field)
		if isTypedDict || isNamedTuple {
			data.Fields[targetName.Id].SetRequired(required)
		}
	case Assign:
		for _, target := range bst.Targets {
			nameExpr, ok := target.(Name)
			if !ok {
				s.TypeOfExpr(classScope, bst.Value)
				continue
			}
			if data.IsEnum || classmodel.IsEnumClass(ref) {
				kind := classifyMemberInitializer(bst.Value)
				if classmodel.IsEnumMember(nameExpr.Id, kind) {
					memberT := classmodel.MakeEnumMemberType(ref, nameExpr.Id)
					data.AddField(classmodel.Field{Name: nameExpr.Id, Type: memberT})
					continue
				}
			}
			vt := s.TypeOfExpr(classScope, bst.Value)
			data.AddField(classmodel.Field{Name: nameExpr.Id, Type: vt, HasDefault: true})
		}
	case Pass:
		// no-op (common as a protocol/stub body)
	default:
		s.checkStmt(classScope, bodyStmt)
	}
}

// decorationKind recognizes the four built-in decorators that change how
// attribute access and constructor synthesis treat a method (spec §4.2/§4.3).
func decorationKind(decorators []Expr) (pytype.DecorationKind, bool) {
	for _, d := range decorators {
		switch {
		case isCallNamed(d, "property"):
			return pytype.DecProperty, true
		case isCallNamed(d, "staticmethod"):
			return pytype.DecStaticMethod, true
		case isCallNamed(d, "classmethod"):
			return pytype.DecClassMethod, true
		case isCallNamed(d, "member"):
			return pytype.DecEnumMember, true
		}
	}
	return 0, false
}
