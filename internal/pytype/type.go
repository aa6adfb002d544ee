// Package pytype implements the type algebra described in spec §3/§4.1: the
// sum type of every inferred type, together with visitation, substitution,
// display and subtyping. The variant shape follows the teacher's
// internal/types.Type interface (String/Equals/Substitute on every variant);
// Visit/VisitMut/Subst generalize the teacher's single-purpose Substitute
// into the fuller traversal spec §4.1 asks for.
package pytype

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gradualtype/tycheck/internal/ids"
)

// Type is satisfied by every type variant. Implementations are immutable
// values (or immutable wrappers around interned pointers) and safe to share.
type Type interface {
	fmt.Stringer
	// Visit calls f with each immediate child type. It does not recurse.
	Visit(f func(Type))
	// VisitMut rebuilds this type with each immediate child replaced by
	// g(child); used by Subst and SubstSelf.
	VisitMut(g func(Type) Type) Type
	isType()
}

type base struct{}

func (base) isType() {}

// ---- Any / Never ----

// AnyReason explains why a value is Any (unannotated, error-recovery,
// explicit, or from an unresolved import).
type AnyReason int

const (
	AnyUnannotated AnyReason = iota
	AnyError
	AnyExplicit
	AnyUnresolvedImport
)

func (r AnyReason) String() string {
	switch r {
	case AnyUnannotated:
		return "unannotated"
	case AnyError:
		return "error"
	case AnyExplicit:
		return "explicit"
	case AnyUnresolvedImport:
		return "unresolved-import"
	default:
		return "any"
	}
}

type TAny struct {
	base
	Reason AnyReason
}

func (t TAny) String() string                { return "Any" }
func (t TAny) Visit(func(Type))               {}
func (t TAny) VisitMut(func(Type) Type) Type  { return t }

type TNever struct{ base }

func (t TNever) String() string               { return "Never" }
func (t TNever) Visit(func(Type))              {}
func (t TNever) VisitMut(func(Type) Type) Type { return t }

// ---- Module ----

// TModule is the type of a module reference (used for `import x` bindings).
type TModule struct {
	base
	Name string
}

func (t TModule) String() string               { return "Module[" + t.Name + "]" }
func (t TModule) Visit(func(Type))              {}
func (t TModule) VisitMut(func(Type) Type) Type { return t }

// ---- SelfType ----

// TSelf stands for `Self` inside a class body, resolved via SubstSelf before
// the class's MRO is computed (spec §3 invariant).
type TSelf struct{ base }

func (t TSelf) String() string               { return "Self" }
func (t TSelf) Visit(func(Type))              {}
func (t TSelf) VisitMut(func(Type) Type) Type { return t }

// ---- Literal ----

// LiteralValue is one of bool, int64, string, []byte, nil (None), or
// EnumMember.
type LiteralValue struct {
	Bool    *bool
	Int     *int64
	Str     *string
	Bytes   []byte
	IsNone  bool
	Enum    *EnumMember
}

// EnumMember identifies one member of an enum class by name. The Class
// field is an opaque identity (ids.ArcId[ClassData], defined in
// internal/classmodel) passed through as `any` to avoid an import cycle;
// classmodel re-exports a typed constructor.
type EnumMember struct {
	Class any // ids.ArcId[classmodel.ClassData]
	Name  string
}

func (e EnumMember) String() string {
	return fmt.Sprintf("%v.%s", e.Class, e.Name)
}

func (lv LiteralValue) String() string {
	switch {
	case lv.Bool != nil:
		if *lv.Bool {
			return "True"
		}
		return "False"
	case lv.Int != nil:
		return fmt.Sprintf("%d", *lv.Int)
	case lv.Str != nil:
		return fmt.Sprintf("%q", *lv.Str)
	case lv.Bytes != nil:
		return fmt.Sprintf("b%q", string(lv.Bytes))
	case lv.IsNone:
		return "None"
	case lv.Enum != nil:
		return lv.Enum.String()
	}
	return "<invalid-literal>"
}

func (lv LiteralValue) Equals(o LiteralValue) bool {
	switch {
	case lv.Bool != nil && o.Bool != nil:
		return *lv.Bool == *o.Bool
	case lv.Int != nil && o.Int != nil:
		return *lv.Int == *o.Int
	case lv.Str != nil && o.Str != nil:
		return *lv.Str == *o.Str
	case lv.Bytes != nil && o.Bytes != nil:
		return string(lv.Bytes) == string(o.Bytes)
	case lv.IsNone && o.IsNone:
		return true
	case lv.Enum != nil && o.Enum != nil:
		return lv.Enum.Name == o.Enum.Name && fmt.Sprint(lv.Enum.Class) == fmt.Sprint(o.Enum.Class)
	}
	return false
}

// Widen returns the nominal type a literal widens to ("int", "str", ...);
// the enum case widens to the enum class itself, represented by the caller
// substituting a ClassType.
func (lv LiteralValue) WidenedConstructorName() string {
	switch {
	case lv.Bool != nil:
		return "bool"
	case lv.Int != nil:
		return "int"
	case lv.Str != nil:
		return "str"
	case lv.Bytes != nil:
		return "bytes"
	case lv.IsNone:
		return "NoneType"
	case lv.Enum != nil:
		return fmt.Sprint(lv.Enum.Class)
	}
	return "object"
}

type TLiteral struct {
	base
	Value LiteralValue
}

func (t TLiteral) String() string               { return "Literal[" + t.Value.String() + "]" }
func (t TLiteral) Visit(func(Type))              {}
func (t TLiteral) VisitMut(func(Type) Type) Type { return t }

// ---- Class instantiation ----

// TClass is a class reference applied to type arguments, e.g. `list[int]`.
// Class is carried as `any` (an ids.ArcId[classmodel.ClassData]) to avoid an
// import cycle between pytype and classmodel; classmodel provides a typed
// wrapper (classmodel.Instantiate) that constructs these.
type TClass struct {
	base
	Class     any // ids.ArcId[classmodel.ClassData]
	ClassName string // display-only cache of the class's qualified name
	Args      []Type
}

func (t TClass) String() string {
	if len(t.Args) == 0 {
		return t.ClassName
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", t.ClassName, strings.Join(parts, ", "))
}

func (t TClass) Visit(f func(Type)) {
	for _, a := range t.Args {
		f(a)
	}
}

func (t TClass) VisitMut(g func(Type) Type) Type {
	newArgs := make([]Type, len(t.Args))
	changed := false
	for i, a := range t.Args {
		na := g(a)
		newArgs[i] = na
		if na != a {
			changed = true
		}
	}
	if !changed {
		return t
	}
	t.Args = newArgs
	return t
}

// classIdentity compares the opaque Class field by Stringer output, which
// classmodel guarantees is derived from pointer identity (ids.ArcId.String
// is based on the allocation sequence number).
func classIdentity(a, b any) bool {
	sa, oka := a.(fmt.Stringer)
	sb, okb := b.(fmt.Stringer)
	if oka && okb {
		return sa.String() == sb.String()
	}
	return a == b
}

// ---- Tuple ----

type TTuple struct {
	base
	Elems    []Type
	Unbounded bool // true for `tuple[int, ...]`
}

func (t TTuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	if t.Unbounded {
		parts = append(parts, "...")
	}
	return fmt.Sprintf("tuple[%s]", strings.Join(parts, ", "))
}

func (t TTuple) Visit(f func(Type)) {
	for _, e := range t.Elems {
		f(e)
	}
}

func (t TTuple) VisitMut(g func(Type) Type) Type {
	newElems := make([]Type, len(t.Elems))
	for i, e := range t.Elems {
		newElems[i] = g(e)
	}
	t.Elems = newElems
	return t
}

// ---- Callable ----

type CallableParamKind int

const (
	CPPositionalOrKeyword CallableParamKind = iota
	CPPositionalOnly
	CPKeywordOnly
	CPVarArgs
	CPKwArgs
)

type CallableParam struct {
	Name     string // empty for positional-only unnamed params
	Type     Type
	Kind     CallableParamKind
	HasDefault bool
}

// TCallable is a function signature. ParamSpecRef, if non-nil, makes this a
// `Callable` parameterized by a ParamSpec (`Concatenate[int, P]`-style);
// Params is then the concatenated prefix only.
type TCallable struct {
	base
	Params      []CallableParam
	Return      Type
	ParamSpec   any // *TParamSpec, nil if not ParamSpec-polymorphic
	IsAsync     bool
}

func (t TCallable) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		prefix := ""
		switch p.Kind {
		case CPVarArgs:
			prefix = "*"
		case CPKwArgs:
			prefix = "**"
		}
		if p.Name != "" {
			parts[i] = fmt.Sprintf("%s%s: %s", prefix, p.Name, p.Type.String())
		} else {
			parts[i] = prefix + p.Type.String()
		}
	}
	async := ""
	if t.IsAsync {
		async = "async "
	}
	return fmt.Sprintf("%s(%s) -> %s", async, strings.Join(parts, ", "), t.Return.String())
}

func (t TCallable) Visit(f func(Type)) {
	for _, p := range t.Params {
		f(p.Type)
	}
	f(t.Return)
}

func (t TCallable) VisitMut(g func(Type) Type) Type {
	newParams := make([]CallableParam, len(t.Params))
	for i, p := range t.Params {
		p.Type = g(p.Type)
		newParams[i] = p
	}
	t.Params = newParams
	t.Return = g(t.Return)
	return t
}

// TBoundMethod wraps a TCallable whose first parameter (`self`/`cls`) has
// already been bound away.
type TBoundMethod struct {
	base
	Underlying TCallable
	Instance   Type
}

func (t TBoundMethod) String() string { return t.Underlying.String() }
func (t TBoundMethod) Visit(f func(Type)) {
	f(t.Instance)
	t.Underlying.Visit(f)
}
func (t TBoundMethod) VisitMut(g func(Type) Type) Type {
	t.Instance = g(t.Instance)
	t.Underlying = t.Underlying.VisitMut(g).(TCallable)
	return t
}

// ---- Union / Intersection ----

type TUnion struct {
	base
	Parts []Type
}

func (t TUnion) String() string {
	if len(t.Parts) == 0 {
		return "Never"
	}
	parts := make([]string, len(t.Parts))
	for i, p := range t.Parts {
		parts[i] = p.String()
	}
	return strings.Join(parts, " | ")
}

func (t TUnion) Visit(f func(Type)) {
	for _, p := range t.Parts {
		f(p)
	}
}

func (t TUnion) VisitMut(g func(Type) Type) Type {
	newParts := make([]Type, len(t.Parts))
	for i, p := range t.Parts {
		newParts[i] = g(p)
	}
	t.Parts = newParts
	return t
}

// TIntersection is computed lazily per spec §9's design note; it appears
// only where a narrowing step (e.g. isinstance against a protocol) cannot be
// expressed as a single nominal type.
type TIntersection struct {
	base
	Parts []Type
}

func (t TIntersection) String() string {
	parts := make([]string, len(t.Parts))
	for i, p := range t.Parts {
		parts[i] = p.String()
	}
	return strings.Join(parts, " & ")
}

func (t TIntersection) Visit(f func(Type)) {
	for _, p := range t.Parts {
		f(p)
	}
}

func (t TIntersection) VisitMut(g func(Type) Type) Type {
	newParts := make([]Type, len(t.Parts))
	for i, p := range t.Parts {
		newParts[i] = g(p)
	}
	t.Parts = newParts
	return t
}

// ---- TypeVar / ParamSpec / TypeVarTuple ----

// Restriction constrains what a TypeVar may be solved to.
type Restriction struct {
	Kind        RestrictionKind
	Constraints []Type // for RestrictConstraints
	Bound       Type   // for RestrictBound
}

type RestrictionKind int

const (
	RestrictUnrestricted RestrictionKind = iota
	RestrictConstraints
	RestrictBound
)

// Variance of a TypeVar; VarianceInfer means the solver must derive it from
// usage (spec §3: "optional variance (None means infer)").
type Variance int

const (
	VarianceInfer Variance = iota
	VarianceInvariant
	VarianceCovariant
	VarianceContravariant
)

// TypeVarData is the interned payload of a type variable.
type TypeVarData struct {
	Name        string
	Restriction Restriction
	Default     Type // nil if none
	Variance    Variance
}

// TTypeVar wraps an interned TypeVarData handle.
type TTypeVar struct {
	base
	Ref ids.ArcId[TypeVarData]
}

func (t TTypeVar) String() string               { return t.Ref.Get().Name }
func (t TTypeVar) Visit(func(Type))              {}
func (t TTypeVar) VisitMut(func(Type) Type) Type { return t }

// ParamSpecData is the interned payload of a ParamSpec.
type ParamSpecData struct {
	Name    string
	Default *TCallable // nil if none
}

type TParamSpec struct {
	base
	Ref ids.ArcId[ParamSpecData]
}

func (t TParamSpec) String() string               { return t.Ref.Get().Name }
func (t TParamSpec) Visit(func(Type))              {}
func (t TParamSpec) VisitMut(func(Type) Type) Type { return t }

// TypeVarTupleData is the interned payload of a TypeVarTuple (PEP-646).
type TypeVarTupleData struct {
	Name    string
	Default []Type // nil if none; open question per spec §9 on inheritance propagation
}

type TTypeVarTuple struct {
	base
	Ref ids.ArcId[TypeVarTupleData]
}

func (t TTypeVarTuple) String() string               { return "*" + t.Ref.Get().Name }
func (t TTypeVarTuple) Visit(func(Type))              {}
func (t TTypeVarTuple) VisitMut(func(Type) Type) Type { return t }

// ---- Decoration ----

type DecorationKind int

const (
	DecProperty DecorationKind = iota
	DecStaticMethod
	DecClassMethod
	DecEnumMember
)

func (k DecorationKind) String() string {
	switch k {
	case DecProperty:
		return "property"
	case DecStaticMethod:
		return "staticmethod"
	case DecClassMethod:
		return "classmethod"
	case DecEnumMember:
		return "enum.member"
	default:
		return "decoration"
	}
}

// TDecoration wraps a function type with one of the built-in decorator
// markers (property/staticmethod/classmethod/enum member) that changes how
// attribute access and the class constructor treat it, distinct from
// user-defined decorators (§4.6) which are resolved to their call result
// directly rather than retained as a wrapper.
type TDecoration struct {
	base
	Kind  DecorationKind
	Inner Type
}

func (t TDecoration) String() string {
	return fmt.Sprintf("%s(%s)", t.Kind.String(), t.Inner.String())
}
func (t TDecoration) Visit(f func(Type)) { f(t.Inner) }
func (t TDecoration) VisitMut(g func(Type) Type) Type {
	t.Inner = g(t.Inner)
	return t
}

// ---- TypedDict ----

type TypedDictField struct {
	Type     Type
	Required bool
	ReadOnly bool
}

// TypedDictData is the interned payload backing a TTypedDict instantiation;
// the ordered field names are kept separately from the map to preserve
// declaration order (spec §4.4's "ordered field map").
type TypedDictData struct {
	Name        string
	FieldOrder  []string
	Fields      map[string]TypedDictField
}

func (d *TypedDictData) OrderedFields() []string {
	return append([]string(nil), d.FieldOrder...)
}

type TTypedDict struct {
	base
	Ref ids.ArcId[TypedDictData]
}

func (t TTypedDict) String() string { return t.Ref.Get().Name }
func (t TTypedDict) Visit(func(Type)) {}
func (t TTypedDict) VisitMut(func(Type) Type) Type { return t }

// ---- SpecialForm ----

// SpecialFormKind is a typing-module construct prior to application, e.g.
// bare `Union`, `Optional`, `Final`, `Literal`, `Callable`, `Generic`,
// `Protocol`, `ClassVar`, `TypeAlias`.
type SpecialFormKind int

const (
	SFUnion SpecialFormKind = iota
	SFOptional
	SFFinal
	SFLiteral
	SFCallable
	SFGeneric
	SFProtocol
	SFClassVar
	SFTypeAlias
	SFAnnotated
	SFConcatenate
	SFTypeGuard
	SFTypeIs
)

func (k SpecialFormKind) String() string {
	names := [...]string{"Union", "Optional", "Final", "Literal", "Callable", "Generic", "Protocol", "ClassVar", "TypeAlias", "Annotated", "Concatenate", "TypeGuard", "TypeIs"}
	if int(k) < len(names) {
		return names[k]
	}
	return "SpecialForm"
}

type TSpecialForm struct {
	base
	Kind SpecialFormKind
}

func (t TSpecialForm) String() string               { return t.Kind.String() }
func (t TSpecialForm) Visit(func(Type))              {}
func (t TSpecialForm) VisitMut(func(Type) Type) Type { return t }

// ---- Substitution ----

// Substitution maps interned type variables to replacement types, keyed by
// the TypeVarData pointer identity so lookups are capture-free regardless of
// name collisions across scopes (spec §4.1).
type Substitution struct {
	byTypeVar    map[*TypeVarData]Type
	byParamSpec  map[*ParamSpecData]TCallable
	byTypeVarTup map[*TypeVarTupleData][]Type
}

func NewSubstitution() *Substitution {
	return &Substitution{
		byTypeVar:    map[*TypeVarData]Type{},
		byParamSpec:  map[*ParamSpecData]TCallable{},
		byTypeVarTup: map[*TypeVarTupleData][]Type{},
	}
}

func (s *Substitution) Bind(tv TTypeVar, t Type) {
	s.byTypeVar[tv.Ref.Get()] = t
}

func (s *Substitution) BindParamSpec(ps TParamSpec, c TCallable) {
	s.byParamSpec[ps.Ref.Get()] = c
}

func (s *Substitution) BindTypeVarTuple(tvt TTypeVarTuple, ts []Type) {
	s.byTypeVarTup[tvt.Ref.Get()] = ts
}

func (s *Substitution) IsEmpty() bool {
	return len(s.byTypeVar) == 0 && len(s.byParamSpec) == 0 && len(s.byTypeVarTup) == 0
}

// Subst applies a substitution to t, capture-free because TypeVars are
// interned: binding lookups compare pointer identity, not name.
func Subst(t Type, s *Substitution) Type {
	if s == nil || s.IsEmpty() {
		return t
	}
	switch tv := t.(type) {
	case TTypeVar:
		if repl, ok := s.byTypeVar[tv.Ref.Get()]; ok {
			return repl
		}
		return t
	case TCallable:
		if tv.ParamSpec != nil {
			if ps, ok := tv.ParamSpec.(TParamSpec); ok {
				if repl, ok := s.byParamSpec[ps.Ref.Get()]; ok {
					merged := repl
					merged.Params = append(append([]CallableParam(nil), tv.Params...), repl.Params...)
					return Subst(merged.VisitMut(func(c Type) Type { return Subst(c, s) }), nil)
				}
			}
		}
		return t.VisitMut(func(c Type) Type { return Subst(c, s) })
	default:
		return t.VisitMut(func(c Type) Type { return Subst(c, s) })
	}
}

// SubstSelf replaces every TSelf occurrence with selfTy.
func SubstSelf(t Type, selfTy Type) Type {
	switch t.(type) {
	case TSelf:
		return selfTy
	default:
		return t.VisitMut(func(c Type) Type { return SubstSelf(c, selfTy) })
	}
}

// FreeTypeVars collects the distinct free type variables reachable from t.
func FreeTypeVars(t Type) []TTypeVar {
	seen := map[*TypeVarData]bool{}
	var out []TTypeVar
	var walk func(Type)
	walk = func(t Type) {
		if tv, ok := t.(TTypeVar); ok {
			if !seen[tv.Ref.Get()] {
				seen[tv.Ref.Get()] = true
				out = append(out, tv)
			}
			return
		}
		t.Visit(walk)
	}
	walk(t)
	sort.Slice(out, func(i, j int) bool { return out[i].Ref.Less(out[j].Ref) })
	return out
}
