package answers

import (
	"github.com/gradualtype/tycheck/internal/classmodel"
	"github.com/gradualtype/tycheck/internal/modname"
	"github.com/gradualtype/tycheck/internal/pytype"
)

// Builtins is the bootstrap symbol table matching the names declared in the
// embedded fixture (internal/stdfixture/fixtures/builtins.pyi). A full binder
// stage would parse that fixture text with a real parser and produce these
// classes from its AST like any other module; until that parser is wired in
// (spec §1 assumes one is supplied externally), Builtins constructs the
// handful of classes the solver needs directly, so that literal widening
// (§4.1), isinstance narrowing (§4.9), and dunder-operator lookup (§4.8) have
// somewhere real to resolve to.
type Builtins struct {
	classes map[string]classmodel.ClassRef
	types   map[string]pytype.Type
}

func selfParam() pytype.CallableParam {
	return pytype.CallableParam{Name: "self", Type: pytype.TSelf{}, Kind: pytype.CPPositionalOrKeyword}
}

func param(name string, t pytype.Type) pytype.CallableParam {
	return pytype.CallableParam{Name: name, Type: t, Kind: pytype.CPPositionalOrKeyword}
}

func classType(ref classmodel.ClassRef) pytype.Type {
	return pytype.TClass{Class: ref, ClassName: ref.Get().QName.Local}
}

// NewBuiltins allocates and wires the bootstrap classes.
func NewBuiltins() *Builtins {
	b := &Builtins{classes: map[string]classmodel.ClassRef{}, types: map[string]pytype.Type{}}
	mod := &modname.Info{Name: modname.NewName("builtins")}

	names := []string{
		"object", "bool", "int", "float", "str", "bytes",
		"list", "dict", "tuple", "set",
		"BaseException", "Exception", "NoneType", "type",
	}
	for _, n := range names {
		b.classes[n] = classmodel.NewClass(modname.NewQName(n, mod))
	}

	setBases := func(name string, bases ...string) {
		data := b.classes[name].Get()
		for _, base := range bases {
			data.Bases = append(data.Bases, classmodel.BaseClass{Kind: classmodel.BaseOrdinary, Class: b.classes[base]})
		}
	}
	setBases("bool", "int")
	setBases("int", "object")
	setBases("float", "object")
	setBases("str", "object")
	setBases("bytes", "object")
	setBases("list", "object")
	setBases("dict", "object")
	setBases("tuple", "object")
	setBases("set", "object")
	setBases("BaseException", "object")
	setBases("Exception", "BaseException")
	setBases("NoneType", "object")
	setBases("type", "object")

	for _, n := range names {
		b.types[n] = classType(b.classes[n])
	}

	addMethod := func(clsName, methodName string, params []pytype.CallableParam, ret pytype.Type) {
		all := append([]pytype.CallableParam{selfParam()}, params...)
		b.classes[clsName].Get().AddField(classmodel.Field{Name: methodName, Type: pytype.TCallable{Params: all, Return: ret}})
	}

	boolT, intT, floatT, strT, bytesT, objT := b.types["bool"], b.types["int"], b.types["float"], b.types["str"], b.types["bytes"], b.types["object"]

	addMethod("object", "__eq__", []pytype.CallableParam{param("other", objT)}, boolT)
	addMethod("object", "__ne__", []pytype.CallableParam{param("other", objT)}, boolT)
	addMethod("object", "__repr__", nil, strT)
	addMethod("object", "__str__", nil, strT)
	addMethod("object", "__hash__", nil, intT)

	addMethod("bool", "__bool__", nil, boolT)

	addMethod("int", "__add__", []pytype.CallableParam{param("other", intT)}, intT)
	addMethod("int", "__radd__", []pytype.CallableParam{param("other", intT)}, intT)
	addMethod("int", "__sub__", []pytype.CallableParam{param("other", intT)}, intT)
	addMethod("int", "__mul__", []pytype.CallableParam{param("other", intT)}, intT)
	addMethod("int", "__neg__", nil, intT)
	addMethod("int", "__bool__", nil, boolT)

	addMethod("float", "__add__", []pytype.CallableParam{param("other", floatT)}, floatT)
	addMethod("float", "__bool__", nil, boolT)

	addMethod("str", "__add__", []pytype.CallableParam{param("other", strT)}, strT)
	addMethod("str", "__radd__", []pytype.CallableParam{param("other", strT)}, strT)
	addMethod("str", "__bool__", nil, boolT)
	addMethod("str", "__len__", nil, intT)

	addMethod("bytes", "__add__", []pytype.CallableParam{param("other", bytesT)}, bytesT)
	addMethod("bytes", "__bool__", nil, boolT)

	for _, n := range []string{"list", "dict", "tuple", "set"} {
		addMethod(n, "__bool__", nil, boolT)
		addMethod(n, "__len__", nil, intT)
	}
	b.classes["list"].Get().AddField(classmodel.Field{Name: "append", Type: pytype.TCallable{
		Params: []pytype.CallableParam{selfParam(), param("value", objT)}, Return: pytype.TLiteral{Value: pytype.LiteralValue{IsNone: true}},
	}})

	return b
}

func (b *Builtins) Resolve(name string) (pytype.Type, bool) {
	t, ok := b.types[name]
	return t, ok
}

func (b *Builtins) Class(name string) (classmodel.ClassRef, bool) {
	c, ok := b.classes[name]
	return c, ok
}

// WidenResolver adapts Resolve to the shape pytype.Widen wants.
func (b *Builtins) WidenResolver() func(string) pytype.Type {
	return func(name string) pytype.Type {
		if t, ok := b.types[name]; ok {
			return t
		}
		return anyError()
	}
}
