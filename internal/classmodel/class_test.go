package classmodel

import (
	"testing"

	"github.com/gradualtype/tycheck/internal/modname"
	"github.com/gradualtype/tycheck/internal/pytype"
)

func qname(local string) modname.QName {
	info := modname.NewInfo(modname.NewName("m"), modname.NewFilesystemPath("m.py"), "")
	return modname.NewQName(local, info)
}

var builtinClassCache = map[string]ClassRef{}

// builtinClass interns a nominal class to stand in for a builtin type like
// int/str/bytes/float in tests, memoized by name so repeated references to
// "int" share one identity — as real builtin classes are singletons
// interned once by the stdlib fixture loader.
func builtinClass(name string) ClassRef {
	if c, ok := builtinClassCache[name]; ok {
		return c
	}
	c := NewClass(qname(name))
	builtinClassCache[name] = c
	return c
}

func classType(ref ClassRef) pytype.Type {
	return pytype.TClass{Class: ref, ClassName: ref.Get().QName.Local}
}

func strType(name string) pytype.Type { return classType(builtinClass(name)) }

func ordinaryBase(c ClassRef) BaseClass {
	return BaseClass{Kind: BaseOrdinary, Class: c}
}

// TestDataclassFieldOrder reproduces spec §8's scenario 7 and end-to-end
// scenario 1: A(w), B(A, !dataclass){x}, C(B, dataclass){y}, D(C,
// dataclass){z} — D's constructor arity must be (w, y, z) in that order.
func TestDataclassFieldOrder(t *testing.T) {
	intT := strType("int")
	strT := strType("str")
	bytesT := strType("bytes")
	floatT := strType("float")

	a := NewClass(qname("A"))
	a.Get().IsDataclass = true
	a.Get().AddField(Field{Name: "w", Type: intT})

	b := NewClass(qname("B"))
	b.Get().Bases = []BaseClass{ordinaryBase(a)}
	b.Get().AddField(Field{Name: "x", Type: strT})

	c := NewClass(qname("C"))
	c.Get().Bases = []BaseClass{ordinaryBase(b)}
	c.Get().IsDataclass = true
	c.Get().AddField(Field{Name: "y", Type: bytesT})

	d := NewClass(qname("D"))
	d.Get().Bases = []BaseClass{ordinaryBase(c)}
	d.Get().IsDataclass = true
	d.Get().AddField(Field{Name: "z", Type: floatT})

	fields := DataclassConstructorFields(d)
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	want := []string{"w", "y", "z"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestC3LinearizationDiamond(t *testing.T) {
	o := NewClass(qname("object"))
	base1 := NewClass(qname("Base1"))
	base1.Get().Bases = []BaseClass{ordinaryBase(o)}
	base2 := NewClass(qname("Base2"))
	base2.Get().Bases = []BaseClass{ordinaryBase(o)}
	derived := NewClass(qname("Derived"))
	derived.Get().Bases = []BaseClass{ordinaryBase(base1), ordinaryBase(base2)}

	mro, err := ComputeMRO(derived)
	if err != nil {
		t.Fatalf("unexpected MRO error: %v", err)
	}
	if len(mro) != 4 {
		t.Fatalf("expected 4 classes in MRO, got %d: %v", len(mro), mro)
	}
	if !mro[0].Equals(derived) || !mro[len(mro)-1].Equals(o) {
		t.Fatalf("expected Derived first and object last, got %v", mro)
	}
}

func TestProtocolTransparencyIgnoresDeclarationOrder(t *testing.T) {
	reg := NewRegistry()
	p := NewClass(qname("P"))
	p.Get().IsProtocol = true
	p.Get().AddField(Field{Name: "x", Type: strType("int")})
	p.Get().AddField(Field{Name: "y", Type: strType("str")})

	c1 := NewClass(qname("C1"))
	c1.Get().AddField(Field{Name: "y", Type: strType("str")})
	c1.Get().AddField(Field{Name: "x", Type: strType("int")})

	if !reg.IsProtocol(p) {
		t.Fatalf("expected p to be recognized as protocol")
	}
	attrs := reg.ProtocolAttributes(p)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 protocol attributes, got %d", len(attrs))
	}
	cType := pytype.TClass{Class: c1, ClassName: "C1"}
	pType := pytype.TClass{Class: p, ClassName: "P"}
	if !pytype.Subtype(cType, pType, reg) {
		t.Fatalf("expected C1 to structurally satisfy P regardless of declaration order")
	}
}

func TestProtocolMismatchRejectsIncompatibleField(t *testing.T) {
	reg := NewRegistry()
	p := NewClass(qname("P"))
	p.Get().IsProtocol = true
	p.Get().AddField(Field{Name: "x", Type: strType("int")})
	p.Get().AddField(Field{Name: "y", Type: strType("str")})

	c2 := NewClass(qname("C2"))
	c2.Get().AddField(Field{Name: "x", Type: strType("str")})

	cType := pytype.TClass{Class: c2, ClassName: "C2"}
	pType := pytype.TClass{Class: p, ClassName: "P"}
	if pytype.Subtype(cType, pType, reg) {
		t.Fatalf("C2 should not satisfy P: missing y, wrong x type")
	}
}

func TestEnumMemberDiscrimination(t *testing.T) {
	if !IsEnumMember("RED", InitPlainValue) {
		t.Fatalf("RED should be a member")
	}
	if IsEnumMember("_x_", InitPlainValue) {
		t.Fatalf("_x_ is sunder-reserved, should be excluded")
	}
	if IsEnumMember("__y__", InitPlainValue) {
		t.Fatalf("__y__ is dunder-reserved, should be excluded")
	}
}

func TestBadProtocolBaseValidation(t *testing.T) {
	protocolMarker := NewClass(qname("Protocol"))
	protocolMarker.Get().IsProtocol = true
	plain := NewClass(qname("Plain"))

	p := NewClass(qname("P"))
	p.Get().Bases = []BaseClass{
		{Kind: BaseProtocol},
		ordinaryBase(plain),
	}
	issues := ValidateBases(p)
	if len(issues) != 1 || issues[0].Code != "BadProtocolBase" {
		t.Fatalf("expected one BadProtocolBase issue, got %v", issues)
	}
}
