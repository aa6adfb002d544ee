package pytype

import "testing"

func intLit(v int64) TLiteral { return TLiteral{Value: LiteralValue{Int: &v}} }
func strLit(v string) TLiteral { return TLiteral{Value: LiteralValue{Str: &v}} }

func TestSubtypeReflexivity(t *testing.T) {
	cases := []Type{
		TAny{},
		TNever{},
		intLit(1),
		TTuple{Elems: []Type{intLit(1), strLit("x")}},
		TUnion{Parts: []Type{intLit(1), strLit("x")}},
	}
	for _, ty := range cases {
		if !Subtype(ty, ty, nil) {
			t.Fatalf("expected %s <: %s (reflexivity)", ty, ty)
		}
	}
}

func TestNeverIsSubtypeOfEverything(t *testing.T) {
	if !Subtype(TNever{}, intLit(1), nil) {
		t.Fatalf("Never must be a subtype of everything")
	}
}

func TestAnyIsBidirectional(t *testing.T) {
	if !Subtype(TAny{}, intLit(1), nil) || !Subtype(intLit(1), TAny{}, nil) {
		t.Fatalf("Any must be assignable both ways")
	}
}

func TestUnionDistributesOnLeft(t *testing.T) {
	u := TUnion{Parts: []Type{intLit(1), intLit(1)}}
	// after flattening via NormalizeUnion this collapses, so build directly
	// with distinct literals instead to exercise both-sides-must-hold.
	u = TUnion{Parts: []Type{intLit(1), intLit(2)}}
	target := TUnion{Parts: []Type{intLit(1), intLit(2), intLit(3)}}
	if !Subtype(u, target, nil) {
		t.Fatalf("A|B <: C should hold when both A<:C and B<:C")
	}
}

func TestUnionDistributesOnRight(t *testing.T) {
	target := TUnion{Parts: []Type{intLit(1), strLit("x")}}
	if !Subtype(intLit(1), target, nil) {
		t.Fatalf("C <: A|B should hold when C<:A")
	}
	if Subtype(intLit(2), target, nil) {
		t.Fatalf("C <: A|B should fail when C doesn't match either arm")
	}
}

func TestNormalizeUnionIdempotent(t *testing.T) {
	u := NormalizeUnion(intLit(1), intLit(1), strLit("x"))
	u2 := NormalizeUnion(u)
	if !Equals(u, u2) {
		t.Fatalf("normalize should be idempotent: %s vs %s", u, u2)
	}
}

func TestNormalizeUnionDropsNever(t *testing.T) {
	u := NormalizeUnion(TNever{}, intLit(1))
	if !Equals(u, intLit(1)) {
		t.Fatalf("Never should vanish from a union, got %s", u)
	}
}

func TestSubstIdentityOnEmptySubstitution(t *testing.T) {
	ty := TTuple{Elems: []Type{intLit(1), strLit("x")}}
	out := Subst(ty, NewSubstitution())
	if !Equals(ty, out) {
		t.Fatalf("subst with empty substitution must be identity")
	}
}

func TestCallableSubtypeContravariantParamsCovariantReturn(t *testing.T) {
	object := TClass{Class: "object", ClassName: "object"}
	number := TClass{Class: "int", ClassName: "int"}
	// sub accepts the wider type (object) and returns the narrower (int):
	// this should be a subtype of a callable that accepts int and returns object.
	sub := TCallable{Params: []CallableParam{{Type: object}}, Return: number}
	sup := TCallable{Params: []CallableParam{{Type: number}}, Return: object}
	env := &fakeEnv{}
	if !Subtype(sub, sup, env) {
		t.Fatalf("expected contravariant/covariant callable subtyping to hold")
	}
	if Subtype(sup, sub, env) {
		t.Fatalf("the reverse should not hold in general")
	}
}

type fakeEnv struct{}

// IsNominalSubclass: every class in these fixtures derives from object.
func (fakeEnv) IsNominalSubclass(sub, sup any) bool { return sup == "object" }
func (fakeEnv) IsProtocol(cls any) bool             { return false }
func (fakeEnv) ProtocolAttributes(cls any) map[string]ProtocolAttr { return nil }
func (fakeEnv) Attribute(cls any, name string) (Type, bool, bool)  { return nil, false, false }

func TestTruthyFalsyLiteralFolding(t *testing.T) {
	trueLit := TLiteral{Value: LiteralValue{Bool: boolPtr(true)}}
	emptyStr := strLit("")
	if !Equals(Truthy(trueLit), trueLit) {
		t.Fatalf("Truthy(True) should remain True")
	}
	if !Equals(Falsy(emptyStr), emptyStr) {
		t.Fatalf("Falsy('') should remain ''")
	}
	if _, ok := Truthy(emptyStr).(TNever); !ok {
		t.Fatalf("Truthy('') should be Never")
	}
}

func boolPtr(b bool) *bool { return &b }
