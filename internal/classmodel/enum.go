package classmodel

import (
	"strings"

	"github.com/gradualtype/tycheck/internal/pytype"
)

// IsDunder / IsSunder implement the naming exclusions spec §4.3 lists for
// enum member discrimination.
func IsDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

func IsSunder(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") && !IsDunder(name)
}

// MemberInitializerKind classifies the right-hand side of a class-level
// assignment inside an Enum body, for the exclusion rules in spec §4.3.
type MemberInitializerKind int

const (
	InitPlainValue MemberInitializerKind = iota
	InitNonmemberCall
	InitStaticMethod
	InitClassMethod
	InitEnumProperty
	InitCallableOrBoundMethod
	InitMemberWrapped
)

// IsEnumMember decides whether a class-level assignment becomes an enum
// member, applying every exclusion in spec §4.3: dunder/sunder names,
// nonmember()/staticmethod/classmethod/enum.property initializers, and
// callables/bound methods unless wrapped with @member.
func IsEnumMember(name string, kind MemberInitializerKind) bool {
	if IsDunder(name) || IsSunder(name) {
		return false
	}
	switch kind {
	case InitNonmemberCall, InitStaticMethod, InitClassMethod, InitEnumProperty:
		return false
	case InitCallableOrBoundMethod:
		return false
	case InitMemberWrapped, InitPlainValue:
		return true
	}
	return true
}

// MakeEnumMemberType builds the Literal[EnumMember] type for a recognized
// member, per spec §4.3 ("Each member is exposed as a
// Literal(EnumMember{cls, name})").
func MakeEnumMemberType(cls ClassRef, name string) pytype.TLiteral {
	return pytype.TLiteral{Value: pytype.LiteralValue{Enum: &pytype.EnumMember{Class: cls, Name: name}}}
}

// IsEnumClass reports whether cls transitively inherits from Enum, per
// spec §4.3 ("A class is an enum if it inherits (transitively) from Enum").
// This walks the already-computed MRO rather than re-checking IsEnum on
// cls alone, so a subclass of an Enum class is recognized too.
func IsEnumClass(cls ClassRef) bool {
	if cls.Get().IsEnum {
		return true
	}
	mro, _ := ComputeMRO(cls)
	for _, c := range mro {
		if c.Get().IsEnum {
			return true
		}
	}
	return false
}
