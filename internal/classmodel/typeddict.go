package classmodel

import "github.com/gradualtype/tycheck/internal/pytype"

// TypedDictConstructor builds the keyword-only constructor signature for a
// TypedDict class (spec §4.4): one parameter per field, required or
// optional per the field's Required flag, matching TypedDictTotal unless
// overridden per-field.
func TypedDictConstructor(cls ClassRef, selfType pytype.Type) pytype.TCallable {
	fields := cls.Get().OrderedFields()
	params := make([]pytype.CallableParam, len(fields))
	for i, f := range fields {
		params[i] = pytype.CallableParam{
			Name:       f.Name,
			Type:       f.Type,
			Kind:       pytype.CPKeywordOnly,
			HasDefault: !f.Required(),
		}
	}
	return pytype.TCallable{Params: params, Return: selfType}
}

// Required reports whether a TypedDict field must be supplied; it is
// attached to Field via the class's TypedDictTotal default, captured at
// field-declaration time (see internal/answers' typed-dict body walker,
// which calls SetRequired on the field right after AddField). A field with
// no override is required.
func (f *Field) Required() bool {
	if f.requiredOverride != nil {
		return *f.requiredOverride
	}
	return true
}

// SetRequired records an explicit Required[...]/NotRequired[...] override,
// or the class-level `total=False` default, for this field.
func (f *Field) SetRequired(v bool) {
	f.requiredOverride = &v
}

// ToTypedDictData converts a resolved TypedDict class into the interned
// pytype.TypedDictData payload the type algebra carries around
// (pytype.TTypedDict), so that structural assignment checks (width,
// readonly-covariance) can run without reaching back into classmodel.
func ToTypedDictData(cls ClassRef) *pytype.TypedDictData {
	data := cls.Get()
	fields := map[string]pytype.TypedDictField{}
	order := append([]string(nil), data.FieldOrder...)
	for name, f := range data.Fields {
		fields[name] = pytype.TypedDictField{Type: f.Type, Required: f.Required(), ReadOnly: f.ReadOnly}
	}
	return &pytype.TypedDictData{Name: data.QName.String(), FieldOrder: order, Fields: fields}
}

// AssignableTypedDict implements spec §4.4's structural assignment check: a
// source typed-dict is assignable to target iff target's required keys are
// present as required in source, optional keys are present as
// required-or-optional, and types match invariantly unless the target key is
// read-only (then covariantly).
func AssignableTypedDict(source, target *pytype.TypedDictData, env pytype.ClassEnv) bool {
	for name, wantField := range target.Fields {
		haveField, ok := source.Fields[name]
		if !ok {
			return false
		}
		if wantField.Required && !haveField.Required {
			return false
		}
		if wantField.ReadOnly {
			if !pytype.Subtype(haveField.Type, wantField.Type, env) {
				return false
			}
		} else {
			if !pytype.Equals(haveField.Type, wantField.Type) {
				return false
			}
		}
	}
	return true
}
