package classmodel

import "github.com/gradualtype/tycheck/internal/pytype"

// Registry answers the structural/nominal questions pytype.Subtype needs,
// implementing pytype.ClassEnv. One Registry is shared by every handle in a
// single driver run (classes are allocated once per defining module and
// outlive any single module's analysis, per spec §3 "Lifecycles").
type Registry struct{}

func NewRegistry() *Registry { return &Registry{} }

func asClassRef(v any) (ClassRef, bool) {
	c, ok := v.(ClassRef)
	return c, ok
}

// IsNominalSubclass implements pytype.ClassEnv.
func (r *Registry) IsNominalSubclass(sub, sup any) bool {
	subRef, ok1 := asClassRef(sub)
	supRef, ok2 := asClassRef(sup)
	if !ok1 || !ok2 {
		return false
	}
	mro, _ := ComputeMRO(subRef)
	for _, c := range mro {
		if c.Equals(supRef) {
			return true
		}
	}
	return false
}

// IsProtocol implements pytype.ClassEnv.
func (r *Registry) IsProtocol(cls any) bool {
	ref, ok := asClassRef(cls)
	if !ok {
		return false
	}
	return ref.Get().IsProtocol
}

// ProtocolAttributes implements pytype.ClassEnv. It walks the protocol's own
// MRO (protocols may extend other protocols) and collects every declared
// field into the structural requirement set; method order and inheritance
// depth do not matter (spec §4.2: "Protocols ignore method order and
// inheritance as long as the required set of attributes is satisfied").
func (r *Registry) ProtocolAttributes(cls any) map[string]pytype.ProtocolAttr {
	ref, ok := asClassRef(cls)
	if !ok {
		return nil
	}
	mro, _ := ComputeMRO(ref)
	out := map[string]pytype.ProtocolAttr{}
	// Walk from object (the last MRO entry) up to the most-derived class
	// (index 0) so ancestor protocol members are present but a subclass's
	// own re-declaration wins — the most-derived class's field is assigned
	// last.
	for i := len(mro) - 1; i >= 0; i-- {
		for _, f := range mro[i].Get().OrderedFields() {
			out[f.Name] = pytype.ProtocolAttr{Type: f.Type, ReadOnly: f.ReadOnly}
		}
	}
	return out
}

// Attribute implements pytype.ClassEnv: look up name on cls, following MRO,
// most-derived first.
func (r *Registry) Attribute(cls any, name string) (pytype.Type, bool, bool) {
	ref, ok := asClassRef(cls)
	if !ok {
		return nil, false, false
	}
	mro, _ := ComputeMRO(ref)
	for _, c := range mro {
		if f, ok := c.Get().Fields[name]; ok {
			return f.Type, f.ReadOnly, true
		}
	}
	return nil, false, false
}

var _ pytype.ClassEnv = (*Registry)(nil)
