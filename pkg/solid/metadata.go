package solid

import "maps"

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid is the zero Value.
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

// Value is a small typed value for annotations that have no dedicated
// Metadata field.
type Value struct {
	Kind Kind    `json:"k"`
	I64  int64   `json:"i,omitempty"`
	F64  float64 `json:"f,omitempty"`
	S    string  `json:"s,omitempty"`
	B    bool    `json:"b,omitempty"`
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, S: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// AsFloat64 returns the value of a float or integer Value.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.F64, true
	case KindInt:
		return float64(v.I64), true
	}
	return 0, false
}

// AsString returns the string if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.S, true
}

// Metadata annotates a face or an edge. The known provenance fields are
// typed; anything else goes in Extra.
type Metadata struct {
	// Source names the operation that created the face, e.g. "fillet".
	Source string `json:"source,omitempty"`
	// FeatureID groups faces produced by one feature invocation.
	FeatureID string `json:"featureId,omitempty"`
	// Role is the face's part in its feature, e.g. "round" or "cap".
	Role   string  `json:"role,omitempty"`
	Radius float64 `json:"radius,omitempty"`
	// TangentFaces lists the faces a generated surface is tangent to.
	TangentFaces []string `json:"tangentFaces,omitempty"`
	SheetMetal   string   `json:"sheetMetal,omitempty"`

	Extra map[string]Value `json:"extra,omitempty"`
}

// Clone returns a deep copy of m. Clone of nil is nil.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := *m
	c.TangentFaces = append([]string(nil), m.TangentFaces...)
	c.Extra = maps.Clone(m.Extra)
	return &c
}

// Set stores an extension value.
func (m *Metadata) Set(key string, v Value) {
	if m.Extra == nil {
		m.Extra = make(map[string]Value)
	}
	m.Extra[key] = v
}

// Get returns an extension value.
func (m *Metadata) Get(key string) (Value, bool) {
	v, ok := m.Extra[key]
	return v, ok
}

// mergeMeta copies entries of src missing from dst.
func mergeMeta(dst, src map[string]*Metadata) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v.Clone()
		}
	}
}

func cloneMeta(src map[string]*Metadata) map[string]*Metadata {
	dst := make(map[string]*Metadata, len(src))
	for k, v := range src {
		dst[k] = v.Clone()
	}
	return dst
}
