// Package document implements the generic tree every corpus file parses into.
//
// A [Value] is a closed tagged union: Null, Bool, Number, String, Sequence or
// Mapping. Mappings keep their keys unique and remember insertion order so
// that encoded output is deterministic. Values are treated as immutable after
// construction. Operations that transform a tree (merge, reference
// resolution, meta stripping) build new values and never modify their input.
//
// The zero Value is Null.
package document

import (
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

// The Value variants.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one node of a document tree.
type Value struct {
	kind Kind
	b    bool
	// integer numbers keep their exact int64 form so that 3 encodes as 3
	isInt bool
	i     int64
	f     float64
	s     string
	seq   []Value
	m     *Mapping
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer number value.
func Int(i int64) Value { return Value{kind: KindNumber, isInt: true, i: i, f: float64(i)} }

// Float returns a floating point number value.
func Float(f float64) Value { return Value{kind: KindNumber, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Seq returns a sequence value holding items. The slice is copied.
func Seq(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindSequence, seq: cp}
}

// Map returns a mapping value built from fields in order. A repeated key
// keeps its first position and its last value.
func Map(fields ...Field) Value {
	m := NewMapping(len(fields))
	for _, f := range fields {
		m.Set(f.Key, f.Value)
	}
	return FromMapping(m)
}

// FromMapping wraps m as a Value. A nil m yields an empty mapping.
func FromMapping(m *Mapping) Value {
	if m == nil {
		m = NewMapping(0)
	}
	return Value{kind: KindMapping, m: m}
}

// Field is one key/value pair of a mapping.
type Field struct {
	Key   string
	Value Value
}

// F is shorthand for Field{Key: k, Value: v}.
func F(k string, v Value) Field { return Field{Key: k, Value: v} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsMapping reports whether v is a mapping.
func (v Value) IsMapping() bool { return v.kind == KindMapping }

// IsSequence reports whether v is a sequence.
func (v Value) IsSequence() bool { return v.kind == KindSequence }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsFloat returns the number held by v as a float64.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if v.isInt {
		return float64(v.i), true
	}
	return v.f, true
}

// AsInt returns the number held by v when it is an integer.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if v.isInt {
		return v.i, true
	}
	if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) && math.Abs(v.f) < 1<<53 {
		return int64(v.f), true
	}
	return 0, false
}

// AsMapping returns the mapping held by v. The mapping must not be modified.
func (v Value) AsMapping() (*Mapping, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	return v.m, true
}

// Items returns a copy of the items of a sequence.
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	cp := make([]Value, len(v.seq))
	copy(cp, v.seq)
	return cp, true
}

// Len returns the number of items of a sequence or entries of a mapping.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		return v.m.Len()
	default:
		return 0
	}
}

// Index returns item i of a sequence.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindSequence || i < 0 || i >= len(v.seq) {
		return Value{}, false
	}
	return v.seq[i], true
}

// Get returns the value stored under key when v is a mapping.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	return v.m.Get(key)
}

// Without returns a copy of a mapping with the given keys removed. Any other
// kind is returned unchanged.
func (v Value) Without(keys ...string) Value {
	if v.kind != KindMapping {
		return v
	}
	return FromMapping(v.m.Without(keys...))
}

// With returns a copy of a mapping with key set to val. Any other kind is
// returned unchanged.
func (v Value) With(key string, val Value) Value {
	if v.kind != KindMapping {
		return v
	}
	m := v.m.Clone()
	m.Set(key, val)
	return FromMapping(m)
}

// Equal reports whether a and b hold the same tree. Mapping key order is
// not significant. Integer and float numbers with the same value are equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		if a.isInt && b.isInt {
			return a.i == b.i
		}
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return af == bf
	case KindString:
		return a.s == b.s
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if a.m.Len() != b.m.Len() {
			return false
		}
		for _, k := range a.m.keys {
			bv, ok := b.m.Get(k)
			if !ok || !Equal(a.m.vals[k], bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Interface converts v into plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any. Mapping order is lost.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.isInt {
			return v.i
		}
		return v.f
	case KindString:
		return v.s
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, v.m.Len())
		for _, k := range v.m.keys {
			out[k] = v.m.vals[k].Interface()
		}
		return out
	default:
		return nil
	}
}
