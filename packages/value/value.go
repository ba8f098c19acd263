package value

import (
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindUndefined marks an absent value: a missing key, an out of range
	// index, or a leaf removed by save-as extraction.
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "array"
	case KindMapping:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a JSON-like tree node. The zero Value is Undefined.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	seq  []Value
	m    *Map
}

var (
	Undefined = Value{}
	Null      = Value{kind: KindNull}
)

func NewBool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func NewNumber(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

func NewInt(n int) Value {
	return Value{kind: KindNumber, n: float64(n)}
}

func NewString(s string) Value {
	return Value{kind: KindString, s: s}
}

// NewSequence returns a sequence holding items. A nil slice yields an
// empty sequence, never Undefined.
func NewSequence(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, seq: items}
}

// NewMapping wraps m. A nil map yields an empty mapping.
func NewMapping(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMapping, m: m}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsContainer reports whether v is a sequence or a mapping.
func (v Value) IsContainer() bool {
	return v.kind == KindSequence || v.kind == KindMapping
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsInt returns the number as an int when it is integral.
func (v Value) AsInt() (int, bool) {
	if v.kind != KindNumber || v.n != math.Trunc(v.n) || math.IsInf(v.n, 0) {
		return 0, false
	}
	return int(v.n), true
}

// Items returns the elements of a sequence, or nil for any other kind.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// Map returns the underlying mapping, or nil for any other kind.
func (v Value) Map() *Map {
	if v.kind != KindMapping {
		return nil
	}
	return v.m
}

// Len returns the number of elements of a container or the byte length
// of a string. It is zero for all other kinds.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		return v.m.Len()
	case KindString:
		return len(v.s)
	}
	return 0
}

// Index returns the i-th element, or Undefined when v is not a sequence
// or i is out of range.
func (v Value) Index(i int) Value {
	if v.kind != KindSequence || i < 0 || i >= len(v.seq) {
		return Undefined
	}
	return v.seq[i]
}

// Field returns the value stored under key, or Undefined when v is not a
// mapping or the key is missing.
func (v Value) Field(key string) Value {
	if v.kind != KindMapping {
		return Undefined
	}
	val, ok := v.m.Get(key)
	if !ok {
		return Undefined
	}
	return val
}

// String renders v the way it is substituted into a template: strings
// verbatim, integral numbers without a fraction, containers as JSON.
func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return FormatNumber(v.n)
	case KindString:
		return v.s
	default:
		data, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// FormatNumber formats n without exponent or trailing zeros.
func FormatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if math.IsNaN(n) {
		return "NaN"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Interface converts v into plain Go values: nil, bool, float64, string,
// []any and map[string]any. Undefined and Null both become nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
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
		for _, k := range v.m.Keys() {
			val, _ := v.m.Get(k)
			out[k] = val.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports strict equality: kinds must match, scalars compare by
// value and containers compare element-wise. Mapping key order is not
// significant.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
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
		for _, k := range a.m.Keys() {
			av, _ := a.m.Get(k)
			bv, ok := b.m.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}
