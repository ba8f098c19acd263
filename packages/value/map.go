package value

// Map is a string-keyed mapping that remembers insertion order.
type Map struct {
	keys   []string
	values map[string]Value
}

func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set stores val under key. Re-setting an existing key keeps its
// original position.
func (m *Map) Set(key string, val Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = val
}

func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Undefined, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order. The slice must not be modified.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MapOf builds a Map from alternating key, value pairs. It is mostly
// useful in tests.
func MapOf(pairs ...any) *Map {
	m := NewMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		m.Set(key, From(pairs[i+1]))
	}
	return m
}

// Object is shorthand for NewMapping(MapOf(pairs...)).
func Object(pairs ...any) Value {
	return NewMapping(MapOf(pairs...))
}

// Array is shorthand for a sequence built from plain Go values.
func Array(items ...any) Value {
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = From(item)
	}
	return NewSequence(out...)
}
