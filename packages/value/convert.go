package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// From converts plain Go data into a Value. Maps with unordered keys
// (map[string]any, map[string]string) are converted in sorted key order.
// Unsupported types are rendered with %v into a string.
func From(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case Value:
		return t
	case *Map:
		return NewMapping(t)
	case bool:
		return NewBool(t)
	case int:
		return NewNumber(float64(t))
	case int8:
		return NewNumber(float64(t))
	case int16:
		return NewNumber(float64(t))
	case int32:
		return NewNumber(float64(t))
	case int64:
		return NewNumber(float64(t))
	case uint:
		return NewNumber(float64(t))
	case uint8:
		return NewNumber(float64(t))
	case uint16:
		return NewNumber(float64(t))
	case uint32:
		return NewNumber(float64(t))
	case uint64:
		return NewNumber(float64(t))
	case float32:
		return NewNumber(float64(t))
	case float64:
		return NewNumber(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return NewString(t.String())
		}
		return NewNumber(f)
	case string:
		return NewString(t)
	case []Value:
		return NewSequence(t...)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = From(item)
		}
		return NewSequence(items...)
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = NewString(item)
		}
		return NewSequence(items...)
	case map[string]any:
		m := NewMap()
		for _, k := range sortedKeys(t) {
			m.Set(k, From(t[k]))
		}
		return NewMapping(m)
	case map[string]string:
		m := NewMap()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Set(k, NewString(t[k]))
		}
		return NewMapping(m)
	default:
		return NewString(fmt.Sprintf("%v", v))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes v keeping mapping key order. Undefined encodes as
// null since JSON has no representation for it.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindUndefined, KindNull:
		buf.WriteString("null")
	case KindBool, KindNumber, KindString:
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		buf.WriteByte('{')
		for i, k := range v.m.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			val, _ := v.m.Get(k)
			if err := val.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}
