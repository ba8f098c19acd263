package assertions

import (
	"fmt"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
	"github.com/ohler55/ojg/jp"
)

// AssertJSONPath evaluates each declared path against body, in declared
// order, and returns one result per path. The first match of a path is
// compared with the expected value by strict equality.
func AssertJSONPath(body value.Value, paths *value.Map) []*Result {
	results := make([]*Result, 0, paths.Len())
	data := toPathData(body)

	for _, path := range paths.Keys() {
		expected, _ := paths.Get(path)
		results = append(results, assertPath(data, path, expected))
	}
	return results
}

func assertPath(data any, path string, expected value.Value) *Result {
	matches, err := evalPath(data, path)
	if err != nil {
		return failed(fmt.Sprintf("Invalid JSONPath: %s", path), expected, value.Undefined, []string{path})
	}
	if len(matches) == 0 {
		return failed(fmt.Sprintf("JSONPath %s not found in response", path), expected, value.Undefined, []string{path})
	}

	actual := fromPathData(matches[0])
	if !value.Equal(actual, expected) {
		return failed(fmt.Sprintf("JSONPath %s expected %s but got %s", path, expected, actual), expected, actual, []string{path})
	}

	res := passed(fmt.Sprintf("JSONPath %s matched", path), []string{path})
	res.Expected = expected
	res.Actual = actual
	return res
}

func evalPath(data any, path string) (matches []any, err error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, err
	}

	// some malformed filters only fail during evaluation
	defer func() {
		if r := recover(); r != nil {
			matches, err = nil, fmt.Errorf("evaluate %s: %v", path, r)
		}
	}()
	return expr.Get(data), nil
}

// orderedObject feeds mappings to jp in declared key order, so wildcards,
// descents and filters over objects return their first match the way the
// document lists it.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func (o *orderedObject) ValueForKey(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *orderedObject) SetValueForKey(key string, v any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *orderedObject) RemoveValueForKey(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *orderedObject) Keys() []string {
	return o.keys
}

var _ jp.Keyed = (*orderedObject)(nil)

func toPathData(v value.Value) any {
	switch v.Kind() {
	case value.KindSequence:
		items := v.Items()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = toPathData(item)
		}
		return out
	case value.KindMapping:
		m := v.Map()
		obj := &orderedObject{
			keys:   make([]string, 0, m.Len()),
			values: make(map[string]any, m.Len()),
		}
		for _, k := range m.Keys() {
			val, _ := m.Get(k)
			obj.SetValueForKey(k, toPathData(val))
		}
		return obj
	default:
		return v.Interface()
	}
}

func fromPathData(data any) value.Value {
	switch t := data.(type) {
	case *orderedObject:
		m := value.NewMap()
		for _, k := range t.keys {
			m.Set(k, fromPathData(t.values[k]))
		}
		return value.NewMapping(m)
	case []any:
		items := make([]value.Value, len(t))
		for i, item := range t {
			items[i] = fromPathData(item)
		}
		return value.NewSequence(items...)
	default:
		return value.From(t)
	}
}
