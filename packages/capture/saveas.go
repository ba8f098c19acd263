package capture

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
)

const (
	markerPrefix = "{{saveAs:"
	markerSuffix = "}}"
)

// SaveAsError reports a capture whose field is missing from the response.
type SaveAsError struct {
	Name string
}

func (e *SaveAsError) Error() string {
	return fmt.Sprintf("saveAs: cannot extract value for %s", e.Name)
}

// SaveAsMarker reports whether s is a capture instruction and returns the
// variable name it captures into.
func SaveAsMarker(s string) (string, bool) {
	if len(s) < len(markerPrefix)+len(markerSuffix) {
		return "", false
	}
	if !strings.HasPrefix(s, markerPrefix) || !strings.HasSuffix(s, markerSuffix) {
		return "", false
	}
	return s[len(markerPrefix) : len(s)-len(markerSuffix)], true
}

// ExtractSaveAs splits expected into a comparison tree and a set of
// captures, walking actual in parallel.
//
// A pure capture leaf resolves to Undefined on both sides. Inside a
// mapping such keys are dropped from the returned trees; inside a sequence
// the position is kept as Undefined so indices stay aligned. When actual
// has a different shape than expected it is returned as is, leaving the
// mismatch for the comparator to report.
func ExtractSaveAs(expected, actual value.Value) (value.Value, value.Value, map[string]value.Value, error) {
	vars := make(map[string]value.Value)
	exp, act, err := extract(expected, actual, vars)
	if err != nil {
		return value.Undefined, value.Undefined, vars, err
	}
	return exp, act, vars, nil
}

func extract(expected, actual value.Value, vars map[string]value.Value) (value.Value, value.Value, error) {
	switch expected.Kind() {
	case value.KindString:
		s, _ := expected.AsString()
		name, ok := SaveAsMarker(s)
		if !ok {
			return expected, actual, nil
		}
		if actual.IsUndefined() {
			return value.Undefined, value.Undefined, &SaveAsError{Name: name}
		}
		vars[name] = actual
		return value.Undefined, value.Undefined, nil

	case value.KindSequence:
		return extractSequence(expected, actual, vars)

	case value.KindMapping:
		return extractMapping(expected, actual, vars)

	default:
		return expected, actual, nil
	}
}

func extractSequence(expected, actual value.Value, vars map[string]value.Value) (value.Value, value.Value, error) {
	expItems := expected.Items()
	outExp := make([]value.Value, len(expItems))
	sameShape := actual.Kind() == value.KindSequence

	// positions past the end of expected keep their actual value so the
	// comparator still sees the real length
	var outAct []value.Value
	if sameShape {
		outAct = make([]value.Value, actual.Len())
		copy(outAct, actual.Items())
	}

	for i, item := range expItems {
		e, a, err := extract(item, actual.Index(i), vars)
		if err != nil {
			return value.Undefined, value.Undefined, err
		}
		outExp[i] = e
		if sameShape && i < len(outAct) {
			outAct[i] = a
		}
	}

	if !sameShape {
		return value.NewSequence(outExp...), actual, nil
	}
	return value.NewSequence(outExp...), value.NewSequence(outAct...), nil
}

func extractMapping(expected, actual value.Value, vars map[string]value.Value) (value.Value, value.Value, error) {
	src := expected.Map()
	outExp := value.NewMap()
	outAct := value.NewMap()

	for _, key := range src.Keys() {
		item, _ := src.Get(key)
		e, a, err := extract(item, actual.Field(key), vars)
		if err != nil {
			return value.Undefined, value.Undefined, err
		}
		if !e.IsUndefined() {
			outExp.Set(key, e)
		}
		if !a.IsUndefined() {
			outAct.Set(key, a)
		}
	}

	if actual.Kind() != value.KindMapping {
		return value.NewMapping(outExp), actual, nil
	}
	return value.NewMapping(outExp), value.NewMapping(outAct), nil
}
