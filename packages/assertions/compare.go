package assertions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
)

// DeepCompare checks actual against expected and returns the first
// mismatch found in a depth-first, left-to-right walk of expected. Mapping
// keys are visited in their declared order and keys present only in actual
// are ignored.
func DeepCompare(actual, expected value.Value, path []string) *Result {
	if IsRegex(expected) {
		literal, _ := expected.AsString()
		ok, err := MatchRegex(literal, actual)
		if err != nil {
			return failed(fmt.Sprintf("Value at %s has an invalid regex: %v", joinPath(path), err), expected, actual, path)
		}
		if !ok {
			return failed(fmt.Sprintf("Value at %s does not match regex", joinPath(path)), expected, actual, path)
		}
		return passed("Regex match", path)
	}

	switch expected.Kind() {
	case value.KindSequence:
		if actual.Kind() != value.KindSequence || actual.Len() != expected.Len() {
			return failed(fmt.Sprintf("Array length mismatch at %s", joinPath(path)), expected, actual, path)
		}
		for i, item := range expected.Items() {
			if res := DeepCompare(actual.Index(i), item, appendPath(path, strconv.Itoa(i))); !res.Passed {
				return res
			}
		}
		return passed("Array match", path)

	case value.KindMapping:
		if actual.Kind() != value.KindMapping {
			return failed(fmt.Sprintf("Expected object at %s", joinPath(path)), expected, actual, path)
		}
		m := expected.Map()
		for _, key := range m.Keys() {
			item, _ := m.Get(key)
			if res := DeepCompare(actual.Field(key), item, appendPath(path, key)); !res.Passed {
				return res
			}
		}
		return passed("Object match", path)
	}

	if !value.Equal(actual, expected) {
		return failed(fmt.Sprintf("Value mismatch at %s", joinPath(path)), expected, actual, path)
	}
	return passed("Value match", path)
}

func appendPath(path []string, segment string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, segment)
}

func joinPath(path []string) string {
	return strings.Join(path, ".")
}
