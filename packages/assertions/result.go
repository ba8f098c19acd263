package assertions

import (
	"strings"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
)

// Result is the outcome of an assertion. Path is the breadcrumb to the
// first mismatch. Expected and Actual are Undefined when not applicable.
type Result struct {
	Passed         bool
	Message        string
	Expected       value.Value
	Actual         value.Value
	Path           []string
	SavedVariables map[string]value.Value
}

// PathString joins Path with dots.
func (r *Result) PathString() string {
	return strings.Join(r.Path, ".")
}

func passed(message string, path []string) *Result {
	return &Result{Passed: true, Message: message, Path: clonePath(path)}
}

func failed(message string, expected, actual value.Value, path []string) *Result {
	return &Result{
		Message:  message,
		Expected: expected,
		Actual:   actual,
		Path:     clonePath(path),
	}
}

func clonePath(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)
	return out
}
