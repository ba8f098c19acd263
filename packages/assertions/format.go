package assertions

import (
	"strings"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
	"github.com/fatih/color"
)

var (
	failColor     = color.New(color.FgRed)
	expectedColor = color.New(color.FgGreen)
)

// FormatFailure renders a mismatch for humans: the path, then the
// expected and received values as JSON.
func FormatFailure(path []string, expected, actual value.Value) string {
	label := strings.Join(path, ".")
	if label == "" {
		label = "value"
	}

	lines := []string{
		failColor.Sprint("✖ " + label),
		expectedColor.Sprint("  Expected: ") + serialize(expected),
		failColor.Sprint("  Received: ") + serialize(actual),
	}
	return strings.Join(lines, "\n")
}

func serialize(v value.Value) string {
	if v.IsUndefined() {
		return "undefined"
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return v.String()
	}
	return string(data)
}
