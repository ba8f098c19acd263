package parser

import (
	"fmt"
	"math"
	"strings"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
)

// ValidateConfig checks the structure of a raw suite before any
// interpolation happens. Tests are scanned in order and the first
// violation is returned as a *ValidationError.
func ValidateConfig(raw value.Value) error {
	if !truthy(raw.Field("name")) {
		return &ValidationError{Field: "name", Message: "Config must have a name"}
	}

	tests := raw.Field("tests")
	if tests.Kind() != value.KindSequence || tests.Len() == 0 {
		return &ValidationError{Field: "tests", Message: "Config must have at least one test case"}
	}

	for i, test := range tests.Items() {
		if err := validateTest(test, i+1); err != nil {
			return err
		}
	}
	return nil
}

func validateTest(test value.Value, index int) error {
	fail := func(field, format string, args ...any) error {
		return &ValidationError{
			TestIndex: index,
			Field:     field,
			Message:   fmt.Sprintf(format, args...),
		}
	}

	if !truthy(test.Field("name")) {
		return fail("name", "Test case %d must have a name", index)
	}

	request := test.Field("request")
	if !truthy(request.Field("method")) || !truthy(request.Field("url")) {
		return fail("request", "Test case %d must have a request method and url", index)
	}

	expect := test.Field("expect")
	status := expect.Field("statusCode")
	if !truthy(status) {
		return fail("expect.statusCode", "Test case %d must have an expected status code", index)
	}
	if !validStatus(status) {
		return fail("expect.statusCode", "Invalid status code: %s for test case %d", status, index)
	}

	if headers := expect.Field("headers").Map(); headers != nil {
		for _, key := range headers.Keys() {
			v, _ := headers.Get(key)
			switch v.Kind() {
			case value.KindBool, value.KindNumber:
				return fail("expect.headers."+key, "Invalid header value: %s for test case %d", v, index)
			}
		}
	}

	// false and 0 skip the type check and are compared as scalars
	switch body := expect.Field("body"); body.Kind() {
	case value.KindBool, value.KindNumber:
		if isTruthy(body) {
			return fail("expect.body", "Invalid body value: %s for test case %d", body, index)
		}
	}

	return nil
}

// validStatus accepts numbers in [100, 600) and templated strings that
// are resolved when the test runs.
func validStatus(v value.Value) bool {
	if n, ok := v.AsNumber(); ok {
		return n >= 100 && n < 600
	}
	if s, ok := v.AsString(); ok {
		return strings.Contains(s, "{{")
	}
	return false
}

func truthy(v value.Value) bool {
	switch v.Kind() {
	case value.KindUndefined, value.KindNull:
		return false
	case value.KindBool:
		b, _ := v.AsBool()
		return b
	case value.KindNumber:
		n, _ := v.AsNumber()
		return n != 0
	case value.KindString:
		return v.Len() > 0
	default:
		return true
	}
}

func isTruthy(v value.Value) bool {
	if b, ok := v.AsBool(); ok {
		return b
	}
	if n, ok := v.AsNumber(); ok {
		return n != 0 && !math.IsNaN(n)
	}
	return true
}
