package parser

import (
	"testing"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validTest(name string) value.Value {
	return value.Object(
		"name", name,
		"request", value.Object("method", "GET", "url", "/ping"),
		"expect", value.Object("statusCode", 200),
	)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name      string
		suite     value.Value
		message   string
		testIndex int
	}{
		{
			name:  "valid",
			suite: value.Object("name", "s", "tests", value.Array(validTest("a"), validTest("b"))),
		},
		{
			name:    "missing name",
			suite:   value.Object("tests", value.Array(validTest("a"))),
			message: "Config must have a name",
		},
		{
			name:    "empty name",
			suite:   value.Object("name", "", "tests", value.Array(validTest("a"))),
			message: "Config must have a name",
		},
		{
			name:    "missing tests",
			suite:   value.Object("name", "s"),
			message: "Config must have at least one test case",
		},
		{
			name:    "tests not a list",
			suite:   value.Object("name", "s", "tests", value.Object("a", 1)),
			message: "Config must have at least one test case",
		},
		{
			name: "test without name",
			suite: value.Object("name", "s", "tests", value.Array(
				validTest("a"),
				value.Object("request", value.Object("method", "GET", "url", "/"), "expect", value.Object("statusCode", 200)),
			)),
			message:   "Test case 2 must have a name",
			testIndex: 2,
		},
		{
			name: "missing url",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "request", value.Object("method", "GET"), "expect", value.Object("statusCode", 200)),
			)),
			message:   "Test case 1 must have a request method and url",
			testIndex: 1,
		},
		{
			name: "missing request",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "expect", value.Object("statusCode", 200)),
			)),
			message:   "Test case 1 must have a request method and url",
			testIndex: 1,
		},
		{
			name: "missing status code",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "request", value.Object("method", "GET", "url", "/"), "expect", value.Object()),
			)),
			message:   "Test case 1 must have an expected status code",
			testIndex: 1,
		},
		{
			name: "status code too high",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "request", value.Object("method", "GET", "url", "/"), "expect", value.Object("statusCode", 600)),
			)),
			message:   "Invalid status code: 600 for test case 1",
			testIndex: 1,
		},
		{
			name: "status code not numeric",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "request", value.Object("method", "GET", "url", "/"), "expect", value.Object("statusCode", "ok")),
			)),
			message:   "Invalid status code: ok for test case 1",
			testIndex: 1,
		},
		{
			name: "templated status code",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "request", value.Object("method", "GET", "url", "/"), "expect", value.Object("statusCode", "{{code}}")),
			)),
		},
		{
			name: "numeric header value",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "request", value.Object("method", "GET", "url", "/"),
					"expect", value.Object("statusCode", 200, "headers", value.Object("X-Count", 5))),
			)),
			message:   "Invalid header value: 5 for test case 1",
			testIndex: 1,
		},
		{
			name: "regex header value",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "request", value.Object("method", "GET", "url", "/"),
					"expect", value.Object("statusCode", 200, "headers", value.Object("Content-Type", "/json/"))),
			)),
		},
		{
			name: "boolean body",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "request", value.Object("method", "GET", "url", "/"),
					"expect", value.Object("statusCode", 200, "body", true)),
			)),
			message:   "Invalid body value: true for test case 1",
			testIndex: 1,
		},
		{
			name: "numeric body",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "request", value.Object("method", "GET", "url", "/"),
					"expect", value.Object("statusCode", 200, "body", 42)),
			)),
			message:   "Invalid body value: 42 for test case 1",
			testIndex: 1,
		},
		{
			name: "false body",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "request", value.Object("method", "GET", "url", "/"),
					"expect", value.Object("statusCode", 200, "body", false)),
			)),
		},
		{
			name: "zero body",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "request", value.Object("method", "GET", "url", "/"),
					"expect", value.Object("statusCode", 200, "body", 0)),
			)),
		},
		{
			name: "array body",
			suite: value.Object("name", "s", "tests", value.Array(
				value.Object("name", "a", "request", value.Object("method", "GET", "url", "/"),
					"expect", value.Object("statusCode", 200, "body", value.Array(1, 2))),
			)),
		},
		{
			name: "first violation wins",
			suite: value.Object("name", "s", "tests", value.Array(
				validTest("a"),
				value.Object("name", "b", "request", value.Object("method", "GET", "url", "/"), "expect", value.Object("statusCode", 99)),
				value.Object("request", value.Object()),
			)),
			message:   "Invalid status code: 99 for test case 2",
			testIndex: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.suite)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Message)
			assert.Equal(t, tt.testIndex, verr.TestIndex)
		})
	}
}

func TestValidateConfig_StatusRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.IntRange(-1000, 2000).Draw(t, "code")
		suite := value.Object("name", "s", "tests", value.Array(
			value.Object("name", "a", "request", value.Object("method", "GET", "url", "/"), "expect", value.Object("statusCode", code)),
		))

		err := ValidateConfig(suite)
		inRange := code >= 100 && code < 600
		if inRange && err != nil {
			t.Fatalf("status %d rejected: %v", code, err)
		}
		if !inRange {
			verr, ok := err.(*ValidationError)
			if !ok || verr.TestIndex != 1 {
				t.Fatalf("status %d: expected validation error for test 1, got %v", code, err)
			}
		}
	})
}
