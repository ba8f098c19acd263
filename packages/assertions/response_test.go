package assertions

import (
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/apiflow/packages/core/env"
	"github.com/abdul-hamid-achik/apiflow/packages/core/parser"
	"github.com/abdul-hamid-achik/apiflow/packages/http"
	"github.com/abdul-hamid-achik/apiflow/packages/value"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func createResponse(statusCode int, body string, headers map[string]string) *http.Response {
	if headers == nil {
		headers = make(map[string]string)
	}
	if _, ok := headers["Content-Type"]; !ok {
		headers["Content-Type"] = "application/json"
	}
	return &http.Response{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       http.DecodeBody([]byte(body)),
		RawBody:    []byte(body),
		Duration:   100 * time.Millisecond,
	}
}

func createTest(t *testing.T, expect value.Value) *parser.TestCase {
	t.Helper()
	tc, err := parser.DecodeTest(value.Object(
		"name", "test",
		"request", value.Object("method", "GET", "url", "/"),
		"expect", expect,
	), 1)
	require.NoError(t, err)
	return tc
}

func TestAssertResponse_RegexBody(t *testing.T) {
	tc := createTest(t, value.Object("statusCode", 200, "body", value.Object("status", "/^ok.*$/")))
	resp := createResponse(200, `{"status": "ok-ready"}`, nil)

	res := AssertResponse(tc, resp, env.NewContext())
	assert.True(t, res.Passed)
	assert.Equal(t, "All assertions passed", res.Message)
	assert.Nil(t, res.SavedVariables)
}

func TestAssertResponse_StatusMismatchStopsEarly(t *testing.T) {
	tc := createTest(t, value.Object(
		"statusCode", 200,
		"headers", value.Object("X-Missing", "x"),
		"body", value.Object("id", "{{saveAs:id}}"),
	))
	resp := createResponse(404, `{"id": "u-1"}`, nil)
	ctx := env.NewContext()

	res := AssertResponse(tc, resp, ctx)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"statusCode"}, res.Path)
	assert.Equal(t, value.NewNumber(200), res.Expected)
	assert.Equal(t, value.NewNumber(404), res.Actual)
	assert.Contains(t, res.Message, "statusCode")

	// the body was never looked at, so nothing was captured
	_, ok := ctx.Lookup("id")
	assert.False(t, ok)
}

func TestAssertResponse_HeadersBeforeBody(t *testing.T) {
	tc := createTest(t, value.Object(
		"statusCode", 200,
		"headers", value.Object("X-Request-Id", "abc"),
		"body", value.Object("name", "expected"),
	))
	resp := createResponse(200, `{"name": "actual"}`, map[string]string{"X-Request-Id": "xyz"})

	res := AssertResponse(tc, resp, nil)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"headers", "X-Request-Id"}, res.Path)
}

func TestAssertResponse_Headers(t *testing.T) {
	tests := []struct {
		name     string
		expected value.Value
		passed   bool
	}{
		{"exact case-insensitive name", value.Object("content-type", "application/json"), true},
		{"regex", value.Object("Content-Type", "/^application\\/json/"), true},
		{"regex mismatch", value.Object("Content-Type", "/xml/"), false},
		{"missing header", value.Object("X-Missing", "x"), false},
		{"missing header with regex", value.Object("X-Missing", "/.*/"), false},
		{"first mismatch in key order", value.Object("Content-Type", "text/plain", "X-Missing", "x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := createTest(t, value.Object("statusCode", 200, "headers", tt.expected))
			res := AssertResponse(tc, createResponse(200, `{}`, nil), nil)
			assert.Equal(t, tt.passed, res.Passed, res.Message)
		})
	}
}

func TestAssertResponse_NonStringHeaderExpectations(t *testing.T) {
	resp := createResponse(200, `{}`, map[string]string{
		"X-Meta":  `{"a":1}`,
		"X-Empty": "null",
	})

	tc := createTest(t, value.Object("statusCode", 200, "headers", value.Object(
		"X-Meta", value.Object("a", 1),
		"X-Empty", nil,
	)))
	res := AssertResponse(tc, resp, nil)
	assert.True(t, res.Passed, res.Message)

	tc = createTest(t, value.Object("statusCode", 200, "headers", value.Object("X-Meta", value.Object("a", 2))))
	res = AssertResponse(tc, resp, nil)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"headers", "X-Meta"}, res.Path)
}

func TestAssertResponse_HeaderFailureOrder(t *testing.T) {
	tc := createTest(t, value.Object("statusCode", 200, "headers", value.Object("X-B", "1", "X-A", "1")))
	resp := createResponse(200, `{}`, map[string]string{"X-A": "2", "X-B": "2"})

	res := AssertResponse(tc, resp, nil)
	assert.Equal(t, []string{"headers", "X-B"}, res.Path)
}

func TestAssertResponse_JSONPath(t *testing.T) {
	tc := createTest(t, value.Object(
		"statusCode", 200,
		"jsonpath", value.Object("$.user.name", "Ada", "$.user.age", 40),
		"body", value.Object("user", value.Object("name", "Other")),
	))
	resp := createResponse(200, `{"user": {"name": "Ada", "age": 36}}`, nil)

	res := AssertResponse(tc, resp, nil)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"$.user.age"}, res.Path, "jsonpath runs before body")
	assert.Equal(t, "JSONPath $.user.age expected 40 but got 36", res.Message)
}

func TestAssertResponse_BodyFailureIsFormatted(t *testing.T) {
	tc := createTest(t, value.Object("statusCode", 200, "body", value.Object("items", value.Array(1, 2, 3))))
	resp := createResponse(200, `{"items": [1, 9, 3]}`, nil)

	res := AssertResponse(tc, resp, nil)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"body", "items", "1"}, res.Path)
	assert.Equal(t, value.NewNumber(2), res.Expected)
	assert.Equal(t, value.NewNumber(9), res.Actual)

	lines := strings.Split(res.Message, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "✖ body.items.1", lines[0])
	assert.Equal(t, "  Expected: 2", lines[1])
	assert.Equal(t, "  Received: 9", lines[2])
}

func TestAssertResponse_SaveAs(t *testing.T) {
	tc := createTest(t, value.Object("statusCode", 201, "body", value.Object("id", "{{saveAs:userId}}", "name", "x")))
	resp := createResponse(201, `{"id": "u-1", "name": "x", "createdAt": "now"}`, nil)
	ctx := env.NewContext()

	res := AssertResponse(tc, resp, ctx)
	require.True(t, res.Passed, res.Message)
	assert.Equal(t, map[string]value.Value{"userId": value.NewString("u-1")}, res.SavedVariables)

	v, ok := ctx.Lookup("userId")
	require.True(t, ok)
	assert.Equal(t, "u-1", v.String())
}

func TestAssertResponse_SaveAsVisibleEvenWhenBodyFails(t *testing.T) {
	tc := createTest(t, value.Object("statusCode", 200, "body", value.Object("id", "{{saveAs:userId}}", "name", "x")))
	resp := createResponse(200, `{"id": 7, "name": "y"}`, nil)
	ctx := env.NewContext()

	res := AssertResponse(tc, resp, ctx)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"body", "name"}, res.Path)

	v, ok := ctx.Lookup("userId")
	require.True(t, ok)
	assert.Equal(t, "7", v.String())
}

func TestAssertResponse_SaveAsMissingField(t *testing.T) {
	tc := createTest(t, value.Object("statusCode", 200, "body", value.Object("token", "{{saveAs:token}}")))
	resp := createResponse(200, `{"other": 1}`, nil)

	res := AssertResponse(tc, resp, nil)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"body"}, res.Path)
	assert.Equal(t, "saveAs: cannot extract value for token", res.Message)
}

func TestAssertResponse_PlainTextBody(t *testing.T) {
	tc := createTest(t, value.Object("statusCode", 200, "body", "/^pong$/"))
	resp := createResponse(200, "pong", map[string]string{"Content-Type": "text/plain"})

	assert.True(t, AssertResponse(tc, resp, nil).Passed)
}

func TestAssertResponse_NoExpectations(t *testing.T) {
	tc := &parser.TestCase{Name: "bare"}
	assert.True(t, AssertResponse(tc, createResponse(500, `oops`, nil), nil).Passed)
}
