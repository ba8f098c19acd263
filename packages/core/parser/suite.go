package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
)

type Suite struct {
	Path        string
	Name        string
	Description string
	BaseURL     string
	Variables   value.Value
	Tests       []*TestCase
	Raw         value.Value
}

type TestCase struct {
	// Index is the 1-based position of the test in its suite.
	Index   int
	Name    string
	Request Request
	Expect  Expect
	// Raw is the test as written, before interpolation.
	Raw value.Value
}

type Request struct {
	Method  string
	URL     string
	Headers *value.Map
	Query   *value.Map
	Body    value.Value
	// Timeout in milliseconds. Zero means the runner default.
	Timeout int
}

type Expect struct {
	StatusCode *int
	Headers    *value.Map
	Body       value.Value
	JSONPath   *value.Map
}

// HeaderMap returns the request headers as plain strings.
func (r *Request) HeaderMap() map[string]string {
	return stringMap(r.Headers)
}

// QueryMap returns the query parameters as plain strings.
func (r *Request) QueryMap() map[string]string {
	return stringMap(r.Query)
}

func stringMap(m *value.Map) map[string]string {
	out := make(map[string]string, m.Len())
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		out[k] = v.String()
	}
	return out
}

// HasBody reports whether the test declares an expected body.
func (e *Expect) HasBody() bool {
	return !e.Body.IsUndefined()
}

// DecodeSuite builds a Suite from a validated raw tree.
func DecodeSuite(raw value.Value, path string) (*Suite, error) {
	s := &Suite{
		Path:        path,
		Name:        raw.Field("name").String(),
		Description: optionalString(raw.Field("description")),
		BaseURL:     optionalString(raw.Field("baseUrl")),
		Variables:   raw.Field("variables"),
		Raw:         raw,
	}

	for i, item := range raw.Field("tests").Items() {
		tc, err := DecodeTest(item, i+1)
		if err != nil {
			return nil, err
		}
		s.Tests = append(s.Tests, tc)
	}
	return s, nil
}

// DecodeTest builds a TestCase from a test tree. It is called once at load
// time on the raw tree and again by the runner on the interpolated tree.
func DecodeTest(raw value.Value, index int) (*TestCase, error) {
	tc := &TestCase{
		Index: index,
		Name:  raw.Field("name").String(),
		Raw:   raw,
	}

	req := raw.Field("request")
	tc.Request = Request{
		Method:  strings.ToUpper(req.Field("method").String()),
		URL:     req.Field("url").String(),
		Headers: firstMapping(req.Field("headers"), req.Field("header")),
		Query:   firstMapping(req.Field("query"), req.Field("urlParams")),
		Body:    req.Field("body"),
	}

	if t := req.Field("timeout"); !t.IsUndefined() && !t.IsNull() && !isTemplate(t) {
		ms, err := toInt(t)
		if err != nil {
			return nil, fmt.Errorf("test case %d: invalid timeout: %w", index, err)
		}
		tc.Request.Timeout = ms
	}

	expect := raw.Field("expect")
	if sc := expect.Field("statusCode"); !sc.IsUndefined() && !sc.IsNull() && !isTemplate(sc) {
		code, err := toInt(sc)
		if err != nil {
			return nil, fmt.Errorf("test case %d: invalid status code: %w", index, err)
		}
		tc.Expect.StatusCode = &code
	}
	tc.Expect.Headers = expect.Field("headers").Map()
	tc.Expect.JSONPath = expect.Field("jsonpath").Map()
	if body := expect.Field("body"); !body.IsNull() {
		tc.Expect.Body = body
	}

	return tc, nil
}

func firstMapping(candidates ...value.Value) *value.Map {
	for _, c := range candidates {
		if m := c.Map(); m != nil {
			return m
		}
	}
	return nil
}

func optionalString(v value.Value) string {
	if v.IsUndefined() || v.IsNull() {
		return ""
	}
	return v.String()
}

// isTemplate reports whether v is a string still holding a {{...}} token.
// Such fields are decoded once the test has been interpolated.
func isTemplate(v value.Value) bool {
	s, ok := v.AsString()
	return ok && strings.Contains(s, "{{")
}

func toInt(v value.Value) (int, error) {
	if n, ok := v.AsInt(); ok {
		return n, nil
	}
	if s, ok := v.AsString(); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", s)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%s is not a number", v)
}
