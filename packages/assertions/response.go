package assertions

import (
	"fmt"

	"github.com/abdul-hamid-achik/apiflow/packages/capture"
	"github.com/abdul-hamid-achik/apiflow/packages/core/env"
	"github.com/abdul-hamid-achik/apiflow/packages/core/parser"
	"github.com/abdul-hamid-achik/apiflow/packages/http"
	"github.com/abdul-hamid-achik/apiflow/packages/value"
)

// AssertResponse checks resp against the expect block of tc. Status code,
// headers, JSONPath and body are checked in that order and the first
// failure is returned; later checks are not evaluated.
//
// Values captured by saveAs leaves in the expected body are merged into
// the saved layer of saved as soon as they are extracted, before the body
// comparison runs. saved may be nil.
func AssertResponse(tc *parser.TestCase, resp *http.Response, saved *env.Context) *Result {
	expect := &tc.Expect

	if expect.StatusCode != nil && *expect.StatusCode != resp.StatusCode {
		path := []string{"statusCode"}
		exp, act := value.NewInt(*expect.StatusCode), value.NewInt(resp.StatusCode)
		return failed(FormatFailure(path, exp, act), exp, act, path)
	}

	if res := assertHeaders(expect.Headers, resp); res != nil {
		return res
	}

	if expect.JSONPath != nil {
		for _, res := range AssertJSONPath(resp.Body, expect.JSONPath) {
			if !res.Passed {
				return res
			}
		}
	}

	var captured map[string]value.Value
	if expect.HasBody() {
		expBody, actBody, vars, err := capture.ExtractSaveAs(expect.Body, resp.Body)
		if err != nil {
			path := []string{"body"}
			return failed(err.Error(), expect.Body, resp.Body, path)
		}
		if len(vars) > 0 {
			captured = vars
			if saved != nil {
				saved.Save(vars)
			}
		}

		if res := DeepCompare(actBody, expBody, []string{"body"}); !res.Passed {
			res.Message = FormatFailure(res.Path, res.Expected, res.Actual)
			res.SavedVariables = captured
			return res
		}
	}

	return &Result{
		Passed:         true,
		Message:        "All assertions passed",
		SavedVariables: captured,
	}
}

func assertHeaders(expected *value.Map, resp *http.Response) *Result {
	for _, key := range expected.Keys() {
		exp, _ := expected.Get(key)

		act := value.Undefined
		if v, ok := resp.LookupHeader(key); ok {
			act = value.NewString(v)
		}

		path := []string{"headers", key}
		if IsRegex(exp) {
			literal, _ := exp.AsString()
			ok, err := MatchRegex(literal, act)
			if err != nil {
				return failed(fmt.Sprintf("Header %s has an invalid regex: %v", key, err), exp, act, path)
			}
			if !ok {
				return failed(FormatFailure(path, exp, act), exp, act, path)
			}
			continue
		}

		want := exp
		if exp.Kind() != value.KindString {
			want = value.NewString(exp.String())
		}
		if !value.Equal(want, act) {
			return failed(FormatFailure(path, exp, act), exp, act, path)
		}
	}
	return nil
}
