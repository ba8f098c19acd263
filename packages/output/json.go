package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/apiflow/packages/core/runner"
	"github.com/abdul-hamid-achik/apiflow/packages/value"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Results  []JSONTest  `json:"results"`
	Errors   []JSONError `json:"errors,omitempty"`
	Stats    *JSONStats  `json:"stats,omitempty"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the test summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
}

// JSONTest represents a single test result
type JSONTest struct {
	File           string                 `json:"file"`
	Test           string                 `json:"test"`
	Status         string                 `json:"status"`
	Error          string                 `json:"error,omitempty"`
	ErrorKind      string                 `json:"errorKind,omitempty"`
	SkipReason     string                 `json:"skipReason,omitempty"`
	Duration       float64                `json:"duration"`
	Path           string                 `json:"path,omitempty"`
	Expected       *value.Value           `json:"expected,omitempty"`
	Actual         *value.Value           `json:"actual,omitempty"`
	Request        *JSONRequest           `json:"request,omitempty"`
	Response       *JSONResponse          `json:"response,omitempty"`
	SavedVariables map[string]value.Value `json:"savedVariables,omitempty"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration"`
}

// JSONError is a file that could not be loaded
type JSONError struct {
	File  string `json:"file,omitempty"`
	Error string `json:"error"`
}

// JSONStats summarises response times in milliseconds
type JSONStats struct {
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Max   float64 `json:"max"`
}

// JSONFormatter formats test results as JSON
type JSONFormatter struct {
	writer  io.Writer
	tests   []JSONTest
	errors  []JSONError
	results []*runner.RunResult
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		tests:  make([]JSONTest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func msFloat(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	f.results = append(f.results, result)
	if result.Err != nil {
		f.errors = append(f.errors, JSONError{File: result.File, Error: result.Err.Error()})
		return
	}

	for _, r := range result.Results {
		test := JSONTest{
			File:       result.File,
			Test:       r.Name,
			Status:     string(r.Status),
			ErrorKind:  string(r.ErrorKind),
			SkipReason: r.SkipReason,
			Duration:   msFloat(r.Duration),
		}

		if r.Status == runner.StatusFailed || r.Status == runner.StatusErrored {
			test.Error = r.Message()
		}

		if a := r.Assertion; a != nil {
			if !a.Passed {
				test.Path = a.PathString()
				if !a.Expected.IsUndefined() {
					exp := a.Expected
					test.Expected = &exp
				}
				if !a.Actual.IsUndefined() {
					act := a.Actual
					test.Actual = &act
				}
			}
			if len(a.SavedVariables) > 0 {
				test.SavedVariables = a.SavedVariables
			}
		}

		if r.Request != nil {
			test.Request = &JSONRequest{
				Method:  r.Request.Method,
				URL:     r.Request.URL,
				Headers: r.Request.Headers,
			}
		}

		if r.Response != nil {
			test.Response = &JSONResponse{
				StatusCode: r.Response.StatusCode,
				Headers:    r.Response.Headers,
				Duration:   msFloat(r.Response.Duration),
			}
		}

		f.tests = append(f.tests, test)
	}
}

func (f *JSONFormatter) FormatError(err error) {
	f.errors = append(f.errors, JSONError{Error: err.Error()})
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var summary JSONSummary
	for _, t := range f.tests {
		summary.Total++
		switch runner.Status(t.Status) {
		case runner.StatusPassed:
			summary.Passed++
		case runner.StatusFailed:
			summary.Failed++
		case runner.StatusErrored:
			summary.Errored++
		case runner.StatusSkipped:
			summary.Skipped++
		}
	}

	output := JSONOutput{
		Summary:  summary,
		Results:  f.tests,
		Errors:   f.errors,
		Duration: msFloat(totalDuration),
		Time:     time.Now().Format(time.RFC3339),
	}
	if stats := runner.Summarize(f.results); stats.Count > 0 {
		output.Stats = &JSONStats{
			Count: stats.Count,
			Min:   msFloat(stats.Min),
			Mean:  msFloat(stats.Mean),
			P50:   msFloat(stats.P50),
			P95:   msFloat(stats.P95),
			P99:   msFloat(stats.P99),
			Max:   msFloat(stats.Max),
		}
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
