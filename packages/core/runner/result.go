package runner

import (
	"errors"
	"time"

	"github.com/abdul-hamid-achik/apiflow/packages/assertions"
	"github.com/abdul-hamid-achik/apiflow/packages/core/env"
	"github.com/abdul-hamid-achik/apiflow/packages/http"
)

type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
	StatusSkipped Status = "skipped"
)

// ErrorKind classifies why a test errored.
type ErrorKind string

const (
	ErrorNone     ErrorKind = ""
	ErrorVariable ErrorKind = "variable"
	ErrorDecode   ErrorKind = "decode"
	ErrorNetwork  ErrorKind = "network"
	ErrorTimeout  ErrorKind = "timeout"
	ErrorRequest  ErrorKind = "request"
)

func classify(err error) ErrorKind {
	var (
		varErr     *env.VariableError
		netErr     *http.NetworkError
		timeoutErr *http.TimeoutError
	)
	switch {
	case err == nil:
		return ErrorNone
	case errors.As(err, &varErr):
		return ErrorVariable
	case errors.As(err, &netErr):
		return ErrorNetwork
	case errors.As(err, &timeoutErr):
		return ErrorTimeout
	default:
		return ErrorRequest
	}
}

type TestResult struct {
	Index      int
	Name       string
	Status     Status
	SkipReason string
	Assertion  *assertions.Result
	Error      error
	ErrorKind  ErrorKind
	Request    *http.Request
	Response   *http.Response
	Duration   time.Duration
}

func (t *TestResult) Passed() bool {
	return t.Status == StatusPassed
}

// Message returns the failure or error text, if any.
func (t *TestResult) Message() string {
	switch {
	case t.Error != nil:
		return t.Error.Error()
	case t.Assertion != nil && !t.Assertion.Passed:
		return t.Assertion.Message
	case t.Status == StatusSkipped:
		return t.SkipReason
	}
	return ""
}

type RunResult struct {
	File     string
	Suite    string
	Results  []*TestResult
	Duration time.Duration
	Passed   int
	Failed   int
	Errored  int
	Skipped  int
	Stats    Stats
	// Err is set when the file could not be loaded; no test ran.
	Err error

	stats *statsRecorder
}

func (r *RunResult) Total() int {
	return len(r.Results)
}

// Success reports whether the file loaded and no test failed or errored.
func (r *RunResult) Success() bool {
	return r.Err == nil && r.Failed == 0 && r.Errored == 0
}

func (r *RunResult) add(tr *TestResult) {
	r.Results = append(r.Results, tr)
	switch tr.Status {
	case StatusPassed:
		r.Passed++
	case StatusFailed:
		r.Failed++
	case StatusErrored:
		r.Errored++
	case StatusSkipped:
		r.Skipped++
	}
	if tr.Status != StatusSkipped && tr.Response != nil {
		r.stats.Record(tr.Response.Duration)
	}
}
