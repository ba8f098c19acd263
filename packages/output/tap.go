package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/apiflow/packages/core/runner"
)

// TAPFormatter formats test results in TAP (Test Anything Protocol) format
type TAPFormatter struct {
	writer    io.Writer
	testCount int
	results   []tapResult
}

type tapResult struct {
	number     int
	name       string
	file       string
	status     runner.Status
	skipReason string
	message    string
	errorKind  runner.ErrorKind
	path       string
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer:  os.Stdout,
		results: make([]tapResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *runner.RunResult) {
	if result.Err != nil {
		f.testCount++
		f.results = append(f.results, tapResult{
			number:    f.testCount,
			name:      result.File,
			file:      result.File,
			status:    runner.StatusErrored,
			message:   result.Err.Error(),
			errorKind: "load",
		})
		return
	}

	for _, r := range result.Results {
		f.testCount++
		tr := tapResult{
			number:     f.testCount,
			name:       r.Name,
			file:       result.File,
			status:     r.Status,
			skipReason: r.SkipReason,
			errorKind:  r.ErrorKind,
		}
		if r.Status == runner.StatusFailed || r.Status == runner.StatusErrored {
			tr.message = r.Message()
		}
		if r.Assertion != nil && !r.Assertion.Passed {
			tr.path = r.Assertion.PathString()
		}
		f.results = append(f.results, tr)
	}
}

func (f *TAPFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	// TAP version header
	fmt.Fprintf(f.writer, "TAP version 13\n")

	// Test plan
	fmt.Fprintf(f.writer, "1..%d\n", f.testCount)

	// Individual test results
	for _, r := range f.results {
		switch r.status {
		case runner.StatusSkipped:
			reason := r.skipReason
			if reason == "" {
				reason = "SKIP"
			}
			fmt.Fprintf(f.writer, "ok %d - %s # SKIP %s\n", r.number, r.name, reason)

		case runner.StatusPassed:
			fmt.Fprintf(f.writer, "ok %d - %s\n", r.number, r.name)

		default:
			fmt.Fprintf(f.writer, "not ok %d - %s\n", r.number, r.name)
			fmt.Fprintf(f.writer, "  ---\n")
			fmt.Fprintf(f.writer, "  file: %s\n", escapeYAML(r.file))
			if r.status == runner.StatusErrored {
				fmt.Fprintf(f.writer, "  severity: error\n")
				fmt.Fprintf(f.writer, "  kind: %s\n", r.errorKind)
			} else {
				fmt.Fprintf(f.writer, "  severity: fail\n")
				fmt.Fprintf(f.writer, "  at: %s\n", escapeYAML(r.path))
			}
			fmt.Fprintf(f.writer, "  message: %s\n", escapeYAML(r.message))
			fmt.Fprintf(f.writer, "  ...\n")
		}
	}

	// Add final newline for proper TAP output
	fmt.Fprintln(f.writer)

	return nil
}

func escapeYAML(s string) string {
	// Simple YAML escaping - wrap in quotes if contains special chars
	if strings.ContainsAny(s, ":\n\"'[]{}#&*!|>%@`") {
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", `\n`)
		return "\"" + s + "\""
	}
	return s
}
