// Package metrics exports request counts and response times of a run to
// files and metrics backends.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/abdul-hamid-achik/apiflow/packages/core/runner"
)

// TestMetrics describes one executed test.
type TestMetrics struct {
	File       string    `json:"file"`
	Test       string    `json:"test"`
	Method     string    `json:"method,omitempty"`
	URL        string    `json:"url,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	DurationMs float64   `json:"durationMs"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"errorKind,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// AggregateMetrics summarises a run. Durations are response times of the
// tests that got a response, in milliseconds.
type AggregateMetrics struct {
	TotalTests    int64                     `json:"totalTests"`
	TotalRequests int64                     `json:"totalRequests"`
	Passed        int64                     `json:"passed"`
	Failed        int64                     `json:"failed"`
	Errored       int64                     `json:"errored"`
	Skipped       int64                     `json:"skipped"`
	MinDurationMs float64                   `json:"minDurationMs"`
	MaxDurationMs float64                   `json:"maxDurationMs"`
	AvgDurationMs float64                   `json:"avgDurationMs"`
	P50DurationMs float64                   `json:"p50DurationMs"`
	P95DurationMs float64                   `json:"p95DurationMs"`
	P99DurationMs float64                   `json:"p99DurationMs"`
	StatusCodes   map[int]int64             `json:"statusCodes"`
	ByTest        map[string]*TestAggregate `json:"byTest"`
}

type TestAggregate struct {
	File       string  `json:"file"`
	Test       string  `json:"test"`
	Status     string  `json:"status"`
	DurationMs float64 `json:"durationMs"`
}

// Report is everything an Exporter receives.
type Report struct {
	Start     time.Time
	End       time.Time
	Aggregate *AggregateMetrics
	Tests     []*TestMetrics
}

type Exporter interface {
	Export(ctx context.Context, report *Report) error
	Name() string
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func testKey(file, test string) string {
	return file + "#" + test
}

// Collect builds a report from the results of one run. Files that failed
// to load contribute nothing.
func Collect(results []*runner.RunResult, start, end time.Time) *Report {
	agg := &AggregateMetrics{
		StatusCodes: make(map[int]int64),
		ByTest:      make(map[string]*TestAggregate),
	}
	report := &Report{Start: start, End: end, Aggregate: agg}

	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for _, tr := range res.Results {
			agg.TotalTests++
			switch tr.Status {
			case runner.StatusPassed:
				agg.Passed++
			case runner.StatusFailed:
				agg.Failed++
			case runner.StatusErrored:
				agg.Errored++
			case runner.StatusSkipped:
				agg.Skipped++
				continue
			}

			m := &TestMetrics{
				File:       res.File,
				Test:       tr.Name,
				DurationMs: ms(tr.Duration),
				Status:     string(tr.Status),
				ErrorKind:  string(tr.ErrorKind),
				Timestamp:  end,
			}
			if tr.Request != nil {
				m.Method = tr.Request.Method
				m.URL = tr.Request.URL
			}
			if tr.Response != nil {
				agg.TotalRequests++
				agg.StatusCodes[tr.Response.StatusCode]++
				m.StatusCode = tr.Response.StatusCode
				m.DurationMs = ms(tr.Response.Duration)
			}
			report.Tests = append(report.Tests, m)
			agg.ByTest[testKey(res.File, tr.Name)] = &TestAggregate{
				File:       res.File,
				Test:       tr.Name,
				Status:     m.Status,
				DurationMs: m.DurationMs,
			}
		}
	}

	stats := runner.Summarize(results)
	if stats.Count > 0 {
		agg.MinDurationMs = ms(stats.Min)
		agg.MaxDurationMs = ms(stats.Max)
		agg.AvgDurationMs = ms(stats.Mean)
		agg.P50DurationMs = ms(stats.P50)
		agg.P95DurationMs = ms(stats.P95)
		agg.P99DurationMs = ms(stats.P99)
	}
	return report
}

// ExportAll hands report to every exporter and joins their errors.
func ExportAll(ctx context.Context, report *Report, exporters ...Exporter) error {
	var errs []error
	for _, exp := range exporters {
		if err := exp.Export(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", exp.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func sortedCodes(codes map[int]int64) []int {
	out := make([]int, 0, len(codes))
	for code := range codes {
		out = append(out, code)
	}
	sort.Ints(out)
	return out
}

func sortedTests(byTest map[string]*TestAggregate) []*TestAggregate {
	keys := make([]string, 0, len(byTest))
	for k := range byTest {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*TestAggregate, 0, len(keys))
	for _, k := range keys {
		out = append(out, byTest[k])
	}
	return out
}
