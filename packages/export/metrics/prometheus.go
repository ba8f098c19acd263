package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// PrometheusExporter writes metrics in the Prometheus text exposition
// format, suitable for the node_exporter textfile collector.
type PrometheusExporter struct {
	writer   io.Writer
	filePath string
}

type PrometheusOption func(*PrometheusExporter)

func WithPrometheusWriter(w io.Writer) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.writer = w
	}
}

func WithPrometheusFile(path string) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.filePath = path
	}
}

func NewPrometheusExporter(opts ...PrometheusOption) *PrometheusExporter {
	p := &PrometheusExporter{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PrometheusExporter) Name() string {
	return "prometheus"
}

func (p *PrometheusExporter) Export(_ context.Context, report *Report) error {
	var buf bytes.Buffer
	writePrometheus(&buf, report.Aggregate)

	if p.filePath != "" {
		if err := os.WriteFile(p.filePath, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}
	if p.writer != nil {
		if _, err := p.writer.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func writePrometheus(w io.Writer, agg *AggregateMetrics) {
	fmt.Fprintf(w, "# HELP apiflow_tests_total Tests by final status\n")
	fmt.Fprintf(w, "# TYPE apiflow_tests_total gauge\n")
	fmt.Fprintf(w, "apiflow_tests_total{status=\"passed\"} %d\n", agg.Passed)
	fmt.Fprintf(w, "apiflow_tests_total{status=\"failed\"} %d\n", agg.Failed)
	fmt.Fprintf(w, "apiflow_tests_total{status=\"errored\"} %d\n", agg.Errored)
	fmt.Fprintf(w, "apiflow_tests_total{status=\"skipped\"} %d\n", agg.Skipped)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP apiflow_requests_total HTTP requests that got a response\n")
	fmt.Fprintf(w, "# TYPE apiflow_requests_total counter\n")
	fmt.Fprintf(w, "apiflow_requests_total %d\n", agg.TotalRequests)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP apiflow_request_duration_ms Response time in milliseconds\n")
	fmt.Fprintf(w, "# TYPE apiflow_request_duration_ms gauge\n")
	fmt.Fprintf(w, "apiflow_request_duration_ms{quantile=\"min\"} %.2f\n", agg.MinDurationMs)
	fmt.Fprintf(w, "apiflow_request_duration_ms{quantile=\"0.5\"} %.2f\n", agg.P50DurationMs)
	fmt.Fprintf(w, "apiflow_request_duration_ms{quantile=\"0.95\"} %.2f\n", agg.P95DurationMs)
	fmt.Fprintf(w, "apiflow_request_duration_ms{quantile=\"0.99\"} %.2f\n", agg.P99DurationMs)
	fmt.Fprintf(w, "apiflow_request_duration_ms{quantile=\"max\"} %.2f\n", agg.MaxDurationMs)
	fmt.Fprintf(w, "apiflow_request_duration_ms{quantile=\"avg\"} %.2f\n", agg.AvgDurationMs)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP apiflow_requests_by_status_total Responses by HTTP status code\n")
	fmt.Fprintf(w, "# TYPE apiflow_requests_by_status_total counter\n")
	for _, code := range sortedCodes(agg.StatusCodes) {
		fmt.Fprintf(w, "apiflow_requests_by_status_total{code=\"%d\"} %d\n", code, agg.StatusCodes[code])
	}

	tests := sortedTests(agg.ByTest)
	if len(tests) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "# HELP apiflow_test_duration_ms Duration of each test in milliseconds\n")
	fmt.Fprintf(w, "# TYPE apiflow_test_duration_ms gauge\n")
	for _, ta := range tests {
		fmt.Fprintf(w, "apiflow_test_duration_ms{file=\"%s\",test=\"%s\",status=\"%s\"} %.2f\n",
			sanitizeLabel(ta.File), sanitizeLabel(ta.Test), ta.Status, ta.DurationMs)
	}
}

// sanitizeLabel escapes a Prometheus label value
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
