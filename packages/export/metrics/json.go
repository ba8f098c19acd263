package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// JSONExporter writes the full report as a JSON document.
type JSONExporter struct {
	writer   io.Writer
	filePath string
	pretty   bool
}

type JSONOption func(*JSONExporter)

func WithJSONWriter(w io.Writer) JSONOption {
	return func(j *JSONExporter) {
		j.writer = w
	}
}

func WithJSONFile(path string) JSONOption {
	return func(j *JSONExporter) {
		j.filePath = path
	}
}

func WithJSONPretty(pretty bool) JSONOption {
	return func(j *JSONExporter) {
		j.pretty = pretty
	}
}

func NewJSONExporter(opts ...JSONOption) *JSONExporter {
	j := &JSONExporter{pretty: true}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *JSONExporter) Name() string {
	return "json"
}

type JSONMetricsOutput struct {
	Metadata JSONMetadata      `json:"metadata"`
	Summary  *AggregateMetrics `json:"summary"`
	Tests    []*TestMetrics    `json:"tests"`
}

type JSONMetadata struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Duration  string `json:"duration"`
}

func (j *JSONExporter) Export(_ context.Context, report *Report) error {
	out := JSONMetricsOutput{
		Metadata: JSONMetadata{
			StartTime: report.Start.Format(time.RFC3339),
			EndTime:   report.End.Format(time.RFC3339),
			Duration:  report.End.Sub(report.Start).String(),
		},
		Summary: report.Aggregate,
		Tests:   report.Tests,
	}

	var (
		data []byte
		err  error
	)
	if j.pretty {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	data = append(data, '\n')

	if j.filePath != "" {
		if err := os.WriteFile(j.filePath, data, 0644); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}
	if j.writer != nil {
		if _, err := j.writer.Write(data); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}
