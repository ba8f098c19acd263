package metrics

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// DataDogExporter submits run metrics to the Datadog series API.
type DataDogExporter struct {
	apiKey   string
	site     string
	endpoint string
	tags     []string
	prefix   string
	client   *resty.Client
}

type DataDogOption func(*DataDogExporter)

func WithDataDogAPIKey(apiKey string) DataDogOption {
	return func(d *DataDogExporter) {
		d.apiKey = apiKey
	}
}

// WithDataDogSite sets the Datadog site, such as datadoghq.eu.
func WithDataDogSite(site string) DataDogOption {
	return func(d *DataDogExporter) {
		d.site = site
	}
}

// WithDataDogEndpoint replaces the API base URL derived from the site.
func WithDataDogEndpoint(url string) DataDogOption {
	return func(d *DataDogExporter) {
		d.endpoint = url
	}
}

func WithDataDogTags(tags []string) DataDogOption {
	return func(d *DataDogExporter) {
		d.tags = tags
	}
}

func WithDataDogPrefix(prefix string) DataDogOption {
	return func(d *DataDogExporter) {
		d.prefix = prefix
	}
}

// NewDataDogExporter reads the API key from DD_API_KEY unless one is given.
func NewDataDogExporter(opts ...DataDogOption) *DataDogExporter {
	d := &DataDogExporter{
		site:   "datadoghq.com",
		prefix: "apiflow",
		client: resty.New().SetTimeout(10 * time.Second),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.apiKey == "" {
		d.apiKey = os.Getenv("DD_API_KEY")
	}
	if d.endpoint == "" {
		d.endpoint = "https://api." + d.site
	}
	return d
}

func (d *DataDogExporter) Name() string {
	return "datadog"
}

type datadogMetric struct {
	Metric string   `json:"metric"`
	Type   string   `json:"type"`
	Points [][]any  `json:"points"`
	Tags   []string `json:"tags,omitempty"`
}

type datadogPayload struct {
	Series []datadogMetric `json:"series"`
}

func (d *DataDogExporter) Export(ctx context.Context, report *Report) error {
	if d.apiKey == "" {
		return fmt.Errorf("DataDog API key not configured")
	}
	return d.send(ctx, d.series(report))
}

func (d *DataDogExporter) series(report *Report) []datadogMetric {
	agg := report.Aggregate
	now := float64(report.End.Unix())

	point := func(name, kind string, v float64, extra ...string) datadogMetric {
		tags := append(append([]string{}, extra...), d.tags...)
		return datadogMetric{
			Metric: d.prefix + "." + name,
			Type:   kind,
			Points: [][]any{{now, v}},
			Tags:   tags,
		}
	}

	series := []datadogMetric{
		point("tests.passed", "count", float64(agg.Passed)),
		point("tests.failed", "count", float64(agg.Failed)),
		point("tests.errored", "count", float64(agg.Errored)),
		point("tests.skipped", "count", float64(agg.Skipped)),
		point("requests.total", "count", float64(agg.TotalRequests)),
	}

	if agg.TotalRequests > 0 {
		series = append(series,
			point("duration.avg", "gauge", agg.AvgDurationMs),
			point("duration.min", "gauge", agg.MinDurationMs),
			point("duration.max", "gauge", agg.MaxDurationMs),
			point("duration.p50", "gauge", agg.P50DurationMs),
			point("duration.p95", "gauge", agg.P95DurationMs),
			point("duration.p99", "gauge", agg.P99DurationMs),
		)
	}

	for _, code := range sortedCodes(agg.StatusCodes) {
		series = append(series, point("requests.by_status", "count", float64(agg.StatusCodes[code]), fmt.Sprintf("status:%d", code)))
	}

	for _, ta := range sortedTests(agg.ByTest) {
		series = append(series, point("test.duration", "gauge", ta.DurationMs,
			"file:"+ta.File, "test:"+ta.Test, "result:"+ta.Status))
	}
	return series
}

func (d *DataDogExporter) send(ctx context.Context, series []datadogMetric) error {
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("DD-API-KEY", d.apiKey).
		SetBody(datadogPayload{Series: series}).
		Post(d.endpoint + "/api/v1/series")
	if err != nil {
		return fmt.Errorf("failed to send metrics: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("DataDog API returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
