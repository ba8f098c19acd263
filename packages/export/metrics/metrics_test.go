package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/apiflow/packages/core/parser"
	"github.com/abdul-hamid-achik/apiflow/packages/core/runner"
)

func runSample(t *testing.T) []*runner.RunResult {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	t.Cleanup(server.Close)

	suite, err := parser.Parse([]byte(fmt.Sprintf(`name: sample
baseUrl: %s
tests:
  - name: ok
    request: {method: GET, url: /ok}
    expect: {statusCode: 200, body: {ok: true}}
  - name: "missing \"thing\""
    request: {method: GET, url: /missing}
    expect: {statusCode: 200}
  - name: unresolved
    request: {method: GET, url: "/{{nope}}"}
    expect: {statusCode: 200}
`, server.URL)), "sample.yaml")
	require.NoError(t, err)

	res, err := runner.NewRunner(nil).RunSuite(context.Background(), suite, nil)
	require.NoError(t, err)
	return []*runner.RunResult{res, {File: "broken.yaml", Err: errors.New("Config must have a name")}}
}

func TestCollect(t *testing.T) {
	start := time.Now()
	report := Collect(runSample(t), start, start.Add(time.Second))
	agg := report.Aggregate

	assert.Equal(t, int64(3), agg.TotalTests)
	assert.Equal(t, int64(2), agg.TotalRequests)
	assert.Equal(t, int64(1), agg.Passed)
	assert.Equal(t, int64(1), agg.Failed)
	assert.Equal(t, int64(1), agg.Errored)
	assert.Equal(t, map[int]int64{200: 1, 404: 1}, agg.StatusCodes)
	assert.Greater(t, agg.MaxDurationMs, 0.0)
	assert.LessOrEqual(t, agg.MinDurationMs, agg.MaxDurationMs)

	require.Len(t, report.Tests, 3)
	assert.Equal(t, "GET", report.Tests[0].Method)
	assert.Equal(t, 200, report.Tests[0].StatusCode)
	assert.Equal(t, "variable", report.Tests[2].ErrorKind)
	assert.Contains(t, agg.ByTest, testKey("sample.yaml", "ok"))
}

func TestPrometheusExporter(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "apiflow.prom")
	report := Collect(runSample(t), time.Now(), time.Now())

	exp := NewPrometheusExporter(WithPrometheusWriter(&buf), WithPrometheusFile(path))
	require.NoError(t, exp.Export(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "# TYPE apiflow_requests_total counter")
	assert.Contains(t, out, "apiflow_requests_total 2\n")
	assert.Contains(t, out, `apiflow_tests_total{status="errored"} 1`)
	assert.Contains(t, out, `apiflow_requests_by_status_total{code="404"} 1`)
	assert.Contains(t, out, `test="missing \"thing\""`)
	assert.Less(t, strings.Index(out, `code="200"`), strings.Index(out, `code="404"`))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(written))
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	report := Collect(runSample(t), time.Now(), time.Now())

	require.NoError(t, NewJSONExporter(WithJSONWriter(&buf), WithJSONPretty(false)).Export(context.Background(), report))

	var out JSONMetricsOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, int64(3), out.Summary.TotalTests)
	assert.Len(t, out.Tests, 3)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestDataDogExporter(t *testing.T) {
	var payload datadogPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/series", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("DD-API-KEY"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	report := Collect(runSample(t), time.Now(), time.Now())
	exp := NewDataDogExporter(
		WithDataDogAPIKey("secret"),
		WithDataDogEndpoint(server.URL),
		WithDataDogTags([]string{"env:ci"}),
	)
	require.NoError(t, exp.Export(context.Background(), report))

	names := make(map[string]bool)
	for _, m := range payload.Series {
		names[m.Metric] = true
		assert.Contains(t, m.Tags, "env:ci")
	}
	assert.True(t, names["apiflow.requests.total"])
	assert.True(t, names["apiflow.duration.p95"])
	assert.True(t, names["apiflow.test.duration"])
}

func TestDataDogExporter_NoAPIKey(t *testing.T) {
	t.Setenv("DD_API_KEY", "")
	err := NewDataDogExporter().Export(context.Background(), Collect(nil, time.Now(), time.Now()))
	assert.ErrorContains(t, err, "API key not configured")
}

type failingExporter struct{}

func (failingExporter) Export(context.Context, *Report) error { return errors.New("disk full") }
func (failingExporter) Name() string                          { return "failing" }

func TestExportAll(t *testing.T) {
	var buf bytes.Buffer
	report := Collect(nil, time.Now(), time.Now())

	err := ExportAll(context.Background(), report, failingExporter{}, NewPrometheusExporter(WithPrometheusWriter(&buf)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing: disk full")
	assert.Contains(t, buf.String(), "apiflow_requests_total 0")
}
