package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/apiflow/packages/core/config"
	"github.com/abdul-hamid-achik/apiflow/packages/core/env"
	"github.com/abdul-hamid-achik/apiflow/packages/core/parser"
	"github.com/abdul-hamid-achik/apiflow/packages/core/runner"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yml", "a.yaml", "apiflow.yaml", "notes.txt", filepath.Join("sub", "c.yaml")} {
		writeFile(t, filepath.Join(dir, name), "name: x\n")
	}

	files, err := collectFiles([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yml"),
		filepath.Join(dir, "sub", "c.yaml"),
	}, files)

	explicit := filepath.Join(dir, "notes.txt")
	files, err = collectFiles([]string{explicit, explicit})
	require.NoError(t, err)
	assert.Equal(t, []string{explicit}, files)

	_, err = collectFiles([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitConfigError, exitCode(withExitCode(ExitConfigError, errors.New("bad"))))
	assert.Equal(t, ExitTestFailure, exitCode(silentExit(ExitTestFailure)))
	assert.Equal(t, ExitUsageError, exitCode(errors.New("unknown flag: --nope")))
}

func TestRunExitCode(t *testing.T) {
	passed := &runner.RunResult{Passed: 1}
	failed := &runner.RunResult{Failed: 1}
	broken := &runner.RunResult{Err: &parser.ValidationError{Message: "Config must have a name"}}

	assert.Equal(t, ExitSuccess, runExitCode([]*runner.RunResult{passed}))
	assert.Equal(t, ExitTestFailure, runExitCode([]*runner.RunResult{passed, failed}))
	assert.Equal(t, ExitParseError, runExitCode([]*runner.RunResult{failed, broken}))
}

func TestUnresolvedWarnings(t *testing.T) {
	suite, err := parser.Parse([]byte(`name: warn
baseUrl: "{{host}}"
tests:
  - name: uses capture too early
    request: {method: GET, url: "/users/{{userId}}"}
    expect: {statusCode: 200}
  - name: create
    request: {method: POST, url: /users, body: {token: "{{token}}"}}
    expect:
      statusCode: 201
      body:
        id: "{{saveAs:userId}}"
  - name: fetch
    request: {method: GET, url: "/users/{{userId}}/{{other}}"}
    expect: {statusCode: 200}
`), "warn.yaml")
	require.NoError(t, err)

	vars := env.NewContext()
	vars.SetStrings(env.LayerCLI, map[string]string{"token": "t"})

	assert.Equal(t, []string{
		"baseUrl references undefined variable host",
		`test "uses capture too early" references undefined variable userId`,
		`test "fetch" references undefined variable other`,
	}, unresolvedWarnings(suite, vars))
}

func TestInitCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, initCommand(cmd, nil))

	suite, err := parser.ParseFile(filepath.Join("tests", "example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "example", suite.Name)
	assert.Len(t, suite.Tests, 3)

	cfg, err := config.LoadConfig("apiflow.yaml")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)

	_, err = os.Stat(".env.example")
	assert.NoError(t, err)

	err = initCommand(cmd, nil)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestRunCommand_JSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"greeting": "hello ` + r.URL.Query().Get("name") + `"}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "hello.yaml"), `name: hello
tests:
  - name: greets
    request:
      method: GET
      url: /hello
      query:
        name: "{{WHO}}"
    expect:
      statusCode: 200
      body:
        greeting: hello world
`)

	var out, logs bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&logs)
	rootCmd.SetArgs([]string{"run", "hello.yaml", "--base-url", server.URL, "-e", "WHO=world", "-o", "json", "--metrics-out", "metrics.prom"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	require.NoError(t, rootCmd.Execute())

	var report struct {
		Summary struct {
			Total  int `json:"total"`
			Passed int `json:"passed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report), out.String())
	assert.Equal(t, 1, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Passed)

	prom, err := os.ReadFile(filepath.Join(dir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `apiflow_tests_total{status="passed"} 1`)
}

func TestNewPublisher(t *testing.T) {
	cfg := config.DefaultConfig()
	p := newPublisher(cfg)
	assert.Equal(t, 0, p.notifier.Len())
	assert.Empty(t, p.exporters)

	cfg.Notify.Slack = "https://hooks.slack.com/services/x"
	cfg.Notify.Teams = "https://example.webhook.office.com/x"
	cfg.Metrics.File = "out.JSON"
	cfg.Metrics.Datadog = "datadoghq.eu"
	p = newPublisher(cfg)
	assert.Equal(t, 2, p.notifier.Len())
	require.Len(t, p.exporters, 2)
	assert.Equal(t, "json", p.exporters[0].Name())
	assert.Equal(t, "datadog", p.exporters[1].Name())
}

func TestImportCurlCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "orders.sh")
	writeFile(t, src, "curl https://shop.example.com/orders\ncurl -X DELETE https://shop.example.com/orders/1\n")

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, importCurlCommand(cmd, []string{src}))

	suite, err := parser.Parse(out.Bytes(), "orders.yaml")
	require.NoError(t, err, out.String())
	assert.Equal(t, "orders", suite.Name)
	assert.Equal(t, "https://shop.example.com", suite.BaseURL)
	require.Len(t, suite.Tests, 2)
	assert.Equal(t, "DELETE", suite.Tests[1].Request.Method)

	err = importCurlCommand(cmd, []string{filepath.Join(dir, "missing.sh")})
	assert.Equal(t, ExitParseError, exitCode(err))
}
