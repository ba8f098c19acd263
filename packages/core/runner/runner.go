package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/apiflow/packages/assertions"
	"github.com/abdul-hamid-achik/apiflow/packages/core/env"
	"github.com/abdul-hamid-achik/apiflow/packages/core/parser"
	"github.com/abdul-hamid-achik/apiflow/packages/http"
)

const (
	// DefaultConcurrency is the default number of files run at once in parallel mode
	DefaultConcurrency = 5
	// DefaultTimeout applies to every request without its own timeout
	DefaultTimeout = 10 * time.Second
)

// SkipBail is the skip reason of tests left over after a failure with Bail set.
const SkipBail = "bail"

type Runner struct {
	client *http.Client
	config *Config
	logger *zap.Logger
}

type Config struct {
	Timeout time.Duration
	// BaseURL replaces the baseUrl of every suite when set.
	BaseURL    string
	NameFilter string
	Bail       bool
	// Parallel runs files concurrently; tests within a file stay sequential.
	Parallel    bool
	Concurrency int
	// RateLimit caps requests per second across the run. Zero is unlimited.
	RateLimit  float64
	Headers    map[string]string
	NoRedirect bool
	Insecure   bool
	CLIVars    map[string]string
	DotenvVars map[string]string
}

type Option func(*Runner)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClient replaces the HTTP client built from the config.
func WithClient(client *http.Client) Option {
	return func(r *Runner) {
		r.client = client
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	r := &Runner{
		config: cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		r.client = http.NewClient(
			http.WithTimeout(cfg.Timeout),
			http.WithFollowRedirects(!cfg.NoRedirect),
			http.WithRateLimit(cfg.RateLimit),
			http.WithDefaultHeaders(cfg.Headers),
			http.WithValidateSSL(!cfg.Insecure),
			http.WithLogger(r.logger),
		)
	}
	return r
}

// BaseContext returns a fresh context holding the CLI and dotenv layers.
func (r *Runner) BaseContext() *env.Context {
	ctx := env.NewContext()
	ctx.SetStrings(env.LayerCLI, r.config.CLIVars)
	ctx.SetStrings(env.LayerDotenv, r.config.DotenvVars)
	return ctx
}

// RunFile loads path and runs its tests. Load and validation failures are
// returned as errors; per-test failures are recorded in the result.
func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	suite, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return r.RunSuite(ctx, suite, r.BaseContext())
}

// RunSuite runs the tests of suite in order against vars. The yaml layer of
// vars is replaced by the suite variables and the saved layer grows as
// tests capture values.
func (r *Runner) RunSuite(ctx context.Context, suite *parser.Suite, vars *env.Context) (*RunResult, error) {
	if vars == nil {
		vars = r.BaseContext()
	}
	vars.SetMapping(env.LayerYAML, suite.Variables)

	start := time.Now()
	result := &RunResult{
		File:  suite.Path,
		Suite: suite.Name,
		stats: newStatsRecorder(),
	}
	logger := r.logger.With(zap.String("file", suite.Path))

	baseURL := suite.BaseURL
	if r.config.BaseURL != "" {
		baseURL = r.config.BaseURL
	}

	bailed := false
	for _, tc := range suite.Tests {
		if !r.shouldRun(tc.Name) {
			result.add(&TestResult{
				Index:      tc.Index,
				Name:       tc.Name,
				Status:     StatusSkipped,
				SkipReason: fmt.Sprintf("does not match %q", r.config.NameFilter),
			})
			continue
		}
		if bailed || ctx.Err() != nil {
			reason := SkipBail
			if !bailed {
				reason = ctx.Err().Error()
			}
			result.add(&TestResult{
				Index:      tc.Index,
				Name:       tc.Name,
				Status:     StatusSkipped,
				SkipReason: reason,
			})
			continue
		}

		tr := r.runTest(ctx, tc, baseURL, vars)
		result.add(tr)

		switch tr.Status {
		case StatusErrored:
			logger.Warn("test errored",
				zap.String("test", tr.Name),
				zap.String("kind", string(tr.ErrorKind)),
				zap.Error(tr.Error))
		default:
			logger.Debug("test finished",
				zap.String("test", tr.Name),
				zap.String("status", string(tr.Status)),
				zap.Duration("duration", tr.Duration))
		}

		if r.config.Bail && (tr.Status == StatusFailed || tr.Status == StatusErrored) {
			bailed = true
		}
	}

	result.Duration = time.Since(start)
	result.Stats = result.stats.Stats()
	return result, nil
}

func (r *Runner) runTest(ctx context.Context, tc *parser.TestCase, baseURL string, vars *env.Context) *TestResult {
	start := time.Now()
	tr := &TestResult{
		Index: tc.Index,
		Name:  tc.Name,
	}
	errored := func(err error, kind ErrorKind) *TestResult {
		tr.Status = StatusErrored
		tr.Error = err
		tr.ErrorKind = kind
		tr.Duration = time.Since(start)
		return tr
	}

	raw, err := env.Interpolate(tc.Raw, vars)
	if err != nil {
		return errored(err, ErrorVariable)
	}
	resolved, err := parser.DecodeTest(raw, tc.Index)
	if err != nil {
		return errored(err, ErrorDecode)
	}
	if resolved.Name != "" {
		tr.Name = resolved.Name
	}

	base, err := env.InterpolateString(baseURL, vars)
	if err != nil {
		return errored(err, ErrorVariable)
	}

	req := buildRequest(resolved, base)
	tr.Request = req

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return errored(err, classify(err))
	}
	tr.Response = resp

	tr.Assertion = assertions.AssertResponse(resolved, resp, vars)
	if tr.Assertion.Passed {
		tr.Status = StatusPassed
	} else {
		tr.Status = StatusFailed
	}
	tr.Duration = time.Since(start)
	return tr
}

func buildRequest(tc *parser.TestCase, baseURL string) *http.Request {
	spec := tc.Request
	req := http.NewRequest(spec.Method, http.JoinURL(baseURL, spec.URL))
	for k, v := range spec.HeaderMap() {
		req.SetHeader(k, v)
	}
	for k, v := range spec.QueryMap() {
		req.SetQueryParam(k, v)
	}
	req.SetBody(spec.Body)
	if spec.Timeout > 0 {
		req.SetTimeout(time.Duration(spec.Timeout) * time.Millisecond)
	}
	return req
}

// RunFiles runs every path and returns one result per path in input order.
// A file that fails to load gets a result with Err set and no tests.
func (r *Runner) RunFiles(ctx context.Context, paths []string) []*RunResult {
	results := make([]*RunResult, len(paths))
	base := r.BaseContext()

	runOne := func(i int) {
		path := paths[i]
		suite, err := parser.ParseFile(path)
		if err != nil {
			results[i] = &RunResult{File: path, Err: err, stats: newStatsRecorder()}
			return
		}
		res, err := r.RunSuite(ctx, suite, base.Clone())
		if err != nil {
			res = &RunResult{File: path, Err: err, stats: newStatsRecorder()}
		}
		results[i] = res
	}

	if !r.config.Parallel || len(paths) < 2 {
		for i := range paths {
			if ctx.Err() != nil {
				results[i] = &RunResult{File: paths[i], Err: ctx.Err(), stats: newStatsRecorder()}
				continue
			}
			runOne(i)
		}
		return results
	}

	sem := make(chan struct{}, r.config.Concurrency)
	var wg sync.WaitGroup
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			runOne(i)
		}(i)
	}
	wg.Wait()
	return results
}

func (r *Runner) shouldRun(name string) bool {
	if r.config.NameFilter == "" {
		return true
	}
	return matchesPattern(name, r.config.NameFilter)
}

// matchesPattern supports a leading and/or trailing '*'. Patterns without
// one match any test whose name contains them, ignoring case.
func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	if len(pattern) > 1 && pattern[0] == '*' && pattern[len(pattern)-1] == '*' {
		return strings.Contains(name, pattern[1:len(pattern)-1])
	}

	if pattern[0] == '*' {
		return strings.HasSuffix(name, pattern[1:])
	}

	if pattern[len(pattern)-1] == '*' {
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	}

	return strings.Contains(strings.ToLower(name), strings.ToLower(pattern))
}
