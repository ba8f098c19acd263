package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/apiflow/packages/core/runner"
	"github.com/abdul-hamid-achik/apiflow/packages/value"
)

// formatValue formats a value for display, truncating long values
func formatValue(v value.Value, maxLen int) string {
	data, err := v.MarshalJSON()
	str := string(data)
	if err != nil {
		str = v.String()
	}
	if v.IsUndefined() {
		str = "undefined"
	}
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool

	total, passed, failed, errored, skipped int
	results                                 []*runner.RunResult
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	magenta := color.New(color.FgMagenta).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold, color.Underline).SprintFunc()

	f.results = append(f.results, result)

	title := result.File
	if result.Suite != "" {
		title = fmt.Sprintf("%s (%s)", result.File, result.Suite)
	}
	fmt.Fprintf(f.writer, "\n%s\n\n", bold(title))

	if result.Err != nil {
		fmt.Fprintf(f.writer, "  %s %v\n", red("✗"), result.Err)
		f.errored++
		return
	}

	for _, r := range result.Results {
		f.total++
		switch r.Status {
		case runner.StatusSkipped:
			f.skipped++
			fmt.Fprintf(f.writer, "  %s %s", yellow("-"), r.Name)
			if f.verbose && r.SkipReason != "" {
				fmt.Fprintf(f.writer, " (%s)", r.SkipReason)
			}
			fmt.Fprintf(f.writer, "\n")
			continue

		case runner.StatusErrored:
			f.errored++
			fmt.Fprintf(f.writer, "  %s %s %s\n", magenta("!"), r.Name, magenta(fmt.Sprintf("(%s error)", r.ErrorKind)))
			fmt.Fprintf(f.writer, "%s\n", indent(r.Message(), "      "))
			continue

		case runner.StatusPassed:
			f.passed++
			fmt.Fprintf(f.writer, "  %s %s %s\n", green("✓"), r.Name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))

		case runner.StatusFailed:
			f.failed++
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), r.Name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))
			fmt.Fprintf(f.writer, "%s\n", indent(r.Message(), "      "))
		}

		if !f.verbose {
			continue
		}
		if r.Request != nil {
			fmt.Fprintf(f.writer, "    %s %s\n", r.Request.Method, r.Request.URL)
		}
		if r.Response != nil {
			fmt.Fprintf(f.writer, "    Status: %d\n", r.Response.StatusCode)
			if r.Status == runner.StatusFailed {
				fmt.Fprintf(f.writer, "    Body:   %s\n", formatValue(r.Response.Body, 200))
			}
		}
		if r.Assertion != nil && len(r.Assertion.SavedVariables) > 0 {
			fmt.Fprintf(f.writer, "    Saved:\n")
			names := make([]string, 0, len(r.Assertion.SavedVariables))
			for name := range r.Assertion.SavedVariables {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(f.writer, "      %s = %s\n", name, formatValue(r.Assertion.SavedVariables[name], 100))
			}
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Tests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Errored > 0 {
		fmt.Fprintf(f.writer, "%s, ", magenta(fmt.Sprintf("%d errored", result.Errored)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	fmt.Fprintf(f.writer, "%d total\n", result.Total())
	fmt.Fprintf(f.writer, "Time:  %dms\n", result.Duration.Milliseconds())
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("apiflow"), version)
}

// Flush prints the summary over every file formatted so far.
func (f *ConsoleFormatter) Flush(totalDuration time.Duration) error {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	magenta := color.New(color.FgMagenta).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s %d tests run, %s, %s, %s",
		bold("Summary:"),
		f.total,
		green(fmt.Sprintf("%d passed", f.passed)),
		red(fmt.Sprintf("%d failed", f.failed)),
		magenta(fmt.Sprintf("%d errored", f.errored)))
	if f.skipped > 0 {
		fmt.Fprintf(f.writer, ", %d skipped", f.skipped)
	}
	fmt.Fprintf(f.writer, " in %dms\n", totalDuration.Milliseconds())

	if stats := runner.Summarize(f.results); stats.Count > 0 {
		fmt.Fprintf(f.writer, "Response times: min %s, mean %s, p50 %s, p95 %s, p99 %s, max %s\n",
			ms(stats.Min), ms(stats.Mean), ms(stats.P50), ms(stats.P95), ms(stats.P99), ms(stats.Max))
	}
	return nil
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
}
