package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/apiflow/packages/core/runner"
)

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Formats lists the accepted --output values.
var Formats = []string{"console", "json", "junit", "tap"}

type Options struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
}

// New returns the formatter for format. An empty format means console.
func New(format string, opts Options) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		f := NewJSONFormatter()
		if opts.Writer != nil {
			f.writer = opts.Writer
		}
		return f, nil
	case "junit":
		f := NewJUnitFormatter()
		if opts.Writer != nil {
			f.writer = opts.Writer
		}
		return f, nil
	case "tap":
		f := NewTAPFormatter()
		if opts.Writer != nil {
			f.writer = opts.Writer
		}
		return f, nil
	case "console", "":
		consoleOpts := []ConsoleOption{
			WithVerbose(opts.Verbose),
			WithNoColor(opts.NoColor),
		}
		if opts.Writer != nil {
			consoleOpts = append(consoleOpts, WithWriter(opts.Writer))
		}
		return NewConsoleFormatter(consoleOpts...), nil
	}
	return nil, fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
}
