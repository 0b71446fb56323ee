package output

import (
	"fmt"
	"io"
	"time"

	"github.com/abdul-hamid-achik/hitassert/packages/core/runner"
)

// Formatter renders run results.
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable is implemented by formatters that accumulate results and write
// them once the whole run is over.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Options configure New.
type Options struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	// Path is the workbook written by the xlsx formatter.
	Path string
}

// Formats lists the names accepted by New.
var Formats = []string{"console", "json", "junit", "tap", "xlsx"}

// New returns the formatter for format.
func New(format string, opts Options) (Formatter, error) {
	switch format {
	case "", "console":
		consoleOpts := []ConsoleOption{WithVerbose(opts.Verbose), WithNoColor(opts.NoColor)}
		if opts.Writer != nil {
			consoleOpts = append(consoleOpts, WithWriter(opts.Writer))
		}
		return NewConsoleFormatter(consoleOpts...), nil
	case "json":
		var jsonOpts []JSONOption
		if opts.Writer != nil {
			jsonOpts = append(jsonOpts, JSONWithWriter(opts.Writer))
		}
		return NewJSONFormatter(jsonOpts...), nil
	case "junit":
		var junitOpts []JUnitOption
		if opts.Writer != nil {
			junitOpts = append(junitOpts, JUnitWithWriter(opts.Writer))
		}
		return NewJUnitFormatter(junitOpts...), nil
	case "tap":
		var tapOpts []TAPOption
		if opts.Writer != nil {
			tapOpts = append(tapOpts, TAPWithWriter(opts.Writer))
		}
		return NewTAPFormatter(tapOpts...), nil
	case "xlsx":
		if opts.Path == "" {
			return nil, fmt.Errorf("xlsx output needs a file path")
		}
		return NewXLSXFormatter(opts.Path), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %v)", format, Formats)
	}
}
