package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitassert/packages/core/runner"
	"gopkg.in/yaml.v3"
)

// TAPFormatter writes TAP version 13. Every request is one test point;
// failed and errored points carry a YAML diagnostic block with the
// expectation messages.
type TAPFormatter struct {
	writer io.Writer
	points []tapPoint
	totals struct{ passed, failed, errored, skipped int }
}

type tapPoint struct {
	ok        bool
	name      string
	directive string
	diag      *tapDiagnostic
}

type tapDiagnostic struct {
	Severity   string       `yaml:"severity"`
	Type       string       `yaml:"type,omitempty"`
	Message    string       `yaml:"message,omitempty"`
	File       string       `yaml:"file,omitempty"`
	Status     int          `yaml:"status,omitempty"`
	DurationMs int64        `yaml:"duration_ms,omitempty"`
	Failures   []tapFailure `yaml:"failures,omitempty"`
}

type tapFailure struct {
	Subject    string   `yaml:"subject"`
	Expected   string   `yaml:"expected"`
	Actual     string   `yaml:"actual"`
	Message    string   `yaml:"message,omitempty"`
	Mismatches []string `yaml:"mismatches,omitempty"`
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatHeader(version string) {}

func (f *TAPFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		point := tapPoint{ok: r.Passed || r.Skipped, name: r.Name}

		switch {
		case r.Skipped:
			point.directive = "SKIP " + r.SkipReason
			f.totals.skipped++

		case r.Error != nil:
			errType := "UsageError"
			if r.IsTransportError() {
				errType = "TransportError"
			}
			point.diag = &tapDiagnostic{
				Severity:   "error",
				Type:       errType,
				Message:    r.Error.Error(),
				File:       result.File,
				DurationMs: r.Duration.Milliseconds(),
			}
			f.totals.errored++

		case !r.Passed:
			diag := &tapDiagnostic{
				Severity:   "fail",
				File:       result.File,
				DurationMs: r.Duration.Milliseconds(),
			}
			if r.Response != nil {
				diag.Status = r.Response.StatusCode
			}
			for _, a := range r.Assertions {
				if a.Passed {
					continue
				}
				diag.Failures = append(diag.Failures, tapFailure{
					Subject:    a.Subject,
					Expected:   a.Expected,
					Actual:     a.Actual,
					Message:    a.Message,
					Mismatches: a.Mismatches,
				})
			}
			for _, cerr := range r.CaptureErrors {
				diag.Failures = append(diag.Failures, tapFailure{Subject: "capture", Message: cerr.Error()})
			}
			point.diag = diag
			f.totals.failed++

		default:
			f.totals.passed++
		}

		f.points = append(f.points, point)
	}
}

// FormatError records a suite that could not be run as a failed point.
func (f *TAPFormatter) FormatError(err error) {
	f.points = append(f.points, tapPoint{
		name: "suite",
		diag: &tapDiagnostic{Severity: "error", Type: "ParseError", Message: err.Error()},
	})
	f.totals.errored++
}

func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "TAP version 13\n1..%d\n", len(f.points))

	for i, p := range f.points {
		status := "ok"
		if !p.ok {
			status = "not ok"
		}
		fmt.Fprintf(&b, "%s %d - %s", status, i+1, tapName(p.name))
		if p.directive != "" {
			fmt.Fprintf(&b, " # %s", strings.TrimSpace(p.directive))
		}
		b.WriteByte('\n')

		if p.diag != nil {
			if err := writeTAPDiagnostic(&b, p.diag); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(&b, "# passed %d, failed %d, errored %d, skipped %d in %dms\n",
		f.totals.passed, f.totals.failed, f.totals.errored, f.totals.skipped, totalDuration.Milliseconds())

	_, err := f.writer.Write(b.Bytes())
	return err
}

// writeTAPDiagnostic emits the YAML block indented under its test point.
func writeTAPDiagnostic(b *bytes.Buffer, diag *tapDiagnostic) error {
	var doc bytes.Buffer
	enc := yaml.NewEncoder(&doc)
	enc.SetIndent(2)
	if err := enc.Encode(diag); err != nil {
		return fmt.Errorf("encoding TAP diagnostic: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	b.WriteString("  ---\n")
	for _, line := range strings.Split(strings.TrimRight(doc.String(), "\n"), "\n") {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("  ...\n")
	return nil
}

// tapName keeps a '#' in a request name from reading as a directive.
func tapName(name string) string {
	return strings.ReplaceAll(name, "#", `\#`)
}
