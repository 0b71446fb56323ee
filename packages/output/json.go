package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitassert/packages/core/runner"
	"github.com/abdul-hamid-achik/hitassert/packages/http"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Tests    []JSONTest  `json:"tests"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
}

// JSONTest represents a single request result
type JSONTest struct {
	Name       string          `json:"name"`
	File       string          `json:"file"`
	Passed     bool            `json:"passed"`
	Skipped    bool            `json:"skipped,omitempty"`
	SkipReason string          `json:"skipReason,omitempty"`
	Duration   float64         `json:"duration"`
	Error      string          `json:"error,omitempty"`
	Request    *JSONRequest    `json:"request,omitempty"`
	Response   *JSONResponse   `json:"response,omitempty"`
	Assertions []JSONAssertion `json:"assertions,omitempty"`
	Captures   map[string]any  `json:"captures,omitempty"`
}

type JSONHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type JSONRequest struct {
	Method  string       `json:"method"`
	URL     string       `json:"url"`
	Headers []JSONHeader `json:"headers,omitempty"`
}

type JSONResponse struct {
	StatusCode int          `json:"statusCode"`
	StatusLine string       `json:"statusLine"`
	Headers    []JSONHeader `json:"headers,omitempty"`
	Duration   float64      `json:"duration"`
}

type JSONAssertion struct {
	Subject    string   `json:"subject"`
	Expected   string   `json:"expected"`
	Actual     string   `json:"actual"`
	Passed     bool     `json:"passed"`
	Message    string   `json:"message,omitempty"`
	Mismatches []string `json:"mismatches,omitempty"`
}

// JSONFormatter formats test results as JSON
type JSONFormatter struct {
	writer  io.Writer
	results []JSONTest
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONTest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func jsonHeaders(headers http.Headers) []JSONHeader {
	if len(headers) == 0 {
		return nil
	}
	out := make([]JSONHeader, len(headers))
	for i, h := range headers {
		out[i] = JSONHeader{Name: h.Name, Value: h.Value}
	}
	return out
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		test := JSONTest{
			Name:     r.Name,
			File:     result.File,
			Passed:   r.Passed,
			Skipped:  r.Skipped,
			Duration: float64(r.Duration.Milliseconds()),
		}

		if r.SkipReason != "" && r.SkipReason != "filtered out" {
			test.SkipReason = r.SkipReason
		}

		if r.Error != nil {
			test.Error = r.Error.Error()
		}

		if r.Request != nil {
			test.Request = &JSONRequest{
				Method:  r.Request.Method,
				URL:     r.Request.BuildURL(),
				Headers: jsonHeaders(r.Request.Headers),
			}
		}

		if r.Response != nil {
			test.Response = &JSONResponse{
				StatusCode: r.Response.StatusCode,
				StatusLine: r.Response.StatusLine,
				Headers:    jsonHeaders(r.Response.Headers),
				Duration:   float64(r.Response.Duration.Milliseconds()),
			}
		}

		for _, a := range r.Assertions {
			test.Assertions = append(test.Assertions, JSONAssertion{
				Subject:    a.Subject,
				Expected:   a.Expected,
				Actual:     a.Actual,
				Passed:     a.Passed,
				Message:    a.Message,
				Mismatches: a.Mismatches,
			})
		}

		if len(r.Captures) > 0 {
			test.Captures = r.Captures
		}

		f.results = append(f.results, test)
	}
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var summary JSONSummary
	summary.Total = len(f.results)
	for _, t := range f.results {
		switch {
		case t.Skipped:
			summary.Skipped++
		case t.Error != "":
			summary.Errored++
		case t.Passed:
			summary.Passed++
		default:
			summary.Failed++
		}
	}

	output := JSONOutput{
		Summary:  summary,
		Tests:    f.results,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
