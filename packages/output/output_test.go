package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitassert/packages/assertions"
	"github.com/abdul-hamid-achik/hitassert/packages/core/runner"
	"github.com/abdul-hamid-achik/hitassert/packages/http"
	"github.com/abdul-hamid-achik/hitassert/packages/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

func sampleResult() *runner.RunResult {
	resp := http.NewResponse(200, "HTTP/1.1 200 OK", http.Headers{
		{Name: "Content-Type", Value: "application/json; charset=UTF-8"},
		{Name: "Content-Length", Value: "160"},
	}, []byte(`{"lotto":{"lottoId":5}}`))
	resp.Duration = 12 * time.Millisecond

	return &runner.RunResult{
		File:     "lotto.yaml",
		Duration: 40 * time.Millisecond,
		Passed:   1,
		Failed:   1,
		Errored:  1,
		Skipped:  1,
		Latency:  runner.LatencySummary{Count: 2, Min: time.Millisecond, Max: 12 * time.Millisecond},
		Results: []*runner.RequestResult{
			{
				Name:     "hello",
				Passed:   true,
				Duration: time.Millisecond,
				Request:  http.NewRequest("GET", "http://localhost/hello"),
				Response: resp,
				Captures: map[string]any{"lottoId": 5.0},
			},
			{
				Name:     "lotto",
				Duration: 12 * time.Millisecond,
				Request:  http.NewRequest("GET", "http://localhost/lotto"),
				Response: resp,
				Assertions: []*assertions.Result{
					{Passed: true, Subject: "status", Expected: "200", Actual: "200"},
					{
						Passed:     false,
						Subject:    "body lotto.winners.winnerId",
						Expected:   "a collection containing 23 and 99",
						Actual:     "[23, 54]",
						Message:    "JSON path lotto.winners.winnerId doesn't match.",
						Mismatches: []string{"missing item 99"},
					},
				},
			},
			{Name: "greet", Error: &http.TransportError{Method: "GET", URL: "http://localhost:1/greet", Err: errors.New("connection refused")}},
			{Name: "later", Skipped: true, SkipReason: `dependency "lotto" failed`},
		},
	}
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	f.FormatHeader("1.0.0")
	f.FormatResult(sampleResult())
	f.FormatError(errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "hitassert 1.0.0")
	assert.Contains(t, out, "Running: lotto.yaml")
	assert.Contains(t, out, "✓ hello")
	assert.Contains(t, out, "lottoId = 5")
	assert.Contains(t, out, "✗ lotto")
	assert.Contains(t, out, "→ body lotto.winners.winnerId")
	assert.Contains(t, out, "Expected: a collection containing 23 and 99")
	assert.Contains(t, out, "missing item 99")
	assert.Contains(t, out, "JSON path lotto.winners.winnerId doesn't match.")
	assert.Contains(t, out, "x greet")
	assert.Contains(t, out, `- later (dependency "lotto" failed)`)
	assert.Contains(t, out, "1 passed, 1 failed, 1 errored, 1 skipped, 4 total")
	assert.Contains(t, out, "Latency: min 1ms")
	assert.Contains(t, out, "Error: boom")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, JSONSummary{Total: 4, Passed: 1, Failed: 1, Errored: 1, Skipped: 1}, out.Summary)
	assert.Equal(t, 1000.0, out.Duration)
	require.Len(t, out.Tests, 4)

	lotto := out.Tests[1]
	assert.Equal(t, "HTTP/1.1 200 OK", lotto.Response.StatusLine)
	assert.Equal(t, []JSONHeader{
		{Name: "Content-Type", Value: "application/json; charset=UTF-8"},
		{Name: "Content-Length", Value: "160"},
	}, lotto.Response.Headers)
	require.Len(t, lotto.Assertions, 2)
	assert.Equal(t, []string{"missing item 99"}, lotto.Assertions[1].Mismatches)
	assert.Contains(t, out.Tests[2].Error, "connection refused")
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))

	assert.Equal(t, "hitassert", suites.Name)
	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	require.Len(t, suites.TestSuites, 1)

	cases := suites.TestSuites[0].TestCases
	require.Len(t, cases, 4)
	assert.Nil(t, cases[0].Failure)
	require.NotNil(t, cases[1].Failure)
	assert.Equal(t, "JSON path lotto.winners.winnerId doesn't match.", cases[1].Failure.Message)
	assert.Contains(t, cases[1].Failure.Content, "missing item 99")
	require.NotNil(t, cases[2].Error)
	assert.Equal(t, "TransportError", cases[2].Error.Type)
	require.NotNil(t, cases[3].Skipped)
}

// tapDiagnostics decodes every YAML block of a TAP stream in order.
func tapDiagnostics(t *testing.T, out string) []tapDiagnostic {
	t.Helper()
	var diags []tapDiagnostic
	for _, block := range strings.Split(out, "  ---\n")[1:] {
		body, _, found := strings.Cut(block, "  ...\n")
		require.True(t, found, "unterminated diagnostic block")

		var lines []string
		for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
			lines = append(lines, strings.TrimPrefix(line, "  "))
		}
		var d tapDiagnostic
		require.NoError(t, yaml.Unmarshal([]byte(strings.Join(lines, "\n")), &d))
		diags = append(diags, d)
	}
	return diags
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "TAP version 13\n1..4\n"))
	assert.Contains(t, out, "ok 1 - hello\n")
	assert.Contains(t, out, "not ok 2 - lotto\n  ---\n")
	assert.Contains(t, out, "not ok 3 - greet\n  ---\n")
	assert.Contains(t, out, `ok 4 - later # SKIP dependency "lotto" failed`)
	assert.Contains(t, out, "# passed 1, failed 1, errored 1, skipped 1 in 1000ms\n")

	diags := tapDiagnostics(t, out)
	require.Len(t, diags, 2)

	failed := diags[0]
	assert.Equal(t, "fail", failed.Severity)
	assert.Equal(t, "lotto.yaml", failed.File)
	assert.Equal(t, 200, failed.Status)
	require.Len(t, failed.Failures, 1)
	assert.Equal(t, tapFailure{
		Subject:    "body lotto.winners.winnerId",
		Expected:   "a collection containing 23 and 99",
		Actual:     "[23, 54]",
		Message:    "JSON path lotto.winners.winnerId doesn't match.",
		Mismatches: []string{"missing item 99"},
	}, failed.Failures[0])

	errored := diags[1]
	assert.Equal(t, "error", errored.Severity)
	assert.Equal(t, "TransportError", errored.Type)
	assert.Contains(t, errored.Message, "connection refused")
}

func TestTAPFormatter_SuiteErrors(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))
	f.FormatResult(&runner.RunResult{
		File: "broken.yaml",
		Results: []*runner.RequestResult{
			{Name: "case #1", Error: &matchers.UsageError{Reason: "between takes [low, high]"}},
		},
	})
	f.FormatError(errors.New("broken.yaml:3: unknown request key \"bogus\""))
	require.NoError(t, f.Flush(0))

	out := buf.String()
	assert.Contains(t, out, "1..2\n")
	assert.Contains(t, out, `not ok 1 - case \#1`)
	assert.Contains(t, out, "not ok 2 - suite\n")

	diags := tapDiagnostics(t, out)
	require.Len(t, diags, 2)
	assert.Equal(t, "UsageError", diags[0].Type)
	assert.Equal(t, "invalid expectation: between takes [low, high]", diags[0].Message)
	assert.Equal(t, "ParseError", diags[1].Type)
	assert.Equal(t, `broken.yaml:3: unknown request key "bogus"`, diags[1].Message)
}

func TestXLSXFormatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	f := NewXLSXFormatter(path)
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(resultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, xlsxHeaders, rows[0])
	assert.Equal(t, "hello", rows[1][1])
	assert.Equal(t, "passed", rows[1][5])
	assert.Equal(t, "failed", rows[2][5])
	assert.Equal(t, "JSON path lotto.winners.winnerId doesn't match.", rows[2][7])
	assert.Equal(t, "errored", rows[3][5])
	assert.Equal(t, "skipped", rows[4][5])

	total, err := book.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "4", total)
	failed, err := book.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "1", failed)
}

func TestNew(t *testing.T) {
	for _, format := range []string{"", "console", "json", "junit", "tap"} {
		f, err := New(format, Options{Writer: &bytes.Buffer{}, NoColor: true})
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}

	_, err := New("xlsx", Options{})
	assert.ErrorContains(t, err, "file path")

	f, err := New("xlsx", Options{Path: "out.xlsx"})
	require.NoError(t, err)
	_, ok := f.(Flushable)
	assert.True(t, ok)

	_, err = New("html", Options{})
	assert.ErrorContains(t, err, "unknown output format")
}
