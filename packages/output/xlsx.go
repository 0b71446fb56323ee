package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitassert/packages/core/runner"
	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"

	failedFill  = "#FFC7CE"
	skippedFill = "#FFEB9C"
)

var xlsxHeaders = []string{"File", "Request", "Method", "URL", "Status", "Outcome", "Duration (ms)", "Failures"}

type xlsxRow struct {
	file     string
	name     string
	method   string
	url      string
	status   int
	outcome  string
	duration int64
	failures string
}

// XLSXFormatter writes results to an Excel workbook, one row per request
// plus a summary sheet.
type XLSXFormatter struct {
	path string
	rows []xlsxRow

	passed, failed, errored, skipped int
}

func NewXLSXFormatter(path string) *XLSXFormatter {
	return &XLSXFormatter{path: path}
}

func (f *XLSXFormatter) FormatResult(result *runner.RunResult) {
	f.passed += result.Passed
	f.failed += result.Failed
	f.errored += result.Errored
	f.skipped += result.Skipped

	for _, r := range result.Results {
		row := xlsxRow{
			file:     result.File,
			name:     r.Name,
			duration: r.Duration.Milliseconds(),
		}
		if r.Request != nil {
			row.method = r.Request.Method
			row.url = r.Request.BuildURL()
		}
		if r.Response != nil {
			row.status = r.Response.StatusCode
		}

		switch {
		case r.Skipped:
			row.outcome = "skipped"
			row.failures = r.SkipReason
		case r.Error != nil:
			row.outcome = "errored"
			row.failures = r.Error.Error()
		case r.Passed:
			row.outcome = "passed"
		default:
			row.outcome = "failed"
			var msgs []string
			for _, a := range r.Assertions {
				if a.Passed {
					continue
				}
				if a.Message != "" {
					msgs = append(msgs, a.Message)
				} else {
					msgs = append(msgs, fmt.Sprintf("%s: expected %s, actual %s", a.Subject, a.Expected, a.Actual))
				}
			}
			row.failures = strings.Join(msgs, "\n")
		}
		f.rows = append(f.rows, row)
	}
}

func (f *XLSXFormatter) FormatError(err error) {}

func (f *XLSXFormatter) FormatHeader(version string) {}

// Flush writes the workbook to the configured path.
func (f *XLSXFormatter) Flush(totalDuration time.Duration) error {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("creating results sheet: %w", err)
	}
	if err := f.writeResults(book); err != nil {
		return err
	}

	index, err := book.NewSheet(summarySheet)
	if err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	summary := [][]any{
		{"Total", len(f.rows)},
		{"Passed", f.passed},
		{"Failed", f.failed},
		{"Errored", f.errored},
		{"Skipped", f.skipped},
		{"Duration (ms)", totalDuration.Milliseconds()},
	}
	for i, pair := range summary {
		if err := book.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &pair); err != nil {
			return err
		}
	}
	book.SetActiveSheet(index)

	if err := book.SaveAs(f.path); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

func (f *XLSXFormatter) writeResults(book *excelize.File) error {
	failedStyle, err := fillStyle(book, failedFill)
	if err != nil {
		return err
	}
	skippedStyle, err := fillStyle(book, skippedFill)
	if err != nil {
		return err
	}

	header := make([]any, len(xlsxHeaders))
	for i, h := range xlsxHeaders {
		header[i] = h
	}
	if err := book.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return err
	}
	if err := book.SetColWidth(resultsSheet, "A", "H", 20); err != nil {
		return err
	}

	lastCol := string(rune('A' + len(xlsxHeaders) - 1))
	for i, row := range f.rows {
		n := i + 2
		values := []any{row.file, row.name, row.method, row.url, row.status, row.outcome, row.duration, row.failures}
		if err := book.SetSheetRow(resultsSheet, fmt.Sprintf("A%d", n), &values); err != nil {
			return err
		}

		style := 0
		switch row.outcome {
		case "failed", "errored":
			style = failedStyle
		case "skipped":
			style = skippedStyle
		}
		if style != 0 {
			if err := book.SetCellStyle(resultsSheet, fmt.Sprintf("A%d", n), fmt.Sprintf("%s%d", lastCol, n), style); err != nil {
				return err
			}
		}
	}
	return nil
}

func fillStyle(book *excelize.File, color string) (int, error) {
	return book.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
}
