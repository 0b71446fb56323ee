// Package output renders run results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
//   - JUnit: JUnit XML format for CI integration
//   - TAP: Test Anything Protocol format
//   - XLSX: Excel workbook with a results and a summary sheet
//
// Each formatter implements Formatter. Formats that accumulate results
// before writing also implement Flushable.
package output
