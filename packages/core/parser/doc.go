// Package parser loads hitassert suite files.
//
// Suites are YAML documents listing requests and the expectations their
// responses must meet. The parser handles:
//   - Suite variables and base URL
//   - Request method, path, headers, params and body
//   - JSON body edits applied with sjson paths
//   - Expectations on status, status line, headers and body paths
//   - Captures for request chaining
//   - Metadata (tags, skip, only, depends, timeout)
//
// Mapping key order is preserved throughout.
package parser
