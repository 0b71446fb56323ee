// Package http provides the HTTP transport used to produce responses for
// assertion.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts, redirects, proxy and base URL
//   - Ordered request parameters and headers
//   - Client-side rate limiting
//   - Fully buffered, immutable Response snapshots with a lazily parsed body
//   - TransportError for failures that never produced a response
package http
