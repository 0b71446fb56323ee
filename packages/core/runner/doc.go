// Package runner executes suite files and reports per-request results.
//
// Requests are ordered so that dependencies run first, filtered by name,
// tag and the only/skip markers, then sent and checked against their
// expectations. Values captured from one response are available to later
// requests as templates.
//
// By default every expectation of a request is evaluated and reported.
// With FailFast set, checking stops at the first mismatch. Requests without
// dependencies can run in parallel.
package runner
