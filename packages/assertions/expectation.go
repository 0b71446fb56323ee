package assertions

import (
	"fmt"
	"sort"

	"github.com/abdul-hamid-achik/hitassert/packages/diagnostic"
	"github.com/abdul-hamid-achik/hitassert/packages/jsonpath"
	"github.com/abdul-hamid-achik/hitassert/packages/matchers"
)

// Target selects the part of a response an expectation inspects.
type Target int

const (
	TargetStatusCode Target = iota
	TargetStatusLine
	TargetHeader
	TargetBody
)

func (t Target) String() string {
	switch t {
	case TargetStatusCode:
		return "status"
	case TargetStatusLine:
		return "statusLine"
	case TargetHeader:
		return "header"
	case TargetBody:
		return "body"
	default:
		return "unknown"
	}
}

// Expectation pairs a target with the matcher its value must satisfy.
type Expectation struct {
	Target  Target
	Name    string               // header name, for TargetHeader
	Path    *jsonpath.Expression // body path, for TargetBody; root for whole-body
	Matcher matchers.Matcher
}

// Subject renders the expectation target, e.g. "header Content-Type" or
// "body lotto.lottoId".
func (e Expectation) Subject() string {
	switch e.Target {
	case TargetHeader:
		return "header " + e.Name
	case TargetBody:
		if e.Path == nil || e.Path.IsRoot() {
			return "body"
		}
		return "body " + e.Path.String()
	default:
		return e.Target.String()
	}
}

// Spec accumulates expectations in declaration order. The zero value is
// ready to use; methods return the receiver for chaining.
type Spec struct {
	expectations []Expectation
	errs         []error
}

// Expect starts a new expectation chain.
func Expect() *Spec {
	return &Spec{}
}

// And is a no-op that reads well in chains.
func (s *Spec) And() *Spec {
	return s
}

// Expectations returns a copy of the declared expectations.
func (s *Spec) Expectations() []Expectation {
	out := make([]Expectation, len(s.expectations))
	copy(out, s.expectations)
	return out
}

// Add appends a prepared expectation.
func (s *Spec) Add(e Expectation) *Spec {
	if e.Matcher == nil {
		s.errs = append(s.errs, &matchers.UsageError{Reason: fmt.Sprintf("%s has no matcher", e.Subject())})
		return s
	}
	s.expectations = append(s.expectations, e)
	return s
}

// StatusCode expects the status code to match v, a value or a Matcher.
func (s *Spec) StatusCode(v any) *Spec {
	return s.Add(Expectation{Target: TargetStatusCode, Matcher: asMatcher(v)})
}

// StatusLine expects the full status line ("HTTP/1.1 200 OK") to match v.
func (s *Spec) StatusLine(v any) *Spec {
	return s.Add(Expectation{Target: TargetStatusLine, Matcher: asMatcher(v)})
}

// Header expects the first header named name to match v. Plain values are
// compared as strings, so Header("Content-Length", 160) works.
func (s *Spec) Header(name string, v any) *Spec {
	return s.Add(Expectation{Target: TargetHeader, Name: name, Matcher: asHeaderMatcher(v)})
}

// Headers takes alternating name and value arguments.
func (s *Spec) Headers(pairs ...any) *Spec {
	if len(pairs)%2 != 0 {
		s.errs = append(s.errs, &matchers.UsageError{Reason: fmt.Sprintf("headers expects name/value pairs, got %d arguments", len(pairs))})
		return s
	}
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			s.errs = append(s.errs, &matchers.UsageError{Reason: fmt.Sprintf("header name at position %d is %T, not string", i, pairs[i])})
			continue
		}
		s.Header(name, pairs[i+1])
	}
	return s
}

// HeaderMap declares one header expectation per entry, ordered by name.
func (s *Spec) HeaderMap(headers map[string]any) *Spec {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.Header(name, headers[name])
	}
	return s
}

// Body expects the value at path in the JSON body to match v.
func (s *Spec) Body(path string, v any) *Spec {
	expr, err := jsonpath.Parse(path)
	if err != nil {
		s.errs = append(s.errs, &matchers.UsageError{Reason: err.Error()})
		return s
	}
	return s.Add(Expectation{Target: TargetBody, Path: expr, Matcher: asMatcher(v)})
}

// BodyEquals expects the whole body to match v. A string is compared
// structurally against a JSON body and literally against any other body.
func (s *Spec) BodyEquals(v any) *Spec {
	return s.Add(Expectation{Target: TargetBody, Path: jsonpath.Root, Matcher: asMatcher(v)})
}

func asMatcher(v any) matchers.Matcher {
	if m, ok := v.(matchers.Matcher); ok {
		return m
	}
	return matchers.Equals(v)
}

func asHeaderMatcher(v any) matchers.Matcher {
	if m, ok := v.(matchers.Matcher); ok {
		return m
	}
	if v == nil {
		return nil
	}
	return matchers.Equals(diagnostic.Render(v))
}
