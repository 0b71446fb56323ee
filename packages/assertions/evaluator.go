package assertions

import (
	"errors"
	"strconv"

	"github.com/abdul-hamid-achik/hitassert/packages/diagnostic"
	"github.com/abdul-hamid-achik/hitassert/packages/http"
	"github.com/abdul-hamid-achik/hitassert/packages/jsonpath"
	"github.com/abdul-hamid-achik/hitassert/packages/matchers"
	"github.com/tidwall/gjson"
)

// Failure is returned when a declared expectation does not hold. Message is
// the rendered diagnostic.
type Failure struct {
	Expectation Expectation
	Outcome     matchers.Outcome
	Message     string
}

func (f *Failure) Error() string {
	return f.Message
}

// IsFailure reports whether err is an assertion failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

// Result is the outcome of one expectation under the full-report policy.
type Result struct {
	Passed     bool
	Message    string
	Subject    string
	Expected   string
	Actual     string
	Mismatches []string
}

// Verify evaluates the expectations in declaration order and returns the
// first failure as a *Failure. A malformed expectation is returned as a
// *matchers.UsageError. Verify returns nil when every expectation holds.
func (s *Spec) Verify(resp *http.Response) error {
	if err := s.declarationError(); err != nil {
		return err
	}
	for _, e := range s.expectations {
		out, msg, err := check(e, resp)
		if err != nil {
			return err
		}
		if !out.Matched {
			return &Failure{Expectation: e, Outcome: out, Message: msg}
		}
	}
	return nil
}

// Evaluate checks every expectation and reports each one. Only a usage
// error stops evaluation.
func (s *Spec) Evaluate(resp *http.Response) ([]*Result, error) {
	if err := s.declarationError(); err != nil {
		return nil, err
	}
	results := make([]*Result, 0, len(s.expectations))
	for _, e := range s.expectations {
		out, msg, err := check(e, resp)
		if err != nil {
			return results, err
		}
		r := &Result{
			Passed:     out.Matched,
			Subject:    e.Subject(),
			Expected:   out.Expected,
			Actual:     out.Actual,
			Mismatches: out.Mismatches,
		}
		if !out.Matched {
			r.Message = msg
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *Spec) declarationError() error {
	if len(s.errs) == 0 {
		return nil
	}
	return s.errs[0]
}

// check evaluates one expectation and renders the failure message for a
// mismatch. The message is empty when the outcome matched.
func check(e Expectation, resp *http.Response) (matchers.Outcome, string, error) {
	switch e.Target {
	case TargetStatusCode:
		out, err := matchers.EvaluateValue(e.Matcher, resp.StatusCode)
		if err != nil || out.Matched {
			return out, "", err
		}
		return out, diagnostic.StatusCode(out.Expected, strconv.Itoa(resp.StatusCode)), nil

	case TargetStatusLine:
		out, err := matchers.EvaluateValue(e.Matcher, resp.StatusLine)
		if err != nil || out.Matched {
			return out, "", err
		}
		return out, diagnostic.StatusLine(out.Expected, resp.StatusLine), nil

	case TargetHeader:
		value, ok := resp.Headers.Lookup(e.Name)
		if !ok {
			out := matchers.EvaluateMissing(e.Matcher, "header not defined")
			if out.Matched {
				return out, "", nil
			}
			return out, diagnostic.HeaderAbsent(e.Name, resp.Headers), nil
		}
		out, err := matchers.EvaluateValue(e.Matcher, value)
		if err != nil || out.Matched {
			return out, "", err
		}
		return out, diagnostic.HeaderMismatch(e.Name, out.Expected, value), nil

	case TargetBody:
		return checkBody(e, resp)
	}
	return matchers.Outcome{}, "", &matchers.UsageError{Reason: "unknown expectation target " + e.Target.String()}
}

func checkBody(e Expectation, resp *http.Response) (matchers.Outcome, string, error) {
	whole := e.Path == nil || e.Path.IsRoot()

	doc, parseErr := resp.JSON()
	if whole && (parseErr != nil || len(resp.Body) == 0) {
		// not JSON: compare the raw text
		out, err := matchers.EvaluateValue(e.Matcher, resp.BodyString())
		if err != nil || out.Matched {
			return out, "", err
		}
		return out, diagnostic.Body(out.Expected, out.Actual, out.Mismatches), nil
	}

	if whole && parseErr == nil && isScalarBody(doc) {
		out, err := matchers.EvaluateValue(e.Matcher, matchers.ScalarBody{Raw: resp.BodyString(), Value: doc})
		if err != nil || out.Matched {
			return out, "", err
		}
		return out, diagnostic.Body(out.Expected, out.Actual, out.Mismatches), nil
	}

	var out matchers.Outcome
	if parseErr != nil {
		out = matchers.EvaluateMissing(e.Matcher, parseErr.Error())
	} else {
		res, err := jsonpath.Resolve(doc, e.Path)
		if err != nil {
			out = matchers.EvaluateMissing(e.Matcher, err.Error())
		} else {
			out, err = matchers.Evaluate(e.Matcher, res)
			if err != nil {
				return matchers.Outcome{}, "", err
			}
		}
	}

	if out.Matched {
		return out, "", nil
	}
	if whole {
		return out, diagnostic.Body(out.Expected, out.Actual, out.Mismatches), nil
	}
	return out, diagnostic.BodyPath(e.Path.String(), out.Expected, out.Actual, out.Mismatches), nil
}

// isScalarBody reports a body that parsed as a bare number, boolean or
// null, which may just as well be plain text.
func isScalarBody(doc gjson.Result) bool {
	switch doc.Type {
	case gjson.Number, gjson.True, gjson.False, gjson.Null:
		return doc.Exists()
	}
	return false
}
