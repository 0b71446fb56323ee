package matchers

import (
	"encoding/json"
	"fmt"

	"github.com/abdul-hamid-achik/hitassert/packages/diagnostic"
	"github.com/abdul-hamid-achik/hitassert/packages/jsonpath"
	"github.com/tidwall/gjson"
)

// Outcome is the result of applying a matcher.
type Outcome struct {
	Matched    bool
	Expected   string
	Actual     string
	Mismatches []string
}

// Evaluate applies m to a path resolution. Wildcard resolutions go to
// collection-aware matchers as a whole. Otherwise exactly one value is
// required: none is treated as missing, several is a *UsageError.
func Evaluate(m Matcher, res jsonpath.Resolution) (Outcome, error) {
	if _, ok := m.(ItemsMatcher); ok && res.Expanded {
		items := make([]any, len(res.Values))
		rendered := make([]any, len(res.Values))
		for i, v := range res.Values {
			items[i] = v.Result
			rendered[i] = renderable(v)
		}
		matched, details, err := explainItems(m, items)
		if err != nil {
			return Outcome{}, err
		}
		return outcome(m, matched, diagnostic.Render(rendered), details), nil
	}

	switch len(res.Values) {
	case 0:
		return EvaluateMissing(m, "no value"), nil
	case 1:
		v := res.Values[0]
		matched, details, err := explain(m, v.Result)
		if err != nil {
			return Outcome{}, err
		}
		return outcome(m, matched, diagnostic.Render(renderable(v)), details), nil
	default:
		return Outcome{}, usageErrorf(m, "path resolved to %d values, expected a single value", len(res.Values))
	}
}

// renderable keeps number literals as written so large integers are not
// shown rounded.
func renderable(v jsonpath.Value) any {
	if v.Result.Type == gjson.Number {
		return json.Number(v.Result.Raw)
	}
	return v.Interface()
}

// EvaluateValue applies m to a single value.
func EvaluateValue(m Matcher, actual any) (Outcome, error) {
	matched, details, err := explain(m, actual)
	if err != nil {
		return Outcome{}, err
	}
	return outcome(m, matched, diagnostic.Render(actual), details), nil
}

// EvaluateMissing reports m against a value that does not exist. Only
// matchers accepting absence can match.
func EvaluateMissing(m Matcher, reason string) Outcome {
	return outcome(m, matchesMissing(m), fmt.Sprintf("<%s>", reason), nil)
}

func outcome(m Matcher, matched bool, actual string, details []string) Outcome {
	o := Outcome{Matched: matched, Expected: m.Describe(), Actual: actual}
	if !matched {
		o.Mismatches = details
	}
	return o
}

func explain(m Matcher, actual any) (bool, []string, error) {
	if ex, ok := m.(Explainer); ok {
		return ex.Explain(actual)
	}
	matched, err := m.Matches(actual)
	return matched, nil, err
}

func explainItems(m Matcher, items []any) (bool, []string, error) {
	if ex, ok := m.(ItemsExplainer); ok {
		return ex.ExplainItems(items)
	}
	if im, ok := m.(ItemsMatcher); ok {
		matched, err := im.MatchesItems(items)
		return matched, nil, err
	}
	switch len(items) {
	case 0:
		return matchesMissing(m), nil, nil
	case 1:
		return explain(m, items[0])
	default:
		return false, nil, usageErrorf(m, "path resolved to %d values, expected a single value", len(items))
	}
}

func matchesMissing(m Matcher) bool {
	mm, ok := m.(MissingMatcher)
	return ok && mm.MatchesMissing()
}
