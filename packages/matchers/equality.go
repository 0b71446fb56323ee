package matchers

import (
	"strings"

	"github.com/abdul-hamid-achik/hitassert/packages/diagnostic"
	"github.com/tidwall/gjson"
)

type equalsMatcher struct {
	expected any
}

// Equals matches values deeply equal to expected. Numbers compare by
// value regardless of Go type. A string expectation compared against an
// object or array is parsed as JSON first, so a whole body can be checked
// against its literal text. A ScalarBody is compared as text when the
// expectation is a string.
func Equals(expected any) Matcher {
	return &equalsMatcher{expected: expected}
}

func (m *equalsMatcher) Describe() string {
	return diagnostic.Render(m.expected)
}

func (m *equalsMatcher) Matches(actual any) (bool, error) {
	a := normalize(actual)
	e := normalize(m.expected)

	if s, ok := e.(string); ok {
		if body, isBody := actual.(ScalarBody); isBody {
			return s == body.Raw || s == strings.TrimSpace(body.Raw), nil
		}
		switch a.(type) {
		case []any, map[string]any:
			if !gjson.Valid(s) {
				return false, nil
			}
			e = normalizeJSON(gjson.Parse(s))
		}
	}

	return deepEqual(e, a), nil
}
