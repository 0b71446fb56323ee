package matchers

import "strings"

type compositeMatcher struct {
	parts []Matcher
	all   bool
}

// AllOf matches when every part matches. All parts are evaluated so the
// failing ones can be reported together.
func AllOf(parts ...Matcher) ItemsMatcher {
	return &compositeMatcher{parts: parts, all: true}
}

// AnyOf matches when at least one part matches.
func AnyOf(parts ...Matcher) ItemsMatcher {
	return &compositeMatcher{parts: parts, all: false}
}

// Parts returns the sub-matchers in declaration order.
func (m *compositeMatcher) Parts() []Matcher {
	return m.parts
}

func (m *compositeMatcher) Describe() string {
	descs := make([]string, len(m.parts))
	for i, p := range m.parts {
		descs[i] = p.Describe()
	}
	joiner := " or "
	if m.all {
		joiner = " and "
	}
	return "(" + strings.Join(descs, joiner) + ")"
}

func (m *compositeMatcher) Matches(actual any) (bool, error) {
	ok, _, err := m.Explain(actual)
	return ok, err
}

func (m *compositeMatcher) MatchesItems(items []any) (bool, error) {
	ok, _, err := m.ExplainItems(items)
	return ok, err
}

func (m *compositeMatcher) Explain(actual any) (bool, []string, error) {
	return m.combine(func(p Matcher) (bool, error) {
		ok, _, err := explain(p, actual)
		return ok, err
	})
}

func (m *compositeMatcher) ExplainItems(items []any) (bool, []string, error) {
	return m.combine(func(p Matcher) (bool, error) {
		ok, _, err := explainItems(p, items)
		return ok, err
	})
}

func (m *compositeMatcher) MatchesMissing() bool {
	if len(m.parts) == 0 {
		return m.all
	}
	for _, p := range m.parts {
		ok := matchesMissing(p)
		if m.all && !ok {
			return false
		}
		if !m.all && ok {
			return true
		}
	}
	return m.all
}

func (m *compositeMatcher) combine(eval func(Matcher) (bool, error)) (bool, []string, error) {
	var failed []string
	for _, p := range m.parts {
		ok, err := eval(p)
		if err != nil {
			return false, nil, err
		}
		if !ok {
			failed = append(failed, "expected "+p.Describe())
		}
	}

	if m.all {
		return len(failed) == 0, failed, nil
	}
	matched := len(failed) < len(m.parts)
	if matched {
		return true, nil, nil
	}
	return false, failed, nil
}

type notMatcher struct {
	inner Matcher
}

// Not inverts inner. Usage errors from inner are never inverted.
func Not(inner Matcher) ItemsMatcher {
	return &notMatcher{inner: inner}
}

func (m *notMatcher) Describe() string {
	return "not " + m.inner.Describe()
}

func (m *notMatcher) Matches(actual any) (bool, error) {
	ok, err := m.inner.Matches(actual)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (m *notMatcher) MatchesItems(items []any) (bool, error) {
	ok, _, err := explainItems(m.inner, items)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (m *notMatcher) MatchesMissing() bool {
	return !matchesMissing(m.inner)
}
