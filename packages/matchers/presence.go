package matchers

import "fmt"

type presenceMatcher struct {
	present bool
}

// Present matches any resolved value, including null.
func Present() ItemsMatcher {
	return &presenceMatcher{present: true}
}

// Missing matches only when the path resolves to nothing.
func Missing() ItemsMatcher {
	return &presenceMatcher{present: false}
}

func (m *presenceMatcher) Describe() string {
	if m.present {
		return "a present value"
	}
	return "no value"
}

func (m *presenceMatcher) Matches(actual any) (bool, error) {
	return m.present, nil
}

func (m *presenceMatcher) MatchesItems(items []any) (bool, error) {
	return (len(items) > 0) == m.present, nil
}

func (m *presenceMatcher) MatchesMissing() bool {
	return !m.present
}

var jsonTypes = map[string]bool{
	"null":    true,
	"boolean": true,
	"number":  true,
	"string":  true,
	"array":   true,
	"object":  true,
}

type typeMatcher struct {
	name string
}

// IsType matches values of the named JSON type: null, boolean, number,
// string, array or object.
func IsType(name string) Matcher {
	return &typeMatcher{name: name}
}

func (m *typeMatcher) Describe() string {
	return fmt.Sprintf("a value of type %s", m.name)
}

func (m *typeMatcher) Matches(actual any) (bool, error) {
	if !jsonTypes[m.name] {
		return false, usageErrorf(m, "unknown type %q", m.name)
	}
	return typeName(normalize(actual)) == m.name, nil
}
