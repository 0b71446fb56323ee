package matchers

import (
	"fmt"
	"regexp"
	"strings"
)

type stringMatcher struct {
	verb  string
	arg   string
	check func(s string) bool
}

// ContainsString matches strings containing substr.
func ContainsString(substr string) Matcher {
	return &stringMatcher{verb: "containing", arg: substr, check: func(s string) bool {
		return strings.Contains(s, substr)
	}}
}

// StartsWith matches strings beginning with prefix.
func StartsWith(prefix string) Matcher {
	return &stringMatcher{verb: "starting with", arg: prefix, check: func(s string) bool {
		return strings.HasPrefix(s, prefix)
	}}
}

// EndsWith matches strings ending with suffix.
func EndsWith(suffix string) Matcher {
	return &stringMatcher{verb: "ending with", arg: suffix, check: func(s string) bool {
		return strings.HasSuffix(s, suffix)
	}}
}

func (m *stringMatcher) Describe() string {
	return fmt.Sprintf("a string %s %q", m.verb, m.arg)
}

func (m *stringMatcher) Matches(actual any) (bool, error) {
	s, ok := normalize(actual).(string)
	if !ok {
		return false, usageErrorf(m, "requires a string, got %s", typeName(normalize(actual)))
	}
	return m.check(s), nil
}

type patternMatcher struct {
	pattern string
	re      *regexp.Regexp
	err     error
}

// MatchesPattern matches strings against a regular expression. The
// pattern may be wrapped in slashes ("/^\d+$/"). An invalid pattern
// surfaces as a *UsageError when the matcher is applied.
func MatchesPattern(pattern string) Matcher {
	p := pattern
	if len(p) >= 2 && strings.HasPrefix(p, "/") && strings.HasSuffix(p, "/") {
		p = p[1 : len(p)-1]
	}
	re, err := regexp.Compile(p)
	return &patternMatcher{pattern: p, re: re, err: err}
}

func (m *patternMatcher) Describe() string {
	return fmt.Sprintf("a string matching the pattern %q", m.pattern)
}

func (m *patternMatcher) Matches(actual any) (bool, error) {
	if m.err != nil {
		return false, usageErrorf(m, "invalid pattern: %v", m.err)
	}
	s, ok := normalize(actual).(string)
	if !ok {
		return false, usageErrorf(m, "requires a string, got %s", typeName(normalize(actual)))
	}
	return m.re.MatchString(s), nil
}
