package matchers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/hitassert/packages/diagnostic"
)

type hasItemsMatcher struct {
	items []any
}

// HasItems matches a collection containing every one of items, in any
// order. Applied to a wildcard path it checks the collected values.
func HasItems(items ...any) ItemsMatcher {
	return &hasItemsMatcher{items: items}
}

// HasItem is HasItems with a single element.
func HasItem(item any) ItemsMatcher {
	return &hasItemsMatcher{items: []any{item}}
}

func (m *hasItemsMatcher) Describe() string {
	rendered := make([]string, len(m.items))
	for i, item := range m.items {
		rendered[i] = diagnostic.Render(item)
	}
	return "a collection containing " + strings.Join(rendered, " and ")
}

func (m *hasItemsMatcher) Matches(actual any) (bool, error) {
	arr, ok := normalize(actual).([]any)
	if !ok {
		return false, usageErrorf(m, "requires a collection, got %s", typeName(normalize(actual)))
	}
	return m.MatchesItems(arr)
}

func (m *hasItemsMatcher) MatchesItems(items []any) (bool, error) {
	ok, _, err := m.ExplainItems(items)
	return ok, err
}

func (m *hasItemsMatcher) ExplainItems(items []any) (bool, []string, error) {
	normalized := make([]any, len(items))
	for i, item := range items {
		normalized[i] = normalize(item)
	}

	var missing []string
	for _, want := range m.items {
		w := normalize(want)
		found := false
		for _, have := range normalized {
			if deepEqual(w, have) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, "missing item "+diagnostic.Render(want))
		}
	}
	return len(missing) == 0, missing, nil
}

type hasSizeMatcher struct {
	size int
}

// HasSize matches a collection, object or string of exactly size
// elements, keys or characters.
func HasSize(size int) ItemsMatcher {
	return &hasSizeMatcher{size: size}
}

func (m *hasSizeMatcher) Describe() string {
	return fmt.Sprintf("a value with size <%d>", m.size)
}

func (m *hasSizeMatcher) Matches(actual any) (bool, error) {
	switch v := normalize(actual).(type) {
	case []any:
		return len(v) == m.size, nil
	case map[string]any:
		return len(v) == m.size, nil
	case string:
		return utf8.RuneCountInString(v) == m.size, nil
	default:
		return false, usageErrorf(m, "size is undefined for %s", typeName(v))
	}
}

func (m *hasSizeMatcher) MatchesItems(items []any) (bool, error) {
	return len(items) == m.size, nil
}
