package matchers

import (
	"encoding/json"
	"fmt"
	"sort"
)

type operator func(arg any) (Matcher, error)

var operators map[string]operator

func init() {
	operators = map[string]operator{
		"equals":     func(arg any) (Matcher, error) { return Equals(arg), nil },
		"not":        compileNot,
		"contains":   stringOperator(ContainsString),
		"startsWith": stringOperator(StartsWith),
		"endsWith":   stringOperator(EndsWith),
		"matches":    stringOperator(MatchesPattern),
		"hasItems":   compileHasItems,
		"hasItem":    func(arg any) (Matcher, error) { return HasItem(arg), nil },
		"gt":         numberOperator(GreaterThan),
		"gte":        numberOperator(GreaterThanOrEqualTo),
		"lt":         numberOperator(LessThan),
		"lte":        numberOperator(LessThanOrEqualTo),
		"between":    compileBetween,
		"size":       compileSize,
		"type":       compileType,
		"schema":     compileSchema,
		"schemaFile": stringOperator(MatchesSchemaFile),
		"present":    compilePresent,
		"allOf":      compileList(AllOf),
		"anyOf":      compileList(AnyOf),
	}
}

// IsOperator reports whether key names a matcher operator.
func IsOperator(key string) bool {
	_, ok := operators[key]
	return ok
}

// Compile builds a matcher from a decoded YAML or JSON expectation.
//
// A mapping whose keys are all operators ({gte: 200, lt: 300}) becomes the
// conjunction of those operators in key order. A mapping with no operator
// keys, and any other value, is an Equals literal. Mixing operator and
// literal keys is an error.
func Compile(spec any) (Matcher, error) {
	if m, ok := spec.(Matcher); ok {
		return m, nil
	}

	obj, ok := normalize(spec).(map[string]any)
	if !ok || len(obj) == 0 {
		return Equals(spec), nil
	}

	keys := make([]string, 0, len(obj))
	ops := 0
	for k := range obj {
		keys = append(keys, k)
		if IsOperator(k) {
			ops++
		}
	}
	sort.Strings(keys)

	switch {
	case ops == 0:
		return Equals(spec), nil
	case ops != len(keys):
		return nil, &UsageError{Reason: fmt.Sprintf("mapping mixes matcher operators with literal keys: %v", keys)}
	}

	parts := make([]Matcher, 0, len(keys))
	for _, k := range keys {
		m, err := operators[k](obj[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		parts = append(parts, m)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return AllOf(parts...), nil
}

func stringOperator(build func(string) Matcher) operator {
	return func(arg any) (Matcher, error) {
		s, ok := arg.(string)
		if !ok {
			return nil, &UsageError{Reason: fmt.Sprintf("expected a string argument, got %s", typeName(normalize(arg)))}
		}
		return build(s), nil
	}
}

func numberOperator(build func(any) Matcher) operator {
	return func(arg any) (Matcher, error) {
		if _, ok := toFloat64(normalize(arg)); !ok {
			return nil, &UsageError{Reason: fmt.Sprintf("expected a number argument, got %s", typeName(normalize(arg)))}
		}
		return build(arg), nil
	}
}

func compileList(build func(...Matcher) ItemsMatcher) operator {
	return func(arg any) (Matcher, error) {
		list, ok := normalize(arg).([]any)
		if !ok {
			return nil, &UsageError{Reason: "expected a list of matchers"}
		}
		parts := make([]Matcher, 0, len(list))
		for i, item := range list {
			m, err := Compile(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			parts = append(parts, m)
		}
		return build(parts...), nil
	}
}

func compileNot(arg any) (Matcher, error) {
	inner, err := Compile(arg)
	if err != nil {
		return nil, err
	}
	return Not(inner), nil
}

func compileHasItems(arg any) (Matcher, error) {
	if list, ok := normalize(arg).([]any); ok {
		return HasItems(list...), nil
	}
	return HasItem(arg), nil
}

func compileBetween(arg any) (Matcher, error) {
	list, ok := normalize(arg).([]any)
	if !ok || len(list) != 2 {
		return nil, &UsageError{Reason: "between takes [low, high]"}
	}
	return Between(list[0], list[1]), nil
}

func compileSize(arg any) (Matcher, error) {
	f, ok := toFloat64(normalize(arg))
	if !ok || f < 0 || f != float64(int(f)) {
		return nil, &UsageError{Reason: "size takes a non-negative integer"}
	}
	return HasSize(int(f)), nil
}

func compileType(arg any) (Matcher, error) {
	s, ok := arg.(string)
	if !ok || !jsonTypes[s] {
		return nil, &UsageError{Reason: fmt.Sprintf("unknown type %v", arg)}
	}
	return IsType(s), nil
}

func compileSchema(arg any) (Matcher, error) {
	if s, ok := arg.(string); ok {
		return MatchesSchema(s), nil
	}
	doc, err := json.Marshal(normalize(arg))
	if err != nil {
		return nil, &UsageError{Reason: fmt.Sprintf("schema is not JSON encodable: %v", err)}
	}
	return MatchesSchema(string(doc)), nil
}

func compilePresent(arg any) (Matcher, error) {
	b, ok := arg.(bool)
	if !ok {
		return nil, &UsageError{Reason: "present takes true or false"}
	}
	if b {
		return Present(), nil
	}
	return Missing(), nil
}
