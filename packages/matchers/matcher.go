package matchers

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
)

// Matcher is a predicate over a single value with a description of what it
// expects. A non-nil error means the matcher cannot be applied to the
// value and is always a *UsageError.
type Matcher interface {
	Matches(actual any) (bool, error)
	Describe() string
}

// ItemsMatcher is implemented by matchers that understand a collection of
// values produced by a wildcard path.
type ItemsMatcher interface {
	Matcher
	MatchesItems(items []any) (bool, error)
}

// MissingMatcher is implemented by matchers that can be satisfied by the
// absence of a value.
type MissingMatcher interface {
	MatchesMissing() bool
}

// Explainer is implemented by matchers that can say which parts failed.
type Explainer interface {
	Explain(actual any) (bool, []string, error)
}

// ItemsExplainer is the collection counterpart of Explainer.
type ItemsExplainer interface {
	ExplainItems(items []any) (bool, []string, error)
}

// UsageError reports a matcher applied to a value it cannot handle, such as
// a numeric comparison against a string. It signals a malformed
// expectation rather than a defect in the response.
type UsageError struct {
	Matcher string
	Reason  string
}

func (e *UsageError) Error() string {
	if e.Matcher == "" {
		return "invalid expectation: " + e.Reason
	}
	return fmt.Sprintf("invalid expectation %s: %s", e.Matcher, e.Reason)
}

func usageErrorf(m Matcher, format string, args ...any) *UsageError {
	return &UsageError{Matcher: m.Describe(), Reason: fmt.Sprintf(format, args...)}
}

type funcMatcher struct {
	description string
	fn          func(actual any) (bool, error)
}

// Func adapts a plain function into a Matcher.
func Func(description string, fn func(actual any) (bool, error)) Matcher {
	return &funcMatcher{description: description, fn: fn}
}

func (m *funcMatcher) Describe() string { return m.description }

func (m *funcMatcher) Matches(actual any) (bool, error) {
	return m.fn(normalize(actual))
}

// ScalarBody is a whole response body that parses as a JSON number, boolean
// or null. Equals with a string expectation compares it as text; every
// other matcher sees the parsed value.
type ScalarBody struct {
	Raw   string
	Value gjson.Result
}

func (b ScalarBody) String() string { return b.Raw }

// maxExactInt is the largest magnitude float64 holds without losing
// integer precision.
const maxExactInt = 1 << 53

// normalize converts a value to the JSON-shaped Go form used for
// comparison: float64, string, bool, nil, []any and map[string]any.
// Integers beyond float64 precision stay exact as *big.Int.
func normalize(v any) any {
	switch val := v.(type) {
	case nil, bool, string, float64:
		return val
	case json.Number:
		if n, ok := normalizeNumber(val.String()); ok {
			return n
		}
		return val.String()
	case gjson.Result:
		return normalizeJSON(val)
	case ScalarBody:
		return normalizeJSON(val.Value)
	case *big.Int:
		return normalizeBig(val)
	case int64:
		return normalizeBig(big.NewInt(val))
	case int:
		return normalizeBig(big.NewInt(int64(val)))
	case uint64:
		return normalizeBig(new(big.Int).SetUint64(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	}

	if f, ok := toFloat64(v); ok {
		return f
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() != reflect.String {
		// yaml.v3 can produce map[any]any for nested documents
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = normalize(iter.Value().Interface())
		}
		return out
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	return gjson.ParseBytes(data).Value()
}

func normalizeJSON(r gjson.Result) any {
	switch {
	case r.Type == gjson.Number:
		if n, ok := normalizeNumber(r.Raw); ok {
			return n
		}
		return r.Num
	case r.IsArray():
		out := []any{}
		r.ForEach(func(_, item gjson.Result) bool {
			out = append(out, normalizeJSON(item))
			return true
		})
		return out
	case r.IsObject():
		out := map[string]any{}
		r.ForEach(func(key, item gjson.Result) bool {
			out[key.String()] = normalizeJSON(item)
			return true
		})
		return out
	}
	return r.Value()
}

// normalizeNumber parses a JSON number literal. Integer literals too large
// for float64 come back as *big.Int.
func normalizeNumber(raw string) (any, bool) {
	if !strings.ContainsAny(raw, ".eE") {
		if n, ok := new(big.Int).SetString(raw, 10); ok {
			return normalizeBig(n), true
		}
	}
	f, err := json.Number(raw).Float64()
	if err != nil {
		return nil, false
	}
	return f, true
}

func normalizeBig(n *big.Int) any {
	if n.IsInt64() {
		if i := n.Int64(); i >= -maxExactInt && i <= maxExactInt {
			return float64(i)
		}
	}
	return n
}

// bigEqualsFloat compares exactly, without rounding n to a float64.
func bigEqualsFloat(n *big.Int, f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return new(big.Float).SetInt(n).Cmp(big.NewFloat(f)) == 0
}

// toFloat64 converts Go numeric kinds. Strings are never converted.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	}
	return 0, false
}

// deepEqual compares two normalized values: numbers numerically, strings
// byte for byte, composites structurally.
func deepEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case float64:
		switch bv := b.(type) {
		case float64:
			return av == bv
		case *big.Int:
			return bigEqualsFloat(bv, av)
		}
		return false
	case *big.Int:
		switch bv := b.(type) {
		case *big.Int:
			return av.Cmp(bv) == 0
		case float64:
			return bigEqualsFloat(av, bv)
		}
		return false
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, present := bv[k]
			if !present || !deepEqual(v, other) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// typeName returns the JSON type name of a normalized value.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, *big.Int:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return reflect.TypeOf(v).String()
}
