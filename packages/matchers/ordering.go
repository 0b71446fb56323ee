package matchers

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitassert/packages/diagnostic"
)

type comparison int

const (
	greaterThan comparison = iota
	greaterOrEqual
	lessThan
	lessOrEqual
)

type orderingMatcher struct {
	op    comparison
	bound any
}

// GreaterThan matches numbers strictly greater than bound.
func GreaterThan(bound any) Matcher {
	return &orderingMatcher{op: greaterThan, bound: bound}
}

// GreaterThanOrEqualTo matches numbers greater than or equal to bound.
func GreaterThanOrEqualTo(bound any) Matcher {
	return &orderingMatcher{op: greaterOrEqual, bound: bound}
}

// LessThan matches numbers strictly less than bound.
func LessThan(bound any) Matcher {
	return &orderingMatcher{op: lessThan, bound: bound}
}

// LessThanOrEqualTo matches numbers less than or equal to bound.
func LessThanOrEqualTo(bound any) Matcher {
	return &orderingMatcher{op: lessOrEqual, bound: bound}
}

func (m *orderingMatcher) Describe() string {
	b := diagnostic.Render(m.bound)
	switch m.op {
	case greaterThan:
		return "a value greater than <" + b + ">"
	case greaterOrEqual:
		return "a value equal to or greater than <" + b + ">"
	case lessThan:
		return "a value less than <" + b + ">"
	default:
		return "a value less than or equal to <" + b + ">"
	}
}

func (m *orderingMatcher) Matches(actual any) (bool, error) {
	bound, ok := toFloat64(normalize(m.bound))
	if !ok {
		return false, usageErrorf(m, "bound must be a number, got %s", typeName(normalize(m.bound)))
	}
	a, err := requireNumber(m, actual)
	if err != nil {
		return false, err
	}

	switch m.op {
	case greaterThan:
		return a > bound, nil
	case greaterOrEqual:
		return a >= bound, nil
	case lessThan:
		return a < bound, nil
	default:
		return a <= bound, nil
	}
}

type betweenMatcher struct {
	low, high any
}

// Between matches numbers in the inclusive range [low, high].
func Between(low, high any) Matcher {
	return &betweenMatcher{low: low, high: high}
}

func (m *betweenMatcher) Describe() string {
	return fmt.Sprintf("a value between <%s> and <%s> inclusive", diagnostic.Render(m.low), diagnostic.Render(m.high))
}

func (m *betweenMatcher) Matches(actual any) (bool, error) {
	low, lok := toFloat64(normalize(m.low))
	high, hok := toFloat64(normalize(m.high))
	if !lok || !hok {
		return false, usageErrorf(m, "bounds must be numbers")
	}
	if low > high {
		return false, usageErrorf(m, "lower bound exceeds upper bound")
	}
	a, err := requireNumber(m, actual)
	if err != nil {
		return false, err
	}
	return a >= low && a <= high, nil
}

func requireNumber(m Matcher, actual any) (float64, error) {
	v := normalize(actual)
	f, ok := toFloat64(v)
	if !ok {
		return 0, usageErrorf(m, "requires a number, got %s", typeName(v))
	}
	return f, nil
}
