package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
)

// SegmentKind identifies what a path segment selects.
type SegmentKind int

const (
	SegmentField SegmentKind = iota
	SegmentIndex
	SegmentWildcard
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentField:
		return "field"
	case SegmentIndex:
		return "index"
	case SegmentWildcard:
		return "wildcard"
	default:
		return "unknown"
	}
}

// Segment is a single step of an Expression.
type Segment struct {
	Kind  SegmentKind
	Field string
	Index int
}

// Expression is a parsed path. It is immutable once parsed.
type Expression struct {
	raw      string
	segments []Segment
}

// Root is the expression selecting the whole document.
var Root = &Expression{raw: "$"}

// Parse parses a path expression such as "lotto.winners[0].winnerId".
func Parse(path string) (*Expression, error) {
	raw := strings.TrimSpace(path)
	rest := raw
	switch {
	case rest == "" || rest == "$":
		return &Expression{raw: raw}, nil
	case strings.HasPrefix(rest, "$."):
		rest = rest[2:]
	case strings.HasPrefix(rest, "$["):
		rest = rest[1:]
	}

	expr := &Expression{raw: raw}
	expectField := true
	for i := 0; i < len(rest); {
		switch rest[i] {
		case '.':
			if expectField {
				return nil, fmt.Errorf("invalid path %q: empty segment at offset %d", path, i)
			}
			expectField = true
			i++
		case '[':
			end := strings.IndexByte(rest[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("invalid path %q: unclosed '['", path)
			}
			seg, err := parseSelector(rest[i+1 : i+end])
			if err != nil {
				return nil, fmt.Errorf("invalid path %q: %w", path, err)
			}
			expr.segments = append(expr.segments, seg)
			expectField = false
			i += end + 1
		default:
			if !expectField {
				return nil, fmt.Errorf("invalid path %q: expected '.' or '[' at offset %d", path, i)
			}
			j := i
			for j < len(rest) && rest[j] != '.' && rest[j] != '[' {
				j++
			}
			name := rest[i:j]
			if name == "*" {
				expr.segments = append(expr.segments, Segment{Kind: SegmentWildcard})
			} else {
				expr.segments = append(expr.segments, Segment{Kind: SegmentField, Field: name})
			}
			expectField = false
			i = j
		}
	}
	if expectField && len(expr.segments) > 0 {
		return nil, fmt.Errorf("invalid path %q: trailing '.'", path)
	}
	return expr, nil
}

func parseSelector(sel string) (Segment, error) {
	sel = strings.TrimSpace(sel)
	if sel == "*" {
		return Segment{Kind: SegmentWildcard}, nil
	}
	if len(sel) >= 2 {
		q := sel[0]
		if (q == '\'' || q == '"') && sel[len(sel)-1] == q {
			return Segment{Kind: SegmentField, Field: sel[1 : len(sel)-1]}, nil
		}
	}
	idx, err := strconv.Atoi(sel)
	if err != nil {
		return Segment{}, fmt.Errorf("bad selector [%s]", sel)
	}
	return Segment{Kind: SegmentIndex, Index: idx}, nil
}

// MustParse is like Parse but panics on error. Intended for literals.
func MustParse(path string) *Expression {
	expr, err := Parse(path)
	if err != nil {
		panic(err)
	}
	return expr
}

// String returns the expression as written.
func (e *Expression) String() string {
	if e.raw == "" {
		return "$"
	}
	return e.raw
}

// IsRoot reports whether the expression selects the whole document.
func (e *Expression) IsRoot() bool {
	return len(e.segments) == 0
}

// Segments returns a copy of the parsed segments.
func (e *Expression) Segments() []Segment {
	out := make([]Segment, len(e.segments))
	copy(out, e.segments)
	return out
}
