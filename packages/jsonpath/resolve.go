package jsonpath

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// ResolutionKind distinguishes why a path could not be navigated.
type ResolutionKind int

const (
	// Absent means the key or index does not exist.
	Absent ResolutionKind = iota
	// NotApplicable means the path continues past a scalar, or a selector
	// was used on the wrong kind of node.
	NotApplicable
)

func (k ResolutionKind) String() string {
	if k == NotApplicable {
		return "not applicable"
	}
	return "absent"
}

// ResolutionError reports a path that could not be navigated.
type ResolutionError struct {
	Path     string
	Location string
	Kind     ResolutionKind
	Detail   string
}

func (e *ResolutionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("path %q %s at %s: %s", e.Path, e.Kind, e.Location, e.Detail)
	}
	return fmt.Sprintf("path %q %s at %s", e.Path, e.Kind, e.Location)
}

// IsAbsent reports whether err is a ResolutionError of kind Absent.
func IsAbsent(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re) && re.Kind == Absent
}

// Value is a single node produced by resolution.
type Value struct {
	Result   gjson.Result
	Location string
}

// Interface returns the node as a plain Go value: float64, string, bool,
// nil, []any or map[string]any.
func (v Value) Interface() any {
	return v.Result.Value()
}

// Resolution is the ordered sequence of values a path resolved to.
type Resolution struct {
	Values []Value
	// Expanded is true when a wildcard fanned the path out over an array.
	// An expanded resolution is a collection even when it holds one value.
	Expanded bool
}

// Interfaces returns every resolved value in its Go form.
func (r Resolution) Interfaces() []any {
	out := make([]any, len(r.Values))
	for i, v := range r.Values {
		out[i] = v.Interface()
	}
	return out
}

// ParseDocument validates and parses a response body. An empty body parses
// to a JSON null document.
func ParseDocument(body []byte) (gjson.Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return gjson.Parse("null"), nil
	}
	if !gjson.ValidBytes(trimmed) {
		return gjson.Result{}, fmt.Errorf("response body is not valid JSON")
	}
	return gjson.ParseBytes(trimmed), nil
}

// Resolve applies expr to doc.
func Resolve(doc gjson.Result, expr *Expression) (Resolution, error) {
	if expr == nil || expr.IsRoot() {
		return Resolution{Values: []Value{{Result: doc, Location: "$"}}}, nil
	}
	w := walker{path: expr.String()}
	values, err := w.walk(doc, "", expr.segments)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Values: values, Expanded: w.expanded}, nil
}

type walker struct {
	path     string
	expanded bool
}

func (w *walker) walk(node gjson.Result, loc string, segs []Segment) ([]Value, error) {
	if len(segs) == 0 {
		return []Value{{Result: node, Location: loc}}, nil
	}
	seg := segs[0]
	switch seg.Kind {
	case SegmentField:
		if node.IsArray() {
			return w.fanOut(node, loc, segs), nil
		}
		if !node.IsObject() {
			return nil, w.notApplicable(node, loc, seg)
		}
		child, ok := lookupKey(node, seg.Field)
		if !ok {
			return nil, &ResolutionError{Path: w.path, Location: joinField(loc, seg.Field), Kind: Absent}
		}
		return w.walk(child, joinField(loc, seg.Field), segs[1:])
	case SegmentWildcard:
		if !node.IsArray() {
			return nil, w.notApplicable(node, loc, seg)
		}
		return w.fanOut(node, loc, segs[1:]), nil
	case SegmentIndex:
		if !node.IsArray() {
			return nil, w.notApplicable(node, loc, seg)
		}
		elems := node.Array()
		idx := seg.Index
		if idx < 0 {
			idx += len(elems)
		}
		if idx < 0 || idx >= len(elems) {
			return nil, &ResolutionError{
				Path:     w.path,
				Location: joinIndex(loc, seg.Index),
				Kind:     Absent,
				Detail:   fmt.Sprintf("index out of range (length %d)", len(elems)),
			}
		}
		return w.walk(elems[idx], joinIndex(loc, idx), segs[1:])
	}
	return nil, fmt.Errorf("unknown segment kind %v", seg.Kind)
}

// fanOut applies segs to every element of an array node. Elements the rest
// of the path cannot be applied to are skipped.
func (w *walker) fanOut(node gjson.Result, loc string, segs []Segment) []Value {
	w.expanded = true
	var out []Value
	for i, elem := range node.Array() {
		values, err := w.walk(elem, joinIndex(loc, i), segs)
		if err != nil {
			continue
		}
		out = append(out, values...)
	}
	return out
}

func (w *walker) notApplicable(node gjson.Result, loc string, seg Segment) error {
	return &ResolutionError{
		Path:     w.path,
		Location: locationOrRoot(loc),
		Kind:     NotApplicable,
		Detail:   fmt.Sprintf("cannot apply %s selector to %s", seg.Kind, TypeName(node)),
	}
}

func lookupKey(obj gjson.Result, key string) (gjson.Result, bool) {
	var found gjson.Result
	ok := false
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			found, ok = v, true
			return false
		}
		return true
	})
	return found, ok
}

// TypeName returns the JSON type of a node: object, array, string, number,
// boolean or null.
func TypeName(r gjson.Result) string {
	switch {
	case r.IsObject():
		return "object"
	case r.IsArray():
		return "array"
	}
	switch r.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	default:
		return "null"
	}
}

func joinField(loc, field string) string {
	if loc == "" {
		return field
	}
	return loc + "." + field
}

func joinIndex(loc string, idx int) string {
	return loc + "[" + strconv.Itoa(idx) + "]"
}

func locationOrRoot(loc string) string {
	if loc == "" {
		return "$"
	}
	return loc
}
