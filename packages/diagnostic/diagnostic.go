// Package diagnostic renders assertion failure messages.
//
// The message templates are fixed; callers supply the expected and actual
// renderings. Scalars are rendered with Render, matchers with their own
// description.
package diagnostic

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/hitassert/packages/http"
	"github.com/tidwall/gjson"
)

// StatusCode renders a status code mismatch.
func StatusCode(expected, actual string) string {
	return fmt.Sprintf("Expected status code <%s> doesn't match actual status code <%s>.", expected, actual)
}

// StatusLine renders a status line mismatch.
func StatusLine(expected, actual string) string {
	return fmt.Sprintf("Expected status line \"%s\" doesn't match actual status line \"%s\".", expected, actual)
}

// HeaderMismatch renders a header whose value did not match.
func HeaderMismatch(name, expected, actual string) string {
	return fmt.Sprintf("Expected header \"%s\" was not \"%s\", was \"%s\".", name, expected, actual)
}

// HeaderAbsent renders a header missing from the response, listing every
// response header in the order of headers. Responses received through
// http.Client list names alphabetically, since net/http does not keep
// wire order (see http.HeadersFrom).
func HeaderAbsent(name string, headers http.Headers) string {
	lines := make([]string, len(headers))
	for i, h := range headers {
		lines[i] = h.Name + ": " + h.Value
	}
	return fmt.Sprintf("Header \"%s\" was not defined in the response. Headers are: \n%s", name, strings.Join(lines, "\n"))
}

// BodyPath renders a mismatch of the value at a JSON path.
func BodyPath(path, expected, actual string, mismatches []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "JSON path %s doesn't match.\nExpected: %s\n  Actual: %s", path, expected, actual)
	writeMismatches(&b, mismatches)
	return b.String()
}

// Body renders a mismatch of the whole response body.
func Body(expected, actual string, mismatches []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Body doesn't match.\nExpected: %s\n  Actual: %s", expected, actual)
	writeMismatches(&b, mismatches)
	return b.String()
}

func writeMismatches(b *strings.Builder, mismatches []string) {
	for _, m := range mismatches {
		b.WriteString("\n  - ")
		b.WriteString(m)
	}
}

// Render converts a value to its diagnostic text: numbers without quotes or
// trailing zeros, strings as-is, null as "null", composites as compact JSON.
func Render(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case json.Number:
		return val.String()
	case gjson.Result:
		if val.Type == gjson.String {
			return val.Str
		}
		if !val.Exists() {
			return "null"
		}
		return val.Raw
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
