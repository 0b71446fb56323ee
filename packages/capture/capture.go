package capture

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitassert/packages/core/parser"
	"github.com/abdul-hamid-achik/hitassert/packages/http"
	"github.com/abdul-hamid-achik/hitassert/packages/jsonpath"
)

// Extractor reads capture values from one response.
type Extractor struct {
	response *http.Response
}

func NewExtractor(resp *http.Response) *Extractor {
	return &Extractor{response: resp}
}

// Extract returns the value selected by c. A body path that fans out over
// an array captures the collected values as a list.
func (e *Extractor) Extract(c *parser.Capture) (any, error) {
	switch c.Source {
	case parser.CaptureBody:
		return e.extractFromBody(c.Path)
	case parser.CaptureHeader:
		value, ok := e.response.Headers.Lookup(c.Path)
		if !ok {
			return nil, fmt.Errorf("header %q not in response", c.Path)
		}
		return value, nil
	case parser.CaptureStatus:
		return e.response.StatusCode, nil
	case parser.CaptureStatusLine:
		return e.response.StatusLine, nil
	case parser.CaptureDuration:
		return e.response.DurationMs(), nil
	default:
		return nil, fmt.Errorf("unknown capture source %s", c.Source)
	}
}

func (e *Extractor) extractFromBody(path string) (any, error) {
	doc, err := e.response.JSON()
	if err != nil {
		if path == "" {
			return e.response.BodyString(), nil
		}
		return nil, err
	}

	expr, err := jsonpath.Parse(path)
	if err != nil {
		return nil, err
	}
	res, err := jsonpath.Resolve(doc, expr)
	if err != nil {
		return nil, err
	}
	if res.Expanded {
		return res.Interfaces(), nil
	}
	if len(res.Values) == 0 {
		return nil, fmt.Errorf("path %q resolved to nothing", path)
	}
	return res.Values[0].Interface(), nil
}

// ExtractAll runs every capture and returns the values found, plus one
// error per capture that failed.
func ExtractAll(resp *http.Response, captures []*parser.Capture) (map[string]any, []error) {
	extractor := NewExtractor(resp)
	results := make(map[string]any)
	var errs []error

	for _, c := range captures {
		value, err := extractor.Extract(c)
		if err != nil {
			errs = append(errs, fmt.Errorf("capture %s: %w", c.Name, err))
			continue
		}
		results[c.Name] = value
	}
	return results, errs
}
