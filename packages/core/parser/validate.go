package parser

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitassert/packages/jsonpath"
	"github.com/abdul-hamid-achik/hitassert/packages/matchers"
)

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// Validate checks a parsed suite for problems that parsing alone cannot
// catch: duplicate names, unknown dependencies, bad paths and expectations
// that do not compile. It returns every problem found.
func Validate(f *File) []error {
	var errs []error
	fail := func(line int, format string, args ...any) {
		errs = append(errs, &ParseError{File: f.Path, Line: line, Column: 1, Message: fmt.Sprintf(format, args...)})
	}

	names := make(map[string]bool, len(f.Requests))
	for _, req := range f.Requests {
		if names[req.Name] {
			fail(req.Line, "duplicate request name %q", req.Name)
		}
		names[req.Name] = true
	}

	for _, req := range f.Requests {
		if !validMethods[req.Method] {
			fail(req.Line, "request %q: unsupported method %q", req.Name, req.Method)
		}
		for _, dep := range req.Metadata.Depends {
			if !names[dep] {
				fail(req.Line, "request %q depends on unknown request %q", req.Name, dep)
			}
			if dep == req.Name {
				fail(req.Line, "request %q depends on itself", req.Name)
			}
		}
		for _, c := range req.Captures {
			if c.Source == CaptureBody && c.Path != "" {
				if _, err := jsonpath.Parse(c.Path); err != nil {
					fail(c.Line, "capture %q: %v", c.Name, err)
				}
			}
		}
		for _, a := range req.Assertions {
			if a.Target == AssertBody {
				if _, err := jsonpath.Parse(a.Name); err != nil {
					fail(a.Line, "%s: %v", a.Subject(), err)
					continue
				}
			}
			if _, err := matchers.Compile(a.Expected); err != nil {
				fail(a.Line, "%s: %v", a.Subject(), err)
			}
		}
	}
	return errs
}
