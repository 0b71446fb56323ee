package env

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitassert/packages/builtin"
	"github.com/sirupsen/logrus"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Resolver expands {{...}} templates. Lookups try, in order: environment
// variables ({{$NAME}}), function calls ({{uuid()}}), captures from earlier
// requests and suite variables. Unresolved templates are left in place and
// logged. It is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]any
	captures  map[string]any
	funcs     *builtin.Registry
	logger    logrus.FieldLogger
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]any),
		captures:  make(map[string]any),
		funcs:     builtin.NewRegistry(),
		logger:    logrus.StandardLogger(),
	}
}

// SetLogger sets where unresolved template warnings go.
func (r *Resolver) SetLogger(logger logrus.FieldLogger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if logger != nil {
		r.logger = logger
	}
}

// Functions exposes the function registry so callers can add functions.
func (r *Resolver) Functions() *builtin.Registry {
	return r.funcs
}

func (r *Resolver) SetVariables(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

// SetCapture records a captured value under both "request.name" and "name".
func (r *Resolver) SetCapture(requestName, captureName string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captures[requestName+"."+captureName] = value
	r.captures[captureName] = value
}

func (r *Resolver) GetCapture(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.captures[name]
	return v, ok
}

// GetVariable looks a name up in captures, then variables.
func (r *Resolver) GetVariable(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.captures[name]; ok {
		return v, true
	}
	if v, ok := r.variables[name]; ok {
		return v, true
	}
	return nil, false
}

func (r *Resolver) HasVariable(name string) bool {
	_, ok := r.GetVariable(name)
	return ok
}

// Resolve expands every template in input.
func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		v, ok := r.lookup(strings.TrimSpace(match[2 : len(match)-2]))
		if !ok {
			return match
		}
		return fmt.Sprintf("%v", v)
	})
}

// ResolveValue expands templates inside decoded YAML values. A string that
// is exactly one template keeps the looked-up value's type, so a captured
// number stays a number.
func (r *Resolver) ResolveValue(v any) any {
	switch val := v.(type) {
	case string:
		trimmed := strings.TrimSpace(val)
		if loc := variablePattern.FindStringIndex(trimmed); loc != nil && loc[0] == 0 && loc[1] == len(trimmed) {
			if out, ok := r.lookup(strings.TrimSpace(trimmed[2 : len(trimmed)-2])); ok {
				return out
			}
			return val
		}
		return r.Resolve(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.ResolveValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = r.ResolveValue(item)
		}
		return out
	default:
		return v
	}
}

// Unresolved returns the template expressions in input that cannot be
// resolved.
func (r *Resolver) Unresolved(input string) []string {
	var missing []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if _, ok := r.lookupQuiet(expr); !ok {
			missing = append(missing, expr)
		}
	}
	return missing
}

func (r *Resolver) lookup(expr string) (any, bool) {
	v, ok := r.lookupQuiet(expr)
	if !ok {
		r.mu.RLock()
		logger := r.logger
		r.mu.RUnlock()
		logger.WithField("template", expr).Warn("unresolved template")
	}
	return v, ok
}

func (r *Resolver) lookupQuiet(expr string) (any, bool) {
	if strings.HasPrefix(expr, "$") {
		return os.LookupEnv(expr[1:])
	}
	if builtin.IsCall(expr) {
		v, err := r.funcs.Call(expr)
		return v, err == nil
	}
	return r.GetVariable(expr)
}

func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &Resolver{
		variables: make(map[string]any, len(r.variables)),
		captures:  make(map[string]any, len(r.captures)),
		funcs:     r.funcs,
		logger:    r.logger,
	}
	for k, v := range r.variables {
		clone.variables[k] = v
	}
	for k, v := range r.captures {
		clone.captures[k] = v
	}
	return clone
}
