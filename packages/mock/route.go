package mock

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Header is one response header. Headers keep the order they are declared in.
type Header struct {
	Name  string
	Value string
}

// HeaderList decodes a YAML mapping without losing key order.
type HeaderList []Header

func (h *HeaderList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: headers must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		*h = append(*h, Header{Name: node.Content[i].Value, Value: node.Content[i+1].Value})
	}
	return nil
}

// Body holds a response body. A YAML string is served as is, any other
// value is encoded as JSON.
type Body string

func (b *Body) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*b = Body(node.Value)
		return nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("line %d: encoding body: %w", node.Line, err)
	}
	*b = Body(data)
	return nil
}

// Route describes one canned response.
type Route struct {
	Name    string        `yaml:"name"`
	Method  string        `yaml:"method"`
	Path    string        `yaml:"path"`
	Status  int           `yaml:"status"`
	Headers HeaderList    `yaml:"headers"`
	Body    Body          `yaml:"body"`
	Delay   time.Duration `yaml:"-"`
}

type routeFile struct {
	Routes []*routeEntry `yaml:"routes"`
}

type routeEntry struct {
	Route `yaml:",inline"`
	Delay string `yaml:"delay"`
}

// LoadRoutes reads a route file.
func LoadRoutes(path string) ([]*Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading routes: %w", err)
	}
	return ParseRoutes(data)
}

// ParseRoutes decodes route definitions and fills in defaults: GET and
// status 200.
func ParseRoutes(data []byte) ([]*Route, error) {
	var file routeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing routes: %w", err)
	}

	routes := make([]*Route, 0, len(file.Routes))
	for i, entry := range file.Routes {
		route := entry.Route
		if route.Path == "" {
			return nil, fmt.Errorf("route %d: path is required", i+1)
		}
		if !strings.HasPrefix(route.Path, "/") {
			route.Path = "/" + route.Path
		}
		route.Method = strings.ToUpper(route.Method)
		if route.Method == "" {
			route.Method = "GET"
		}
		if route.Status == 0 {
			route.Status = 200
		}
		if entry.Delay != "" {
			d, err := time.ParseDuration(entry.Delay)
			if err != nil {
				return nil, fmt.Errorf("route %d: invalid delay %q: %w", i+1, entry.Delay, err)
			}
			route.Delay = d
		}
		if route.Name == "" {
			route.Name = route.Method + " " + route.Path
		}
		routes = append(routes, &route)
	}
	return routes, nil
}
