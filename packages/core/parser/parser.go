package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Parser turns a YAML document into a File.
type Parser struct {
	filename string
}

func NewParser(filename string) *Parser {
	return &Parser{filename: filename}
}

// ParseFile reads and parses the suite at path.
func ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(string(content), path)
}

// Parse parses suite content. filename is used in error messages.
func Parse(input, filename string) (*File, error) {
	return NewParser(filename).Parse([]byte(input))
}

func (p *Parser) Parse(input []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(input, &doc); err != nil {
		return nil, &ParseError{File: p.filename, Line: 1, Column: 1, Message: err.Error()}
	}

	file := &File{Path: p.filename}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return file, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, p.errorf(root, "suite must be a mapping")
	}

	err := p.eachPair(root, func(key string, value *yaml.Node) error {
		switch key {
		case "name":
			file.Name = value.Value
		case "baseUrl":
			file.BaseURL = value.Value
		case "variables":
			return p.eachPair(value, func(name string, v *yaml.Node) error {
				if v.Kind != yaml.ScalarNode {
					return p.errorf(v, "variable %q must be a scalar", name)
				}
				file.Variables = append(file.Variables, &Variable{Name: name, Value: v.Value, Line: v.Line})
				return nil
			})
		case "requests":
			if value.Kind != yaml.SequenceNode {
				return p.errorf(value, "requests must be a list")
			}
			for i, item := range value.Content {
				req, err := p.parseRequest(item, i)
				if err != nil {
					return err
				}
				file.Requests = append(file.Requests, req)
			}
		default:
			return p.errorf(value, "unknown suite key %q", key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (p *Parser) parseRequest(node *yaml.Node, index int) (*Request, error) {
	if node.Kind != yaml.MappingNode {
		return nil, p.errorf(node, "request must be a mapping")
	}

	req := &Request{
		Method:   "GET",
		Metadata: &RequestMetadata{},
		Line:     node.Line,
	}

	err := p.eachPair(node, func(key string, value *yaml.Node) error {
		switch key {
		case "name":
			req.Name = value.Value
		case "description":
			req.Description = value.Value
		case "method":
			req.Method = strings.ToUpper(value.Value)
		case "path", "url":
			req.URL = value.Value
		case "headers":
			return p.eachPair(value, func(k string, v *yaml.Node) error {
				req.Headers = append(req.Headers, &Header{Key: k, Value: v.Value, Line: v.Line})
				return nil
			})
		case "params":
			return p.eachPair(value, func(k string, v *yaml.Node) error {
				req.QueryParams = append(req.QueryParams, &QueryParam{Key: k, Value: v.Value, Line: v.Line})
				return nil
			})
		case "body":
			body, err := p.parseBody(value)
			if err != nil {
				return err
			}
			req.Body = body
		case "json":
			return p.eachPair(value, func(k string, v *yaml.Node) error {
				decoded, err := decode(v)
				if err != nil {
					return p.errorf(v, "json %s: %v", k, err)
				}
				req.JSONEdits = append(req.JSONEdits, &JSONEdit{Path: k, Value: decoded, Line: v.Line})
				return nil
			})
		case "tags":
			var tags []string
			if err := value.Decode(&tags); err != nil {
				return p.errorf(value, "tags must be a list of strings")
			}
			req.Tags = tags
		case "skip":
			req.Metadata.Skip = value.Value
			if req.Metadata.Skip == "" || req.Metadata.Skip == "true" {
				req.Metadata.Skip = "skipped"
			}
			if req.Metadata.Skip == "false" {
				req.Metadata.Skip = ""
			}
		case "only":
			if err := value.Decode(&req.Metadata.Only); err != nil {
				return p.errorf(value, "only must be true or false")
			}
		case "depends":
			if value.Kind == yaml.ScalarNode {
				req.Metadata.Depends = []string{value.Value}
				return nil
			}
			if err := value.Decode(&req.Metadata.Depends); err != nil {
				return p.errorf(value, "depends must be a name or a list of names")
			}
		case "timeout":
			d, err := parseTimeout(value.Value)
			if err != nil {
				return p.errorf(value, "invalid timeout %q", value.Value)
			}
			req.Metadata.Timeout = d
		case "capture":
			return p.eachPair(value, func(name string, v *yaml.Node) error {
				c, err := parseCapture(name, v.Value)
				if err != nil {
					return p.errorf(v, "%v", err)
				}
				c.Line = v.Line
				req.Captures = append(req.Captures, c)
				return nil
			})
		case "expect":
			assertions, err := p.parseExpect(value)
			if err != nil {
				return err
			}
			req.Assertions = assertions
		default:
			return p.errorf(value, "unknown request key %q", key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Name == "" {
		req.Name = fmt.Sprintf("request-%d", index+1)
	}
	if req.URL == "" {
		return nil, p.errorf(node, "request %q has no path", req.Name)
	}
	return req, nil
}

func (p *Parser) parseBody(node *yaml.Node) (*Body, error) {
	if node.Kind == yaml.ScalarNode {
		return &Body{Raw: node.Value, Line: node.Line}, nil
	}
	v, err := decode(node)
	if err != nil {
		return nil, p.errorf(node, "body: %v", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, p.errorf(node, "body is not JSON encodable: %v", err)
	}
	return &Body{Raw: string(data), Line: node.Line}, nil
}

func (p *Parser) parseExpect(node *yaml.Node) ([]*Assertion, error) {
	var out []*Assertion
	add := func(target AssertionTarget, name string, v *yaml.Node) error {
		expected, err := decode(v)
		if err != nil {
			return p.errorf(v, "%s: %v", target, err)
		}
		out = append(out, &Assertion{Target: target, Name: name, Expected: expected, Line: v.Line})
		return nil
	}

	err := p.eachPair(node, func(key string, value *yaml.Node) error {
		switch key {
		case "status":
			return add(AssertStatus, "", value)
		case "statusLine":
			return add(AssertStatusLine, "", value)
		case "headers":
			return p.eachPair(value, func(name string, v *yaml.Node) error {
				return add(AssertHeader, name, v)
			})
		case "body":
			return p.eachPair(value, func(path string, v *yaml.Node) error {
				return add(AssertBody, path, v)
			})
		case "bodyEquals":
			return add(AssertBodyEquals, "", value)
		default:
			return p.errorf(value, "unknown expectation %q", key)
		}
	})
	return out, err
}

// eachPair walks a mapping node in document order.
func (p *Parser) eachPair(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return p.errorf(node, "expected a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) errorf(node *yaml.Node, format string, args ...any) error {
	return &ParseError{
		File:    p.filename,
		Line:    node.Line,
		Column:  node.Column,
		Message: fmt.Sprintf(format, args...),
	}
}

func decode(node *yaml.Node) (any, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func parseCapture(name, spec string) (*Capture, error) {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return nil, fmt.Errorf("capture %q: empty source", name)
	}

	c := &Capture{Name: name}
	switch fields[0] {
	case "body":
		c.Source = CaptureBody
		if len(fields) > 1 {
			c.Path = fields[1]
		}
	case "header":
		if len(fields) < 2 {
			return nil, fmt.Errorf("capture %q: header needs a name", name)
		}
		c.Source = CaptureHeader
		c.Path = fields[1]
	case "status":
		c.Source = CaptureStatus
	case "statusLine":
		c.Source = CaptureStatusLine
	case "duration":
		c.Source = CaptureDuration
	default:
		return nil, fmt.Errorf("capture %q: unknown source %q", name, fields[0])
	}
	return c, nil
}

// parseTimeout accepts Go durations ("5s") or bare milliseconds ("5000").
func parseTimeout(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	var ms int
	if _, err := fmt.Sscanf(s, "%d", &ms); err != nil || fmt.Sprint(ms) != s {
		return 0, fmt.Errorf("invalid timeout")
	}
	return time.Duration(ms) * time.Millisecond, nil
}
