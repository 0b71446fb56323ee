package parser

import (
	"strconv"
	"time"
)

type File struct {
	Path      string
	Name      string
	BaseURL   string
	Variables []*Variable
	Requests  []*Request
}

type Variable struct {
	Name  string
	Value string
	Line  int
}

type Request struct {
	Name        string
	Description string
	Tags        []string
	Method      string
	URL         string
	Headers     []*Header
	QueryParams []*QueryParam
	Body        *Body
	JSONEdits   []*JSONEdit
	Assertions  []*Assertion
	Captures    []*Capture
	Metadata    *RequestMetadata
	Line        int
}

type RequestMetadata struct {
	Skip    string
	Only    bool
	Timeout time.Duration
	Depends []string
}

type Header struct {
	Key   string
	Value string
	Line  int
}

type QueryParam struct {
	Key   string
	Value string
	Line  int
}

type Body struct {
	Raw  string
	Line int
}

// JSONEdit sets Value at Path in the request body before dispatch.
type JSONEdit struct {
	Path  string
	Value any
	Line  int
}

// AssertionTarget is the part of the response an assertion inspects.
type AssertionTarget int

const (
	AssertStatus AssertionTarget = iota
	AssertStatusLine
	AssertHeader
	AssertBody
	AssertBodyEquals
)

func (t AssertionTarget) String() string {
	switch t {
	case AssertStatus:
		return "status"
	case AssertStatusLine:
		return "statusLine"
	case AssertHeader:
		return "header"
	case AssertBody:
		return "body"
	case AssertBodyEquals:
		return "bodyEquals"
	default:
		return "unknown"
	}
}

// Assertion is one declared expectation. Name is the header name or body
// path. Expected is the decoded YAML value, compiled to a matcher later.
type Assertion struct {
	Target   AssertionTarget
	Name     string
	Expected any
	Line     int
}

// Subject renders the assertion target, e.g. "header Content-Type".
func (a *Assertion) Subject() string {
	if a.Name == "" {
		return a.Target.String()
	}
	return a.Target.String() + " " + a.Name
}

type Capture struct {
	Name   string
	Source CaptureSource
	Path   string
	Line   int
}

type CaptureSource int

const (
	CaptureBody CaptureSource = iota
	CaptureHeader
	CaptureStatus
	CaptureStatusLine
	CaptureDuration
)

func (s CaptureSource) String() string {
	switch s {
	case CaptureBody:
		return "body"
	case CaptureHeader:
		return "header"
	case CaptureStatus:
		return "status"
	case CaptureStatusLine:
		return "statusLine"
	case CaptureDuration:
		return "duration"
	default:
		return "unknown"
	}
}

type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return e.File + ":" + strconv.Itoa(e.Line) + ":" + strconv.Itoa(e.Column) + ": " + e.Message
	}
	return "line " + strconv.Itoa(e.Line) + ": " + e.Message
}
