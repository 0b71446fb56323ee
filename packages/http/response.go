package http

import (
	nethttp "net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/hitassert/packages/jsonpath"
	"github.com/tidwall/gjson"
)

// Header is a single response or request header.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header list. Names are matched case-insensitively
// and duplicates are kept in order.
type Headers []Header

// Lookup returns the first value for name.
func (h Headers) Lookup(name string) (string, bool) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value, true
		}
	}
	return "", false
}

// Get returns the first value for name, or "".
func (h Headers) Get(name string) string {
	v, _ := h.Lookup(name)
	return v
}

// Values returns every value for name in order.
func (h Headers) Values(name string) []string {
	var out []string
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			out = append(out, hdr.Value)
		}
	}
	return out
}

// Names returns header names in order, duplicates included.
func (h Headers) Names() []string {
	out := make([]string, len(h))
	for i, hdr := range h {
		out[i] = hdr.Name
	}
	return out
}

// Add appends a header.
func (h *Headers) Add(name, value string) {
	*h = append(*h, Header{Name: name, Value: value})
}

// Set replaces the first header with the same name, or appends it.
func (h *Headers) Set(name, value string) {
	for i, hdr := range *h {
		if strings.EqualFold(hdr.Name, name) {
			(*h)[i].Value = value
			return
		}
	}
	h.Add(name, value)
}

// HeadersFrom converts a net/http header map. net/http does not keep wire
// order, so names are sorted; values of a repeated header keep their order.
func HeadersFrom(hdr nethttp.Header) Headers {
	names := make([]string, 0, len(hdr))
	for k := range hdr {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make(Headers, 0, len(names))
	for _, name := range names {
		for _, v := range hdr[name] {
			out = append(out, Header{Name: name, Value: v})
		}
	}
	return out
}

// Response is an immutable snapshot of one HTTP exchange.
type Response struct {
	StatusCode int
	StatusLine string
	Headers    Headers
	Body       []byte
	Duration   time.Duration

	parseOnce sync.Once
	parsed    gjson.Result
	parseErr  error
}

// NewResponse builds a response snapshot.
func NewResponse(statusCode int, statusLine string, headers Headers, body []byte) *Response {
	return &Response{
		StatusCode: statusCode,
		StatusLine: statusLine,
		Headers:    headers,
		Body:       body,
	}
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// JSON returns the parsed body. The body is parsed on first use and the
// result is cached for the lifetime of the response.
func (r *Response) JSON() (gjson.Result, error) {
	r.parseOnce.Do(func() {
		r.parsed, r.parseErr = jsonpath.ParseDocument(r.Body)
	})
	return r.parsed, r.parseErr
}

func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType(), "json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
