package http

import (
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/sjson"
)

// Param is a request parameter. Parameters keep declaration order.
type Param struct {
	Key   string
	Value string
}

type Request struct {
	Method  string
	URL     string
	Headers Headers
	Params  []Param
	Body    []byte
	Timeout time.Duration
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method: strings.ToUpper(method),
		URL:    requestURL,
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers.Set(key, value)
	return r
}

func (r *Request) AddParam(key, value string) *Request {
	r.Params = append(r.Params, Param{Key: key, Value: value})
	return r
}

// SetParams adds parameters from an alternating key/value list.
func (r *Request) SetParams(pairs ...string) *Request {
	for i := 0; i+1 < len(pairs); i += 2 {
		r.AddParam(pairs[i], pairs[i+1])
	}
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = []byte(body)
	return r
}

// SetJSON sets the value at path in the JSON body, creating the body if it
// is empty. Paths use sjson syntax ("user.name", "tags.-1").
func (r *Request) SetJSON(path string, value any) error {
	body, err := sjson.SetBytes(r.Body, path, value)
	if err != nil {
		return err
	}
	r.Body = body
	if _, ok := r.Headers.Lookup("Content-Type"); !ok {
		r.SetHeader("Content-Type", "application/json")
	}
	return nil
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

// FormEncoded reports whether parameters travel in the body rather than
// the query string: a body-carrying method with no explicit body.
func (r *Request) FormEncoded() bool {
	if len(r.Params) == 0 || len(r.Body) > 0 {
		return false
	}
	switch r.Method {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

// EncodeParams encodes parameters in declaration order.
func EncodeParams(params []Param) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// BuildURL returns the URL with query parameters appended, unless the
// parameters are form encoded into the body.
func (r *Request) BuildURL() string {
	if len(r.Params) == 0 || r.FormEncoded() {
		return r.URL
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}
	encoded := EncodeParams(r.Params)
	if u.RawQuery != "" {
		u.RawQuery += "&" + encoded
	} else {
		u.RawQuery = encoded
	}
	return u.String()
}

// ParseFormBody decodes an application/x-www-form-urlencoded body in order.
func ParseFormBody(body string) []Param {
	var result []Param
	for _, pair := range strings.Split(body, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, _ := url.QueryUnescape(k)
		value, _ := url.QueryUnescape(v)
		result = append(result, Param{Key: key, Value: value})
	}
	return result
}
