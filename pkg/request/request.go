// Package request provides the immutable request snapshot that matchers evaluate.
package request

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request is a snapshot of an inbound HTTP request, captured once and never mutated.
// Accessors hand out copies so a matcher cannot change what the next matcher sees.
type Request struct {
	method string
	url    string
	parsed *url.URL
	header http.Header
	body   []byte
}

// New captures a request from its parts. rawURL is the request URI
// (path plus optional query), e.g. "/users/1?expand=true".
func New(method, rawURL string, header http.Header, body []byte) (*Request, error) {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, fmt.Errorf("request: invalid url %q: %w", rawURL, err)
	}

	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}

	return &Request{
		method: strings.ToUpper(method),
		url:    parsed.RequestURI(),
		parsed: parsed,
		header: h,
		body:   bytes.Clone(body),
	}, nil
}

// MustNew is New that panics on error. Intended for tests and static fixtures.
func MustNew(method, rawURL string, header http.Header, body []byte) *Request {
	r, err := New(method, rawURL, header, body)
	if err != nil {
		panic(err)
	}
	return r
}

// FromHTTP captures an *http.Request. The body is read fully and replaced with
// a fresh reader so downstream handlers can still consume it.
func FromHTTP(r *http.Request) (*Request, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("request: reading body: %w", err)
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	return New(r.Method, r.URL.RequestURI(), r.Header, body)
}

// Method returns the upper-cased HTTP method.
func (r *Request) Method() string { return r.method }

// URL returns the request URI: path plus raw query.
func (r *Request) URL() string { return r.url }

// Path returns the URL path without the query.
func (r *Request) Path() string { return r.parsed.Path }

// Query returns a copy of the parsed query parameters.
func (r *Request) Query() url.Values { return r.parsed.Query() }

// Header returns the first value of the named header (case-insensitive).
func (r *Request) Header(name string) string { return r.header.Get(name) }

// HeaderValues returns all values of the named header.
func (r *Request) HeaderValues(name string) []string {
	vals := r.header.Values(name)
	if vals == nil {
		return nil
	}
	out := make([]string, len(vals))
	copy(out, vals)
	return out
}

// HasHeader reports whether the named header is present, even with an empty value.
func (r *Request) HasHeader(name string) bool {
	_, ok := r.header[http.CanonicalHeaderKey(name)]
	return ok
}

// Headers returns a copy of all headers.
func (r *Request) Headers() http.Header { return r.header.Clone() }

// Body returns a copy of the body bytes.
func (r *Request) Body() []byte { return bytes.Clone(r.body) }

// BodyString returns the body as a string.
func (r *Request) BodyString() string { return string(r.body) }

// BodyLen returns the body size in bytes.
func (r *Request) BodyLen() int { return len(r.body) }

// String renders "METHOD /url" for logs.
func (r *Request) String() string { return r.method + " " + r.url }
