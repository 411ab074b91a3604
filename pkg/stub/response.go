package stub

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getmockd/stubmatch/pkg/codec"
)

// ResponseDefinition is the response a mapping hands back to the transport
// layer. It is immutable; use Response() to build one.
//
// A compressed definition stores its body gzipped. WireBody returns the bytes
// as stored, PlainBody decodes them.
type ResponseDefinition struct {
	status     int
	headers    http.Header
	body       []byte
	compressed bool
}

// Status returns the HTTP status code.
func (r *ResponseDefinition) Status() int { return r.status }

// Headers returns a copy of the response headers.
func (r *ResponseDefinition) Headers() http.Header { return r.headers.Clone() }

// Header returns the first value of the named header.
func (r *ResponseDefinition) Header(name string) string { return r.headers.Get(name) }

// IsCompressed reports whether the body is stored gzipped.
func (r *ResponseDefinition) IsCompressed() bool { return r.compressed }

// WireBody returns a copy of the body exactly as stored.
func (r *ResponseDefinition) WireBody() []byte {
	if r.body == nil {
		return nil
	}
	out := make([]byte, len(r.body))
	copy(out, r.body)
	return out
}

// PlainBody returns the body decompressed when it is stored gzipped.
// A corrupt compressed body fails with *codec.DecodeError.
func (r *ResponseDefinition) PlainBody() ([]byte, error) {
	if !r.compressed {
		return r.WireBody(), nil
	}
	return codec.Decompress(r.body)
}

// Validate checks the status code and that a compressed body decodes.
func (r *ResponseDefinition) Validate() error {
	if r.status < 100 || r.status > 599 {
		return fmt.Errorf("%w: status %d out of range", ErrInvalidMapping, r.status)
	}
	if r.compressed {
		if _, err := codec.Decompress(r.body); err != nil {
			return fmt.Errorf("%w: compressed body: %w", ErrInvalidMapping, err)
		}
	}
	return nil
}

func (r *ResponseDefinition) String() string {
	s := fmt.Sprintf("%d (%d bytes", r.status, len(r.body))
	if r.compressed {
		s += ", gzip"
	}
	return s + ")"
}

// ResponseBuilder builds a ResponseDefinition. The first failing step is
// remembered and reported by Build.
type ResponseBuilder struct {
	status     int
	headers    http.Header
	body       []byte
	compressed bool
	autoGzip   bool // Content-Encoding was set by WithCompressedBody
	err        error
}

// Response starts a response definition with status 200 and no body.
func Response() *ResponseBuilder {
	return &ResponseBuilder{status: http.StatusOK, headers: http.Header{}}
}

// WithStatus sets the status code.
func (b *ResponseBuilder) WithStatus(status int) *ResponseBuilder {
	b.status = status
	return b
}

// WithHeader adds a header value.
func (b *ResponseBuilder) WithHeader(name, value string) *ResponseBuilder {
	b.headers.Add(name, value)
	if http.CanonicalHeaderKey(name) == "Content-Encoding" {
		b.autoGzip = false
	}
	return b
}

// WithBody sets a plain body. A Content-Encoding header added by an earlier
// compressed body is dropped.
func (b *ResponseBuilder) WithBody(body []byte) *ResponseBuilder {
	b.body = append([]byte(nil), body...)
	b.compressed = false
	if b.autoGzip {
		b.headers.Del("Content-Encoding")
		b.autoGzip = false
	}
	return b
}

// WithBodyString sets a plain text body.
func (b *ResponseBuilder) WithBodyString(body string) *ResponseBuilder {
	return b.WithBody([]byte(body))
}

// WithJSONBody marshals v as the body and defaults Content-Type to application/json.
func (b *ResponseBuilder) WithJSONBody(v any) *ResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.fail(fmt.Errorf("%w: json body: %w", ErrInvalidMapping, err))
		return b
	}
	if b.headers.Get("Content-Type") == "" {
		b.headers.Set("Content-Type", "application/json")
	}
	return b.WithBody(data)
}

// WithGzippedBody compresses body and stores it gzipped, adding
// Content-Encoding: gzip.
func (b *ResponseBuilder) WithGzippedBody(body []byte) *ResponseBuilder {
	data, err := codec.Compress(body)
	if err != nil {
		b.fail(err)
		return b
	}
	return b.WithCompressedBody(data)
}

// WithCompressedBody stores already gzipped bytes as the body.
// Build checks that they decode.
func (b *ResponseBuilder) WithCompressedBody(data []byte) *ResponseBuilder {
	b.body = append([]byte(nil), data...)
	b.compressed = true
	if b.headers.Get("Content-Encoding") == "" {
		b.headers.Set("Content-Encoding", "gzip")
		b.autoGzip = true
	}
	return b
}

// Gzip compresses whatever plain body has been set so far.
func (b *ResponseBuilder) Gzip() *ResponseBuilder {
	if b.compressed {
		return b
	}
	return b.WithGzippedBody(b.body)
}

func (b *ResponseBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build returns the definition, or the first error met while building.
func (b *ResponseBuilder) Build() (*ResponseDefinition, error) {
	if b.err != nil {
		return nil, b.err
	}
	def := &ResponseDefinition{
		status:     b.status,
		headers:    b.headers.Clone(),
		body:       append([]byte(nil), b.body...),
		compressed: b.compressed,
	}
	if len(b.body) == 0 && !b.compressed {
		def.body = nil
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// MustBuild is Build that panics on error.
func (b *ResponseBuilder) MustBuild() *ResponseDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
