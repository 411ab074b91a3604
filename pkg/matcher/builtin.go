package matcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/stubmatch/internal/matching"
	"github.com/getmockd/stubmatch/pkg/request"
)

// Builtin is a declarative predicate. It is pure and total: patterns are
// compiled by its constructor, so Evaluate never returns an error.
type Builtin struct {
	kind string
	desc string
	fn   func(req *request.Request) bool
}

func builtin(kind, desc string, fn func(req *request.Request) bool) *Builtin {
	return &Builtin{kind: kind, desc: desc, fn: fn}
}

// Evaluate implements RequestMatcher.
func (b *Builtin) Evaluate(req *request.Request, _ Resolver) (bool, error) {
	return b.fn(req), nil
}

// Kind returns the predicate kind, e.g. "urlContains".
func (b *Builtin) Kind() string { return b.kind }

func (b *Builtin) String() string { return b.desc }

// Anything matches every request.
func Anything() *Builtin {
	return builtin("anything", "anything", func(*request.Request) bool { return true })
}

// ----------------------------------------------------------------------------
// Method and URL
// ----------------------------------------------------------------------------

// Method matches the HTTP method case-insensitively. "ANY" matches every method.
func Method(method string) *Builtin {
	want := strings.ToUpper(method)
	return builtin("method", "method "+want, func(req *request.Request) bool {
		return want == "ANY" || req.Method() == want
	})
}

// URLEquals matches the full request URI (path and query) exactly.
func URLEquals(url string) *Builtin {
	return builtin("url", "url == "+url, func(req *request.Request) bool {
		return req.URL() == url
	})
}

// URLContains matches when the request URI contains substr.
func URLContains(substr string) *Builtin {
	return builtin("urlContains", "url contains "+substr, func(req *request.Request) bool {
		return strings.Contains(req.URL(), substr)
	})
}

// URLMatches matches the full request URI against a regular expression.
func URLMatches(pattern string) (*Builtin, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, invalid("urlPattern", pattern, err)
	}
	return builtin("urlPattern", "url matches "+pattern, func(req *request.Request) bool {
		return re.MatchString(req.URL())
	}), nil
}

// URLPathEquals matches the path (query ignored) exactly.
func URLPathEquals(path string) *Builtin {
	return builtin("urlPath", "path == "+path, func(req *request.Request) bool {
		return req.Path() == path
	})
}

// URLPathMatches matches the path against a regular expression.
func URLPathMatches(pattern string) (*Builtin, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, invalid("urlPathPattern", pattern, err)
	}
	return builtin("urlPathPattern", "path matches "+pattern, func(req *request.Request) bool {
		return re.MatchString(req.Path())
	}), nil
}

// URLPathTemplate matches the path against a template with {named} segments
// and * wildcards, e.g. "/users/{id}/orders/*".
func URLPathTemplate(template string) *Builtin {
	return builtin("urlPathTemplate", "path template "+template, func(req *request.Request) bool {
		return matching.MatchPathTemplate(template, req.Path())
	})
}

// URLPathGlob matches the path against a doublestar glob, e.g. "/api/**/items/*".
func URLPathGlob(glob string) (*Builtin, error) {
	if !doublestar.ValidatePattern(glob) {
		return nil, invalid("urlPathGlob", glob, errors.New("bad glob syntax"))
	}
	return builtin("urlPathGlob", "path glob "+glob, func(req *request.Request) bool {
		ok, err := doublestar.Match(glob, req.Path())
		return err == nil && ok
	}), nil
}

// ----------------------------------------------------------------------------
// Headers
// ----------------------------------------------------------------------------

// HeaderEquals matches when any value of the header equals value.
func HeaderEquals(name, value string) *Builtin {
	return headerAny("headerEqualTo", name, "== "+value, func(v string) bool { return v == value })
}

// HeaderContains matches when any value of the header contains substr.
func HeaderContains(name, substr string) *Builtin {
	return headerAny("headerContains", name, "contains "+substr, func(v string) bool {
		return strings.Contains(v, substr)
	})
}

// HeaderMatches matches when any value of the header matches the regular expression.
func HeaderMatches(name, pattern string) (*Builtin, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, invalid("headerMatches", pattern, err)
	}
	return headerAny("headerMatches", name, "matches "+pattern, re.MatchString), nil
}

// HeaderWildcard matches header values against prefix*, *suffix or *middle* patterns.
func HeaderWildcard(name, pattern string) *Builtin {
	return headerAny("headerWildcard", name, "like "+pattern, func(v string) bool {
		return matching.MatchWildcardValue(pattern, v)
	})
}

// HeaderEqualsIgnoreCase compares header values under Unicode case folding.
func HeaderEqualsIgnoreCase(name, value string) *Builtin {
	return headerAny("headerEqualToIgnoreCase", name, "equalsIgnoreCase "+value, func(v string) bool {
		return matching.FoldEqual(v, value)
	})
}

// HeaderAbsent matches when the header is not sent at all.
func HeaderAbsent(name string) *Builtin {
	return builtin("headerAbsent", "header "+name+" absent", func(req *request.Request) bool {
		return !req.HasHeader(name)
	})
}

// HeaderPresent matches when the header is sent, whatever its value.
func HeaderPresent(name string) *Builtin {
	return builtin("headerPresent", "header "+name+" present", func(req *request.Request) bool {
		return req.HasHeader(name)
	})
}

func headerAny(kind, name, what string, pred func(string) bool) *Builtin {
	return builtin(kind, "header "+name+" "+what, func(req *request.Request) bool {
		for _, v := range req.HeaderValues(name) {
			if pred(v) {
				return true
			}
		}
		return false
	})
}

// ----------------------------------------------------------------------------
// Query parameters
// ----------------------------------------------------------------------------

// QueryParamEquals matches when any value of the query parameter equals value.
func QueryParamEquals(name, value string) *Builtin {
	return queryAny("queryEqualTo", name, "== "+value, func(v string) bool { return v == value })
}

// QueryParamMatches matches when any value of the query parameter matches the regular expression.
func QueryParamMatches(name, pattern string) (*Builtin, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, invalid("queryMatches", pattern, err)
	}
	return queryAny("queryMatches", name, "matches "+pattern, re.MatchString), nil
}

// QueryParamAbsent matches when the query parameter is not present.
func QueryParamAbsent(name string) *Builtin {
	return builtin("queryAbsent", "query "+name+" absent", func(req *request.Request) bool {
		_, ok := req.Query()[name]
		return !ok
	})
}

func queryAny(kind, name, what string, pred func(string) bool) *Builtin {
	return builtin(kind, "query "+name+" "+what, func(req *request.Request) bool {
		for _, v := range req.Query()[name] {
			if pred(v) {
				return true
			}
		}
		return false
	})
}

// ----------------------------------------------------------------------------
// Body
// ----------------------------------------------------------------------------

// BodyEquals matches the body exactly.
func BodyEquals(body string) *Builtin {
	return builtin("bodyEqualTo", "body == "+truncate(body), func(req *request.Request) bool {
		return req.BodyString() == body
	})
}

// BodyContains matches when the body contains substr.
func BodyContains(substr string) *Builtin {
	return builtin("bodyContains", "body contains "+truncate(substr), func(req *request.Request) bool {
		return strings.Contains(req.BodyString(), substr)
	})
}

// BodyContainsAny matches when the body contains at least one of patterns.
// The body is scanned once regardless of how many patterns there are.
func BodyContainsAny(patterns []string) (*Builtin, error) {
	mc, err := matching.NewMultiContains(patterns, false)
	if err != nil {
		return nil, invalid("bodyContainsAny", strings.Join(patterns, "|"), err)
	}
	desc := fmt.Sprintf("body contains any of %d patterns", len(patterns))
	return builtin("bodyContainsAny", desc, func(req *request.Request) bool {
		return mc.Match(req.Body())
	}), nil
}

// BodyMatches matches the body against a regular expression.
func BodyMatches(pattern string) (*Builtin, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, invalid("bodyMatches", pattern, err)
	}
	return builtin("bodyMatches", "body matches "+pattern, func(req *request.Request) bool {
		return re.MatchString(req.BodyString())
	}), nil
}

// BodyEqualsJSON matches when the body is JSON semantically equal to expected.
func BodyEqualsJSON(expected string) (*Builtin, error) {
	if !json.Valid([]byte(expected)) {
		return nil, invalid("equalToJson", truncate(expected), errors.New("not valid JSON"))
	}
	want := []byte(expected)
	return builtin("equalToJson", "body json == "+truncate(expected), func(req *request.Request) bool {
		return matching.JSONEqual(req.Body(), want)
	}), nil
}

// BodyJSONPath matches when every JSONPath condition holds for the JSON body.
// A condition value of {"exists": bool} checks presence only.
func BodyJSONPath(conditions map[string]interface{}) (*Builtin, error) {
	c, err := matching.CompileJSONPath(conditions)
	if err != nil {
		return nil, fmt.Errorf("%w: matchesJsonPath: %v", ErrInvalidMatcher, err)
	}
	desc := "body jsonpath " + strings.Join(c.Paths(), ", ")
	return builtin("matchesJsonPath", desc, func(req *request.Request) bool {
		return c.Match(req.Body())
	}), nil
}

// BodyJSONSchema matches when the body is JSON valid against schema.
// The schema may be a decoded document or raw JSON.
func BodyJSONSchema(schema interface{}) (*Builtin, error) {
	s, err := matching.CompileJSONSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: matchesJsonSchema: %v", ErrInvalidMatcher, err)
	}
	return builtin("matchesJsonSchema", "body matches json schema", func(req *request.Request) bool {
		return s.Match(req.Body())
	}), nil
}

// BodyXPath matches when the XML body has an element selected by path and,
// if text is non-empty, that element carries exactly text.
func BodyXPath(path, text string) (*Builtin, error) {
	x, err := matching.CompileXMLPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: matchesXPath: %v", ErrInvalidMatcher, err)
	}
	desc := "body xpath " + path
	if text != "" {
		desc += " == " + text
	}
	return builtin("matchesXPath", desc, func(req *request.Request) bool {
		return x.Match(req.Body(), text)
	}), nil
}

func truncate(s string) string {
	const limit = 40
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
