// Package matcher defines the request predicates that decide whether a stub
// mapping applies to a request.
//
// Every variant implements the single RequestMatcher capability:
//
//   - Inline: a Go function supplied directly, no parameters
//   - Built-in: a declarative condition such as URLContains or BodyJSONPath
//   - Named: a reference to an Extension by name, bound to Parameters and
//     resolved when the matcher is evaluated
//   - Composites: All, Any and Not over other matchers
//
// Named matchers do not reach for a global registry. The caller passes a
// Resolver (normally an immutable registry snapshot) into Evaluate, so one
// evaluation sees one consistent set of extensions.
package matcher

import (
	"github.com/getmockd/stubmatch/pkg/params"
	"github.com/getmockd/stubmatch/pkg/request"
)

// RequestMatcher is a predicate over a request snapshot.
// A non-nil error means the predicate could not be evaluated; it is never a
// disguised "no match".
type RequestMatcher interface {
	Evaluate(req *request.Request, res Resolver) (bool, error)
}

// Resolver looks up extensions by name for named matchers.
// Lookup returns a *NotFoundError for unknown names.
type Resolver interface {
	Lookup(name string) (Extension, error)
}

// Extension is a caller-supplied, named predicate invoked with the parameters
// bound to the referencing matcher. Implementations must be stateless across
// calls, safe for concurrent use and must not block.
type Extension interface {
	Name() string
	IsMatchedBy(req *request.Request, p params.Parameters) (bool, error)
}

// ParameterValidator is implemented by extensions that can check their
// parameters ahead of time, letting a bad mapping be rejected when it is
// added rather than on the first request.
type ParameterValidator interface {
	ValidateParameters(p params.Parameters) error
}

// ExtensionFunc is the predicate signature used by NewExtension.
type ExtensionFunc func(req *request.Request, p params.Parameters) (bool, error)

type funcExtension struct {
	name string
	fn   ExtensionFunc
}

// NewExtension adapts a function into a named Extension.
func NewExtension(name string, fn ExtensionFunc) Extension {
	return &funcExtension{name: name, fn: fn}
}

func (e *funcExtension) Name() string { return e.name }

func (e *funcExtension) IsMatchedBy(req *request.Request, p params.Parameters) (bool, error) {
	return e.fn(req, p)
}

// Describe returns a short human-readable description of a matcher, using
// its String method when it has one.
func Describe(m RequestMatcher) string {
	if s, ok := m.(interface{ String() string }); ok {
		return s.String()
	}
	return "custom"
}
