package matcher

import (
	"errors"

	"github.com/getmockd/stubmatch/pkg/params"
	"github.com/getmockd/stubmatch/pkg/request"
)

// NamedMatcher references an Extension by name with bound parameters.
type NamedMatcher struct {
	name   string
	params params.Parameters
}

// Named builds a matcher that resolves the extension called name at
// evaluation time and calls it with p.
func Named(name string, p params.Parameters) *NamedMatcher {
	return &NamedMatcher{name: name, params: p}
}

// Name returns the referenced extension name.
func (m *NamedMatcher) Name() string { return m.name }

// Parameters returns the bound parameters.
func (m *NamedMatcher) Parameters() params.Parameters { return m.params }

// Evaluate resolves the extension and delegates to it. An unknown name yields
// a *NotFoundError; an extension failure or panic yields a *MatchError.
func (m *NamedMatcher) Evaluate(req *request.Request, res Resolver) (matched bool, err error) {
	if res == nil {
		return false, &NotFoundError{Name: m.name}
	}

	ext, err := res.Lookup(m.name)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return false, err
		}
		return false, &NotFoundError{Name: m.name}
	}

	defer func() {
		if r := recover(); r != nil {
			matched, err = false, &MatchError{Matcher: m.name, Err: recovered(r)}
		}
	}()

	matched, err = ext.IsMatchedBy(req, m.params)
	if err != nil {
		return false, &MatchError{Matcher: m.name, Err: err}
	}
	return matched, nil
}

func (m *NamedMatcher) String() string {
	return "extension " + m.name + " " + m.params.String()
}

type instance struct {
	ext    Extension
	params params.Parameters
}

// FromExtension binds an unregistered Extension directly into a matcher.
// The registry is never consulted; failures and panics surface as a
// *MatchError, just as they do for named matchers. A nil ext yields nil,
// which composites and mapping builders drop.
func FromExtension(ext Extension, p params.Parameters) RequestMatcher {
	if ext == nil {
		return nil
	}
	return &instance{ext: ext, params: p}
}

func (m *instance) Evaluate(req *request.Request, _ Resolver) (matched bool, err error) {
	name := m.ext.Name()
	defer func() {
		if r := recover(); r != nil {
			matched, err = false, &MatchError{Matcher: name, Err: recovered(r)}
		}
	}()

	matched, err = m.ext.IsMatchedBy(req, m.params)
	if err != nil {
		return false, &MatchError{Matcher: name, Err: err}
	}
	return matched, nil
}

func (m *instance) String() string {
	return "instance " + m.ext.Name() + " " + m.params.String()
}
