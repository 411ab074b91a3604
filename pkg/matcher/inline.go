package matcher

import (
	"github.com/getmockd/stubmatch/pkg/request"
)

type inline struct {
	fn func(req *request.Request) (bool, error)
}

// Inline wraps a plain predicate function.
func Inline(fn func(req *request.Request) bool) RequestMatcher {
	return &inline{fn: func(req *request.Request) (bool, error) {
		return fn(req), nil
	}}
}

// InlineE wraps a predicate function that can fail. A returned error, or a
// panic, surfaces as a *MatchError.
func InlineE(fn func(req *request.Request) (bool, error)) RequestMatcher {
	return &inline{fn: fn}
}

func (m *inline) Evaluate(req *request.Request, _ Resolver) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			matched, err = false, &MatchError{Matcher: "inline", Err: recovered(r)}
		}
	}()

	matched, err = m.fn(req)
	if err != nil {
		return false, &MatchError{Matcher: "inline", Err: err}
	}
	return matched, nil
}

func (m *inline) String() string { return "inline" }
