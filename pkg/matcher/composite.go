package matcher

import (
	"strings"

	"github.com/getmockd/stubmatch/pkg/request"
)

// parent is implemented by matchers that wrap other matchers.
type parent interface {
	children() []RequestMatcher
}

type allOf struct{ matchers []RequestMatcher }

// All matches when every matcher matches. Evaluation stops at the first
// false or the first error. All() with no arguments matches everything.
func All(matchers ...RequestMatcher) RequestMatcher {
	kept := compact(matchers)
	if len(kept) == 1 {
		return kept[0]
	}
	return &allOf{matchers: kept}
}

func (m *allOf) Evaluate(req *request.Request, res Resolver) (bool, error) {
	for _, child := range m.matchers {
		ok, err := child.Evaluate(req, res)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (m *allOf) children() []RequestMatcher { return m.matchers }

func (m *allOf) String() string { return join("all", m.matchers) }

type anyOf struct{ matchers []RequestMatcher }

// Any matches when at least one matcher matches. Evaluation stops at the
// first true or the first error. Any() with no arguments matches nothing.
func Any(matchers ...RequestMatcher) RequestMatcher {
	return &anyOf{matchers: compact(matchers)}
}

func (m *anyOf) Evaluate(req *request.Request, res Resolver) (bool, error) {
	for _, child := range m.matchers {
		ok, err := child.Evaluate(req, res)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (m *anyOf) children() []RequestMatcher { return m.matchers }

func (m *anyOf) String() string { return join("any", m.matchers) }

type not struct{ matcher RequestMatcher }

// Not inverts a matcher. Errors pass through unchanged. Not(nil) is the
// negation of an empty Any and matches everything.
func Not(m RequestMatcher) RequestMatcher {
	if m == nil {
		m = Any()
	}
	return &not{matcher: m}
}

func (m *not) Evaluate(req *request.Request, res Resolver) (bool, error) {
	ok, err := m.matcher.Evaluate(req, res)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (m *not) children() []RequestMatcher { return []RequestMatcher{m.matcher} }

func (m *not) String() string { return "not(" + Describe(m.matcher) + ")" }

// NamedReferences walks a matcher tree and returns every named matcher in it,
// depth first.
func NamedReferences(m RequestMatcher) []*NamedMatcher {
	var out []*NamedMatcher
	var walk func(RequestMatcher)
	walk = func(m RequestMatcher) {
		switch t := m.(type) {
		case *NamedMatcher:
			out = append(out, t)
		case parent:
			for _, child := range t.children() {
				walk(child)
			}
		}
	}
	if m != nil {
		walk(m)
	}
	return out
}

func compact(matchers []RequestMatcher) []RequestMatcher {
	out := make([]RequestMatcher, 0, len(matchers))
	for _, m := range matchers {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

func join(op string, matchers []RequestMatcher) string {
	parts := make([]string, len(matchers))
	for i, m := range matchers {
		parts[i] = Describe(m)
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}
