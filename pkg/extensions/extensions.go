// Package extensions provides stock named matcher extensions.
//
//	path-contains-param   URL contains the "path" parameter
//	header-present        every header listed in "names" is sent
//	expression            expr-lang boolean "expression" over the request
//	json-schema           JSON body validates against "schema"
//
// Register installs all of them through a registration function. Each one is stateless apart
// from compile caches, which are guarded, so they are safe for concurrent use.
package extensions

import (
	"strings"

	"github.com/getmockd/stubmatch/pkg/matcher"
	"github.com/getmockd/stubmatch/pkg/params"
	"github.com/getmockd/stubmatch/pkg/request"
)

// All returns fresh instances of every stock extension.
func All() []matcher.Extension {
	return []matcher.Extension{
		PathContainsParam(),
		HeaderPresent(),
		NewExpression(),
		NewJSONSchema(),
	}
}

// Register installs every stock extension, stopping at the first error.
// Pass reg.Register or eng.RegisterExtension.
func Register(register func(matcher.Extension) error) error {
	for _, ext := range All() {
		if err := register(ext); err != nil {
			return err
		}
	}
	return nil
}

// PathContainsParam matches when the request URL contains the "path" parameter.
func PathContainsParam() matcher.Extension {
	return &pathContainsParam{}
}

type pathContainsParam struct{}

func (*pathContainsParam) Name() string { return "path-contains-param" }

func (*pathContainsParam) IsMatchedBy(req *request.Request, p params.Parameters) (bool, error) {
	segment, err := p.GetString("path")
	if err != nil {
		return false, err
	}
	return strings.Contains(req.URL(), segment), nil
}

func (*pathContainsParam) ValidateParameters(p params.Parameters) error {
	_, err := p.GetString("path")
	return err
}

// HeaderPresent matches when every header named in the "names" parameter is
// sent. A single string is accepted in place of a list.
func HeaderPresent() matcher.Extension {
	return &headerPresent{}
}

type headerPresent struct{}

func (*headerPresent) Name() string { return "header-present" }

func (*headerPresent) IsMatchedBy(req *request.Request, p params.Parameters) (bool, error) {
	names, err := headerNames(p)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if !req.HasHeader(name) {
			return false, nil
		}
	}
	return true, nil
}

func (*headerPresent) ValidateParameters(p params.Parameters) error {
	_, err := headerNames(p)
	return err
}

func headerNames(p params.Parameters) ([]string, error) {
	names, err := p.GetStringSlice("names")
	if err == nil {
		return names, nil
	}
	if name, serr := p.GetString("names"); serr == nil {
		return []string{name}, nil
	}
	return nil, err
}
