package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/getmockd/stubmatch/pkg/matcher"
	"github.com/getmockd/stubmatch/pkg/params"
	"github.com/getmockd/stubmatch/pkg/stub"
)

// ErrInvalidConfig is returned for mapping files that cannot be turned into
// stub mappings.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// ToMapping builds the stub mapping m describes.
func (m *MappingSpec) ToMapping() (*stub.Mapping, error) {
	req, err := m.Request.Matcher()
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	resp, err := m.Response.Definition()
	if err != nil {
		return nil, fmt.Errorf("response: %w", err)
	}
	return &stub.Mapping{
		ID:       m.ID,
		Name:     m.Name,
		Matcher:  req,
		Response: resp,
		Priority: m.Priority,
	}, nil
}

// Matcher combines every criterion with AND. A request section with no
// criteria matches every request.
func (r *RequestSpec) Matcher() (matcher.RequestMatcher, error) {
	var all []matcher.RequestMatcher
	add := func(m matcher.RequestMatcher, err error) error {
		if err != nil {
			return err
		}
		all = append(all, m)
		return nil
	}

	if r.Method != "" {
		all = append(all, matcher.Method(r.Method))
	}

	url, err := r.urlMatcher()
	if err != nil {
		return nil, err
	}
	if url != nil {
		all = append(all, url)
	}

	for _, name := range sortedKeys(r.Headers) {
		if err := add(headerMatcher(name, r.Headers[name])); err != nil {
			return nil, fmt.Errorf("header %s: %w", name, err)
		}
	}
	for _, name := range sortedKeys(r.QueryParameters) {
		if err := add(queryMatcher(name, r.QueryParameters[name])); err != nil {
			return nil, fmt.Errorf("query parameter %s: %w", name, err)
		}
	}
	for i, p := range r.BodyPatterns {
		if err := add(p.matcher()); err != nil {
			return nil, fmt.Errorf("bodyPatterns[%d]: %w", i, err)
		}
	}

	if c := r.CustomMatcher; c != nil {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: customMatcher without a name", ErrInvalidConfig)
		}
		all = append(all, matcher.Named(c.Name, params.FromMap(c.Parameters)))
	}

	if len(all) == 0 {
		return matcher.Anything(), nil
	}
	return matcher.All(all...), nil
}

func (r *RequestSpec) urlMatcher() (matcher.RequestMatcher, error) {
	type candidate struct {
		key   string
		value string
	}
	var set []candidate
	for _, c := range []candidate{
		{"url", r.URL},
		{"urlContains", r.URLContains},
		{"urlPattern", r.URLPattern},
		{"urlPath", r.URLPath},
		{"urlPathPattern", r.URLPathPattern},
		{"urlPathTemplate", r.URLPathTemplate},
		{"urlPathGlob", r.URLPathGlob},
	} {
		if c.value != "" {
			set = append(set, c)
		}
	}
	switch len(set) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s and %s are mutually exclusive", ErrInvalidConfig, set[0].key, set[1].key)
	}

	v := set[0].value
	switch set[0].key {
	case "url":
		return matcher.URLEquals(v), nil
	case "urlContains":
		return matcher.URLContains(v), nil
	case "urlPattern":
		return matcher.URLMatches(v)
	case "urlPath":
		return matcher.URLPathEquals(v), nil
	case "urlPathPattern":
		return matcher.URLPathMatches(v)
	case "urlPathTemplate":
		return matcher.URLPathTemplate(v), nil
	default:
		return matcher.URLPathGlob(v)
	}
}

func headerMatcher(name string, p ValuePattern) (matcher.RequestMatcher, error) {
	if err := p.checkSingle(); err != nil {
		return nil, err
	}
	switch {
	case p.Absent != nil && *p.Absent:
		return matcher.HeaderAbsent(name), nil
	case p.Absent != nil:
		return matcher.HeaderPresent(name), nil
	case p.EqualTo != nil:
		return matcher.HeaderEquals(name, *p.EqualTo), nil
	case p.Contains != nil:
		return matcher.HeaderContains(name, *p.Contains), nil
	case p.Matches != nil:
		return matcher.HeaderMatches(name, *p.Matches)
	case p.Wildcard != nil:
		return matcher.HeaderWildcard(name, *p.Wildcard), nil
	default:
		return matcher.HeaderEqualsIgnoreCase(name, *p.EqualToIgnoreCase), nil
	}
}

func queryMatcher(name string, p ValuePattern) (matcher.RequestMatcher, error) {
	if err := p.checkSingle(); err != nil {
		return nil, err
	}
	switch {
	case p.Absent != nil && *p.Absent:
		return matcher.QueryParamAbsent(name), nil
	case p.Absent != nil:
		return matcher.Not(matcher.QueryParamAbsent(name)), nil
	case p.EqualTo != nil:
		return matcher.QueryParamEquals(name, *p.EqualTo), nil
	case p.Matches != nil:
		return matcher.QueryParamMatches(name, *p.Matches)
	default:
		return nil, fmt.Errorf("%w: query parameters support equalTo, matches and absent", ErrInvalidConfig)
	}
}

// checkSingle normalizes p so that exactly one operator is left set.
// An absent: false beside another operator is dropped.
func (p *ValuePattern) checkSingle() error {
	n := 0
	for _, set := range []bool{
		p.EqualTo != nil, p.Contains != nil, p.Matches != nil,
		p.Wildcard != nil, p.EqualToIgnoreCase != nil,
	} {
		if set {
			n++
		}
	}
	if p.Absent != nil {
		if !*p.Absent && n > 0 {
			p.Absent = nil
		} else {
			n++
		}
	}
	switch n {
	case 0:
		return fmt.Errorf("%w: no operator", ErrInvalidConfig)
	case 1:
		return nil
	default:
		return fmt.Errorf("%w: more than one operator", ErrInvalidConfig)
	}
}

func (p BodyPattern) matcher() (matcher.RequestMatcher, error) {
	var (
		out matcher.RequestMatcher
		n   int
		err error
	)
	pick := func(m matcher.RequestMatcher, e error) {
		n++
		out, err = m, e
	}

	if p.EqualTo != nil {
		pick(matcher.BodyEquals(*p.EqualTo), nil)
	}
	if p.Contains != nil {
		pick(matcher.BodyContains(*p.Contains), nil)
	}
	if p.Matches != nil {
		pick(matcher.BodyMatches(*p.Matches))
	}
	if p.EqualToJSON != nil {
		expected, jerr := jsonText(p.EqualToJSON)
		if jerr != nil {
			pick(nil, jerr)
		} else {
			pick(matcher.BodyEqualsJSON(expected))
		}
	}
	if p.MatchesJSONPath != nil {
		pick(matcher.BodyJSONPath(p.MatchesJSONPath))
	}
	if p.MatchesJSONSchema != nil {
		pick(matcher.BodyJSONSchema(p.MatchesJSONSchema))
	}
	if p.MatchesXPath != nil {
		pick(matcher.BodyXPath(p.MatchesXPath.Expression, p.MatchesXPath.EqualTo))
	}
	if p.ContainsAny != nil {
		pick(matcher.BodyContainsAny(p.ContainsAny))
	}

	switch {
	case n == 0:
		return nil, fmt.Errorf("%w: no operator", ErrInvalidConfig)
	case n > 1:
		return nil, fmt.Errorf("%w: more than one operator", ErrInvalidConfig)
	case err != nil:
		return nil, err
	}
	return out, nil
}

// jsonText returns v as JSON text. Strings are taken to be JSON already.
func jsonText(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: equalToJson: %w", ErrInvalidConfig, err)
	}
	return string(data), nil
}

// Definition builds the response definition r describes.
func (r *ResponseSpec) Definition() (*stub.ResponseDefinition, error) {
	b := stub.Response()
	if r.Status != 0 {
		b.WithStatus(r.Status)
	}
	for _, name := range sortedKeys(r.Headers) {
		b.WithHeader(name, r.Headers[name])
	}

	sources := 0
	if r.Body != nil {
		sources++
		b.WithBodyString(*r.Body)
	}
	if r.JSONBody != nil {
		sources++
		b.WithJSONBody(r.JSONBody)
	}
	if r.Base64Body != "" {
		sources++
		data, err := base64.StdEncoding.DecodeString(r.Base64Body)
		if err != nil {
			return nil, fmt.Errorf("%w: base64Body: %w", ErrInvalidConfig, err)
		}
		b.WithBody(data)
	}
	if r.GzippedBase64Body != "" {
		sources++
		data, err := base64.StdEncoding.DecodeString(r.GzippedBase64Body)
		if err != nil {
			return nil, fmt.Errorf("%w: gzippedBase64Body: %w", ErrInvalidConfig, err)
		}
		b.WithCompressedBody(data)
	}
	if sources > 1 {
		return nil, fmt.Errorf("%w: more than one body source", ErrInvalidConfig)
	}

	if r.Gzip {
		b.Gzip()
	}
	return b.Build()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
