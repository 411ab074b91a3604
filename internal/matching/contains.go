package matching

import (
	"errors"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// MultiContains searches a body for any of a fixed set of literal patterns in
// a single pass using an Aho-Corasick automaton.
type MultiContains struct {
	automaton ahocorasick.AhoCorasick
}

// NewMultiContains builds the automaton. Empty patterns are rejected since
// they would match every body.
func NewMultiContains(patterns []string, caseInsensitive bool) (*MultiContains, error) {
	if len(patterns) == 0 {
		return nil, errors.New("at least one pattern is required")
	}
	for _, p := range patterns {
		if p == "" {
			return nil, errors.New("patterns must not be empty")
		}
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: caseInsensitive,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})

	return &MultiContains{automaton: builder.Build(patterns)}, nil
}

// Match reports whether any pattern occurs in body.
func (m *MultiContains) Match(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	return len(m.automaton.FindAll(string(body))) > 0
}
