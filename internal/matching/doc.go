// Package matching provides the low-level predicate algorithms behind the
// built-in request matchers.
//
// Each helper answers a yes/no question about one part of a request:
//
//   - Path matching: templates with {named} segments and * wildcards
//   - Header matching: prefix*, *suffix and *middle* wildcards, Unicode case folding
//   - Body matching: multi-pattern substring search, semantic JSON equality,
//     JSONPath conditions, JSON Schema validation and XML element paths
//
// Helpers that depend on a pattern compile it once up front and return an
// error for invalid input, so the evaluated predicate itself never fails.
// Malformed request data (a non-JSON body for a JSONPath condition, say)
// is simply a non-match.
package matching
