package matching

import (
	"strings"
)

// MatchPathTemplate checks if the request path matches a template.
// Supports:
//   - Exact match: "/api/users" matches "/api/users"
//   - Trailing wildcard: "/api/users/*" matches "/api/users" and "/api/users/123/x"
//   - Named params: "/api/users/{id}" matches "/api/users/123"
//   - General wildcard: "/api/*/items" matches "/api/v1/items"
func MatchPathTemplate(pattern, path string) bool {
	if pattern == path {
		return true
	}

	if strings.Contains(pattern, "{") && strings.Contains(pattern, "}") {
		if matchNamedParams(pattern, path) {
			return true
		}
	}

	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.Contains(pattern, "*") {
		return matchWildcard(pattern, path)
	}

	return false
}

// matchNamedParams checks a path against a template where {name} segments
// match any single non-empty segment. Segment counts must agree.
func matchNamedParams(pattern, path string) bool {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")

	if len(patternParts) != len(pathParts) {
		return false
	}

	for i, patternPart := range patternParts {
		if isParam(patternPart) {
			if pathParts[i] == "" {
				return false
			}
			continue
		}
		if patternPart == "*" {
			continue
		}
		if patternPart != pathParts[i] {
			return false
		}
	}

	return true
}

// matchWildcard reports whether value matches pattern where * matches any
// sequence of characters. The first literal part anchors at the start and
// the last at the end.
func matchWildcard(pattern, value string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == value
	}

	if !strings.HasPrefix(value, parts[0]) {
		return false
	}
	pos := len(parts[0])

	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(value[pos:], part)
		if idx == -1 {
			return false
		}
		pos += idx + len(part)
	}

	return len(value)-pos >= len(last) && strings.HasSuffix(value, last)
}

func isParam(segment string) bool {
	return len(segment) > 2 && strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}")
}
