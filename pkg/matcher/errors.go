package matcher

import (
	"errors"
	"fmt"
)

// Sentinel errors. Each typed error below matches its sentinel via errors.Is.
var (
	// ErrNotFound is matched by *NotFoundError.
	ErrNotFound = errors.New("matcher: extension not found")

	// ErrMatch is matched by *MatchError.
	ErrMatch = errors.New("matcher: evaluation failed")

	// ErrInvalidMatcher is returned by built-in constructors given an unusable pattern.
	ErrInvalidMatcher = errors.New("matcher: invalid matcher definition")
)

// NotFoundError reports a named matcher whose extension is not registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("matcher: no extension registered under %q", e.Name)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// MatchError wraps a failure raised while an inline function or an extension
// was evaluating a request.
type MatchError struct {
	Matcher string // extension name, or "inline"
	Err     error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("matcher: %s failed: %v", e.Matcher, e.Err)
}

func (e *MatchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrMatch) hold.
func (e *MatchError) Is(target error) bool { return target == ErrMatch }

func invalid(kind, pattern string, err error) error {
	return fmt.Errorf("%w: %s %q: %v", ErrInvalidMatcher, kind, pattern, err)
}

// recovered turns a panic value into an error.
func recovered(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}
