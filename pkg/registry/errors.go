package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry operations.
var (
	// ErrDuplicate is returned under RejectDuplicate when the name is taken.
	ErrDuplicate = errors.New("registry: extension name already registered")

	// ErrInvalidName is returned for names outside [A-Za-z0-9][A-Za-z0-9_-]{0,254}.
	ErrInvalidName = errors.New("registry: invalid extension name")
)

// DuplicateError reports a rejected duplicate registration.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("registry: extension %q already registered", e.Name)
}

// Is makes errors.Is(err, ErrDuplicate) hold.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// InvalidNameError reports a name that cannot be registered.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("registry: invalid extension name %q", e.Name)
}

// Is makes errors.Is(err, ErrInvalidName) hold.
func (e *InvalidNameError) Is(target error) bool { return target == ErrInvalidName }
