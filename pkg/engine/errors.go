package engine

import (
	"errors"
	"fmt"
)

// ErrFault is matched by *FaultError.
var ErrFault = errors.New("engine: evaluation fault")

// FaultError reports the mapping whose matcher could not be evaluated.
// It unwraps to the cause, normally a *matcher.NotFoundError or a
// *matcher.MatchError.
type FaultError struct {
	MappingID string
	Err       error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("engine: mapping %s: %v", e.MappingID, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFault) hold.
func (e *FaultError) Is(target error) bool { return target == ErrFault }
