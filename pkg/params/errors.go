package params

import (
	"errors"
	"fmt"
)

// ErrConfig matches every *ConfigError via errors.Is.
var ErrConfig = errors.New("params: invalid parameter access")

// ConfigError reports a parameter that is absent or cannot be coerced to the requested type.
type ConfigError struct {
	Key     string
	Want    string // requested type, empty when the key is missing
	Missing bool
	Actual  any
}

func (e *ConfigError) Error() string {
	if e.Missing {
		return fmt.Sprintf("params: required parameter %q is missing", e.Key)
	}
	return fmt.Sprintf("params: parameter %q is %T, cannot use as %s", e.Key, e.Actual, e.Want)
}

// Is makes errors.Is(err, ErrConfig) hold for any ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func missing(key string) error {
	return &ConfigError{Key: key, Missing: true}
}

func wrongType(key, want string, actual any) error {
	return &ConfigError{Key: key, Want: want, Actual: actual}
}
