package cli

import "errors"

// Common CLI errors
var (
	// ErrNoMatch is returned by match when no mapping accepts the request.
	ErrNoMatch = errors.New("no stub mapping matched")
	// ErrBadHeader is returned for a -H value that is not "Name: value".
	ErrBadHeader = errors.New("header must be in 'Name: value' form")
)
