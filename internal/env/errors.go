package env

import "errors"

var (
	// ErrMissing is returned for a required variable that is not set.
	ErrMissing = errors.New("required environment variable is not set")
	// ErrMalformed is returned when a variable is set but cannot be parsed.
	ErrMalformed = errors.New("malformed environment variable")
)
