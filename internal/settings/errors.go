package settings

import "errors"

var (
	// ErrResolve wraps every problem found while resolving the environment.
	ErrResolve = errors.New("resolve weblate settings")
	// ErrSecretExists is returned when a secret file would be overwritten.
	ErrSecretExists = errors.New("secret file already exists")
)
