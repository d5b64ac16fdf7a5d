package services

import "errors"

// Domain-level failures. Handlers map these to specific status codes with
// errors.Is; anything else is treated as a store failure.
var (
	ErrUsernameTaken      = errors.New("a user with that name already exists")
	ErrEmailTaken         = errors.New("a user with that email already exists")
	ErrInvalidCredentials = errors.New("invalid username and/or password")
	ErrForbidden          = errors.New("operation not permitted for this identity")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("missing required field")
)
