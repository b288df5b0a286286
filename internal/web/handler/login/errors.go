package login

import "errors"

var (
	// ErrInvalidFormData is returned when the submitted login body cannot be parsed.
	ErrInvalidFormData = errors.New("invalid login request")

	// ErrNoAuthMethod is returned when no credential provider is configured.
	ErrNoAuthMethod = errors.New("no authentication method available")

	// ErrInvalidAuthMethod is returned when a requested authentication method is
	// unknown or not enabled.
	ErrInvalidAuthMethod = errors.New("invalid authentication method")
)
