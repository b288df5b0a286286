package auth

import "errors"

var (
	// ErrUnauthorized is returned for missing, malformed, tampered or expired tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned when no provider accepts the credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	// This typically indicates a misconfigured OIDC provider or an incomplete authentication flow.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrUserNotFound is returned when a user cannot be found in the directory.
	ErrUserNotFound = errors.New("user not found")

	// ErrMultipleUsersFound is returned when a query expected one user but found multiple.
	// This typically indicates a misconfigured LDAP filter or duplicate entries.
	ErrMultipleUsersFound = errors.New("multiple users found")

	// ErrNotAdmin is returned when a user authenticated but is not allowed to administrate.
	ErrNotAdmin = errors.New("user is not an admin")

	// ErrNoAdminPassword is returned when local auth is enabled without a password.
	ErrNoAdminPassword = errors.New("local auth is enabled but no admin password is configured")

	// ErrTokenSecretTooShort is returned for signing secrets below MinSecretLen bytes.
	ErrTokenSecretTooShort = errors.New("token secret is too short")
)
