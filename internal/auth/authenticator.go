package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Provider names reported by Authenticator.Name.
const (
	ProviderLocal = "local"
	ProviderLDAP  = "ldap"
	ProviderOIDC  = "oidc"
)

// Credentials submitted on login. OTP is only checked by providers that use it.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

// Authenticator checks credentials and returns the subject for the token.
type Authenticator interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) (string, error)
}

// Chain tries each Authenticator in order.
type Chain []Authenticator

// Authenticate returns the subject of the first provider that accepts creds.
// It reports the name of that provider, or of the last one asked on failure.
func (c Chain) Authenticate(ctx context.Context, creds Credentials) (subject, provider string, err error) {
	for _, a := range c {
		provider = a.Name()

		subject, err = a.Authenticate(ctx, creds)
		if err == nil {
			return subject, provider, nil
		}

		if !errors.Is(err, ErrInvalidCredentials) {
			log.Error().Err(err).Str("provider", provider).Str("username", creds.Username).
				Msg("authentication provider failed")
		}
	}

	return "", provider, ErrInvalidCredentials
}
