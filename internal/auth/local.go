package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/pquerna/otp/totp"

	"github.com/kandinsky-studio/design-shop/internal/config"
)

// LocalProvider authenticates the single configured admin account.
type LocalProvider struct {
	username   string
	hash       string
	totpSecret string
}

// NewLocalProvider creates a local provider. A plaintext password from the
// config is hashed once here and not kept.
func NewLocalProvider(cfg config.LocalAuth) (*LocalProvider, error) {
	hash := cfg.PasswordHash

	if hash == "" {
		if cfg.Password == "" {
			return nil, ErrNoAdminPassword
		}

		var err error
		if hash, err = HashPassword(cfg.Password); err != nil {
			return nil, err
		}
	}

	username := cfg.Username
	if username == "" {
		username = RoleAdmin
	}

	return &LocalProvider{
		username:   username,
		hash:       hash,
		totpSecret: cfg.TOTPSecret,
	}, nil
}

// HashPassword returns the Argon2id hash of password in PHC string format.
func HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return hash, nil
}

// Name of the provider.
func (p *LocalProvider) Name() string {
	return ProviderLocal
}

// Authenticate compares the credentials with the configured account.
func (p *LocalProvider) Authenticate(_ context.Context, creds Credentials) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(p.username)) == 1

	// always hash, so unknown usernames take as long as wrong passwords
	match, err := argon2id.ComparePasswordAndHash(creds.Password, p.hash)
	if err != nil {
		return "", fmt.Errorf("failed to compare password: %w", err)
	}

	if !userOK || !match {
		return "", ErrInvalidCredentials
	}

	if p.totpSecret != "" && !totp.Validate(creds.OTP, p.totpSecret) {
		return "", ErrInvalidCredentials
	}

	return p.username, nil
}
