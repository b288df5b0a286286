package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/kandinsky-studio/design-shop/internal/config"
	"github.com/kandinsky-studio/design-shop/internal/uniuri"
)

// ErrOIDCDisabled is returned when OIDC is disabled via configuration.
var ErrOIDCDisabled = errors.New("oidc authentication is disabled")

const stateTokenLen = 32

// OIDCProvider handles the OIDC code flow for admin logins.
type OIDCProvider struct {
	verifier    *oidc.IDTokenVerifier
	oauth2      oauth2.Config
	adminEmails []string
}

// NewOIDCProvider discovers the provider at cfg.ProviderURL.
func NewOIDCProvider(ctx context.Context, cfg config.OIDCAuth) (*OIDCProvider, error) {
	if !cfg.Enabled {
		return nil, ErrOIDCDisabled
	}

	provider, err := oidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	admins := make([]string, 0, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins = append(admins, strings.ToLower(strings.TrimSpace(email)))
	}

	return &OIDCProvider{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth2: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		adminEmails: admins,
	}, nil
}

// GenerateStateToken generates a random state token for CSRF protection.
func GenerateStateToken() string {
	return uniuri.NewLen(stateTokenLen)
}

// GetAuthURL returns the OIDC authorization URL with state token.
func (p *OIDCProvider) GetAuthURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

// HandleCallback exchanges the code, verifies the ID token and returns the
// admin email as subject. Only verified emails on the admin list are accepted.
func (p *OIDCProvider) HandleCallback(ctx context.Context, code string) (string, error) {
	oauth2Token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return "", ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}

	if err = idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("failed to parse claims: %w", err)
	}

	email := strings.ToLower(claims.Email)

	if !claims.EmailVerified || !slices.Contains(p.adminEmails, email) {
		return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrNotAdmin)
	}

	return email, nil
}
