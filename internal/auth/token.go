package auth

import (
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/kandinsky-studio/design-shop/internal/uniuri"
)

const (
	// RoleAdmin is the only role tokens are issued for.
	RoleAdmin = "admin"

	// MinSecretLen is the minimal signing secret length in bytes.
	MinSecretLen = 32
)

// Claims of an admin bearer token.
type Claims struct {
	jwt.Claims
	Role string `json:"role"`
}

// Token is an issued bearer token.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenIssuer issues and verifies HS256 signed admin tokens.
type TokenIssuer struct {
	key    []byte
	ttl    time.Duration
	issuer string
	signer jose.Signer

	// now is replaced in tests.
	now func() time.Time
}

// NewTokenIssuer creates a TokenIssuer signing with secret.
func NewTokenIssuer(secret []byte, ttl time.Duration, issuer string) (*TokenIssuer, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrTokenSecretTooShort
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: secret},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token signer: %w", err)
	}

	return &TokenIssuer{
		key:    secret,
		ttl:    ttl,
		issuer: issuer,
		signer: signer,
		now:    time.Now,
	}, nil
}

// Issue signs a new admin token for subject.
func (t *TokenIssuer) Issue(subject string) (Token, error) {
	now := t.now()
	expires := now.Add(t.ttl)

	claims := Claims{
		Claims: jwt.Claims{
			Subject:  subject,
			Issuer:   t.issuer,
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(expires),
			ID:       uniuri.NewLen(uniuri.UUIDLen),
		},
		Role: RoleAdmin,
	}

	raw, err := jwt.Signed(t.signer).Claims(claims).Serialize()
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return Token{Value: raw, ExpiresAt: expires.Truncate(time.Second)}, nil
}

// Verify checks the signature, the issuer, the role and the expiry of raw.
// Every failure is reported as ErrUnauthorized.
func (t *TokenIssuer) Verify(raw string) (*Claims, error) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	var claims Claims
	if err = tok.Claims(t.key, &claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	if claims.Expiry == nil {
		return nil, fmt.Errorf("%w: token without expiry", ErrUnauthorized)
	}

	err = claims.ValidateWithLeeway(jwt.Expected{Issuer: t.issuer, Time: t.now()}, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	if claims.Role != RoleAdmin || claims.Subject == "" {
		return nil, fmt.Errorf("%w: not an admin token", ErrUnauthorized)
	}

	return &claims, nil
}
