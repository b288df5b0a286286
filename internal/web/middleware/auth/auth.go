package auth

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	shopauth "github.com/kandinsky-studio/design-shop/internal/auth"
)

const (
	// ClaimsLocalsKey is the fiber.Locals key of the verified claims.
	ClaimsLocalsKey = "adminClaims"

	bearerPrefix = "bearer "
)

// Verifier checks a raw bearer token.
type Verifier interface {
	Verify(raw string) (*shopauth.Claims, error)
}

// New returns a middleware that only lets requests with a valid admin token pass.
func New(v Verifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		raw, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return shopauth.ErrUnauthorized
		}

		claims, err := v.Verify(raw)
		if err != nil {
			return err
		}

		c.Locals(ClaimsLocalsKey, claims)

		return c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])

	return token, token != ""
}

// Claims returns the claims stored by the middleware, or nil.
func Claims(c fiber.Ctx) *shopauth.Claims {
	claims, _ := c.Locals(ClaimsLocalsKey).(*shopauth.Claims)

	return claims
}

// Subject returns the admin subject of the request, or "" outside the middleware.
func Subject(c fiber.Ctx) string {
	if claims := Claims(c); claims != nil {
		return claims.Subject
	}

	return ""
}
