package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/kandinsky-studio/design-shop/internal/auth"
	"github.com/kandinsky-studio/design-shop/internal/config"
	"github.com/kandinsky-studio/design-shop/internal/credentials"
	"github.com/kandinsky-studio/design-shop/internal/lifecycle"
)

// Deps are the services shared by the handlers.
type Deps struct {
	Cfg         *config.Config
	DB          *gorm.DB
	Lifecycle   *lifecycle.Service
	Credentials *credentials.Resolver
	Tokens      *auth.TokenIssuer
	Logins      auth.Chain
	OIDC        OIDCLogin // nil unless oidc login is enabled

	// RequireAdmin guards the admin routes.
	RequireAdmin fiber.Handler
	// LoginLimiter throttles credential submissions. Optional.
	LoginLimiter fiber.Handler
}

// OIDCLogin is the authorization code flow of an OpenID Connect provider.
type OIDCLogin interface {
	GetAuthURL(state string) string
	HandleCallback(ctx context.Context, code string) (string, error)
}
