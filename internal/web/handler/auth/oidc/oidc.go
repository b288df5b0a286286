// Package oidc implements admin login through an OpenID Connect provider.
//
// The login endpoint redirects to the provider with a random state that is
// also stored in a short lived cookie. The callback compares both, lets the
// provider verify the code and hands a bearer token to the admin client in
// the url fragment of <client>/admin, so it never reaches a server log.
package oidc

import (
	"crypto/subtle"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/kandinsky-studio/design-shop/internal/auth"
	"github.com/kandinsky-studio/design-shop/internal/config"
	"github.com/kandinsky-studio/design-shop/internal/metrics"
	"github.com/kandinsky-studio/design-shop/internal/web/handler"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = "/auth/oidc/login"

	// CallbackPath is the path for OIDC callback.
	CallbackPath = "/auth/oidc/callback"

	// StateCookie holds the state of a running login.
	StateCookie = "oidc_state"

	// AdminPath is the client page receiving the token.
	AdminPath = "/admin"

	stateTTL = 5 * time.Minute
)

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	provider handler.OIDCLogin
	tokens   *auth.TokenIssuer
}

// Handler is the OIDC handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the OIDC routes when a provider is configured.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Cfg == nil || deps.Tokens == nil {
		return handler.ErrNilDeps
	}

	if deps.OIDC == nil {
		log.Info().Msg("OIDC authentication is disabled by configuration")
		return nil
	}

	s.cfg = deps.Cfg
	s.provider = deps.OIDC
	s.tokens = deps.Tokens

	router.Get(LoginPath, s.Login)
	router.Get(CallbackPath, s.Callback)

	return nil
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c fiber.Ctx) error {
	state := auth.GenerateStateToken()

	c.Cookie(&fiber.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     handler.APIPath + "/auth/oidc",
		MaxAge:   int(stateTTL.Seconds()),
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect().To(s.provider.GetAuthURL(state))
}

// Callback handles the OIDC callback.
func (s *Service) Callback(c fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	expected := c.Cookies(StateCookie)

	if code == "" || state == "" {
		log.Error().Msg("missing code or state in OIDC callback")
		return fiber.NewError(fiber.StatusBadRequest, "invalid callback parameters")
	}

	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		log.Error().Str("ip", c.IP()).Msg("invalid OIDC state token")
		return fiber.NewError(fiber.StatusBadRequest, "invalid state token")
	}

	c.ClearCookie(StateCookie)

	subject, err := s.provider.HandleCallback(c.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("OIDC authentication failed")
		metrics.Login(auth.ProviderOIDC, metrics.OutcomeFailed)

		return c.Redirect().To(s.cfg.Webserver.ClientURL + AdminPath + "#error=access_denied")
	}

	tok, err := s.tokens.Issue(subject)
	if err != nil {
		return err
	}

	log.Info().Str("subject", subject).Msg("admin logged in via OIDC")
	metrics.Login(auth.ProviderOIDC, metrics.OutcomeOK)

	fragment := url.Values{}
	fragment.Set("token", tok.Value)
	fragment.Set("expiresAt", strconv.FormatInt(tok.ExpiresAt.Unix(), 10))

	return c.Redirect().To(s.cfg.Webserver.ClientURL + AdminPath + "#" + fragment.Encode())
}
