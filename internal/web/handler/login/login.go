// Package login exchanges admin credentials for a bearer token.
package login

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/kandinsky-studio/design-shop/internal/auth"
	"github.com/kandinsky-studio/design-shop/internal/metrics"
	"github.com/kandinsky-studio/design-shop/internal/web/handler"
)

const (
	// Path is the path of the login endpoint.
	Path = "/auth/login"

	// MethodsPath lists the enabled login methods.
	MethodsPath = "/auth/methods"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	tokens    *auth.TokenIssuer
	providers auth.Chain
	oidc      bool
}

// Handler is the login handler.
var Handler = Service{} //nolint:gochecknoglobals

// Request is the login body. Method selects one provider, empty tries all.
type Request struct {
	auth.Credentials
	Method string `json:"method"`
}

// Methods tells the admin client which login forms to offer.
type Methods struct {
	Local bool `json:"local"`
	LDAP  bool `json:"ldap"`
	OIDC  bool `json:"oidc"`
}

// Init registers the login routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Tokens == nil {
		return handler.ErrNilDeps
	}

	s.tokens = deps.Tokens
	s.providers = deps.Logins
	s.oidc = deps.OIDC != nil

	if deps.LoginLimiter != nil {
		router.Post(Path, deps.LoginLimiter, s.Post)
	} else {
		router.Post(Path, s.Post)
	}

	router.Get(MethodsPath, s.Methods)

	return nil
}

// Methods returns the enabled login methods.
func (s *Service) Methods(c fiber.Ctx) error {
	m := Methods{OIDC: s.oidc}

	for _, p := range s.providers {
		switch p.Name() {
		case auth.ProviderLocal:
			m.Local = true
		case auth.ProviderLDAP:
			m.LDAP = true
		}
	}

	return c.JSON(m)
}

// Post checks the credentials and issues a token.
func (s *Service) Post(c fiber.Ctx) error {
	var req Request
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, ErrInvalidFormData.Error())
	}

	providers, err := s.pickProviders(req.Method)
	if err != nil {
		return err
	}

	subject, provider, err := providers.Authenticate(c.Context(), req.Credentials)
	if err != nil {
		log.Warn().Str("username", req.Username).Str("provider", provider).Str("ip", c.IP()).Msg("admin login failed")
		metrics.Login(provider, metrics.OutcomeFailed)

		return auth.ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(subject)
	if err != nil {
		return err
	}

	log.Info().Str("subject", subject).Str("provider", provider).Msg("admin logged in")
	metrics.Login(provider, metrics.OutcomeOK)

	return c.JSON(tok)
}

// pickProviders returns the providers to try for method.
func (s *Service) pickProviders(method string) (auth.Chain, error) {
	if len(s.providers) == 0 {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, ErrNoAuthMethod.Error())
	}

	if method == "" {
		return s.providers, nil
	}

	for _, p := range s.providers {
		if p.Name() == method {
			return auth.Chain{p}, nil
		}
	}

	return nil, fiber.NewError(fiber.StatusBadRequest, ErrInvalidAuthMethod.Error())
}
