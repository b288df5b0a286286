// Package stripe provides the admin handlers for the payment provider keys.
package stripe

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/kandinsky-studio/design-shop/internal/credentials"
	"github.com/kandinsky-studio/design-shop/internal/web/handler"
	authmiddleware "github.com/kandinsky-studio/design-shop/internal/web/middleware/auth"
)

const (
	// Path is the path to the stored provider keys.
	Path = "/settings"
)

// Service is the provider keys handler service.
type Service struct {
	handler.Service
	keys *credentials.Resolver
}

// Handler is the provider keys handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the settings routes behind the admin guard.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Credentials == nil || deps.RequireAdmin == nil {
		return handler.ErrNilDeps
	}

	s.keys = deps.Credentials

	router.Get(Path, deps.RequireAdmin, s.Get)
	router.Put(Path, deps.RequireAdmin, s.Put)

	return nil
}

// Get returns the stored keys with secrets masked.
func (s *Service) Get(c fiber.Ctx) error {
	keys, err := s.keys.Stored(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(keys)
}

// Put saves the submitted keys. Omitted and masked values keep the stored
// secret, empty values remove it so the environment default applies again.
func (s *Service) Put(c fiber.Ctx) error {
	var upd credentials.Update
	if err := c.Bind().Body(&upd); err != nil {
		return handler.ErrInvalidBody
	}

	if err := s.keys.Save(c.Context(), upd); err != nil {
		return err
	}

	log.Info().Str("actor", authmiddleware.Subject(c)).Msg("payment provider keys updated")

	return s.Get(c)
}
