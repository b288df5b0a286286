// Package donation implements the admin donation endpoints.
package donation

import (
	"github.com/gofiber/fiber/v3"

	"github.com/kandinsky-studio/design-shop/internal/db/models"
	"github.com/kandinsky-studio/design-shop/internal/lifecycle"
	"github.com/kandinsky-studio/design-shop/internal/web/handler"
)

const (
	// Path is the base path for admin donation handlers.
	Path = "/donations"
)

// Service is the admin donation handler service.
type Service struct {
	handler.Service
	lifecycle *lifecycle.Service
}

// Handler is the admin donation handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the admin donation routes behind the admin guard.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Lifecycle == nil || deps.RequireAdmin == nil {
		return handler.ErrNilDeps
	}

	s.lifecycle = deps.Lifecycle

	router.Get(Path, deps.RequireAdmin, s.List)

	return nil
}

// List returns donations newest first, filtered by status and paginated like
// the order list.
func (s *Service) List(c fiber.Ctx) error {
	donations, err := s.lifecycle.ListDonations(c.Context())
	if err != nil {
		return err
	}

	status := c.Query("status")

	filtered := make([]models.Donation, 0, len(donations))
	for _, d := range donations {
		if status == "" || string(d.Status) == status {
			filtered = append(filtered, d)
		}
	}

	return c.JSON(handler.Paginate(c, filtered))
}
