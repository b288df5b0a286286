// Package order implements the admin order endpoints.
package order

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/kandinsky-studio/design-shop/internal/db/models"
	"github.com/kandinsky-studio/design-shop/internal/lifecycle"
	"github.com/kandinsky-studio/design-shop/internal/web/handler"
	authmiddleware "github.com/kandinsky-studio/design-shop/internal/web/middleware/auth"
)

const (
	// Path is the base path for admin order handlers.
	Path = "/orders"
)

// Service is the admin order handler service.
type Service struct {
	handler.Service
	lifecycle *lifecycle.Service
	validator *validator.Validate
}

// Handler is the admin order handler.
var Handler = Service{} //nolint:gochecknoglobals

// StatusRequest is the body of a status change.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
	Force  bool   `json:"force"`
}

// Init registers the admin order routes behind the admin guard.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Lifecycle == nil || deps.RequireAdmin == nil {
		return handler.ErrNilDeps
	}

	s.lifecycle = deps.Lifecycle
	s.validator = validator.New()

	router.Get(Path, deps.RequireAdmin, s.List)
	router.Get(Path+"/:id/history", deps.RequireAdmin, s.History)
	router.Patch(Path+"/:id", deps.RequireAdmin, s.UpdateStatus)

	return nil
}

// List returns orders newest first. Optional query parameters: status,
// search (customer name or email), page and pageSize.
func (s *Service) List(c fiber.Ctx) error {
	orders, err := s.lifecycle.ListOrders(c.Context())
	if err != nil {
		return err
	}

	status := c.Query("status")
	search := c.Query("search")

	filtered := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if includeOrder(o, status, search) {
			filtered = append(filtered, o)
		}
	}

	return c.JSON(handler.Paginate(c, filtered))
}

// includeOrder returns true if the order matches the status and search filters.
func includeOrder(o models.Order, status, search string) bool {
	if status != "" && string(o.Status) != status {
		return false
	}

	if search != "" && !handler.Contains(o.CustomerName, search) && !handler.Contains(o.CustomerEmail, search) {
		return false
	}

	return true
}

// History returns the status audit trail of an order.
func (s *Service) History(c fiber.Ctx) error {
	history, err := s.lifecycle.OrderHistory(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(history)
}

// UpdateStatus changes the status of an order on behalf of the token subject.
func (s *Service) UpdateStatus(c fiber.Ctx) error {
	var req StatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return handler.ErrInvalidBody
	}

	if err := s.validator.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "status is required")
	}

	o, err := s.lifecycle.UpdateOrderStatus(c.Context(), lifecycle.StatusUpdate{
		OrderID: c.Params("id"),
		Status:  req.Status,
		Force:   req.Force,
		Actor:   authmiddleware.Subject(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(o)
}
