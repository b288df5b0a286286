// Package dashboard provides the admin dashboard numbers.
package dashboard

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/kandinsky-studio/design-shop/internal/lifecycle"
	"github.com/kandinsky-studio/design-shop/internal/web/handler"
)

const (
	// Path is the path to the dashboard stats.
	Path = "/admin/stats"
)

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	lifecycle *lifecycle.Service
}

// Handler is the dashboard handler.
var Handler = Service{} //nolint:gochecknoglobals

// Stats are the dashboard numbers with display amounts.
type Stats struct {
	lifecycle.Stats
	RevenueFormatted        string `json:"revenueFormatted"`
	DonationAmountFormatted string `json:"donationAmountFormatted"`
}

// Init registers the dashboard route behind the admin guard.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Lifecycle == nil || deps.RequireAdmin == nil {
		return handler.ErrNilDeps
	}

	s.lifecycle = deps.Lifecycle

	router.Get(Path, deps.RequireAdmin, s.Get)

	return nil
}

// Get returns order counts per status, revenue and donation totals.
func (s *Service) Get(c fiber.Ctx) error {
	st, err := s.lifecycle.Stats(c.Context())
	if err != nil {
		return err
	}

	log.Debug().Int64("orders", st.TotalOrders).Int64("donations", st.Donations).Msg("dashboard stats computed")

	return c.JSON(Stats{
		Stats:                   st,
		RevenueFormatted:        handler.FormatUSD(st.Revenue),
		DonationAmountFormatted: handler.FormatUSD(st.DonationAmount),
	})
}
