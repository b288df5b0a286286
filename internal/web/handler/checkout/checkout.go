// Package checkout implements the storefront payment endpoints: starting a
// checkout session and looking up the record of a finished session.
package checkout

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/kandinsky-studio/design-shop/internal/credentials"
	"github.com/kandinsky-studio/design-shop/internal/db/models"
	"github.com/kandinsky-studio/design-shop/internal/lifecycle"
	"github.com/kandinsky-studio/design-shop/internal/web/handler"
)

const (
	// OrderSessionPath starts a checkout for a package order.
	OrderSessionPath = "/create-checkout-session"
	// DonationSessionPath starts a checkout for a donation.
	DonationSessionPath = "/create-donation-session"
	// OrderLookupPath returns the order of a checkout session.
	OrderLookupPath = "/orders/session/:sessionId"
	// DonationLookupPath returns the donation of a checkout session.
	DonationLookupPath = "/donations/session/:sessionId"
	// PublishableKeyPath returns the key the storefront initialises Stripe.js with.
	PublishableKeyPath = "/settings/stripe-publishable-key"
)

// Service is the checkout handler service.
type Service struct {
	handler.Service
	lifecycle *lifecycle.Service
	keys      *credentials.Resolver
}

// Handler is the checkout handler.
var Handler = Service{} //nolint:gochecknoglobals

// Order is an order with its display amount.
type Order struct {
	models.Order
	AmountFormatted string `json:"amountFormatted"`
}

// Donation is a donation with its display amount.
type Donation struct {
	models.Donation
	AmountFormatted string `json:"amountFormatted"`
}

// Init registers the checkout routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Lifecycle == nil || deps.Credentials == nil {
		return handler.ErrNilDeps
	}

	s.lifecycle = deps.Lifecycle
	s.keys = deps.Credentials

	router.Post(OrderSessionPath, s.CreateOrderSession)
	router.Post(DonationSessionPath, s.CreateDonationSession)
	router.Get(OrderLookupPath, s.OrderBySession)
	router.Get(DonationLookupPath, s.DonationBySession)
	router.Get(PublishableKeyPath, s.PublishableKey)

	return nil
}

// CreateOrderSession records a pending order and returns its checkout session.
func (s *Service) CreateOrderSession(c fiber.Ctx) error {
	var in lifecycle.OrderIntent
	if err := c.Bind().Body(&in); err != nil {
		log.Debug().Err(err).Msg("can not decode order intent")

		return handler.ErrInvalidBody
	}

	session, err := s.lifecycle.CreateOrderCheckout(c.Context(), in)
	if err != nil {
		return err
	}

	return c.JSON(session)
}

// CreateDonationSession records a pending donation and returns its checkout session.
func (s *Service) CreateDonationSession(c fiber.Ctx) error {
	var in lifecycle.DonationIntent
	if err := c.Bind().Body(&in); err != nil {
		log.Debug().Err(err).Msg("can not decode donation intent")

		return handler.ErrInvalidBody
	}

	session, err := s.lifecycle.CreateDonationCheckout(c.Context(), in)
	if err != nil {
		return err
	}

	return c.JSON(session)
}

// OrderBySession returns the order paid with a checkout session.
func (s *Service) OrderBySession(c fiber.Ctx) error {
	o, err := s.lifecycle.OrderBySession(c.Context(), c.Params("sessionId"))
	if err != nil {
		return err
	}

	return c.JSON(Order{Order: *o, AmountFormatted: handler.FormatUSD(o.Price)})
}

// DonationBySession returns the donation paid with a checkout session.
func (s *Service) DonationBySession(c fiber.Ctx) error {
	d, err := s.lifecycle.DonationBySession(c.Context(), c.Params("sessionId"))
	if err != nil {
		return err
	}

	return c.JSON(Donation{Donation: *d, AmountFormatted: handler.FormatUSD(d.Amount)})
}

// PublishableKey returns the effective publishable key, possibly empty.
func (s *Service) PublishableKey(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"publishableKey": s.keys.PublishableKey(c.Context())})
}
