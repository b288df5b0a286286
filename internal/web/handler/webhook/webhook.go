// Package webhook receives payment provider events.
package webhook

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/kandinsky-studio/design-shop/internal/credentials"
	"github.com/kandinsky-studio/design-shop/internal/lifecycle"
	"github.com/kandinsky-studio/design-shop/internal/metrics"
	"github.com/kandinsky-studio/design-shop/internal/payment"
	"github.com/kandinsky-studio/design-shop/internal/web/handler"
)

const (
	// Path is the Stripe webhook endpoint.
	Path = "/webhooks/stripe"

	// SignatureHeader carries the event signature.
	SignatureHeader = "Stripe-Signature"
)

// Service is the webhook handler service.
type Service struct {
	handler.Service
	lifecycle *lifecycle.Service
	keys      *credentials.Resolver
}

// Handler is the webhook handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the webhook route.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.Lifecycle == nil || deps.Credentials == nil {
		return handler.ErrNilDeps
	}

	s.lifecycle = deps.Lifecycle
	s.keys = deps.Credentials

	router.Post(Path, s.Post)

	return nil
}

// Post verifies the raw body against the signature header and reconciles the
// event. Events that need no action are acknowledged too.
func (s *Service) Post(c fiber.Ctx) error {
	secret, _ := s.keys.WebhookSecret(c.Context())

	ev, err := payment.ParseWebhookEvent(c.Body(), c.Get(SignatureHeader), secret)
	if err != nil {
		log.Warn().Err(err).Str("ip", c.IP()).Msg("rejected webhook")
		metrics.WebhookEvent(ev.Type, metrics.OutcomeRejected)

		return err
	}

	if err = s.lifecycle.ReconcileFromWebhook(c.Context(), ev); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"received": true})
}
