// Package payment adapts Stripe Checkout to the shop: it creates checkout
// sessions, pulls their payment state and parses webhook events.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/kandinsky-studio/design-shop/internal/config"
	"github.com/kandinsky-studio/design-shop/internal/db/models"
)

var (
	// ErrGateway wraps every failed call to the payment provider.
	ErrGateway = errors.New("payment provider request failed")
	// ErrSignatureInvalid is returned for webhook payloads that fail verification.
	ErrSignatureInvalid = errors.New("webhook signature verification failed")
	// ErrMalformedEvent is returned for webhook payloads that can not be decoded.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// Kind tells which record type a checkout session pays for.
type Kind string

const (
	// KindOrder marks sessions created for orders.
	KindOrder Kind = "order"
	// KindDonation marks sessions created for donations.
	KindDonation Kind = "donation"
)

// Metadata keys written onto checkout sessions.
const (
	MetaType         = "type"
	MetaOrderID      = "orderId"
	MetaPackageID    = "packageId"
	MetaCustomerName = "customerName"
	MetaDonationID   = "donationId"
	MetaDonorName    = "donorName"
)

// Session is a created checkout session.
type Session struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// Status is the payment state of a checkout session.
type Status struct {
	Paid            bool
	PaymentIntentID string
}

// Event is a webhook event reduced to what reconciliation needs.
// The checkout fields are only set for checkout.session.completed.
type Event struct {
	ID              string
	Type            string
	ReferenceID     string
	Kind            Kind
	SessionID       string
	PaymentIntentID string
	Paid            bool
}

// KeySource resolves the secret API key per call.
type KeySource interface {
	SecretKey(ctx context.Context) string
}

// Stripe creates and inspects Stripe Checkout sessions.
type Stripe struct {
	keys      KeySource
	backends  *stripe.Backends
	clientURL string
}

// New creates a Stripe gateway. Redirect urls are built from the client url.
func New(keys KeySource, cfg *config.Config) *Stripe {
	backendCfg := &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: cfg.Stripe.Timeout},
	}

	// stripe-mock or a proxy
	if cfg.Stripe.APIBase != "" {
		backendCfg.URL = stripe.String(cfg.Stripe.APIBase)
	}

	return &Stripe{
		keys:      keys,
		backends:  stripe.NewBackendsWithConfig(backendCfg),
		clientURL: cfg.Webserver.ClientURL,
	}
}

func (s *Stripe) client(ctx context.Context) *client.API {
	return client.New(s.keys.SecretKey(ctx), s.backends)
}

// CreateOrderSession creates a one line item session for the order's package
// at the price snapshotted on the order.
func (s *Stripe) CreateOrderSession(ctx context.Context, order *models.Order, pkg *models.Package) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(order.PackageName + " Design Package"),
						Description: stripe.String(pkg.Description),
					},
					UnitAmount: stripe.Int64(order.Price),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.clientURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.clientURL + "/packages"),
		CustomerEmail:     stripe.String(order.CustomerEmail),
		ClientReferenceID: stripe.String(order.ID),
	}
	params.Context = ctx
	params.AddMetadata(MetaType, string(KindOrder))
	params.AddMetadata(MetaOrderID, order.ID)
	params.AddMetadata(MetaPackageID, order.PackageID)
	params.AddMetadata(MetaCustomerName, order.CustomerName)

	return s.create(ctx, params)
}

// CreateDonationSession creates a session for a donation.
func (s *Stripe) CreateDonationSession(ctx context.Context, donation *models.Donation) (Session, error) {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String("Donation"),
	}
	if donation.Message != "" {
		product.Description = stripe.String(donation.Message)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(string(stripe.CurrencyUSD)),
					ProductData: product,
					UnitAmount:  stripe.Int64(donation.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.clientURL + "/donate/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.clientURL + "/donate"),
		CustomerEmail:     stripe.String(donation.DonorEmail),
		ClientReferenceID: stripe.String(donation.ID),
	}
	params.Context = ctx
	params.AddMetadata(MetaType, string(KindDonation))
	params.AddMetadata(MetaDonationID, donation.ID)
	params.AddMetadata(MetaDonorName, donation.DonorName)

	return s.create(ctx, params)
}

func (s *Stripe) create(ctx context.Context, params *stripe.CheckoutSessionParams) (Session, error) {
	cs, err := s.client(ctx).CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("%w: create checkout session: %w", ErrGateway, err)
	}

	return Session{ID: cs.ID, URL: cs.URL}, nil
}

// RetrieveSessionStatus pulls the current payment state of a session.
func (s *Stripe) RetrieveSessionStatus(ctx context.Context, sessionID string) (Status, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := s.client(ctx).CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return Status{}, fmt.Errorf("%w: retrieve checkout session: %w", ErrGateway, err)
	}

	return sessionStatus(cs), nil
}

func sessionStatus(cs *stripe.CheckoutSession) Status {
	st := Status{Paid: cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid}
	if cs.PaymentIntent != nil {
		st.PaymentIntentID = cs.PaymentIntent.ID
	}

	return st
}

// CarriesSession reports whether events of type t hold a checkout session.
// Delayed payment methods complete a session unpaid and confirm the payment
// with a later async_payment_succeeded event.
func CarriesSession(t stripe.EventType) bool {
	switch t {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		return true
	default:
		return false
	}
}

// ParseWebhookEvent verifies payload against the Stripe-Signature header when
// a signing secret is set. Without a secret the payload is trusted as is.
func ParseWebhookEvent(payload []byte, signature, secret string) (Event, error) {
	var (
		event stripe.Event
		err   error
	)

	if secret != "" {
		event, err = webhook.ConstructEventWithOptions(payload, signature, secret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			return Event{}, fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
		}
	} else {
		log.Warn().Msg("no webhook secret configured, accepting unverified webhook payload")

		if err = json.Unmarshal(payload, &event); err != nil {
			return Event{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
		}
	}

	out := Event{ID: event.ID, Type: string(event.Type)}

	if !CarriesSession(event.Type) {
		return out, nil
	}

	if event.Data == nil {
		return out, fmt.Errorf("%w: event without data", ErrMalformedEvent)
	}

	var cs stripe.CheckoutSession
	if err = json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return out, fmt.Errorf("%w: checkout session: %w", ErrMalformedEvent, err)
	}

	st := sessionStatus(&cs)

	out.ReferenceID = cs.ClientReferenceID
	out.SessionID = cs.ID
	out.PaymentIntentID = st.PaymentIntentID
	out.Paid = st.Paid
	out.Kind = KindOrder

	if Kind(cs.Metadata[MetaType]) == KindDonation {
		out.Kind = KindDonation
	}

	if out.ReferenceID == "" {
		out.ReferenceID = cs.Metadata[MetaOrderID]
		if out.Kind == KindDonation {
			out.ReferenceID = cs.Metadata[MetaDonationID]
		}
	}

	return out, nil
}
