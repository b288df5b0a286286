package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kandinsky-studio/design-shop/internal/db/controller/donation"
	"github.com/kandinsky-studio/design-shop/internal/db/controller/order"
	"github.com/kandinsky-studio/design-shop/internal/metrics"
	"github.com/kandinsky-studio/design-shop/internal/payment"
)

// CreateOrderCheckout records a pending order and opens a checkout session for it.
func (s *Service) CreateOrderCheckout(ctx context.Context, in OrderIntent) (payment.Session, error) {
	o, pkg, err := s.RecordOrderIntent(ctx, in)
	if err != nil {
		return payment.Session{}, err
	}

	session, err := s.gateway.CreateOrderSession(ctx, o, pkg)
	if err != nil {
		metrics.CheckoutSession(string(payment.KindOrder), metrics.OutcomeFailed)
		log.Error().Err(err).Str("order", o.ID).Msg("failed to create checkout session")

		return payment.Session{}, err
	}

	if err = s.AttachSession(ctx, payment.KindOrder, o.ID, session.ID); err != nil {
		return payment.Session{}, err
	}

	metrics.CheckoutSession(string(payment.KindOrder), metrics.OutcomeOK)

	return session, nil
}

// CreateDonationCheckout records a pending donation and opens a checkout session for it.
func (s *Service) CreateDonationCheckout(ctx context.Context, in DonationIntent) (payment.Session, error) {
	d, err := s.RecordDonationIntent(ctx, in)
	if err != nil {
		return payment.Session{}, err
	}

	session, err := s.gateway.CreateDonationSession(ctx, d)
	if err != nil {
		metrics.CheckoutSession(string(payment.KindDonation), metrics.OutcomeFailed)
		log.Error().Err(err).Str("donation", d.ID).Msg("failed to create checkout session")

		return payment.Session{}, err
	}

	if err = s.AttachSession(ctx, payment.KindDonation, d.ID, session.ID); err != nil {
		return payment.Session{}, err
	}

	metrics.CheckoutSession(string(payment.KindDonation), metrics.OutcomeOK)

	return session, nil
}

// AttachSession stores the provider session id on an order or donation.
// It is the key clients use to fetch the record after checkout.
func (s *Service) AttachSession(ctx context.Context, kind payment.Kind, recordID, sessionID string) error {
	var err error

	switch kind {
	case payment.KindOrder:
		err = order.AttachSession(ctx, s.db, recordID, sessionID)
		if errors.Is(err, order.ErrOrderNotFound) {
			return newError(ErrNotFound, "order not found")
		}
	case payment.KindDonation:
		err = donation.AttachSession(ctx, s.db, recordID, sessionID)
		if errors.Is(err, donation.ErrDonationNotFound) {
			return newError(ErrNotFound, "donation not found")
		}
	default:
		return newError(ErrValidation, "unknown record kind %q", kind)
	}

	if err != nil {
		return fmt.Errorf("failed to attach session: %w", err)
	}

	return nil
}
