package lifecycle

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v81"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kandinsky-studio/design-shop/internal/db/controller/donation"
	"github.com/kandinsky-studio/design-shop/internal/db/controller/order"
	"github.com/kandinsky-studio/design-shop/internal/db/models"
	"github.com/kandinsky-studio/design-shop/internal/metrics"
	"github.com/kandinsky-studio/design-shop/internal/payment"
)

// ReconcileFromWebhook applies a verified provider event. Completed checkout
// sessions that are paid, and sessions whose delayed payment succeeded, mark
// their order paid or their donation completed. Redelivered events, unknown
// references and other event types are acknowledged without effect.
func (s *Service) ReconcileFromWebhook(ctx context.Context, ev payment.Event) error {
	switch stripe.EventType(ev.Type) {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
	case stripe.EventTypePaymentIntentPaymentFailed, stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		log.Warn().Str("event", ev.ID).Msg("payment failed")
		metrics.WebhookEvent(ev.Type, metrics.OutcomeIgnored)

		return nil
	default:
		log.Info().Str("event", ev.ID).Str("type", ev.Type).Msg("ignoring webhook event")
		metrics.WebhookEvent(ev.Type, metrics.OutcomeIgnored)

		return nil
	}

	outcome := metrics.OutcomeIgnored

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ev.ID != "" {
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.WebhookEvent{
				EventID:     ev.ID,
				Type:        ev.Type,
				ReferenceID: ev.ReferenceID,
			})
			if result.Error != nil {
				return result.Error
			}

			if result.RowsAffected == 0 {
				outcome = metrics.OutcomeDuplicate

				return nil
			}
		}

		if !ev.Paid {
			// the async_payment_succeeded event settles it later
			log.Info().Str("event", ev.ID).Str("session", ev.SessionID).Msg("checkout completed without payment")

			return nil
		}

		changed, err := markPaid(ctx, tx, ev.Kind, ev.ReferenceID, ev.PaymentIntentID, models.SourceWebhook)
		if err != nil {
			return err
		}

		if changed {
			outcome = metrics.OutcomeOK
		}

		return nil
	})
	if err != nil {
		metrics.WebhookEvent(ev.Type, metrics.OutcomeFailed)

		return err
	}

	metrics.WebhookEvent(ev.Type, outcome)

	return nil
}

// markPaid moves a pending record forward and reports whether it changed.
// A missing record is logged, not an error.
func markPaid(
	ctx context.Context, db *gorm.DB, kind payment.Kind, id, paymentIntent string, source models.StatusChangeSource,
) (bool, error) {
	var (
		changed bool
		err     error
	)

	switch kind {
	case payment.KindDonation:
		changed, err = donation.MarkCompleted(ctx, db, id, paymentIntent)
	default:
		changed, err = order.MarkPaid(ctx, db, id, paymentIntent, source)
	}

	if err != nil {
		return false, err
	}

	if changed {
		metrics.Reconciled(string(source), string(kind))
		log.Info().Str("kind", string(kind)).Str("id", id).Str("source", string(source)).
			Str("payment_intent", paymentIntent).Msg("payment confirmed")
	} else {
		log.Debug().Str("kind", string(kind)).Str("id", id).Msg("record not pending or unknown, nothing to reconcile")
	}

	return changed, nil
}

// OrderBySession returns the order of a checkout session. While it is still
// pending the provider is asked for the session state first. Provider failures
// are logged and the stored record is returned.
func (s *Service) OrderBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	o, err := order.GetBySession(ctx, s.db, sessionID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, newError(ErrNotFound, "order not found")
		}

		return nil, err
	}

	if o.Status != models.OrderStatusPending || !s.pulledPaid(ctx, payment.KindOrder, o.ID, sessionID) {
		return o, nil
	}

	fresh, err := order.GetByID(ctx, s.db, o.ID)
	if err != nil {
		log.Error().Err(err).Str("order", o.ID).Msg("failed to reload order")

		return o, nil
	}

	return fresh, nil
}

// DonationBySession is OrderBySession for donations.
func (s *Service) DonationBySession(ctx context.Context, sessionID string) (*models.Donation, error) {
	d, err := donation.GetBySession(ctx, s.db, sessionID)
	if err != nil {
		if errors.Is(err, donation.ErrDonationNotFound) {
			return nil, newError(ErrNotFound, "donation not found")
		}

		return nil, err
	}

	if d.Status != models.DonationStatusPending || !s.pulledPaid(ctx, payment.KindDonation, d.ID, sessionID) {
		return d, nil
	}

	fresh, err := donation.GetByID(ctx, s.db, d.ID)
	if err != nil {
		log.Error().Err(err).Str("donation", d.ID).Msg("failed to reload donation")

		return d, nil
	}

	return fresh, nil
}

// pulledPaid asks the provider for the session state and applies a payment.
// It reports whether the stored record may have changed.
func (s *Service) pulledPaid(ctx context.Context, kind payment.Kind, id, sessionID string) bool {
	st, err := s.gateway.RetrieveSessionStatus(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("failed to pull session status, returning stored record")

		return false
	}

	if !st.Paid {
		return false
	}

	if _, err = markPaid(ctx, s.db, kind, id, st.PaymentIntentID, models.SourcePoll); err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("failed to apply pulled payment")

		return false
	}

	// a concurrent webhook may have won, reload either way
	return true
}
