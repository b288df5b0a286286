package lifecycle

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/kandinsky-studio/design-shop/internal/db/controller/donation"
	"github.com/kandinsky-studio/design-shop/internal/db/controller/order"
	"github.com/kandinsky-studio/design-shop/internal/db/models"
)

// StatusUpdate is an admin request to change an order status.
type StatusUpdate struct {
	OrderID string
	Status  string
	// Force writes edges missing from the transition table. Forced changes
	// are flagged in the audit trail.
	Force bool
	Actor string
}

// UpdateOrderStatus changes an order status along the transition table, or
// along any edge when forced. Writing the current status again is a no-op.
func (s *Service) UpdateOrderStatus(ctx context.Context, upd StatusUpdate) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(upd.Status)
	if !ok {
		return nil, newError(ErrValidation, "unknown order status %q", upd.Status)
	}

	o, err := s.getOrder(ctx, upd.OrderID)
	if err != nil {
		return nil, err
	}

	if o.Status == next {
		return o, nil
	}

	allowed := o.Status.CanTransitionTo(next)
	if !allowed && !upd.Force {
		if o.Status.IsTerminal() {
			return nil, newError(ErrInvalidTransition, "order is %s, reopening it needs force", o.Status)
		}

		return nil, newError(ErrInvalidTransition, "cannot change order status from %s to %s", o.Status, next)
	}

	if !allowed {
		log.Warn().Str("order", o.ID).Str("from", o.Status.String()).Str("to", next.String()).
			Bool("reopened", o.Status.IsTerminal()).Str("actor", upd.Actor).
			Msg("forcing order status outside the transition table")
	}

	err = order.UpdateStatus(ctx, s.db, order.Transition{
		OrderID: o.ID,
		From:    o.Status,
		To:      next,
		Forced:  !allowed,
		Actor:   upd.Actor,
	})
	if err != nil {
		if errors.Is(err, order.ErrStatusChanged) {
			return nil, newError(ErrInvalidTransition, "order status changed meanwhile, reload and retry")
		}

		return nil, err
	}

	log.Info().Str("order", o.ID).Str("from", o.Status.String()).Str("to", next.String()).
		Str("actor", upd.Actor).Msg("order status updated")

	return s.getOrder(ctx, o.ID)
}

func (s *Service) getOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := order.GetByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, newError(ErrNotFound, "order not found")
		}

		return nil, err
	}

	return o, nil
}

// OrderHistory returns the status audit trail of an order.
func (s *Service) OrderHistory(ctx context.Context, id string) ([]models.OrderStatusChange, error) {
	if _, err := s.getOrder(ctx, id); err != nil {
		return nil, err
	}

	return order.History(ctx, s.db, id)
}

// ListOrders returns all orders, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	return order.List(ctx, s.db)
}

// ListDonations returns all donations, newest first.
func (s *Service) ListDonations(ctx context.Context) ([]models.Donation, error) {
	return donation.List(ctx, s.db)
}

// Stats summarises orders and donations for the admin dashboard.
type Stats struct {
	TotalOrders    int64                        `json:"totalOrders"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"ordersByStatus"`
	// Revenue sums all orders that were not cancelled.
	Revenue        int64 `json:"revenue"`
	Donations      int64 `json:"donations"`
	DonationAmount int64 `json:"donationAmount"`
}

// Stats computes the dashboard numbers.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := order.CountByStatus(ctx, s.db)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{OrdersByStatus: make(map[models.OrderStatus]int64, len(models.OrderStatuses))}
	for _, status := range models.OrderStatuses {
		st.OrdersByStatus[status] = 0
	}

	for _, c := range counts {
		st.OrdersByStatus[c.Status] = c.Count
		st.TotalOrders += c.Count
	}

	if st.Revenue, err = order.Revenue(ctx, s.db); err != nil {
		return Stats{}, err
	}

	if st.Donations, st.DonationAmount, err = donation.Totals(ctx, s.db); err != nil {
		return Stats{}, err
	}

	return st, nil
}
