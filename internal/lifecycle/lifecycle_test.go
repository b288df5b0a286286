package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kandinsky-studio/design-shop/internal/db/controller/catalog"
	"github.com/kandinsky-studio/design-shop/internal/db/controller/order"
	"github.com/kandinsky-studio/design-shop/internal/db/dbtest"
	"github.com/kandinsky-studio/design-shop/internal/db/models"
	"github.com/kandinsky-studio/design-shop/internal/payment"
)

var errProvider = errors.New("provider down")

// fakeGateway hands out sequential session ids and reports whatever status
// the test set for a session.
type fakeGateway struct {
	mu        sync.Mutex
	sessions  int
	status    map[string]payment.Status
	statusErr error
	createErr error
	pulls     int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{status: map[string]payment.Status{}}
}

func (g *fakeGateway) next() payment.Session {
	g.sessions++
	id := fmt.Sprintf("cs_test_%d", g.sessions)

	return payment.Session{ID: id, URL: "https://checkout.test/" + id}
}

func (g *fakeGateway) CreateOrderSession(context.Context, *models.Order, *models.Package) (payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return payment.Session{}, g.createErr
	}

	return g.next(), nil
}

func (g *fakeGateway) CreateDonationSession(context.Context, *models.Donation) (payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return payment.Session{}, g.createErr
	}

	return g.next(), nil
}

func (g *fakeGateway) RetrieveSessionStatus(_ context.Context, sessionID string) (payment.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pulls++

	if g.statusErr != nil {
		return payment.Status{}, g.statusErr
	}

	return g.status[sessionID], nil
}

func (g *fakeGateway) setPaid(sessionID, paymentIntent string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.status[sessionID] = payment.Status{Paid: true, PaymentIntentID: paymentIntent}
}

func newTestService(t *testing.T) (*Service, *fakeGateway, *gorm.DB) {
	t.Helper()

	db := dbtest.Open(t)

	_, err := catalog.Seed(context.Background(), db)
	require.NoError(t, err)

	gw := newFakeGateway()

	return New(db, gw), gw, db
}

func starterIntent() OrderIntent {
	return OrderIntent{
		PackageID:     "starter",
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "a@b.com",
	}
}

func completedEvent(id string, kind payment.Kind, ref, sessionID, paymentIntent string) payment.Event {
	return payment.Event{
		ID:              id,
		Type:            "checkout.session.completed",
		ReferenceID:     ref,
		Kind:            kind,
		SessionID:       sessionID,
		PaymentIntentID: paymentIntent,
		Paid:            true,
	}
}

func TestRecordOrderIntent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	tests := []struct {
		name    string
		in      OrderIntent
		wantErr error
		wantMsg string
	}{
		{
			name: "valid",
			in: OrderIntent{
				PackageID: "professional", CustomerName: "Ada", CustomerEmail: "ada@example.com",
				CustomerPhone: "+1 555 0100", ProjectDescription: "A new landing page",
			},
		},
		{
			name:    "missing email",
			in:      OrderIntent{PackageID: "starter", CustomerName: "Ada"},
			wantErr: ErrValidation,
			wantMsg: "customerEmail is required",
		},
		{
			name:    "missing name and bad email",
			in:      OrderIntent{PackageID: "starter", CustomerEmail: "nope"},
			wantErr: ErrValidation,
			wantMsg: "customerName is required, customerEmail must be a valid email address",
		},
		{
			name:    "blank name only",
			in:      OrderIntent{PackageID: "starter", CustomerName: "   ", CustomerEmail: "a@b.com"},
			wantErr: ErrValidation,
		},
		{
			name:    "unknown package",
			in:      OrderIntent{PackageID: "platinum", CustomerName: "Ada", CustomerEmail: "a@b.com"},
			wantErr: ErrNotFound,
			wantMsg: `package "platinum" not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _, err := svc.RecordOrderIntent(ctx, tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				if tt.wantMsg != "" {
					assert.EqualError(t, err, tt.wantMsg)
				}

				return
			}

			require.NoError(t, err)

			got, err := order.GetByID(ctx, svc.db, o.ID)
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusPending, got.Status)
			assert.Equal(t, tt.in.CustomerName, got.CustomerName)
			assert.Equal(t, tt.in.CustomerEmail, got.CustomerEmail)
			assert.Equal(t, tt.in.CustomerPhone, got.CustomerPhone)
			assert.Equal(t, tt.in.ProjectDescription, got.ProjectDescription)
			assert.Equal(t, "Professional", got.PackageName)
			assert.Equal(t, int64(149900), got.Price)
		})
	}
}

func TestOrderSnapshotSurvivesCatalogChange(t *testing.T) {
	ctx := context.Background()
	svc, _, db := newTestService(t)

	o, _, err := svc.RecordOrderIntent(ctx, starterIntent())
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Package{}).Where("id = ?", "starter").
		Updates(map[string]any{"price": 59900, "name": "Starter Plus"}).Error)

	got, err := order.GetByID(ctx, db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(49900), got.Price)
	assert.Equal(t, "Starter", got.PackageName)
}

func TestRecordDonationIntentBounds(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	tests := []struct {
		amount  int64
		wantErr error
	}{
		{amount: 99, wantErr: ErrRange},
		{amount: 100},
		{amount: 99_999_900},
		{amount: 99_999_901, wantErr: ErrRange},
		{amount: -500, wantErr: ErrRange},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.amount), func(t *testing.T) {
			d, err := svc.RecordDonationIntent(ctx, DonationIntent{Amount: tt.amount, DonorEmail: "d@example.com"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.amount, d.Amount)
			assert.Equal(t, models.DonationStatusPending, d.Status)
		})
	}
}

func TestRecordDonationIntentDonorName(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	d, err := svc.RecordDonationIntent(ctx, DonationIntent{Amount: 1000, DonorEmail: "d@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.AnonymousDonor, d.DonorName)

	d, err = svc.RecordDonationIntent(ctx, DonationIntent{
		Amount: 1000, DonorName: "Grace", DonorEmail: "d@example.com", IsAnonymous: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AnonymousDonor, d.DonorName)

	d, err = svc.RecordDonationIntent(ctx, DonationIntent{Amount: 1000, DonorName: "Grace", DonorEmail: "d@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", d.DonorName)

	_, err = svc.RecordDonationIntent(ctx, DonationIntent{Amount: 1000})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateCheckout(t *testing.T) {
	ctx := context.Background()
	svc, gw, _ := newTestService(t)

	session, err := svc.CreateOrderCheckout(ctx, starterIntent())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)

	o, err := svc.OrderBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	require.NotNil(t, o.StripeSessionID)
	assert.Equal(t, session.ID, *o.StripeSessionID)

	session, err = svc.CreateDonationCheckout(ctx, DonationIntent{Amount: 2500, DonorEmail: "d@example.com"})
	require.NoError(t, err)

	d, err := svc.DonationBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), d.Amount)

	gw.createErr = fmt.Errorf("%w: boom", payment.ErrGateway)

	_, err = svc.CreateOrderCheckout(ctx, starterIntent())
	require.ErrorIs(t, err, payment.ErrGateway)

	_, err = svc.CreateDonationCheckout(ctx, DonationIntent{Amount: 2500, DonorEmail: "d@example.com"})
	require.ErrorIs(t, err, payment.ErrGateway)
}

func TestAttachSessionUnknownRecord(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.AttachSession(context.Background(), payment.KindOrder, "missing", "cs_1")
	require.ErrorIs(t, err, ErrNotFound)

	err = svc.AttachSession(context.Background(), payment.KindDonation, "missing", "cs_1")
	require.ErrorIs(t, err, ErrNotFound)

	err = svc.AttachSession(context.Background(), payment.Kind("gift"), "missing", "cs_1")
	require.ErrorIs(t, err, ErrValidation)
}

// Order for starter, paid by webhook with pi_123, then the same event again.
func TestWebhookScenario(t *testing.T) {
	ctx := context.Background()
	svc, _, db := newTestService(t)

	session, err := svc.CreateOrderCheckout(ctx, starterIntent())
	require.NoError(t, err)

	o, err := order.GetBySession(ctx, db, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Equal(t, int64(49900), o.Price)

	ev := completedEvent("evt_1", payment.KindOrder, o.ID, session.ID, "pi_123")
	require.NoError(t, svc.ReconcileFromWebhook(ctx, ev))

	paid, err := order.GetByID(ctx, db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, paid.Status)
	assert.Equal(t, "pi_123", paid.StripePaymentIntent)

	require.NoError(t, svc.ReconcileFromWebhook(ctx, ev))

	again, err := order.GetByID(ctx, db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, paid.Status, again.Status)
	assert.Equal(t, paid.StripePaymentIntent, again.StripePaymentIntent)
	assert.Equal(t, paid.UpdatedAt, again.UpdatedAt)

	history, err := svc.OrderHistory(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.SourceWebhook, history[0].Source)

	var events int64

	require.NoError(t, db.Model(&models.WebhookEvent{}).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestWebhookRedeliveryWithNewEventID(t *testing.T) {
	ctx := context.Background()
	svc, _, db := newTestService(t)

	session, err := svc.CreateOrderCheckout(ctx, starterIntent())
	require.NoError(t, err)

	o, err := order.GetBySession(ctx, db, session.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ReconcileFromWebhook(ctx, completedEvent("evt_1", payment.KindOrder, o.ID, session.ID, "pi_123")))
	require.NoError(t, svc.ReconcileFromWebhook(ctx, completedEvent("evt_2", payment.KindOrder, o.ID, session.ID, "pi_999")))

	got, err := order.GetByID(ctx, db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", got.StripePaymentIntent)
}

func TestWebhookIgnoredEvents(t *testing.T) {
	ctx := context.Background()
	svc, _, db := newTestService(t)

	o, _, err := svc.RecordOrderIntent(ctx, starterIntent())
	require.NoError(t, err)

	tests := []struct {
		name string
		ev   payment.Event
	}{
		{name: "unknown type", ev: payment.Event{ID: "evt_a", Type: "customer.created"}},
		{name: "payment failed", ev: payment.Event{ID: "evt_b", Type: "payment_intent.payment_failed"}},
		{
			name: "delayed payment failed",
			ev: payment.Event{
				ID: "evt_e", Type: "checkout.session.async_payment_failed", Kind: payment.KindOrder, ReferenceID: o.ID,
			},
		},
		{name: "unknown reference", ev: completedEvent("evt_c", payment.KindOrder, "missing", "cs_x", "pi_1")},
		{
			name: "completed but unpaid",
			ev: payment.Event{
				ID: "evt_d", Type: "checkout.session.completed", Kind: payment.KindOrder, ReferenceID: o.ID,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, svc.ReconcileFromWebhook(ctx, tt.ev))

			got, err := order.GetByID(ctx, db, o.ID)
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusPending, got.Status)
		})
	}
}

func TestWebhookDelayedPayment(t *testing.T) {
	ctx := context.Background()
	svc, _, db := newTestService(t)

	session, err := svc.CreateOrderCheckout(ctx, starterIntent())
	require.NoError(t, err)

	o, err := order.GetBySession(ctx, db, session.ID)
	require.NoError(t, err)

	completed := completedEvent("evt_1", payment.KindOrder, o.ID, session.ID, "")
	completed.Paid = false
	require.NoError(t, svc.ReconcileFromWebhook(ctx, completed))

	got, err := order.GetByID(ctx, db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)

	succeeded := completedEvent("evt_2", payment.KindOrder, o.ID, session.ID, "pi_later")
	succeeded.Type = "checkout.session.async_payment_succeeded"
	require.NoError(t, svc.ReconcileFromWebhook(ctx, succeeded))

	got, err = order.GetByID(ctx, db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	assert.Equal(t, "pi_later", got.StripePaymentIntent)
}

func TestReconcileOnRead(t *testing.T) {
	ctx := context.Background()
	svc, gw, _ := newTestService(t)

	session, err := svc.CreateOrderCheckout(ctx, starterIntent())
	require.NoError(t, err)

	// provider still open
	o, err := svc.OrderBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, o.Status)

	gw.setPaid(session.ID, "pi_123")

	o, err = svc.OrderBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, o.Status)
	assert.Equal(t, "pi_123", o.StripePaymentIntent)

	first := *o
	pulls := gw.pulls

	o, err = svc.OrderBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, o.Status)
	assert.Equal(t, first.StripePaymentIntent, o.StripePaymentIntent)
	assert.Equal(t, first.UpdatedAt, o.UpdatedAt)
	assert.Equal(t, pulls, gw.pulls, "paid records are not pulled again")

	_, err = svc.OrderBySession(ctx, "cs_unknown")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReconcileOnReadProviderFailure(t *testing.T) {
	ctx := context.Background()
	svc, gw, _ := newTestService(t)

	session, err := svc.CreateDonationCheckout(ctx, DonationIntent{Amount: 500, DonorEmail: "d@example.com"})
	require.NoError(t, err)

	gw.statusErr = errProvider

	d, err := svc.DonationBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusPending, d.Status)

	gw.statusErr = nil
	gw.setPaid(session.ID, "pi_777")

	d, err = svc.DonationBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusCompleted, d.Status)
	assert.Equal(t, "pi_777", d.StripePaymentIntent)

	_, err = svc.DonationBySession(ctx, "cs_unknown")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReconcileOrderIndependence(t *testing.T) {
	tests := []struct {
		name         string
		webhookFirst bool
	}{
		{name: "webhook before poll", webhookFirst: true},
		{name: "poll before webhook"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, gw, db := newTestService(t)

			session, err := svc.CreateDonationCheckout(ctx, DonationIntent{Amount: 1000, DonorEmail: "d@example.com"})
			require.NoError(t, err)

			d, err := svc.DonationBySession(ctx, session.ID)
			require.NoError(t, err)

			gw.setPaid(session.ID, "pi_42")
			ev := completedEvent("evt_1", payment.KindDonation, d.ID, session.ID, "pi_42")

			if tt.webhookFirst {
				require.NoError(t, svc.ReconcileFromWebhook(ctx, ev))
				_, err = svc.DonationBySession(ctx, session.ID)
			} else {
				_, err = svc.DonationBySession(ctx, session.ID)
				require.NoError(t, err)
				err = svc.ReconcileFromWebhook(ctx, ev)
			}

			require.NoError(t, err)

			var got models.Donation

			require.NoError(t, db.First(&got, "id = ?", d.ID).Error)
			assert.Equal(t, models.DonationStatusCompleted, got.Status)
			assert.Equal(t, "pi_42", got.StripePaymentIntent)
		})
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	o, _, err := svc.RecordOrderIntent(ctx, starterIntent())
	require.NoError(t, err)

	steps := []struct {
		name    string
		status  string
		force   bool
		wantErr error
		wantMsg string
		want    models.OrderStatus
	}{
		{name: "unknown status", status: "shipped", wantErr: ErrValidation},
		{
			name: "skip payment", status: "in_progress", wantErr: ErrInvalidTransition,
			wantMsg: "cannot change order status from pending to in_progress",
		},
		{name: "same status is a no-op", status: "pending", want: models.OrderStatusPending},
		{name: "pending to paid", status: "paid", want: models.OrderStatusPaid},
		{name: "paid to in progress", status: "in_progress", want: models.OrderStatusInProgress},
		{name: "in progress to completed", status: "completed", want: models.OrderStatusCompleted},
		{
			name: "completed is terminal", status: "cancelled", wantErr: ErrInvalidTransition,
			wantMsg: "order is completed, reopening it needs force",
		},
		{name: "forced reopen", status: "in_progress", force: true, want: models.OrderStatusInProgress},
	}

	for _, step := range steps {
		got, err := svc.UpdateOrderStatus(ctx, StatusUpdate{
			OrderID: o.ID, Status: step.status, Force: step.force, Actor: "admin",
		})
		if step.wantErr != nil {
			require.ErrorIs(t, err, step.wantErr, step.name)

			if step.wantMsg != "" {
				var lerr *Error
				require.ErrorAs(t, err, &lerr, step.name)
				assert.Equal(t, step.wantMsg, lerr.Msg, step.name)
			}

			continue
		}

		require.NoError(t, err, step.name)
		assert.Equal(t, step.want, got.Status, step.name)
	}

	history, err := svc.OrderHistory(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)

	last := history[3]
	assert.True(t, last.Forced)
	assert.Equal(t, models.OrderStatusCompleted, last.From)
	assert.Equal(t, models.OrderStatusInProgress, last.To)
	assert.Equal(t, "admin", last.Actor)

	for _, change := range history[:3] {
		assert.False(t, change.Forced)
	}

	_, err = svc.UpdateOrderStatus(ctx, StatusUpdate{OrderID: "missing", Status: "paid"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.OrderHistory(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.TotalOrders)
	assert.Len(t, st.OrdersByStatus, len(models.OrderStatuses))

	o1, _, err := svc.RecordOrderIntent(ctx, starterIntent())
	require.NoError(t, err)

	in := starterIntent()
	in.PackageID = "enterprise"
	o2, _, err := svc.RecordOrderIntent(ctx, in)
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(ctx, StatusUpdate{OrderID: o1.ID, Status: "paid"})
	require.NoError(t, err)
	_, err = svc.UpdateOrderStatus(ctx, StatusUpdate{OrderID: o2.ID, Status: "cancelled"})
	require.NoError(t, err)

	d, err := svc.RecordDonationIntent(ctx, DonationIntent{Amount: 2500, DonorEmail: "d@example.com"})
	require.NoError(t, err)
	require.NoError(t, svc.ReconcileFromWebhook(ctx, completedEvent("evt_d", payment.KindDonation, d.ID, "", "pi_d")))

	st, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalOrders)
	assert.Equal(t, int64(1), st.OrdersByStatus[models.OrderStatusPaid])
	assert.Equal(t, int64(1), st.OrdersByStatus[models.OrderStatusCancelled])
	assert.Equal(t, int64(49900), st.Revenue)
	assert.Equal(t, int64(1), st.Donations)
	assert.Equal(t, int64(2500), st.DonationAmount)

	orders, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	donations, err := svc.ListDonations(ctx)
	require.NoError(t, err)
	assert.Len(t, donations, 1)
}
