package donation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandinsky-studio/design-shop/internal/db/dbtest"
	"github.com/kandinsky-studio/design-shop/internal/db/models"
)

func newDonation(id string, amount int64) *models.Donation {
	return &models.Donation{
		ID:         id,
		DonorName:  models.AnonymousDonor,
		DonorEmail: "d@example.com",
		Amount:     amount,
		Status:     models.DonationStatusPending,
	}
}

func TestCreateGetAttach(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	require.ErrorIs(t, Create(ctx, nil, newDonation("d1", 100)), ErrDBNil)
	require.ErrorIs(t, Create(ctx, db, newDonation("", 100)), ErrDonationIDEmpty)
	require.NoError(t, Create(ctx, db, newDonation("d1", 2500)))

	got, err := GetByID(ctx, db, "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), got.Amount)
	assert.Equal(t, models.AnonymousDonor, got.DonorName)

	require.NoError(t, AttachSession(ctx, db, "d1", "cs_don_1"))
	require.ErrorIs(t, AttachSession(ctx, db, "missing", "cs_don_2"), ErrDonationNotFound)

	got, err = GetBySession(ctx, db, "cs_don_1")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)

	_, err = GetBySession(ctx, db, "cs_none")
	require.ErrorIs(t, err, ErrDonationNotFound)
}

func TestMarkCompleted(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	require.NoError(t, Create(ctx, db, newDonation("d1", 2500)))

	changed, err := MarkCompleted(ctx, db, "d1", "pi_1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = MarkCompleted(ctx, db, "d1", "pi_2")
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := GetByID(ctx, db, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusCompleted, got.Status)
	assert.Equal(t, "pi_1", got.StripePaymentIntent)
}

func TestListAndTotals(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	first := newDonation("d1", 1000)
	first.CreatedAt = time.Now().Add(-time.Minute)
	second := newDonation("d2", 5000)
	second.CreatedAt = time.Now()

	require.NoError(t, Create(ctx, db, first))
	require.NoError(t, Create(ctx, db, second))

	count, amount, err := Totals(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, amount)

	_, err = MarkCompleted(ctx, db, "d2", "pi_2")
	require.NoError(t, err)

	count, amount, err = Totals(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(5000), amount)

	donations, err := List(ctx, db)
	require.NoError(t, err)
	require.Len(t, donations, 2)
	assert.Equal(t, "d2", donations[0].ID)
}
