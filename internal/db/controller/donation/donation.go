// Package donation provides persistence for donations.
package donation

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kandinsky-studio/design-shop/internal/db/models"
)

var (
	// ErrDonationNotFound is returned when no donation matches the lookup.
	ErrDonationNotFound = errors.New("donation not found")
	// ErrDonationIDEmpty is returned when a donation has no identifier.
	ErrDonationIDEmpty = errors.New("donation id cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create inserts a new donation.
func Create(ctx context.Context, db *gorm.DB, d *models.Donation) error {
	if db == nil {
		return ErrDBNil
	}

	if d.ID == "" {
		return ErrDonationIDEmpty
	}

	return db.WithContext(ctx).Create(d).Error
}

// GetByID returns the donation with the given id.
func GetByID(ctx context.Context, db *gorm.DB, id string) (*models.Donation, error) {
	return first(ctx, db, "id = ?", id)
}

// GetBySession returns the donation attached to a checkout session.
func GetBySession(ctx context.Context, db *gorm.DB, sessionID string) (*models.Donation, error) {
	return first(ctx, db, "stripe_session_id = ?", sessionID)
}

func first(ctx context.Context, db *gorm.DB, query, arg string) (*models.Donation, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var d models.Donation

	result := db.WithContext(ctx).Where(query, arg).First(&d)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}

		return nil, result.Error
	}

	return &d, nil
}

// AttachSession stores the checkout session id on a donation.
func AttachSession(ctx context.Context, db *gorm.DB, id, sessionID string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.WithContext(ctx).Model(&models.Donation{}).Where("id = ?", id).
		Update("stripe_session_id", sessionID)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrDonationNotFound
	}

	return nil
}

// MarkCompleted moves a pending donation to completed together with its
// payment intent. It reports false when nothing changed.
func MarkCompleted(ctx context.Context, db *gorm.DB, id, paymentIntent string) (bool, error) {
	if db == nil {
		return false, ErrDBNil
	}

	result := db.WithContext(ctx).Model(&models.Donation{}).
		Where("id = ? AND status = ?", id, models.DonationStatusPending).
		Updates(map[string]any{
			"status":                models.DonationStatusCompleted,
			"stripe_payment_intent": paymentIntent,
		})

	return result.RowsAffected > 0, result.Error
}

// List returns all donations, newest first.
func List(ctx context.Context, db *gorm.DB) ([]models.Donation, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var donations []models.Donation
	if err := db.WithContext(ctx).Order("created_at DESC").Find(&donations).Error; err != nil {
		return nil, err
	}

	return donations, nil
}

// Totals returns the number and the summed amount of completed donations.
func Totals(ctx context.Context, db *gorm.DB) (count, amount int64, err error) {
	if db == nil {
		return 0, 0, ErrDBNil
	}

	var row struct {
		Count  int64
		Amount int64
	}

	err = db.WithContext(ctx).Model(&models.Donation{}).
		Where("status = ?", models.DonationStatusCompleted).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Scan(&row).Error

	return row.Count, row.Amount, err
}
