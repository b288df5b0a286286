// Package order provides persistence for orders and their status audit trail.
package order

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kandinsky-studio/design-shop/internal/db/models"
)

const idQueryPattern = "id = ?"

var (
	// ErrOrderNotFound is returned when no order matches the lookup.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderIDEmpty is returned when an order has no identifier.
	ErrOrderIDEmpty = errors.New("order id cannot be empty")
	// ErrStatusChanged is returned when the stored status no longer matches the
	// status a conditional update expected.
	ErrStatusChanged = errors.New("order status changed concurrently")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create inserts a new order.
func Create(ctx context.Context, db *gorm.DB, o *models.Order) error {
	if db == nil {
		return ErrDBNil
	}

	if o.ID == "" {
		return ErrOrderIDEmpty
	}

	return db.WithContext(ctx).Create(o).Error
}

// GetByID returns the order with the given id.
func GetByID(ctx context.Context, db *gorm.DB, id string) (*models.Order, error) {
	return first(ctx, db, idQueryPattern, id)
}

// GetBySession returns the order attached to a checkout session.
func GetBySession(ctx context.Context, db *gorm.DB, sessionID string) (*models.Order, error) {
	return first(ctx, db, "stripe_session_id = ?", sessionID)
}

func first(ctx context.Context, db *gorm.DB, query string, arg string) (*models.Order, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var o models.Order

	result := db.WithContext(ctx).Where(query, arg).First(&o)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}

		return nil, result.Error
	}

	return &o, nil
}

// AttachSession stores the checkout session id on an order.
func AttachSession(ctx context.Context, db *gorm.DB, id, sessionID string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.WithContext(ctx).Model(&models.Order{}).Where(idQueryPattern, id).
		Update("stripe_session_id", sessionID)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// MarkPaid moves a pending order to paid and stores the payment intent in one
// statement. It reports false when the order was not pending anymore, which
// makes repeated calls no-ops.
func MarkPaid(
	ctx context.Context, db *gorm.DB, id, paymentIntent string, source models.StatusChangeSource,
) (bool, error) {
	if db == nil {
		return false, ErrDBNil
	}

	changed := false

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, models.OrderStatusPending).
			Updates(map[string]any{
				"status":                models.OrderStatusPaid,
				"stripe_payment_intent": paymentIntent,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return nil
		}

		changed = true

		return tx.Create(&models.OrderStatusChange{
			OrderID: id,
			From:    models.OrderStatusPending,
			To:      models.OrderStatusPaid,
			Source:  source,
		}).Error
	})

	return changed, err
}

// Transition is a single admin status change.
type Transition struct {
	OrderID string
	From    models.OrderStatus
	To      models.OrderStatus
	Forced  bool
	Actor   string
}

// UpdateStatus applies t when the order is still in t.From and records it in
// the audit trail. ErrStatusChanged is returned when another writer was faster.
func UpdateStatus(ctx context.Context, db *gorm.DB, t Transition) error {
	if db == nil {
		return ErrDBNil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", t.OrderID, t.From).
			Update("status", t.To)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ErrStatusChanged
		}

		return tx.Create(&models.OrderStatusChange{
			OrderID: t.OrderID,
			From:    t.From,
			To:      t.To,
			Source:  models.SourceAdmin,
			Forced:  t.Forced,
			Actor:   t.Actor,
		}).Error
	})
}

// List returns all orders, newest first.
func List(ctx context.Context, db *gorm.DB) ([]models.Order, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var orders []models.Order
	if err := db.WithContext(ctx).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

// History returns the audit trail of an order, oldest first.
func History(ctx context.Context, db *gorm.DB, id string) ([]models.OrderStatusChange, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var changes []models.OrderStatusChange
	if err := db.WithContext(ctx).Where("order_id = ?", id).Order("id").Find(&changes).Error; err != nil {
		return nil, err
	}

	return changes, nil
}

// StatusCount is the number of orders in one status.
type StatusCount struct {
	Status models.OrderStatus
	Count  int64
}

// CountByStatus groups the orders by status.
func CountByStatus(ctx context.Context, db *gorm.DB) ([]StatusCount, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var counts []StatusCount

	err := db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error

	return counts, err
}

// Revenue sums the price of all orders that were not cancelled.
func Revenue(ctx context.Context, db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var total int64

	err := db.WithContext(ctx).Model(&models.Order{}).
		Where("status <> ?", models.OrderStatusCancelled).
		Select("COALESCE(SUM(price), 0)").
		Scan(&total).Error

	return total, err
}
