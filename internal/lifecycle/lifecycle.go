// Package lifecycle moves orders and donations from creation to payment
// confirmation and through the admin managed order states.
//
// Payment confirmation arrives on two independent paths: the provider's
// webhook and a pull of the session state when a client fetches a record that
// is still pending. Both end in the same conditional update that only moves a
// pending record forward, so either path may run first, twice or concurrently.
package lifecycle

import (
	"context"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/kandinsky-studio/design-shop/internal/db/models"
	"github.com/kandinsky-studio/design-shop/internal/payment"
)

// Gateway is the payment provider as seen by the lifecycle.
type Gateway interface {
	CreateOrderSession(ctx context.Context, order *models.Order, pkg *models.Package) (payment.Session, error)
	CreateDonationSession(ctx context.Context, donation *models.Donation) (payment.Session, error)
	RetrieveSessionStatus(ctx context.Context, sessionID string) (payment.Status, error)
}

// Service implements the order and donation lifecycle.
type Service struct {
	db        *gorm.DB
	gateway   Gateway
	validator *validator.Validate
	newID     func() string
}

// New creates a lifecycle Service.
func New(db *gorm.DB, gateway Gateway) *Service {
	return &Service{
		db:        db,
		gateway:   gateway,
		validator: newValidator(),
		newID:     newID,
	}
}
