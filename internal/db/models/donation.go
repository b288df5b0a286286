package models

import (
	"time"
)

const (
	// AnonymousDonor is stored when a donor does not give a name.
	AnonymousDonor = "Anonymous"

	// MinDonationAmount is the smallest accepted donation in cents.
	MinDonationAmount = 100
	// MaxDonationAmount is the largest accepted donation in cents.
	MaxDonationAmount = 99_999_900
)

// Donation is a standalone payment not tied to a Package.
type Donation struct {
	ID                  string         `gorm:"primaryKey;size:36"              json:"id"`
	DonorName           string         `gorm:"size:200;not null"               json:"donor_name"`
	DonorEmail          string         `gorm:"size:255;not null"               json:"donor_email"`
	Amount              int64          `gorm:"not null"                        json:"amount"`
	Message             string         `gorm:"type:text"                       json:"message"`
	Status              DonationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	StripeSessionID     *string        `gorm:"size:255;uniqueIndex"            json:"stripe_session_id"`
	StripePaymentIntent string         `gorm:"size:255"                        json:"stripe_payment_intent"`
	CreatedAt           time.Time      `gorm:"index"                           json:"created_at"`
	UpdatedAt           time.Time      `                                       json:"updated_at"`
}
