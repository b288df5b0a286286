package models

import (
	"time"
)

// Order is the purchase of one Package.
// PackageName and Price are snapshots taken when the order was created and are
// never recomputed from the catalog.
type Order struct {
	ID                  string      `gorm:"primaryKey;size:36"                 json:"id"`
	CustomerName        string      `gorm:"size:200;not null"                  json:"customer_name"`
	CustomerEmail       string      `gorm:"size:255;not null"                  json:"customer_email"`
	CustomerPhone       string      `gorm:"size:50"                            json:"customer_phone"`
	ProjectDescription  string      `gorm:"type:text"                          json:"project_description"`
	PackageID           string      `gorm:"size:64;not null"                   json:"package_id"`
	PackageName         string      `gorm:"size:100;not null"                  json:"package_name"`
	Price               int64       `gorm:"not null"                           json:"price"`
	Status              OrderStatus `gorm:"type:varchar(20);not null;index"    json:"status"`
	StripeSessionID     *string     `gorm:"size:255;uniqueIndex"               json:"stripe_session_id"`
	StripePaymentIntent string      `gorm:"size:255"                           json:"stripe_payment_intent"`
	CreatedAt           time.Time   `gorm:"index"                              json:"created_at"`
	UpdatedAt           time.Time   `                                          json:"updated_at"`
}
