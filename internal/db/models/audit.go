package models

import (
	"time"
)

// StatusChangeSource tells which path changed an order status.
type StatusChangeSource string

const (
	// SourceWebhook is a change applied from a provider webhook.
	SourceWebhook StatusChangeSource = "webhook"
	// SourcePoll is a change applied while a client fetched the record.
	SourcePoll StatusChangeSource = "poll"
	// SourceAdmin is a change written through the admin api.
	SourceAdmin StatusChangeSource = "admin"
)

// OrderStatusChange is one entry of an order's audit trail.
type OrderStatusChange struct {
	ID        uint64             `gorm:"primaryKey"                     json:"id"`
	OrderID   string             `gorm:"size:36;not null;index"         json:"order_id"`
	From      OrderStatus        `gorm:"column:from_status;size:20"     json:"from"`
	To        OrderStatus        `gorm:"column:to_status;size:20"       json:"to"`
	Source    StatusChangeSource `gorm:"size:20;not null"               json:"source"`
	Forced    bool               `gorm:"not null"                       json:"forced"`
	Actor     string             `gorm:"size:255"                       json:"actor"`
	CreatedAt time.Time          `                                      json:"created_at"`
}

// WebhookEvent records a verified provider event so redeliveries can be
// recognised.
type WebhookEvent struct {
	ID          uint64    `gorm:"primaryKey"`
	EventID     string    `gorm:"size:255;not null;uniqueIndex"`
	Type        string    `gorm:"size:100;not null;index"`
	ReferenceID string    `gorm:"size:36;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}
