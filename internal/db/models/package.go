package models

// Package is a fixed price design package of the catalog.
// Packages are seeded at startup and read-only for the rest of the system.
type Package struct {
	ID           string   `gorm:"primaryKey;size:64"   json:"id"`
	Name         string   `gorm:"size:100;not null"    json:"name"`
	Description  string   `gorm:"size:500"             json:"description"`
	Price        int64    `gorm:"not null"             json:"price"` // cents
	Features     []string `gorm:"serializer:json"      json:"features"`
	DeliveryDays int      `gorm:"not null"             json:"delivery_days"`
	Active       bool     `gorm:"not null;index"       json:"active"`
}
