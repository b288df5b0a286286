// Package catalog provides read access to the package catalog and its seed data.
package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kandinsky-studio/design-shop/internal/db/models"
)

var (
	// ErrPackageNotFound is returned when no package has the requested id.
	ErrPackageNotFound = errors.New("package not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// DefaultPackages is the catalog written into an empty packages table.
func DefaultPackages() []models.Package {
	return []models.Package{
		{
			ID:          "starter",
			Name:        "Starter",
			Description: "Perfect for small businesses and personal projects",
			Price:       49900,
			Features: []string{
				"Single page design",
				"Mobile responsive",
				"Basic SEO setup",
				"2 revision rounds",
				"5-day delivery",
			},
			DeliveryDays: 5,
			Active:       true,
		},
		{
			ID:          "professional",
			Name:        "Professional",
			Description: "Complete solution for growing businesses",
			Price:       149900,
			Features: []string{
				"Up to 5 pages",
				"Custom UI/UX design",
				"Advanced animations",
				"SEO optimization",
				"Social media kit",
				"5 revision rounds",
				"14-day delivery",
			},
			DeliveryDays: 14,
			Active:       true,
		},
		{
			ID:          "enterprise",
			Name:        "Enterprise",
			Description: "Full-scale digital transformation",
			Price:       399900,
			Features: []string{
				"Unlimited pages",
				"Complete brand identity",
				"Custom illustrations",
				"Advanced interactions",
				"E-commerce ready",
				"Priority support",
				"Unlimited revisions",
				"30-day delivery",
			},
			DeliveryDays: 30,
			Active:       true,
		},
	}
}

// Seed writes DefaultPackages when the packages table is empty.
// It returns the number of packages created.
func Seed(ctx context.Context, db *gorm.DB) (int, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Package{}).Count(&count).Error; err != nil {
		return 0, err
	}

	if count > 0 {
		return 0, nil
	}

	packages := DefaultPackages()
	if err := db.WithContext(ctx).Create(&packages).Error; err != nil {
		return 0, err
	}

	return len(packages), nil
}

// List returns all active packages, cheapest first.
func List(ctx context.Context, db *gorm.DB) ([]models.Package, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var packages []models.Package
	if err := db.WithContext(ctx).Where("active = ?", true).Order("price").Find(&packages).Error; err != nil {
		return nil, err
	}

	return packages, nil
}

// Get returns the active package with the given id.
func Get(ctx context.Context, db *gorm.DB, id string) (*models.Package, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var pkg models.Package

	result := db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&pkg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}

		return nil, result.Error
	}

	return &pkg, nil
}
