// Package catalog serves the design packages.
package catalog

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	dbcatalog "github.com/kandinsky-studio/design-shop/internal/db/controller/catalog"
	"github.com/kandinsky-studio/design-shop/internal/db/models"
	"github.com/kandinsky-studio/design-shop/internal/web/handler"
)

const (
	// Path is the base path of the catalog endpoints.
	Path = "/packages"
)

// Service is the catalog handler service.
type Service struct {
	handler.Service
	db *gorm.DB
}

// Handler is the catalog handler.
var Handler = Service{} //nolint:gochecknoglobals

// Package is a catalog entry with its display price.
type Package struct {
	models.Package
	PriceFormatted string `json:"priceFormatted"`
}

func newPackage(p models.Package) Package {
	return Package{Package: p, PriceFormatted: handler.FormatUSD(p.Price)}
}

// Init registers the catalog routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || deps == nil || deps.DB == nil {
		return handler.ErrNilDeps
	}

	s.db = deps.DB

	router.Get(Path, s.List)
	router.Get(Path+"/:id", s.Get)

	return nil
}

// List returns the active packages, cheapest first.
func (s *Service) List(c fiber.Ctx) error {
	packages, err := dbcatalog.List(c.Context(), s.db)
	if err != nil {
		return err
	}

	out := make([]Package, 0, len(packages))
	for _, p := range packages {
		out = append(out, newPackage(p))
	}

	return c.JSON(out)
}

// Get returns one active package.
func (s *Service) Get(c fiber.Ctx) error {
	p, err := dbcatalog.Get(c.Context(), s.db, c.Params("id"))
	if err != nil {
		if errors.Is(err, dbcatalog.ErrPackageNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "package not found")
		}

		return err
	}

	return c.JSON(newPackage(*p))
}
