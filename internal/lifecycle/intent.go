package lifecycle

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kandinsky-studio/design-shop/internal/db/controller/catalog"
	"github.com/kandinsky-studio/design-shop/internal/db/controller/donation"
	"github.com/kandinsky-studio/design-shop/internal/db/controller/order"
	"github.com/kandinsky-studio/design-shop/internal/db/models"
)

// OrderIntent is the customer input for a new order.
type OrderIntent struct {
	PackageID          string `json:"packageId"          validate:"required,max=64"`
	CustomerName       string `json:"customerName"       validate:"required,max=200"`
	CustomerEmail      string `json:"customerEmail"      validate:"required,email,max=255"`
	CustomerPhone      string `json:"customerPhone"      validate:"max=50"`
	ProjectDescription string `json:"projectDescription" validate:"max=5000"`
}

// DonationIntent is the donor input for a new donation. Amount is in cents.
type DonationIntent struct {
	Amount      int64  `json:"amount"`
	DonorName   string `json:"donorName"   validate:"max=200"`
	DonorEmail  string `json:"donorEmail"  validate:"required,email,max=255"`
	Message     string `json:"message"     validate:"max=2000"`
	IsAnonymous bool   `json:"isAnonymous"`
}

func newID() string {
	return uuid.NewString()
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by the name clients send
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

func (s *Service) validate(in any) error {
	err := s.validator.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return newError(ErrValidation, "%s", err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))

	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email address")
		case "max":
			msgs = append(msgs, fe.Field()+" must be at most "+fe.Param()+" characters")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}

	return newError(ErrValidation, "%s", strings.Join(msgs, ", "))
}

func trimOrderIntent(in *OrderIntent) {
	in.PackageID = strings.TrimSpace(in.PackageID)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
}

// RecordOrderIntent validates in and stores a pending order. Package name and
// price are copied from the catalog and never recomputed afterwards.
func (s *Service) RecordOrderIntent(ctx context.Context, in OrderIntent) (*models.Order, *models.Package, error) {
	trimOrderIntent(&in)

	if err := s.validate(in); err != nil {
		return nil, nil, err
	}

	pkg, err := catalog.Get(ctx, s.db, in.PackageID)
	if err != nil {
		if errors.Is(err, catalog.ErrPackageNotFound) {
			return nil, nil, newError(ErrNotFound, "package %q not found", in.PackageID)
		}

		return nil, nil, err
	}

	o := &models.Order{
		ID:                 s.newID(),
		CustomerName:       in.CustomerName,
		CustomerEmail:      in.CustomerEmail,
		CustomerPhone:      in.CustomerPhone,
		ProjectDescription: in.ProjectDescription,
		PackageID:          pkg.ID,
		PackageName:        pkg.Name,
		Price:              pkg.Price,
		Status:             models.OrderStatusPending,
	}

	if err = order.Create(ctx, s.db, o); err != nil {
		return nil, nil, err
	}

	log.Info().Str("order", o.ID).Str("package", pkg.ID).Int64("price", o.Price).Msg("order created")

	return o, pkg, nil
}

// RecordDonationIntent validates in and stores a pending donation.
func (s *Service) RecordDonationIntent(ctx context.Context, in DonationIntent) (*models.Donation, error) {
	in.DonorName = strings.TrimSpace(in.DonorName)
	in.DonorEmail = strings.TrimSpace(in.DonorEmail)

	if err := s.validate(in); err != nil {
		return nil, err
	}

	if in.Amount < models.MinDonationAmount || in.Amount > models.MaxDonationAmount {
		return nil, newError(ErrRange, "amount must be between %d and %d cents",
			models.MinDonationAmount, models.MaxDonationAmount)
	}

	name := in.DonorName
	if in.IsAnonymous || name == "" {
		name = models.AnonymousDonor
	}

	d := &models.Donation{
		ID:         s.newID(),
		DonorName:  name,
		DonorEmail: in.DonorEmail,
		Amount:     in.Amount,
		Message:    in.Message,
		Status:     models.DonationStatusPending,
	}

	if err := donation.Create(ctx, s.db, d); err != nil {
		return nil, err
	}

	log.Info().Str("donation", d.ID).Int64("amount", d.Amount).Msg("donation created")

	return d, nil
}
