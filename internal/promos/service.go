package promos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/pkg/db"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/pagination"
)

type promoStore interface {
	promoFinder
	FindByID(ctx context.Context, id uuid.UUID) (*models.PromoCode, error)
	Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error)
	Update(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params) ([]models.PromoCode, error)
}

// Service is the admin-facing surface for managing promo codes.
type Service struct {
	repo promoStore
}

// NewService validates dependencies and builds the promo service.
func NewService(repo promoStore) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository is required")
	}
	return &Service{repo: repo}, nil
}

// CreateInput carries the admin-supplied fields for a new code.
type CreateInput struct {
	Code            string
	DiscountPercent decimal.Decimal
	MinOrderCents   int
	ExpiresAt       *time.Time
}

// Create canonicalizes and persists a new promo code.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.PromoCode, error) {
	code := Canonicalize(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if err := validatePercent(input.DiscountPercent); err != nil {
		return nil, err
	}
	if input.MinOrderCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order must not be negative")
	}

	promo := &models.PromoCode{
		Code:            code,
		Kind:            enums.DiscountKindPercentage,
		DiscountPercent: input.DiscountPercent,
		MinOrderCents:   input.MinOrderCents,
		Active:          true,
		ExpiresAt:       input.ExpiresAt,
	}

	created, err := s.repo.Create(ctx, promo)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "promo code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating promo code")
	}
	return created, nil
}

// UpdateInput carries partial updates; nil fields are left untouched.
type UpdateInput struct {
	DiscountPercent *decimal.Decimal
	MinOrderCents   *int
	Active          *bool
	ExpiresAt       *time.Time
	ClearExpiry     bool
}

// Update applies the provided changes to an existing code.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.PromoCode, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading promo code")
	}

	if input.DiscountPercent != nil {
		if err := validatePercent(*input.DiscountPercent); err != nil {
			return nil, err
		}
		promo.DiscountPercent = *input.DiscountPercent
	}
	if input.MinOrderCents != nil {
		if *input.MinOrderCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order must not be negative")
		}
		promo.MinOrderCents = *input.MinOrderCents
	}
	if input.Active != nil {
		promo.Active = *input.Active
	}
	if input.ClearExpiry {
		promo.ExpiresAt = nil
	} else if input.ExpiresAt != nil {
		promo.ExpiresAt = input.ExpiresAt
	}

	updated, err := s.repo.Update(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating promo code")
	}
	return updated, nil
}

// Delete removes a promo code by ID.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting promo code")
	}
	return nil
}

// Get loads a single promo code.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.PromoCode, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading promo code")
	}
	return promo, nil
}

// List pages through promo codes, newest first.
func (s *Service) List(ctx context.Context, params pagination.Params) ([]models.PromoCode, string, error) {
	promos, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing promo codes")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(promos) > limit {
		promos = promos[:limit]
		last := promos[len(promos)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return promos, next, nil
}

func validatePercent(percent decimal.Decimal) error {
	if percent.LessThanOrEqual(decimal.Zero) || percent.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}
	return nil
}
