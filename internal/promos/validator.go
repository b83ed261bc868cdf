package promos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/money"
)

// Reason distinguishes the validation outcomes. Each maps to a
// distinct user-facing message, never a generic failure.
type Reason string

const (
	ReasonInvalidCode  Reason = "invalid_code"
	ReasonExpired      Reason = "expired"
	ReasonBelowMinimum Reason = "below_minimum"
)

// Result is the outcome of validating a code against a subtotal.
// Invalid codes are results, not errors: they never cross the
// cart/checkout boundary as failures.
type Result struct {
	Valid         bool            `json:"valid"`
	Code          string          `json:"code,omitempty"`
	Reason        Reason          `json:"reason,omitempty"`
	Message       string          `json:"message,omitempty"`
	Percent       decimal.Decimal `json:"percent,omitempty"`
	DiscountCents int             `json:"discount_cents"`
}

type promoFinder interface {
	FindActiveByCode(ctx context.Context, code string) (*models.PromoCode, error)
}

// Validator checks codes against the live promo store and computes
// the resulting discount. The same validator runs on the quote path
// and on the authoritative charge path so a manipulated client can
// never smuggle in an unvalidated discount.
type Validator struct {
	repo promoFinder
}

// NewValidator constructs a validator over the promo repository.
func NewValidator(repo promoFinder) (*Validator, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository is required")
	}
	return &Validator{repo: repo}, nil
}

// Canonicalize trims incidental whitespace and uppercases a raw code.
func Canonicalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate applies the fixed validation order: unknown code, expired
// code, below-minimum subtotal, then discount computation. The
// discount is subtotal x percent / 100 in decimal, rounded to whole
// cents only at this boundary.
func (v *Validator) Validate(ctx context.Context, rawCode string, subtotalCents int, now time.Time) (Result, error) {
	code := Canonicalize(rawCode)
	if code == "" {
		return Result{Reason: ReasonInvalidCode, Message: "invalid code"}, nil
	}

	promo, err := v.repo.FindActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{Code: code, Reason: ReasonInvalidCode, Message: "invalid code"}, nil
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up promo code")
	}

	if promo.ExpiresAt != nil && !promo.ExpiresAt.After(now) {
		return Result{Code: code, Reason: ReasonExpired, Message: "code expired"}, nil
	}

	if subtotalCents < promo.MinOrderCents {
		return Result{
			Code:   code,
			Reason: ReasonBelowMinimum,
			Message: fmt.Sprintf(
				"minimum order of %s required",
				money.FromCents(int64(promo.MinOrderCents)).StringFixed(2),
			),
		}, nil
	}

	discount := money.PercentOfCents(int64(subtotalCents), promo.DiscountPercent)
	return Result{
		Valid:         true,
		Code:          code,
		Percent:       promo.DiscountPercent,
		DiscountCents: int(discount),
	}, nil
}
