package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/verdeleaf/storefront-backend/api/responses"
	"github.com/verdeleaf/storefront-backend/api/validators"
	promossvc "github.com/verdeleaf/storefront-backend/internal/promos"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

type promoListResponse struct {
	Items      []models.PromoCode `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

type createPromoRequest struct {
	Code            string     `json:"code" validate:"required"`
	DiscountPercent string     `json:"discount_percent" validate:"required"`
	MinOrderCents   int        `json:"min_order_cents" validate:"min=0"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

// AdminCreatePromo registers a new percentage code.
func AdminCreatePromo(svc *promossvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		percent, err := decimal.NewFromString(payload.DiscountPercent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount percent"))
			return
		}

		promo, err := svc.Create(r.Context(), promossvc.CreateInput{
			Code:            payload.Code,
			DiscountPercent: percent,
			MinOrderCents:   payload.MinOrderCents,
			ExpiresAt:       payload.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promo)
	}
}

type updatePromoRequest struct {
	DiscountPercent *string    `json:"discount_percent"`
	MinOrderCents   *int       `json:"min_order_cents"`
	Active          *bool      `json:"active"`
	ExpiresAt       *time.Time `json:"expires_at"`
	ClearExpiry     bool       `json:"clear_expiry"`
}

// AdminUpdatePromo patches an existing code; absent fields stay as-is.
func AdminUpdatePromo(svc *promossvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := promossvc.UpdateInput{
			MinOrderCents: payload.MinOrderCents,
			Active:        payload.Active,
			ExpiresAt:     payload.ExpiresAt,
			ClearExpiry:   payload.ClearExpiry,
		}
		if payload.DiscountPercent != nil {
			percent, err := decimal.NewFromString(*payload.DiscountPercent)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount percent"))
				return
			}
			input.DiscountPercent = &percent
		}

		promo, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promo)
	}
}

// AdminGetPromo returns one promo code.
func AdminGetPromo(svc *promossvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promo)
	}
}

// AdminListPromos lists codes newest first.
func AdminListPromos(svc *promossvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promos, nextCursor, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promoListResponse{Items: promos, NextCursor: nextCursor})
	}
}

// AdminDeletePromo removes a code entirely.
func AdminDeletePromo(svc *promossvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
