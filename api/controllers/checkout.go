package controllers

import (
	"net/http"
	"strings"

	"github.com/verdeleaf/storefront-backend/api/responses"
	"github.com/verdeleaf/storefront-backend/api/validators"
	checkoutsvc "github.com/verdeleaf/storefront-backend/internal/checkout"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	"github.com/verdeleaf/storefront-backend/pkg/types"
)

type quoteRequest struct {
	ShippingMethod string `json:"shipping_method" validate:"required"`
	PromoCode      string `json:"promo_code"`
}

// CheckoutQuote prices the stored cart without opening a session.
func CheckoutQuote(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := cartToken(w, r)

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParseShippingMethod(payload.ShippingMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method"))
			return
		}

		quote, err := svc.BuildQuote(r.Context(), token, method, payload.PromoCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

type beginCheckoutRequest struct {
	ShippingMethod  string        `json:"shipping_method" validate:"required"`
	PromoCode       string        `json:"promo_code"`
	CustomerEmail   string        `json:"customer_email" validate:"required,email"`
	ShippingAddress types.Address `json:"shipping_address" validate:"required"`
	BillingAddress  types.Address `json:"billing_address"`
}

// BeginCheckout recomputes the order server-side and opens a payment
// intent; the response carries the client secret for card collection.
func BeginCheckout(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := cartToken(w, r)

		var payload beginCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParseShippingMethod(payload.ShippingMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method"))
			return
		}

		billing := payload.BillingAddress
		if billing == (types.Address{}) {
			billing = payload.ShippingAddress
		}

		result, err := svc.Begin(r.Context(), checkoutsvc.BeginInput{
			CartToken:       token,
			ShippingMethod:  method,
			PromoCode:       payload.PromoCode,
			CustomerEmail:   payload.CustomerEmail,
			ShippingAddress: payload.ShippingAddress,
			BillingAddress:  billing,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type confirmCheckoutRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

type confirmCheckoutResponse struct {
	OrderID     string `json:"order_id"`
	OrderNumber int64  `json:"order_number,omitempty"`
	Status      string `json:"status"`
}

// ConfirmCheckout drives the same idempotent completion path as the
// webhook; whichever arrives first creates the order. The intent's
// status is verified against the gateway, so a forged intent id never
// mints an order.
func ConfirmCheckout(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload confirmCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intentID := strings.TrimSpace(payload.PaymentIntentID)
		order, err := svc.Confirm(r.Context(), intentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, confirmCheckoutResponse{
			OrderID:     order.ID.String(),
			OrderNumber: order.Number,
			Status:      string(order.Status),
		})
	}
}
