package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/verdeleaf/storefront-backend/api/responses"
	"github.com/verdeleaf/storefront-backend/api/validators"
	orderssvc "github.com/verdeleaf/storefront-backend/internal/orders"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

type orderItemView struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int    `json:"unit_price_cents"`
}

// orderView is the buyer-facing order shape. Gateway identifiers and
// billing details stay server-side.
type orderView struct {
	ID             string          `json:"id"`
	Number         int64           `json:"number"`
	Status         string          `json:"status"`
	TotalCents     int             `json:"total_cents"`
	ShippingCents  int             `json:"shipping_cents"`
	DiscountCents  int             `json:"discount_cents"`
	Currency       string          `json:"currency"`
	ShippingMethod string          `json:"shipping_method"`
	Items          []orderItemView `json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
}

func newOrderView(order *models.Order) orderView {
	items := make([]orderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemView{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return orderView{
		ID:             order.ID.String(),
		Number:         order.Number,
		Status:         string(order.Status),
		TotalCents:     order.TotalCents,
		ShippingCents:  order.ShippingCents,
		DiscountCents:  order.DiscountCents,
		Currency:       order.Currency,
		ShippingMethod: string(order.ShippingMethod),
		Items:          items,
		CreatedAt:      order.CreatedAt,
	}
}

// GetOrder serves the post-purchase order page. Possession of the order
// UUID is the lookup capability; no account exists on the storefront.
func GetOrder(svc *orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}
