package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/verdeleaf/storefront-backend/api/responses"
	"github.com/verdeleaf/storefront-backend/api/validators"
	cartsvc "github.com/verdeleaf/storefront-backend/internal/cart"
	catalogsvc "github.com/verdeleaf/storefront-backend/internal/catalog"
	"github.com/verdeleaf/storefront-backend/internal/pricing"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	"github.com/verdeleaf/storefront-backend/pkg/types"
)

const cartTokenHeader = "X-Cart-Token"

// cartToken reads the shopper's cart token, minting one when absent.
// The token is always echoed so the client can persist it.
func cartToken(w http.ResponseWriter, r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get(cartTokenHeader))
	if token == "" {
		token = cartsvc.NewToken()
	}
	w.Header().Set(cartTokenHeader, token)
	return token
}

type cartResponse struct {
	Items      []types.LineItemSnapshot `json:"items"`
	TotalCents int64                    `json:"total_cents"`
	ItemCount  int                      `json:"item_count"`
}

func newCartResponse(c *cartsvc.Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []types.LineItemSnapshot{}
	}
	return cartResponse{
		Items:      items,
		TotalCents: c.TotalCents(),
		ItemCount:  c.ItemCount(),
	}
}

// GetCart returns the shopper's current cart.
func GetCart(svc *cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := cartToken(w, r)
		loaded, err := svc.Load(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(loaded))
	}
}

type addCartItemRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid"`
	OptionLabel string `json:"option_label"`
	VariantID   string `json:"variant_id" validate:"omitempty,uuid"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
}

// AddCartItem resolves the product's live price server-side and merges
// the line into the cart. Client-supplied prices are never read.
func AddCartItem(svc *cartsvc.Service, catalog *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := cartToken(w, r)

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParsePathUUID(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := catalog.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !detail.Product.IsActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}

		label := strings.TrimSpace(payload.OptionLabel)
		option := pricing.DefaultOption(detail.Options)
		if label != "" && label != pricing.DefaultOptionLabel {
			found, ok := pricing.FindOption(detail.Options, label)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown price option"))
				return
			}
			option = found
		}

		var variant *models.ProductVariant
		if rawVariantID := strings.TrimSpace(payload.VariantID); rawVariantID != "" {
			variantID, err := validators.ParsePathUUID(rawVariantID, "variant_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			for i := range detail.Product.Variants {
				if detail.Product.Variants[i].ID == variantID {
					variant = &detail.Product.Variants[i]
					break
				}
			}
			if variant == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown variant"))
				return
			}
		}

		tierLabel := ""
		if option.Label != pricing.DefaultOptionLabel {
			tierLabel = option.Label
		}
		variantID := ""
		name := detail.Product.Name
		if variant != nil {
			variantID = variant.ID.String()
			name = name + " (" + variant.Name + ")"
		}

		imageURL := ""
		if len(detail.Product.ImageURLs) > 0 {
			imageURL = detail.Product.ImageURLs[0]
		}
		description := ""
		if detail.Product.Description != nil {
			description = *detail.Product.Description
		}

		snapshot := types.LineItemSnapshot{
			ID:             cartsvc.DeriveLineID(detail.Product.ID.String(), tierLabel, variantID),
			ProductID:      detail.Product.ID.String(),
			VariantID:      variantID,
			Name:           name,
			Description:    description,
			ImageURL:       imageURL,
			UnitPriceCents: pricing.ApplyVariant(option.EffectiveCents(), variant),
		}

		updated, err := svc.AddItem(r.Context(), token, snapshot, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(updated))
	}
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateCartItem sets a line's quantity; zero or less removes it.
func UpdateCartItem(svc *cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := cartToken(w, r)
		lineID := chi.URLParam(r, "lineID")
		if lineID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line id is required"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateQuantity(r.Context(), token, lineID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(updated))
	}
}

// RemoveCartItem deletes a single line.
func RemoveCartItem(svc *cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := cartToken(w, r)
		lineID := chi.URLParam(r, "lineID")
		if lineID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line id is required"))
			return
		}

		updated, err := svc.RemoveItem(r.Context(), token, lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(updated))
	}
}

// ClearCart drops every line.
func ClearCart(svc *cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := cartToken(w, r)
		if err := svc.Clear(r.Context(), token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(&cartsvc.Cart{}))
	}
}
