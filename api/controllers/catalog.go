package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/verdeleaf/storefront-backend/api/responses"
	"github.com/verdeleaf/storefront-backend/api/validators"
	catalogsvc "github.com/verdeleaf/storefront-backend/internal/catalog"
	"github.com/verdeleaf/storefront-backend/internal/pricing"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

type priceOptionResponse struct {
	Label              string `json:"label"`
	PriceCents         int    `json:"price_cents"`
	DiscountPriceCents *int   `json:"discount_price_cents,omitempty"`
	IsDefault          bool   `json:"is_default"`
	EffectiveCents     int    `json:"effective_cents"`
}

type productResponse struct {
	ID          string                `json:"id"`
	CategoryID  *string               `json:"category_id,omitempty"`
	Name        string                `json:"name"`
	Slug        string                `json:"slug"`
	Description *string               `json:"description,omitempty"`
	ImageURLs   []string              `json:"image_urls"`
	PricingMode string                `json:"pricing_mode"`
	Options     []priceOptionResponse `json:"options"`
	CBDPercent  *float64              `json:"cbd_percent,omitempty"`
	THCPercent  *float64              `json:"thc_percent,omitempty"`
	IsActive    bool                  `json:"is_active"`
	IsFeatured  bool                  `json:"is_featured"`
}

type productListResponse struct {
	Items      []productResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func newProductResponse(product models.Product, options []pricing.Option) productResponse {
	resp := productResponse{
		ID:          product.ID.String(),
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		ImageURLs:   product.ImageURLs,
		PricingMode: string(product.PricingMode),
		CBDPercent:  product.CBDPercent,
		THCPercent:  product.THCPercent,
		IsActive:    product.IsActive,
		IsFeatured:  product.IsFeatured,
	}
	if product.CategoryID != nil {
		id := product.CategoryID.String()
		resp.CategoryID = &id
	}
	if resp.ImageURLs == nil {
		resp.ImageURLs = []string{}
	}
	resp.Options = make([]priceOptionResponse, 0, len(options))
	for _, option := range options {
		resp.Options = append(resp.Options, priceOptionResponse{
			Label:              option.Label,
			PriceCents:         option.PriceCents,
			DiscountPriceCents: option.DiscountPriceCents,
			IsDefault:          option.IsDefault,
			EffectiveCents:     option.EffectiveCents(),
		})
	}
	return resp
}

// ListProducts serves the public storefront listing: active products only,
// optional category filter, cursor pagination.
func ListProducts(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, nextCursor := svc.ListPublic(r.Context(), categoryID, params)

		items := make([]productResponse, 0, len(products))
		for _, product := range products {
			items = append(items, newProductResponse(product, pricing.Resolve(product)))
		}
		responses.WriteSuccess(w, productListResponse{Items: items, NextCursor: nextCursor})
	}
}

// GetProductBySlug serves the public product page payload.
func GetProductBySlug(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required"))
			return
		}

		detail, err := svc.GetProductBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !detail.Product.IsActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		responses.WriteSuccess(w, newProductResponse(detail.Product, detail.Options))
	}
}

type categoryResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ImageURL *string `json:"image_url,omitempty"`
	Position int     `json:"position"`
}

// ListCategories serves the public category menu.
func ListCategories(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories := svc.ListCategories(r.Context())

		items := make([]categoryResponse, 0, len(categories))
		for _, category := range categories {
			items = append(items, categoryResponse{
				ID:       category.ID.String(),
				Name:     category.Name,
				Slug:     category.Slug,
				ImageURL: category.ImageURL,
				Position: category.Position,
			})
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
