package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/verdeleaf/storefront-backend/api/responses"
	"github.com/verdeleaf/storefront-backend/api/validators"
	catalogsvc "github.com/verdeleaf/storefront-backend/internal/catalog"
	"github.com/verdeleaf/storefront-backend/internal/pricing"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

type priceOptionPayload struct {
	Label      string `json:"label" validate:"required"`
	PriceCents int    `json:"price_cents" validate:"min=0"`
	IsDefault  bool   `json:"is_default"`
	Position   int    `json:"position"`
}

type variantPayload struct {
	Name            string  `json:"name" validate:"required"`
	ColorHex        *string `json:"color_hex"`
	PriceDeltaCents int     `json:"price_delta_cents"`
	IsDefault       bool    `json:"is_default"`
}

type productPayload struct {
	CategoryID         *uuid.UUID           `json:"category_id"`
	Name               string               `json:"name" validate:"required"`
	Slug               string               `json:"slug" validate:"required"`
	Description        *string              `json:"description"`
	ImageURLs          []string             `json:"image_urls"`
	PricingMode        string               `json:"pricing_mode" validate:"required,oneof=flat weight_tiered dynamic"`
	BasePriceCents     int                  `json:"base_price_cents" validate:"min=0"`
	DiscountPriceCents *int                 `json:"discount_price_cents"`
	TierCents          map[string]int       `json:"tier_cents"`
	PriceOptions       []priceOptionPayload `json:"price_options" validate:"dive"`
	Variants           []variantPayload     `json:"variants" validate:"dive"`
	CBDPercent         *float64             `json:"cbd_percent"`
	THCPercent         *float64             `json:"thc_percent"`
	IsActive           bool                 `json:"is_active"`
	IsFeatured         bool                 `json:"is_featured"`
}

func (p productPayload) toInput() (catalogsvc.ProductInput, error) {
	mode, err := enums.ParsePricingMode(p.PricingMode)
	if err != nil {
		return catalogsvc.ProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pricing mode")
	}

	tiers := map[enums.WeightTier]int{}
	for raw, cents := range p.TierCents {
		tier, err := enums.ParseWeightTier(raw)
		if err != nil {
			return catalogsvc.ProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid weight tier")
		}
		tiers[tier] = cents
	}

	options := make([]models.ProductPriceOption, 0, len(p.PriceOptions))
	for _, option := range p.PriceOptions {
		options = append(options, models.ProductPriceOption{
			Label:      option.Label,
			PriceCents: option.PriceCents,
			IsDefault:  option.IsDefault,
			Position:   option.Position,
		})
	}

	variants := make([]models.ProductVariant, 0, len(p.Variants))
	for _, variant := range p.Variants {
		variants = append(variants, models.ProductVariant{
			Name:            variant.Name,
			ColorHex:        variant.ColorHex,
			PriceDeltaCents: variant.PriceDeltaCents,
			IsDefault:       variant.IsDefault,
		})
	}

	return catalogsvc.ProductInput{
		CategoryID:         p.CategoryID,
		Name:               p.Name,
		Slug:               p.Slug,
		Description:        p.Description,
		ImageURLs:          p.ImageURLs,
		PricingMode:        mode,
		BasePriceCents:     p.BasePriceCents,
		DiscountPriceCents: p.DiscountPriceCents,
		TierCents:          tiers,
		PriceOptions:       options,
		Variants:           variants,
		CBDPercent:         p.CBDPercent,
		THCPercent:         p.THCPercent,
		IsActive:           p.IsActive,
		IsFeatured:         p.IsFeatured,
	}, nil
}

// AdminListProducts lists the full catalog including hidden products.
func AdminListProducts(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		products, nextCursor, err := svc.ListAdmin(r.Context(), categoryID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productResponse, 0, len(products))
		for _, product := range products {
			items = append(items, newProductResponse(product, pricing.Resolve(product)))
		}
		responses.WriteSuccess(w, productListResponse{Items: items, NextCursor: nextCursor})
	}
}

// AdminGetProduct returns a single product by id.
func AdminGetProduct(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(detail.Product, detail.Options))
	}
}

// AdminCreateProduct creates a product with its options and variants.
func AdminCreateProduct(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(*product, pricing.Resolve(*product)))
	}
}

// AdminUpdateProduct replaces a product's fields, options and variants.
func AdminUpdateProduct(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(*product, pricing.Resolve(*product)))
	}
}

// AdminDeleteProduct removes a product.
func AdminDeleteProduct(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type categoryPayload struct {
	Name     string  `json:"name" validate:"required"`
	Slug     string  `json:"slug" validate:"required"`
	ImageURL *string `json:"image_url"`
	Position int     `json:"position"`
}

// AdminCreateCategory creates a category.
func AdminCreateCategory(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload categoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), catalogsvc.CategoryInput{
			Name:     payload.Name,
			Slug:     payload.Slug,
			ImageURL: payload.ImageURL,
			Position: payload.Position,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, categoryResponse{
			ID:       category.ID.String(),
			Name:     category.Name,
			Slug:     category.Slug,
			ImageURL: category.ImageURL,
			Position: category.Position,
		})
	}
}

// AdminUpdateCategory updates a category.
func AdminUpdateCategory(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload categoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.UpdateCategory(r.Context(), id, catalogsvc.CategoryInput{
			Name:     payload.Name,
			Slug:     payload.Slug,
			ImageURL: payload.ImageURL,
			Position: payload.Position,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categoryResponse{
			ID:       category.ID.String(),
			Name:     category.Name,
			Slug:     category.Slug,
			ImageURL: category.ImageURL,
			Position: category.Position,
		})
	}
}

// AdminDeleteCategory removes a category, leaving its products uncategorized.
func AdminDeleteCategory(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCategory(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
