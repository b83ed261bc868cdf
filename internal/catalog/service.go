package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/internal/pricing"
	"github.com/verdeleaf/storefront-backend/pkg/db"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	"github.com/verdeleaf/storefront-backend/pkg/pagination"
)

type catalogStore interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListProducts(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ReplacePriceOptions(ctx context.Context, productID uuid.UUID, options []models.ProductPriceOption) error
	ReplaceVariants(ctx context.Context, productID uuid.UUID, variants []models.ProductVariant) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// Service exposes the catalog to both the storefront and the admin
// back-office. No pricing logic lives in the store itself; resolution
// happens through internal/pricing.
type Service struct {
	repo catalogStore
	logg *logger.Logger
}

// NewService validates dependencies and builds the catalog service.
func NewService(repo catalogStore, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// ProductDetail pairs a product with its resolved purchasable options.
type ProductDetail struct {
	Product models.Product
	Options []pricing.Option
}

// GetProduct loads one product and resolves its options.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return &ProductDetail{Product: *product, Options: pricing.Resolve(*product)}, nil
}

// GetProductBySlug loads one product by slug and resolves its options.
func (s *Service) GetProductBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	product, err := s.repo.FindProductBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return &ProductDetail{Product: *product, Options: pricing.Resolve(*product)}, nil
}

// ListPublic returns active products for the storefront. Read failures
// on this display path degrade to an empty list with a log instead of
// failing the page.
func (s *Service) ListPublic(ctx context.Context, categoryID *uuid.UUID, params pagination.Params) ([]models.Product, string) {
	products, err := s.repo.ListProducts(ctx, ListFilter{CategoryID: categoryID, ActiveOnly: true}, params)
	if err != nil {
		s.logg.Error(ctx, "listing products for storefront", err)
		return []models.Product{}, ""
	}
	return paginate(products, params)
}

// ListAdmin returns all products including inactive ones; failures are
// surfaced since the back-office needs them.
func (s *Service) ListAdmin(ctx context.Context, categoryID *uuid.UUID, params pagination.Params) ([]models.Product, string, error) {
	products, err := s.repo.ListProducts(ctx, ListFilter{CategoryID: categoryID}, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	items, next := paginate(products, params)
	return items, next, nil
}

func paginate(products []models.Product, params pagination.Params) ([]models.Product, string) {
	limit := pagination.NormalizeLimit(params.Limit)
	if len(products) <= limit {
		return products, ""
	}
	products = products[:limit]
	last := products[len(products)-1]
	return products, pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
}

// ListCategories returns categories for navigation, failing open to an
// empty list on read errors.
func (s *Service) ListCategories(ctx context.Context) []models.Category {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		s.logg.Error(ctx, "listing categories", err)
		return []models.Category{}
	}
	return categories
}

// ProductInput carries admin-supplied product fields.
type ProductInput struct {
	CategoryID         *uuid.UUID
	Name               string
	Slug               string
	Description        *string
	ImageURLs          []string
	PricingMode        enums.PricingMode
	BasePriceCents     int
	DiscountPriceCents *int
	TierCents          map[enums.WeightTier]int
	PriceOptions       []models.ProductPriceOption
	Variants           []models.ProductVariant
	CBDPercent         *float64
	THCPercent         *float64
	IsActive           bool
	IsFeatured         bool
}

// CreateProduct validates pricing-mode exclusivity and persists the
// product with its nested options and variants.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	product, err := buildProduct(input)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return created, nil
}

// UpdateProduct revalidates and saves the product, replacing its
// option and variant sets wholesale.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error) {
	existing, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	product, err := buildProduct(input)
	if err != nil {
		return nil, err
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt

	for i := range product.PriceOptions {
		product.PriceOptions[i].ProductID = existing.ID
	}
	for i := range product.Variants {
		product.Variants[i].ProductID = existing.ID
	}

	options := product.PriceOptions
	variants := product.Variants
	product.PriceOptions = nil
	product.Variants = nil

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}
	if err := s.repo.ReplacePriceOptions(ctx, existing.ID, options); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replacing price options")
	}
	if err := s.repo.ReplaceVariants(ctx, existing.ID, variants); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replacing variants")
	}
	updated.PriceOptions = options
	updated.Variants = variants
	return updated, nil
}

// DeleteProduct removes a product and its nested rows.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	return nil
}

// CategoryInput carries admin-supplied category fields.
type CategoryInput struct {
	Name     string
	Slug     string
	ImageURL *string
	Position int
}

// CreateCategory persists a new category.
func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}

	category := &models.Category{
		Name:     strings.TrimSpace(input.Name),
		Slug:     strings.TrimSpace(input.Slug),
		ImageURL: input.ImageURL,
		Position: input.Position,
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating category")
	}
	return created, nil
}

// UpdateCategory saves changes to a category.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		category.Name = name
	}
	if slug := strings.TrimSpace(input.Slug); slug != "" {
		category.Slug = slug
	}
	category.ImageURL = input.ImageURL
	category.Position = input.Position

	updated, err := s.repo.UpdateCategory(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating category")
	}
	return updated, nil
}

// DeleteCategory removes a category; its products keep a null category
// rather than disappearing from the catalog.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting category")
	}
	return nil
}

func buildProduct(input ProductInput) (*models.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	if !input.PricingMode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pricing mode must be flat, weight_tiered, or dynamic")
	}

	product := &models.Product{
		CategoryID:         input.CategoryID,
		Name:               strings.TrimSpace(input.Name),
		Slug:               strings.TrimSpace(input.Slug),
		Description:        input.Description,
		ImageURLs:          pq.StringArray(input.ImageURLs),
		PricingMode:        input.PricingMode,
		BasePriceCents:     input.BasePriceCents,
		DiscountPriceCents: input.DiscountPriceCents,
		PriceOptions:       input.PriceOptions,
		Variants:           input.Variants,
		CBDPercent:         input.CBDPercent,
		THCPercent:         input.THCPercent,
		IsActive:           input.IsActive,
		IsFeatured:         input.IsFeatured,
	}
	for tier, cents := range input.TierCents {
		switch tier {
		case enums.WeightTier3g:
			product.Tier3gCents = cents
		case enums.WeightTier5g:
			product.Tier5gCents = cents
		case enums.WeightTier10g:
			product.Tier10gCents = cents
		case enums.WeightTier30g:
			product.Tier30gCents = cents
		case enums.WeightTier50g:
			product.Tier50gCents = cents
		default:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown weight tier %q", tier))
		}
	}

	if err := validatePricingExclusivity(product); err != nil {
		return nil, err
	}
	if err := validateVariants(product.Variants); err != nil {
		return nil, err
	}
	return product, nil
}

// validatePricingExclusivity rejects dual-populated pricing modes at
// write time instead of silently preferring one at read time.
func validatePricingExclusivity(product *models.Product) error {
	hasFlat := product.BasePriceCents > 0 || product.DiscountPriceCents != nil
	hasTiers := product.HasTierPrices()
	hasOptions := len(product.PriceOptions) > 0

	switch product.PricingMode {
	case enums.PricingModeFlat:
		if hasTiers {
			return pkgerrors.New(pkgerrors.CodeValidation, "flat products must not carry weight tier prices")
		}
		if hasOptions {
			return pkgerrors.New(pkgerrors.CodeValidation, "flat products must not carry price options")
		}
		if product.BasePriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "base price must not be negative")
		}
		if product.DiscountPriceCents != nil && *product.DiscountPriceCents >= product.BasePriceCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "discounted price must be below the base price")
		}

	case enums.PricingModeWeightTiered:
		if !hasTiers {
			return pkgerrors.New(pkgerrors.CodeValidation, "weight-tiered products need at least one positive tier price")
		}
		if hasFlat {
			return pkgerrors.New(pkgerrors.CodeValidation, "weight-tiered products must not carry a flat price")
		}
		if hasOptions {
			return pkgerrors.New(pkgerrors.CodeValidation, "weight-tiered products must not carry price options")
		}

	case enums.PricingModeDynamic:
		if !hasOptions {
			return pkgerrors.New(pkgerrors.CodeValidation, "dynamic products need at least one price option")
		}
		if hasFlat || hasTiers {
			return pkgerrors.New(pkgerrors.CodeValidation, "dynamic products must not carry flat or tier prices")
		}
		defaults := 0
		for _, opt := range product.PriceOptions {
			if strings.TrimSpace(opt.Label) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "price option labels are required")
			}
			if opt.PriceCents < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "price option prices must not be negative")
			}
			if opt.IsDefault {
				defaults++
			}
		}
		if defaults != 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "exactly one price option must be the default")
		}
	}
	return nil
}

func validateVariants(variants []models.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}
	defaults := 0
	for _, variant := range variants {
		if strings.TrimSpace(variant.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant names are required")
		}
		if variant.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "exactly one variant must be the default")
	}
	return nil
}
