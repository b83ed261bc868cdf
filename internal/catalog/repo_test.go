package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	"github.com/verdeleaf/storefront-backend/pkg/pagination"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  image_url TEXT,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  category_id TEXT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  image_urls TEXT NOT NULL DEFAULT '{}',
  pricing_mode TEXT NOT NULL DEFAULT 'flat',
  base_price_cents INTEGER NOT NULL DEFAULT 0,
  discount_price_cents INTEGER,
  tier_3g_cents INTEGER NOT NULL DEFAULT 0,
  tier_5g_cents INTEGER NOT NULL DEFAULT 0,
  tier_10g_cents INTEGER NOT NULL DEFAULT 0,
  tier_30g_cents INTEGER NOT NULL DEFAULT 0,
  tier_50g_cents INTEGER NOT NULL DEFAULT 0,
  cbd_percent REAL,
  thc_percent REAL,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_featured INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS product_price_options (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  label TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  color_hex TEXT,
  price_delta_cents INTEGER NOT NULL DEFAULT 0,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newCatalogProduct(t *testing.T, db *gorm.DB, name string, active bool, createdAt time.Time) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:             uuid.New(),
		Name:           name,
		Slug:           name,
		PricingMode:    enums.PricingModeFlat,
		BasePriceCents: 1500,
		IsActive:       active,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryFindProductPreloadsOrdered(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	product := &models.Product{
		ID:          uuid.New(),
		Name:        "infusion",
		Slug:        "infusion",
		PricingMode: enums.PricingModeDynamic,
	}
	require.NoError(t, db.Create(product).Error)

	// Insert options out of position order to prove the preload sorts.
	options := []models.ProductPriceOption{
		{ID: uuid.New(), ProductID: product.ID, Label: "box of 60", PriceCents: 3400, Position: 2, CreatedAt: now},
		{ID: uuid.New(), ProductID: product.ID, Label: "box of 20", PriceCents: 1400, IsDefault: true, Position: 0, CreatedAt: now},
		{ID: uuid.New(), ProductID: product.ID, Label: "box of 40", PriceCents: 2500, Position: 1, CreatedAt: now},
	}
	for i := range options {
		require.NoError(t, db.Create(&options[i]).Error)
	}
	variants := []models.ProductVariant{
		{ID: uuid.New(), ProductID: product.ID, Name: "amber", IsDefault: true, CreatedAt: now},
		{ID: uuid.New(), ProductID: product.ID, Name: "clear", PriceDeltaCents: 200, CreatedAt: now.Add(time.Second)},
	}
	for i := range variants {
		require.NoError(t, db.Create(&variants[i]).Error)
	}

	found, err := repo.FindProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, found.PriceOptions, 3)
	require.Equal(t, "box of 20", found.PriceOptions[0].Label)
	require.Equal(t, "box of 40", found.PriceOptions[1].Label)
	require.Equal(t, "box of 60", found.PriceOptions[2].Label)
	require.Len(t, found.Variants, 2)
	require.Equal(t, "amber", found.Variants[0].Name)

	bySlug, err := repo.FindProductBySlug(ctx, "infusion")
	require.NoError(t, err)
	require.Equal(t, product.ID, bySlug.ID)

	_, err = repo.FindProduct(ctx, uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListProductsFiltersAndPaginates(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var newest *models.Product
	for i := 0; i < 4; i++ {
		p := newCatalogProduct(t, db, string(rune('a'+i)), true, base.Add(time.Duration(i)*time.Minute))
		newest = p
	}
	newCatalogProduct(t, db, "hidden", false, base.Add(time.Hour))

	active, err := repo.ListProducts(ctx, ListFilter{ActiveOnly: true}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, active, 4)
	// Newest first.
	require.Equal(t, newest.ID, active[0].ID)

	all, err := repo.ListProducts(ctx, ListFilter{}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 5)

	// LimitWithBuffer returns one extra row so callers can detect more pages.
	firstPage, err := repo.ListProducts(ctx, ListFilter{ActiveOnly: true}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, firstPage, 3)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: firstPage[1].CreatedAt, ID: firstPage[1].ID})
	secondPage, err := repo.ListProducts(ctx, ListFilter{ActiveOnly: true}, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, secondPage, 2)
	require.True(t, secondPage[0].CreatedAt.Before(firstPage[1].CreatedAt))
}

func TestRepositoryListProductsByCategory(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := &models.Category{ID: uuid.New(), Name: "Fleurs", Slug: "fleurs"}
	require.NoError(t, db.Create(category).Error)

	inCategory := newCatalogProduct(t, db, "flower", true, time.Now())
	require.NoError(t, db.Model(inCategory).Update("category_id", category.ID).Error)
	newCatalogProduct(t, db, "other", true, time.Now())

	listed, err := repo.ListProducts(ctx, ListFilter{CategoryID: &category.ID}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, inCategory.ID, listed[0].ID)
}

func TestRepositoryReplacePriceOptions(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := &models.Product{ID: uuid.New(), Name: "oil", Slug: "oil", PricingMode: enums.PricingModeDynamic}
	require.NoError(t, db.Create(product).Error)
	require.NoError(t, db.Create(&models.ProductPriceOption{
		ID: uuid.New(), ProductID: product.ID, Label: "old", PriceCents: 100, IsDefault: true,
	}).Error)

	replacement := []models.ProductPriceOption{
		{ID: uuid.New(), ProductID: product.ID, Label: "10ml", PriceCents: 2990, IsDefault: true, Position: 0},
		{ID: uuid.New(), ProductID: product.ID, Label: "30ml", PriceCents: 6990, Position: 1},
	}
	require.NoError(t, repo.ReplacePriceOptions(ctx, product.ID, replacement))

	found, err := repo.FindProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, found.PriceOptions, 2)
	require.Equal(t, "10ml", found.PriceOptions[0].Label)

	// Replacing with nil clears the set.
	require.NoError(t, repo.ReplacePriceOptions(ctx, product.ID, nil))
	found, err = repo.FindProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Empty(t, found.PriceOptions)
}

func TestRepositoryCategoriesOrdering(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for _, c := range []models.Category{
		{ID: uuid.New(), Name: "Resines", Slug: "resines", Position: 2},
		{ID: uuid.New(), Name: "Fleurs", Slug: "fleurs", Position: 1},
		{ID: uuid.New(), Name: "Huiles", Slug: "huiles", Position: 1},
	} {
		category := c
		require.NoError(t, db.Create(&category).Error)
	}

	categories, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	require.Equal(t, "Fleurs", categories[0].Name)
	require.Equal(t, "Huiles", categories[1].Name)
	require.Equal(t, "Resines", categories[2].Name)
}
