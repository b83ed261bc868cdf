package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/verdeleaf/storefront-backend/pkg/enums"
)

// Product represents a sellable catalog listing. PricingMode is explicit
// and mutually exclusive: flat products carry BasePriceCents (plus an
// optional discounted override), weight-tiered products carry the five
// tier columns, dynamic products carry PriceOptions rows.
type Product struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  *uuid.UUID        `gorm:"column:category_id;type:uuid"`
	Name        string            `gorm:"column:name;not null"`
	Slug        string            `gorm:"column:slug;not null;uniqueIndex"`
	Description *string           `gorm:"column:description"`
	ImageURLs   pq.StringArray    `gorm:"column:image_urls;type:text[];not null;default:ARRAY[]::text[]"`
	PricingMode enums.PricingMode `gorm:"column:pricing_mode;type:pricing_mode;not null;default:'flat'"`

	BasePriceCents     int  `gorm:"column:base_price_cents;not null;default:0"`
	DiscountPriceCents *int `gorm:"column:discount_price_cents"`

	Tier3gCents  int `gorm:"column:tier_3g_cents;not null;default:0"`
	Tier5gCents  int `gorm:"column:tier_5g_cents;not null;default:0"`
	Tier10gCents int `gorm:"column:tier_10g_cents;not null;default:0"`
	Tier30gCents int `gorm:"column:tier_30g_cents;not null;default:0"`
	Tier50gCents int `gorm:"column:tier_50g_cents;not null;default:0"`

	PriceOptions []ProductPriceOption `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variants     []ProductVariant     `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`

	CBDPercent *float64 `gorm:"column:cbd_percent;type:numeric(5,2)"`
	THCPercent *float64 `gorm:"column:thc_percent;type:numeric(5,2)"`

	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	IsFeatured bool      `gorm:"column:is_featured;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TierCents returns the stored price for the given weight tier.
func (p Product) TierCents(tier enums.WeightTier) int {
	switch tier {
	case enums.WeightTier3g:
		return p.Tier3gCents
	case enums.WeightTier5g:
		return p.Tier5gCents
	case enums.WeightTier10g:
		return p.Tier10gCents
	case enums.WeightTier30g:
		return p.Tier30gCents
	case enums.WeightTier50g:
		return p.Tier50gCents
	default:
		return 0
	}
}

// HasTierPrices reports whether any weight tier carries a positive price.
func (p Product) HasTierPrices() bool {
	for _, tier := range enums.WeightTiers() {
		if p.TierCents(tier) > 0 {
			return true
		}
	}
	return false
}

// ProductPriceOption is an admin-defined (label, price) pair for products
// not sold by weight or at a single flat price. Position preserves
// creation order; exactly one option per product is expected to be default.
type ProductPriceOption struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Label      string    `gorm:"column:label;not null"`
	PriceCents int       `gorm:"column:price_cents;not null"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false"`
	Position   int       `gorm:"column:position;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ProductVariant is a color variant contributing a price delta on top of
// the resolved base/tier price.
type ProductVariant struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name            string    `gorm:"column:name;not null"`
	ColorHex        *string   `gorm:"column:color_hex"`
	PriceDeltaCents int       `gorm:"column:price_delta_cents;not null;default:0"`
	IsDefault       bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
