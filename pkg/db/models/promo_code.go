package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/verdeleaf/storefront-backend/pkg/enums"
)

// PromoCode is a named discount rule. Codes are stored canonicalized to
// uppercase; a nil ExpiresAt means the code never expires. There is no
// redemption tracking: codes are freely reusable until expiry.
type PromoCode struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code            string             `gorm:"column:code;not null;uniqueIndex"`
	Kind            enums.DiscountKind `gorm:"column:kind;type:discount_kind;not null;default:'percentage'"`
	DiscountPercent decimal.Decimal    `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	MinOrderCents   int                `gorm:"column:min_order_cents;not null;default:0"`
	Active          bool               `gorm:"column:active;not null;default:true"`
	ExpiresAt       *time.Time         `gorm:"column:expires_at"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
