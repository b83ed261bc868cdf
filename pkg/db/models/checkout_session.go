package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdeleaf/storefront-backend/pkg/enums"
	"github.com/verdeleaf/storefront-backend/pkg/types"
)

// CheckoutSession persists the server-side totals and line snapshot
// between payment intent creation and the gateway's confirmation. The
// payment intent id is unique so the webhook and the client callback
// converge on the same row.
type CheckoutSession struct {
	ID              uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentIntentID string                      `gorm:"column:payment_intent_id;not null;uniqueIndex"`
	CartToken       string                      `gorm:"column:cart_token;not null"`
	Status          enums.CheckoutSessionStatus `gorm:"column:status;type:checkout_session_status;not null;default:'open'"`
	Items           types.LineItemSnapshots     `gorm:"column:items;type:jsonb;serializer:json;not null"`
	SubtotalCents   int                         `gorm:"column:subtotal_cents;not null"`
	ShippingCents   int                         `gorm:"column:shipping_cents;not null"`
	DiscountCents   int                         `gorm:"column:discount_cents;not null;default:0"`
	TotalCents      int                         `gorm:"column:total_cents;not null"`
	Currency        string                      `gorm:"column:currency;not null"`
	ShippingMethod  enums.ShippingMethod        `gorm:"column:shipping_method;type:shipping_method;not null"`
	PromoCode       *string                     `gorm:"column:promo_code"`
	CustomerEmail   string                      `gorm:"column:customer_email;not null"`
	ShippingAddress types.Address               `gorm:"column:shipping_address;type:jsonb"`
	BillingAddress  types.Address               `gorm:"column:billing_address;type:jsonb"`
	CreatedAt       time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
