package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdeleaf/storefront-backend/pkg/enums"
	"github.com/verdeleaf/storefront-backend/pkg/types"
)

// Order is the durable record created exactly once after confirmed
// payment. GatewayTransactionID is the idempotency key: duplicate
// webhook deliveries upsert against it instead of inserting twice.
type Order struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number               int64                `gorm:"column:number;autoIncrement;uniqueIndex"`
	GatewayTransactionID string               `gorm:"column:gateway_transaction_id;not null;uniqueIndex"`
	GatewayCustomerID    *string              `gorm:"column:gateway_customer_id"`
	Status               enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'pending'"`
	TotalCents           int                  `gorm:"column:total_cents;not null"`
	Currency             string               `gorm:"column:currency;not null"`
	ShippingMethod       enums.ShippingMethod `gorm:"column:shipping_method;type:shipping_method;not null"`
	ShippingCents        int                  `gorm:"column:shipping_cents;not null;default:0"`
	DiscountCents        int                  `gorm:"column:discount_cents;not null;default:0"`
	PromoCode            *string              `gorm:"column:promo_code"`
	CustomerEmail        string               `gorm:"column:customer_email;not null"`
	ShippingAddress      types.Address        `gorm:"column:shipping_address;type:jsonb"`
	BillingAddress       types.Address        `gorm:"column:billing_address;type:jsonb"`
	Items                []OrderLineItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
