package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dessy-cafe/storefront-backend/pkg/enums"
)

// Order is the server-authoritative record of a placed order. Monetary
// figures are recomputed from the catalog at creation; the invariant
// subtotal - discount + delivery_charge == total holds at all times.
type Order struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       int64                `gorm:"column:order_number;not null;uniqueIndex"`
	UserID            uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	Subtotal          decimal.Decimal      `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Discount          decimal.Decimal      `gorm:"column:discount;type:numeric(10,2);not null;default:0"`
	DeliveryCharge    decimal.Decimal      `gorm:"column:delivery_charge;type:numeric(10,2);not null;default:0"`
	Total             decimal.Decimal      `gorm:"column:total;type:numeric(10,2);not null"`
	Status            enums.OrderStatus    `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus     enums.PaymentStatus  `gorm:"column:payment_status;not null;default:'pending'"`
	CouponCode        *string              `gorm:"column:coupon_code"`
	DeliveryAddress   string               `gorm:"column:delivery_address;not null"`
	Phone             string               `gorm:"column:phone;not null"`
	Notes             *string              `gorm:"column:notes"`
	GatewayOrderID    *string              `gorm:"column:gateway_order_id"`
	GatewayPaymentID  *string              `gorm:"column:gateway_payment_id"`
	Items             []OrderItem          `gorm:"foreignKey:OrderID"`
	StatusHistory     []OrderStatusHistory `gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a cart line item at the moment the order was placed.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID   *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	ProductName string          `gorm:"column:product_name;not null"`
	VariantName *string         `gorm:"column:variant_name"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// OrderStatusHistory is one entry in the order's fulfillment timeline.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;not null"`
	Note      *string           `gorm:"column:note"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
