package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dessy-cafe/storefront-backend/pkg/enums"
)

// Coupon entitles a cart to a discount once server-side validation passes.
// MaxDiscount caps percentage coupons; it is ignored for fixed ones.
type Coupon struct {
	ID                   uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                 string           `gorm:"column:code;not null;uniqueIndex"`
	Type                 enums.CouponType `gorm:"column:type;not null"`
	Value                decimal.Decimal  `gorm:"column:value;type:numeric(10,2);not null"`
	MinOrderAmount       decimal.Decimal  `gorm:"column:min_order_amount;type:numeric(10,2);not null;default:0"`
	MaxDiscount          decimal.Decimal  `gorm:"column:max_discount;type:numeric(10,2);not null;default:0"`
	UsageLimit           int              `gorm:"column:usage_limit;not null;default:0"`
	UsedCount            int              `gorm:"column:used_count;not null;default:0"`
	StartDate            time.Time        `gorm:"column:start_date;not null"`
	EndDate              time.Time        `gorm:"column:end_date;not null"`
	IsActive             bool             `gorm:"column:is_active;not null;default:true"`
	ApplicableProducts   []string         `gorm:"column:applicable_products;type:jsonb;serializer:json"`
	ApplicableCategories []string         `gorm:"column:applicable_categories;type:jsonb;serializer:json"`
	CreatedAt            time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
