package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a menu item. SellingPrice is what the cart charges for the base
// product; variants carry their own prices.
type Product struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string           `gorm:"column:name;not null"`
	Slug         string           `gorm:"column:slug;not null;uniqueIndex"`
	Description  string           `gorm:"column:description;not null;default:''"`
	CategoryID   uuid.UUID        `gorm:"column:category_id;type:uuid;not null"`
	BasePrice    decimal.Decimal  `gorm:"column:base_price;type:numeric(10,2);not null"`
	SellingPrice decimal.Decimal  `gorm:"column:selling_price;type:numeric(10,2);not null"`
	Images       []string         `gorm:"column:images;type:jsonb;serializer:json"`
	IsAvailable  bool             `gorm:"column:is_available;not null;default:true"`
	Variants     []ProductVariant `gorm:"foreignKey:ProductID"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is a size/option of a product with its own price point.
type ProductVariant struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Name         string          `gorm:"column:name;not null"`
	Size         string          `gorm:"column:size;not null;default:''"`
	BasePrice    decimal.Decimal `gorm:"column:base_price;type:numeric(10,2);not null"`
	SellingPrice decimal.Decimal `gorm:"column:selling_price;type:numeric(10,2);not null"`
	IsAvailable  bool            `gorm:"column:is_available;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
