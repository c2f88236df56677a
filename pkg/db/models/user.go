package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dessy-cafe/storefront-backend/pkg/enums"
)

// User is a storefront account, either a customer or a back-office admin.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Name         string         `gorm:"column:name;not null"`
	Role         enums.UserRole `gorm:"column:role;not null;default:'customer'"`
	Phone        *string        `gorm:"column:phone"`
	Address      *string        `gorm:"column:address"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
