package coupons

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dessy-cafe/storefront-backend/pkg/db/models"
	"github.com/dessy-cafe/storefront-backend/pkg/pagination"
)

// Repository wraps coupon persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a coupon.
func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// Update persists all fields of the coupon.
func (r *Repository) Update(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Save(coupon).Error
}

// Delete removes the coupon row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Coupon{}, "id = ?", id).Error
}

// FindByID loads a coupon by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindByCode loads a coupon by its case-insensitive code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		First(&coupon, "UPPER(code) = ?", strings.ToUpper(code)).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// List returns a page of coupons with the total count.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Coupon, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&models.Coupon{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var coupons []models.Coupon
	err := query.
		Order("created_at desc").
		Offset(params.Offset()).
		Limit(pagination.NormalizeLimit(params.Limit)).
		Find(&coupons).Error
	return coupons, total, err
}

// IncrementUsage bumps used_count, refusing once the usage limit is reached.
// It reports whether a row was updated.
func (r *Repository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("UPPER(code) = ? AND (usage_limit = 0 OR used_count < usage_limit)", strings.ToUpper(code)).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
