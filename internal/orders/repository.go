package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dessy-cafe/storefront-backend/pkg/db/models"
	"github.com/dessy-cafe/storefront-backend/pkg/enums"
	"github.com/dessy-cafe/storefront-backend/pkg/pagination"
)

// ListFilter narrows the back-office order listing.
type ListFilter struct {
	Status *enums.OrderStatus
	UserID *uuid.UUID
}

// Repository wraps order persistence.
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

// NextOrderNumber allocates the next sequential order number. Callers must
// hold a transaction so concurrent checkouts cannot collide.
func (r *Repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var current int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(MAX(order_number), 0)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

// Create inserts the order with its items and initial status history.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// Update persists the order's own columns, not its associations.
func (r *Repository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit("Items", "StatusHistory").
		Save(order).Error
}

// AppendHistory records one timeline entry.
func (r *Repository) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByID loads the order with items and history, history oldest first.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at asc")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns a filtered page of orders, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.
		Preload("Items").
		Order("created_at desc").
		Offset(params.Offset()).
		Limit(pagination.NormalizeLimit(params.Limit)).
		Find(&orders).Error
	return orders, total, err
}
