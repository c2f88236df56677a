package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dessy-cafe/storefront-backend/internal/coupons"
	"github.com/dessy-cafe/storefront-backend/internal/products"
	pkgerrors "github.com/dessy-cafe/storefront-backend/pkg/errors"
	"github.com/dessy-cafe/storefront-backend/pkg/logger"
)

// Service exposes the customer cart operations. Every mutation reprices the
// cart from the catalog and revalidates any applied coupon before the
// snapshot is saved.
type Service interface {
	Get(ctx context.Context, userID string) (*Quote, error)
	AddItem(ctx context.Context, userID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*Quote, error)
	UpdateQuantity(ctx context.Context, userID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*Quote, error)
	RemoveItem(ctx context.Context, userID string, productID uuid.UUID, variantID *uuid.UUID) (*Quote, error)
	Clear(ctx context.Context, userID string) error
	ApplyCoupon(ctx context.Context, userID, code string) (*Quote, error)
	RemoveCoupon(ctx context.Context, userID string) (*Quote, error)
}

type productResolver interface {
	ResolveCartItem(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*products.PricedItem, error)
}

type couponValidator interface {
	ValidateForCart(ctx context.Context, code string, basket coupons.Basket) (*coupons.Discount, error)
}

type service struct {
	store   Store
	catalog productResolver
	coupons couponValidator
	pricing Pricing
	logg    *logger.Logger
}

// NewService constructs a cart service instance.
func NewService(store Store, catalog productResolver, couponSvc couponValidator, pricing Pricing, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product resolver required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	return &service{
		store:   store,
		catalog: catalog,
		coupons: couponSvc,
		pricing: pricing,
		logg:    logg,
	}, nil
}

func (s *service) Get(ctx context.Context, userID string) (*Quote, error) {
	engine, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	quote := engine.Quote()
	return &quote, nil
}

func (s *service) AddItem(ctx context.Context, userID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*Quote, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	item, err := s.catalog.ResolveCartItem(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}

	engine, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := engine.AddItem(LineItem{
		ProductID:   item.ProductID,
		VariantID:   item.VariantID,
		ProductName: item.ProductName,
		VariantName: item.VariantName,
		CategoryID:  item.CategoryID,
		UnitPrice:   item.UnitPrice,
		Quantity:    quantity,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "adding cart item")
	}

	return s.finish(ctx, userID, engine)
}

func (s *service) UpdateQuantity(ctx context.Context, userID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*Quote, error) {
	engine, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	engine.UpdateQuantity(productID, variantID, quantity)
	return s.finish(ctx, userID, engine)
}

func (s *service) RemoveItem(ctx context.Context, userID string, productID uuid.UUID, variantID *uuid.UUID) (*Quote, error) {
	engine, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	engine.RemoveItem(productID, variantID)
	return s.finish(ctx, userID, engine)
}

func (s *service) Clear(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
	}
	return nil
}

func (s *service) ApplyCoupon(ctx context.Context, userID, code string) (*Quote, error) {
	engine, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if engine.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot apply a coupon to an empty cart")
	}

	discount, err := s.coupons.ValidateForCart(ctx, code, basketOf(engine))
	if err != nil {
		return nil, err
	}
	engine.ApplyCoupon(discount.Code, discount.Amount)

	return s.save(ctx, userID, engine)
}

func (s *service) RemoveCoupon(ctx context.Context, userID string) (*Quote, error) {
	engine, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	engine.RemoveCoupon()
	return s.save(ctx, userID, engine)
}

func (s *service) load(ctx context.Context, userID string) (*Engine, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user is required")
	}
	snap, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}
	return Restore(s.pricing, snap), nil
}

// finish revalidates the applied coupon against the mutated cart and saves.
// A coupon that no longer qualifies is dropped rather than failing the
// mutation itself.
func (s *service) finish(ctx context.Context, userID string, engine *Engine) (*Quote, error) {
	if coupon := engine.Coupon(); coupon != nil {
		discount, err := s.coupons.ValidateForCart(ctx, coupon.Code, basketOf(engine))
		switch {
		case err == nil:
			engine.ApplyCoupon(discount.Code, discount.Amount)
		case couponNoLongerQualifies(err):
			if s.logg != nil {
				s.logg.Info(s.logg.WithField(ctx, "coupon", coupon.Code), "dropping coupon after cart change")
			}
			engine.RemoveCoupon()
		default:
			return nil, err
		}
	}
	return s.save(ctx, userID, engine)
}

func (s *service) save(ctx context.Context, userID string, engine *Engine) (*Quote, error) {
	if err := s.store.Save(ctx, userID, engine.Snapshot()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart")
	}
	quote := engine.Quote()
	return &quote, nil
}

func couponNoLongerQualifies(err error) bool {
	return pkgerrors.Is(err, pkgerrors.CodeValidation) ||
		pkgerrors.Is(err, pkgerrors.CodeNotFound) ||
		pkgerrors.Is(err, pkgerrors.CodeStateConflict)
}

func basketOf(engine *Engine) coupons.Basket {
	basket := coupons.Basket{Subtotal: engine.Subtotal()}
	for _, item := range engine.Items() {
		basket.Lines = append(basket.Lines, coupons.BasketLine{
			ProductID:  item.ProductID,
			CategoryID: item.CategoryID,
			LineTotal:  item.LineTotal(),
		})
	}
	return basket
}
