package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dessy-cafe/storefront-backend/internal/cart"
	"github.com/dessy-cafe/storefront-backend/internal/coupons"
	"github.com/dessy-cafe/storefront-backend/internal/products"
	"github.com/dessy-cafe/storefront-backend/pkg/db/models"
	"github.com/dessy-cafe/storefront-backend/pkg/enums"
	pkgerrors "github.com/dessy-cafe/storefront-backend/pkg/errors"
	"github.com/dessy-cafe/storefront-backend/pkg/logger"
	"github.com/dessy-cafe/storefront-backend/pkg/pagination"
	"github.com/dessy-cafe/storefront-backend/pkg/types"
)

// Actor identifies who is asking for an order.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateOrderInput holds the checkout payload. Items and amounts are never
// part of it; they come from the stored cart and the catalog.
type CreateOrderInput struct {
	DeliveryAddress string
	Phone           string
	Notes           *string
}

// Service exposes checkout and order lifecycle operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error)
	GetByID(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*types.Page[OrderDTO], error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*types.Page[OrderDTO], error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, note *string) (*OrderDTO, error)
	Cancel(ctx context.Context, orderID, userID uuid.UUID) (*OrderDTO, error)
	AttachGatewayOrder(ctx context.Context, orderID, userID uuid.UUID, gatewayOrderID string) (*OrderDTO, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayPaymentID string) (*OrderDTO, error)
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) error
}

type cartAccessor interface {
	Get(ctx context.Context, userID string) (*cart.Quote, error)
	Clear(ctx context.Context, userID string) error
}

type productResolver interface {
	ResolveCartItem(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*products.PricedItem, error)
}

type couponEngine interface {
	ValidateForCart(ctx context.Context, code string, basket coupons.Basket) (*coupons.Discount, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    *Repository
	tx      txRunner
	carts   cartAccessor
	catalog productResolver
	coupons couponEngine
	pricing cart.Pricing
	logg    *logger.Logger
}

// NewService constructs an order service instance.
func NewService(repo *Repository, tx txRunner, carts cartAccessor, catalog productResolver, couponSvc couponEngine, pricing cart.Pricing, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product resolver required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		carts:   carts,
		catalog: catalog,
		coupons: couponSvc,
		pricing: pricing,
		logg:    logg,
	}, nil
}

// Create turns the user's cart into an order. Every line is repriced from
// the catalog and the coupon is revalidated; the stored cart is advisory
// only.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}

	quote, err := s.carts.Get(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	if len(quote.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	engine := cart.NewEngine(s.pricing)
	for _, line := range quote.Items {
		priced, err := s.catalog.ResolveCartItem(ctx, line.ProductID, line.VariantID)
		if err != nil {
			return nil, err
		}
		if err := engine.AddItem(cart.LineItem{
			ProductID:   priced.ProductID,
			VariantID:   priced.VariantID,
			ProductName: priced.ProductName,
			VariantName: priced.VariantName,
			CategoryID:  priced.CategoryID,
			UnitPrice:   priced.UnitPrice,
			Quantity:    line.Quantity,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "building order")
		}
	}

	var couponCode *string
	if quote.CouponCode != "" {
		discount, err := s.coupons.ValidateForCart(ctx, quote.CouponCode, basketOf(engine))
		if err != nil {
			return nil, err
		}
		engine.ApplyCoupon(discount.Code, discount.Amount)
		couponCode = &discount.Code
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Subtotal:        engine.Subtotal(),
		Discount:        engine.Discount(),
		DeliveryCharge:  engine.DeliveryCharge(),
		Total:           engine.Total(),
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		CouponCode:      couponCode,
		DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
		Phone:           strings.TrimSpace(input.Phone),
		Notes:           input.Notes,
	}
	for _, line := range engine.Items() {
		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			VariantName: line.VariantName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal(),
		})
	}
	order.StatusHistory = []models.OrderStatusHistory{{
		ID:      uuid.New(),
		OrderID: order.ID,
		Status:  enums.OrderStatusPending,
	}}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		number, err := txRepo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocating order number")
		}
		order.OrderNumber = number

		if err := txRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}
		if couponCode != nil {
			if err := s.coupons.Redeem(ctx, tx, *couponCode); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx, userID.String()); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_id", order.ID.String()), "clearing cart after checkout", err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"total":        order.Total.String(),
		}), "order placed")
	}

	return s.toDTO(order)
}

func (s *service) GetByID(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role != enums.UserRoleAdmin && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	return s.toDTO(order)
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*types.Page[OrderDTO], error) {
	return s.list(ctx, ListFilter{UserID: &userID}, params)
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*types.Page[OrderDTO], error) {
	return s.list(ctx, filter, params)
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (*types.Page[OrderDTO], error) {
	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	payload := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		payload = append(payload, toOrderDTO(&rows[i], nil))
	}
	return &types.Page[OrderDTO]{
		Payload: payload,
		Total:   total,
		Page:    params.Page,
		Limit:   pagination.NormalizeLimit(params.Limit),
	}, nil
}

// UpdateStatus moves the order along the fulfillment pipeline. Disallowed
// transitions surface the attempted move so operators can see what went
// wrong.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, note *string) (*OrderDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
			WithDetails(map[string]string{
				"from": order.Status.String(),
				"to":   target.String(),
			})
	}

	if err := s.transition(ctx, order, target, note); err != nil {
		return nil, err
	}
	return s.toDTO(order)
}

// Cancel lets a customer abandon an order that hasn't entered preparation.
func (s *service) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	if !order.Status.CustomerCancellable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
			WithDetails(map[string]string{"status": order.Status.String()})
	}

	if order.PaymentStatus == enums.PaymentStatusCompleted {
		order.PaymentStatus = enums.PaymentStatusRefunded
	}
	note := "cancelled by customer"
	if err := s.transition(ctx, order, enums.OrderStatusCancelled, &note); err != nil {
		return nil, err
	}
	return s.toDTO(order)
}

// AttachGatewayOrder stores the payment gateway's order reference before
// the customer is redirected to checkout.
func (s *service) AttachGatewayOrder(ctx context.Context, orderID, userID uuid.UUID, gatewayOrderID string) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order payment is already settled")
	}

	order.GatewayOrderID = &gatewayOrderID
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving gateway order id")
	}
	return s.toDTO(order)
}

// MarkPaid records a verified payment and confirms the order.
func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayPaymentID string) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		return s.toDTO(order)
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment").
			WithDetails(map[string]string{"status": order.Status.String()})
	}

	order.PaymentStatus = enums.PaymentStatusCompleted
	order.GatewayPaymentID = &gatewayPaymentID
	note := "payment received"
	if err := s.transition(ctx, order, enums.OrderStatusConfirmed, &note); err != nil {
		return nil, err
	}
	return s.toDTO(order)
}

// MarkPaymentFailed flags a failed gateway payment; the order stays pending
// so the customer can retry.
func (s *service) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment already completed")
	}

	order.PaymentStatus = enums.PaymentStatusFailed
	if err := s.repo.Update(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving payment status")
	}
	return nil
}

func (s *service) transition(ctx context.Context, order *models.Order, target enums.OrderStatus, note *string) error {
	entry := &models.OrderStatusHistory{
		ID:      uuid.New(),
		OrderID: order.ID,
		Status:  target,
		Note:    note,
	}
	order.Status = target

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Update(ctx, order); err != nil {
			return err
		}
		return txRepo.AppendHistory(ctx, entry)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving status transition")
	}
	order.StatusHistory = append(order.StatusHistory, *entry)
	return nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) toDTO(order *models.Order) (*OrderDTO, error) {
	timeline, err := BuildTimeline(order.Status, order.StatusHistory)
	if err != nil {
		return nil, err
	}
	dto := toOrderDTO(order, timeline)
	return &dto, nil
}

func basketOf(engine *cart.Engine) coupons.Basket {
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
