package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dessy-cafe/storefront-backend/internal/orders"
	"github.com/dessy-cafe/storefront-backend/pkg/enums"
	pkgerrors "github.com/dessy-cafe/storefront-backend/pkg/errors"
	"github.com/dessy-cafe/storefront-backend/pkg/logger"
	"github.com/dessy-cafe/storefront-backend/pkg/razorpay"
)

// CheckoutSession is what the storefront needs to open the gateway's
// checkout widget. Amount is in paise.
type CheckoutSession struct {
	OrderID        uuid.UUID `json:"order_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	KeyID          string    `json:"key_id"`
}

// VerifyInput is the gateway callback payload the client relays back.
type VerifyInput struct {
	OrderID          uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// Service exposes the payment leg of checkout.
type Service interface {
	InitiateCheckout(ctx context.Context, orderID, userID uuid.UUID) (*CheckoutSession, error)
	VerifyPayment(ctx context.Context, userID uuid.UUID, input VerifyInput) (*orders.OrderDTO, error)
	ReportFailure(ctx context.Context, orderID, userID uuid.UUID) error
}

type gatewayClient interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

type orderAccessor interface {
	GetByID(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*orders.OrderDTO, error)
	AttachGatewayOrder(ctx context.Context, orderID, userID uuid.UUID, gatewayOrderID string) (*orders.OrderDTO, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayPaymentID string) (*orders.OrderDTO, error)
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	gateway gatewayClient
	orders  orderAccessor
	logg    *logger.Logger
}

// NewService constructs a payment service instance.
func NewService(gateway gatewayClient, orderSvc orderAccessor, logg *logger.Logger) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	return &service{gateway: gateway, orders: orderSvc, logg: logg}, nil
}

// InitiateCheckout registers the order with the gateway and hands the
// client everything the checkout widget needs.
func (s *service) InitiateCheckout(ctx context.Context, orderID, userID uuid.UUID) (*CheckoutSession, error) {
	order, err := s.orders.GetByID(ctx, orderID, orders.Actor{UserID: userID, Role: enums.UserRoleCustomer})
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment").
			WithDetails(map[string]string{"status": order.Status.String()})
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   toPaise(order.Total),
		Currency: "INR",
		Receipt:  fmt.Sprintf("order-%d", order.OrderNumber),
		Notes: map[string]any{
			"order_id": order.ID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating gateway order")
	}

	if _, err := s.orders.AttachGatewayOrder(ctx, orderID, userID, gatewayOrder.ID); err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":         order.ID.String(),
			"gateway_order_id": gatewayOrder.ID,
		}), "checkout initiated")
	}

	return &CheckoutSession{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrder.ID,
		Amount:         gatewayOrder.Amount,
		Currency:       gatewayOrder.Currency,
		KeyID:          s.gateway.KeyID(),
	}, nil
}

// VerifyPayment checks the gateway signature and, on success, marks the
// order paid and confirms it.
func (s *service) VerifyPayment(ctx context.Context, userID uuid.UUID, input VerifyInput) (*orders.OrderDTO, error) {
	order, err := s.orders.GetByID(ctx, input.OrderID, orders.Actor{UserID: userID, Role: enums.UserRoleCustomer})
	if err != nil {
		return nil, err
	}
	if order.GatewayOrderID == nil || *order.GatewayOrderID != input.GatewayOrderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order does not match")
	}

	if !s.gateway.VerifySignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "order_id", order.ID.String()), "payment signature rejected")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment signature")
	}

	return s.orders.MarkPaid(ctx, input.OrderID, input.GatewayPaymentID)
}

// ReportFailure records a failed gateway attempt so the customer can retry.
func (s *service) ReportFailure(ctx context.Context, orderID, userID uuid.UUID) error {
	if _, err := s.orders.GetByID(ctx, orderID, orders.Actor{UserID: userID, Role: enums.UserRoleCustomer}); err != nil {
		return err
	}
	return s.orders.MarkPaymentFailed(ctx, orderID)
}

// toPaise converts a rupee amount into the gateway's integer paise unit.
func toPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
