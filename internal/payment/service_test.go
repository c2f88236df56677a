package payment

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dessy-cafe/storefront-backend/internal/orders"
	"github.com/dessy-cafe/storefront-backend/pkg/enums"
	pkgerrors "github.com/dessy-cafe/storefront-backend/pkg/errors"
	"github.com/dessy-cafe/storefront-backend/pkg/razorpay"
)

type fakeGateway struct {
	created  []razorpay.OrderRequest
	fail     error
	validSig string
}

func (f *fakeGateway) CreateOrder(_ context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.created = append(f.created, req)
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_gw_%d", len(f.created)),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == f.validSig
}

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

type fakeOrders struct {
	byID    map[uuid.UUID]*orders.OrderDTO
	paid    []string
	failed  []uuid.UUID
	markErr error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{byID: map[uuid.UUID]*orders.OrderDTO{}}
}

func (f *fakeOrders) GetByID(_ context.Context, orderID uuid.UUID, actor orders.Actor) (*orders.OrderDTO, error) {
	order, ok := f.byID[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if actor.Role != enums.UserRoleAdmin && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrders) AttachGatewayOrder(_ context.Context, orderID, _ uuid.UUID, gatewayOrderID string) (*orders.OrderDTO, error) {
	order := f.byID[orderID]
	order.GatewayOrderID = &gatewayOrderID
	clone := *order
	return &clone, nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, orderID uuid.UUID, gatewayPaymentID string) (*orders.OrderDTO, error) {
	if f.markErr != nil {
		return nil, f.markErr
	}
	order := f.byID[orderID]
	order.PaymentStatus = enums.PaymentStatusCompleted
	order.Status = enums.OrderStatusConfirmed
	order.GatewayPaymentID = &gatewayPaymentID
	f.paid = append(f.paid, gatewayPaymentID)
	clone := *order
	return &clone, nil
}

func (f *fakeOrders) MarkPaymentFailed(_ context.Context, orderID uuid.UUID) error {
	order := f.byID[orderID]
	order.PaymentStatus = enums.PaymentStatusFailed
	f.failed = append(f.failed, orderID)
	return nil
}

func seedOrder(f *fakeOrders, userID uuid.UUID, total string) *orders.OrderDTO {
	order := &orders.OrderDTO{
		ID:            uuid.New(),
		OrderNumber:   42,
		UserID:        userID,
		Total:         decimal.RequireFromString(total),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
	}
	f.byID[order.ID] = order
	return order
}

func newTestService(t *testing.T, gateway *fakeGateway, orderSvc *fakeOrders) Service {
	t.Helper()
	svc, err := NewService(gateway, orderSvc, nil)
	require.NoError(t, err)
	return svc
}

func TestInitiateCheckoutCreatesGatewayOrder(t *testing.T) {
	gateway := &fakeGateway{}
	orderSvc := newFakeOrders()
	userID := uuid.New()
	order := seedOrder(orderSvc, userID, "549.50")
	svc := newTestService(t, gateway, orderSvc)

	session, err := svc.InitiateCheckout(context.Background(), order.ID, userID)
	require.NoError(t, err)

	assert.Equal(t, order.ID, session.OrderID)
	assert.Equal(t, "order_gw_1", session.GatewayOrderID)
	assert.Equal(t, int64(54950), session.Amount)
	assert.Equal(t, "INR", session.Currency)
	assert.Equal(t, "rzp_test_key", session.KeyID)

	require.Len(t, gateway.created, 1)
	assert.Equal(t, "order-42", gateway.created[0].Receipt)

	require.NotNil(t, orderSvc.byID[order.ID].GatewayOrderID)
	assert.Equal(t, "order_gw_1", *orderSvc.byID[order.ID].GatewayOrderID)
}

func TestInitiateCheckoutRejectsPaidOrder(t *testing.T) {
	gateway := &fakeGateway{}
	orderSvc := newFakeOrders()
	userID := uuid.New()
	order := seedOrder(orderSvc, userID, "100")
	order.PaymentStatus = enums.PaymentStatusCompleted
	svc := newTestService(t, gateway, orderSvc)

	_, err := svc.InitiateCheckout(context.Background(), order.ID, userID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, gateway.created)
}

func TestInitiateCheckoutRejectsNonPendingOrder(t *testing.T) {
	gateway := &fakeGateway{}
	orderSvc := newFakeOrders()
	userID := uuid.New()
	order := seedOrder(orderSvc, userID, "100")
	order.Status = enums.OrderStatusCancelled
	svc := newTestService(t, gateway, orderSvc)

	_, err := svc.InitiateCheckout(context.Background(), order.ID, userID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
}

func TestInitiateCheckoutForbiddenForOtherCustomer(t *testing.T) {
	gateway := &fakeGateway{}
	orderSvc := newFakeOrders()
	order := seedOrder(orderSvc, uuid.New(), "100")
	svc := newTestService(t, gateway, orderSvc)

	_, err := svc.InitiateCheckout(context.Background(), order.ID, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}

func TestInitiateCheckoutWrapsGatewayFailure(t *testing.T) {
	gateway := &fakeGateway{fail: fmt.Errorf("gateway returned 503")}
	orderSvc := newFakeOrders()
	userID := uuid.New()
	order := seedOrder(orderSvc, userID, "100")
	svc := newTestService(t, gateway, orderSvc)

	_, err := svc.InitiateCheckout(context.Background(), order.ID, userID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
	assert.Nil(t, orderSvc.byID[order.ID].GatewayOrderID)
}

func TestVerifyPaymentMarksOrderPaid(t *testing.T) {
	gateway := &fakeGateway{validSig: "good-signature"}
	orderSvc := newFakeOrders()
	userID := uuid.New()
	order := seedOrder(orderSvc, userID, "300")
	svc := newTestService(t, gateway, orderSvc)

	session, err := svc.InitiateCheckout(context.Background(), order.ID, userID)
	require.NoError(t, err)

	paid, err := svc.VerifyPayment(context.Background(), userID, VerifyInput{
		OrderID:          order.ID,
		GatewayOrderID:   session.GatewayOrderID,
		GatewayPaymentID: "pay_123",
		Signature:        "good-signature",
	})
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusCompleted, paid.PaymentStatus)
	assert.Equal(t, enums.OrderStatusConfirmed, paid.Status)
	assert.Equal(t, []string{"pay_123"}, orderSvc.paid)
}

func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
	gateway := &fakeGateway{validSig: "good-signature"}
	orderSvc := newFakeOrders()
	userID := uuid.New()
	order := seedOrder(orderSvc, userID, "300")
	svc := newTestService(t, gateway, orderSvc)

	session, err := svc.InitiateCheckout(context.Background(), order.ID, userID)
	require.NoError(t, err)

	_, err = svc.VerifyPayment(context.Background(), userID, VerifyInput{
		OrderID:          order.ID,
		GatewayOrderID:   session.GatewayOrderID,
		GatewayPaymentID: "pay_123",
		Signature:        "forged",
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Empty(t, orderSvc.paid)
}

func TestVerifyPaymentRejectsMismatchedGatewayOrder(t *testing.T) {
	gateway := &fakeGateway{validSig: "good-signature"}
	orderSvc := newFakeOrders()
	userID := uuid.New()
	order := seedOrder(orderSvc, userID, "300")
	svc := newTestService(t, gateway, orderSvc)

	_, err := svc.InitiateCheckout(context.Background(), order.ID, userID)
	require.NoError(t, err)

	_, err = svc.VerifyPayment(context.Background(), userID, VerifyInput{
		OrderID:          order.ID,
		GatewayOrderID:   "order_gw_other",
		GatewayPaymentID: "pay_123",
		Signature:        "good-signature",
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestVerifyPaymentRequiresGatewayOrder(t *testing.T) {
	gateway := &fakeGateway{validSig: "good-signature"}
	orderSvc := newFakeOrders()
	userID := uuid.New()
	order := seedOrder(orderSvc, userID, "300")
	svc := newTestService(t, gateway, orderSvc)

	_, err := svc.VerifyPayment(context.Background(), userID, VerifyInput{
		OrderID:          order.ID,
		GatewayOrderID:   "order_gw_1",
		GatewayPaymentID: "pay_123",
		Signature:        "good-signature",
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestReportFailureFlagsPayment(t *testing.T) {
	gateway := &fakeGateway{}
	orderSvc := newFakeOrders()
	userID := uuid.New()
	order := seedOrder(orderSvc, userID, "300")
	svc := newTestService(t, gateway, orderSvc)

	require.NoError(t, svc.ReportFailure(context.Background(), order.ID, userID))

	assert.Equal(t, enums.PaymentStatusFailed, orderSvc.byID[order.ID].PaymentStatus)
	assert.Equal(t, []uuid.UUID{order.ID}, orderSvc.failed)
}

func TestReportFailureForbiddenForOtherCustomer(t *testing.T) {
	gateway := &fakeGateway{}
	orderSvc := newFakeOrders()
	order := seedOrder(orderSvc, uuid.New(), "300")
	svc := newTestService(t, gateway, orderSvc)

	err := svc.ReportFailure(context.Background(), order.ID, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
	assert.Empty(t, orderSvc.failed)
}
