package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dessy-cafe/storefront-backend/pkg/db/models"
	"github.com/dessy-cafe/storefront-backend/pkg/enums"
)

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      int64               `json:"order_number"`
	UserID           uuid.UUID           `json:"user_id"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	Discount         decimal.Decimal     `json:"discount"`
	DeliveryCharge   decimal.Decimal     `json:"delivery_charge"`
	Total            decimal.Decimal     `json:"total"`
	Status           enums.OrderStatus   `json:"status"`
	PaymentStatus    enums.PaymentStatus `json:"payment_status"`
	CouponCode       *string             `json:"coupon_code,omitempty"`
	DeliveryAddress  string              `json:"delivery_address"`
	Phone            string              `json:"phone"`
	Notes            *string             `json:"notes,omitempty"`
	GatewayOrderID   *string             `json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string             `json:"gateway_payment_id,omitempty"`
	Items            []OrderItemDTO      `json:"items"`
	Timeline         []TimelineStep      `json:"timeline,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// OrderItemDTO is the API shape of one order line.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	VariantName *string         `json:"variant_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

func toOrderItemDTO(item models.OrderItem) OrderItemDTO {
	return OrderItemDTO{
		ID:          item.ID,
		ProductID:   item.ProductID,
		VariantID:   item.VariantID,
		ProductName: item.ProductName,
		VariantName: item.VariantName,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		LineTotal:   item.LineTotal,
	}
}

func toOrderDTO(order *models.Order, timeline []TimelineStep) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, toOrderItemDTO(item))
	}
	return OrderDTO{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		UserID:           order.UserID,
		Subtotal:         order.Subtotal,
		Discount:         order.Discount,
		DeliveryCharge:   order.DeliveryCharge,
		Total:            order.Total,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		CouponCode:       order.CouponCode,
		DeliveryAddress:  order.DeliveryAddress,
		Phone:            order.Phone,
		Notes:            order.Notes,
		GatewayOrderID:   order.GatewayOrderID,
		GatewayPaymentID: order.GatewayPaymentID,
		Items:            items,
		Timeline:         timeline,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}
