package cart

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dessy-cafe/storefront-backend/pkg/config"
)

// Pricing is the delivery pricing policy applied when quoting a cart.
// Delivery is free strictly above the threshold; at or below it the
// standard fee applies.
type Pricing struct {
	FreeDeliveryThreshold decimal.Decimal
	StandardDeliveryFee   decimal.Decimal
}

// DefaultPricing mirrors the storefront's published policy.
func DefaultPricing() Pricing {
	return Pricing{
		FreeDeliveryThreshold: decimal.NewFromInt(500),
		StandardDeliveryFee:   decimal.NewFromInt(50),
	}
}

// PricingFromConfig parses the configured policy values.
func PricingFromConfig(cfg config.DeliveryConfig) (Pricing, error) {
	threshold, err := decimal.NewFromString(cfg.FreeThreshold)
	if err != nil {
		return Pricing{}, fmt.Errorf("parsing delivery free threshold: %w", err)
	}
	fee, err := decimal.NewFromString(cfg.StandardFee)
	if err != nil {
		return Pricing{}, fmt.Errorf("parsing delivery standard fee: %w", err)
	}
	return Pricing{FreeDeliveryThreshold: threshold, StandardDeliveryFee: fee}, nil
}

// LineItem is one priced line in the cart. VariantID is nil for the base
// product; two lines merge only when both product and variant match.
type LineItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	VariantName *string         `json:"variant_name,omitempty"`
	CategoryID  uuid.UUID       `json:"category_id"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// LineTotal returns unit price times quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (li LineItem) key() string {
	return lineKey(li.ProductID, li.VariantID)
}

func lineKey(productID uuid.UUID, variantID *uuid.UUID) string {
	if variantID == nil {
		return productID.String()
	}
	return productID.String() + ":" + variantID.String()
}

// AppliedCoupon records the voucher currently attached to the cart together
// with the discount granted at validation time.
type AppliedCoupon struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// Snapshot is the serializable state of a cart, suitable for cache storage.
type Snapshot struct {
	Items  []LineItem     `json:"items"`
	Coupon *AppliedCoupon `json:"coupon,omitempty"`
}

// Quote is the fully priced view of a cart.
type Quote struct {
	Items          []LineItem      `json:"items"`
	ItemCount      int             `json:"item_count"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	Discount       decimal.Decimal `json:"discount"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Total          decimal.Decimal `json:"total"`
}

// Engine is the cart calculator. It holds the line items and applied coupon
// and derives all monetary figures; it performs no I/O.
type Engine struct {
	pricing Pricing
	items   []LineItem
	coupon  *AppliedCoupon
}

// NewEngine returns an empty cart using the given pricing policy.
func NewEngine(pricing Pricing) *Engine {
	return &Engine{pricing: pricing}
}

// Restore rebuilds an engine from a stored snapshot.
func Restore(pricing Pricing, snap Snapshot) *Engine {
	e := NewEngine(pricing)
	e.items = append(e.items, snap.Items...)
	if snap.Coupon != nil {
		coupon := *snap.Coupon
		e.coupon = &coupon
	}
	return e
}

// AddItem merges the item into an existing line with the same product and
// variant, or appends a new line.
func (e *Engine) AddItem(item LineItem) error {
	if item.ProductID == uuid.Nil {
		return fmt.Errorf("product id is required")
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if item.UnitPrice.IsNegative() {
		return fmt.Errorf("unit price must not be negative")
	}
	for i := range e.items {
		if e.items[i].key() == item.key() {
			e.items[i].Quantity += item.Quantity
			return nil
		}
	}
	e.items = append(e.items, item)
	return nil
}

// UpdateQuantity sets the quantity of a line; zero or negative removes it.
func (e *Engine) UpdateQuantity(productID uuid.UUID, variantID *uuid.UUID, quantity int) {
	if quantity <= 0 {
		e.RemoveItem(productID, variantID)
		return
	}
	key := lineKey(productID, variantID)
	for i := range e.items {
		if e.items[i].key() == key {
			e.items[i].Quantity = quantity
			return
		}
	}
}

// RemoveItem deletes the matching line. Missing lines are a no-op.
func (e *Engine) RemoveItem(productID uuid.UUID, variantID *uuid.UUID) {
	key := lineKey(productID, variantID)
	for i := range e.items {
		if e.items[i].key() == key {
			e.items = append(e.items[:i], e.items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart and drops any applied coupon.
func (e *Engine) Clear() {
	e.items = nil
	e.coupon = nil
}

// ApplyCoupon attaches a validated coupon. Validation is the caller's job;
// the engine only records the outcome.
func (e *Engine) ApplyCoupon(code string, discount decimal.Decimal) {
	e.coupon = &AppliedCoupon{Code: code, Discount: discount}
}

// RemoveCoupon drops the applied coupon, if any.
func (e *Engine) RemoveCoupon() {
	e.coupon = nil
}

// Items returns a copy of the cart lines.
func (e *Engine) Items() []LineItem {
	out := make([]LineItem, len(e.items))
	copy(out, e.items)
	return out
}

// Coupon returns the applied coupon, or nil.
func (e *Engine) Coupon() *AppliedCoupon {
	if e.coupon == nil {
		return nil
	}
	coupon := *e.coupon
	return &coupon
}

// IsEmpty reports whether the cart has no lines.
func (e *Engine) IsEmpty() bool {
	return len(e.items) == 0
}

// ItemCount returns the total number of units across all lines.
func (e *Engine) ItemCount() int {
	count := 0
	for _, item := range e.items {
		count += item.Quantity
	}
	return count
}

// Subtotal sums the line totals.
func (e *Engine) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range e.items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// Discount returns the coupon discount clamped to the subtotal.
func (e *Engine) Discount() decimal.Decimal {
	if e.coupon == nil {
		return decimal.Zero
	}
	subtotal := e.Subtotal()
	if e.coupon.Discount.GreaterThan(subtotal) {
		return subtotal
	}
	if e.coupon.Discount.IsNegative() {
		return decimal.Zero
	}
	return e.coupon.Discount
}

// DeliveryCharge is zero for an empty cart and for subtotals strictly above
// the free-delivery threshold; otherwise the standard fee applies.
func (e *Engine) DeliveryCharge() decimal.Decimal {
	if e.IsEmpty() {
		return decimal.Zero
	}
	if e.Subtotal().GreaterThan(e.pricing.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return e.pricing.StandardDeliveryFee
}

// Total is subtotal minus discount plus delivery, never negative.
func (e *Engine) Total() decimal.Decimal {
	total := e.Subtotal().Sub(e.Discount()).Add(e.DeliveryCharge())
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Quote prices the whole cart in one pass.
func (e *Engine) Quote() Quote {
	q := Quote{
		Items:          e.Items(),
		ItemCount:      e.ItemCount(),
		Subtotal:       e.Subtotal(),
		Discount:       e.Discount(),
		DeliveryCharge: e.DeliveryCharge(),
		Total:          e.Total(),
	}
	if e.coupon != nil {
		q.CouponCode = e.coupon.Code
	}
	return q
}

// Snapshot captures the cart state for storage.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{Items: e.Items()}
	if e.coupon != nil {
		coupon := *e.coupon
		snap.Coupon = &coupon
	}
	return snap
}
