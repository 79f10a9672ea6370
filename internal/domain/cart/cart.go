// Package cart models a shopping cart as an immutable snapshot. Every
// transition returns a new Cart with Subtotal and Total recomputed, so
// discount math never runs against stale derived fields.
package cart

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for cart construction.
var (
	ErrEmptyItems       = errors.New("items required")
	ErrNegativeShipping = errors.New("shipping cost must not be negative")
)

// InvalidItemError indicates a line item with a non-positive quantity or a
// negative price.
type InvalidItemError struct {
	ProductID string
	Reason    string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid item %s: %s", e.ProductID, e.Reason)
}

// Item is a single cart line.
type Item struct {
	ProductID      string
	Quantity       int
	Price          decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalPrice     decimal.Decimal
}

// LineTotal returns price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AppliedCoupon records a coupon committed to the cart.
type AppliedCoupon struct {
	CouponID       string
	Code           string
	DiscountAmount decimal.Decimal
}

// Cart is owned by a single request and never shared between calls.
type Cart struct {
	UserID         string
	Items          []Item
	ShippingCost   decimal.Decimal
	TotalDiscount  decimal.Decimal
	FreeShipping   bool
	AppliedCoupons []AppliedCoupon

	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

// New validates the items and returns a cart with derived fields computed.
func New(userID string, items []Item, shipping decimal.Decimal) (Cart, error) {
	if len(items) == 0 {
		return Cart{}, ErrEmptyItems
	}
	if shipping.IsNegative() {
		return Cart{}, ErrNegativeShipping
	}
	for _, it := range items {
		if err := validateItem(it); err != nil {
			return Cart{}, err
		}
	}

	c := Cart{
		UserID:       userID,
		Items:        resetItems(items),
		ShippingCost: shipping,
	}
	return c.recalculate(), nil
}

func validateItem(it Item) error {
	if it.Quantity < 1 {
		return &InvalidItemError{ProductID: it.ProductID, Reason: "quantity must be at least 1"}
	}
	if it.Price.IsNegative() {
		return &InvalidItemError{ProductID: it.ProductID, Reason: "price must be non-negative"}
	}
	return nil
}

// WithItem adds quantity to an existing line for the same product or appends
// a new line.
func (c Cart) WithItem(it Item) (Cart, error) {
	if err := validateItem(it); err != nil {
		return Cart{}, err
	}
	next := c.clone()
	for i := range next.Items {
		if next.Items[i].ProductID == it.ProductID {
			next.Items[i].Quantity += it.Quantity
			next.Items[i].FinalPrice = next.Items[i].LineTotal().Sub(next.Items[i].DiscountAmount)
			return next.recalculate(), nil
		}
	}
	it.DiscountAmount = decimal.Zero
	it.FinalPrice = it.LineTotal()
	next.Items = append(next.Items, it)
	return next.recalculate(), nil
}

// WithoutItem drops every line for productID.
func (c Cart) WithoutItem(productID string) Cart {
	next := c.clone()
	items := next.Items[:0]
	for _, it := range next.Items {
		if it.ProductID != productID {
			items = append(items, it)
		}
	}
	next.Items = items
	return next.recalculate()
}

// WithoutCoupons removes all applied coupons and item-level discounts.
func (c Cart) WithoutCoupons() Cart {
	next := c.clone()
	next.AppliedCoupons = nil
	next.TotalDiscount = decimal.Zero
	next.FreeShipping = false
	next.Items = resetItems(next.Items)
	return next.recalculate()
}

// WithCoupon commits a single coupon's effects. itemDiscounts is keyed by
// product ID; lines without an entry keep their current discount.
func (c Cart) WithCoupon(
	applied AppliedCoupon,
	totalDiscount decimal.Decimal,
	freeShipping bool,
	itemDiscounts map[string]decimal.Decimal,
) Cart {
	next := c.clone()
	next.AppliedCoupons = append(next.AppliedCoupons, applied)
	next.TotalDiscount = totalDiscount
	next.FreeShipping = freeShipping
	for i := range next.Items {
		if d, ok := itemDiscounts[next.Items[i].ProductID]; ok {
			next.Items[i].DiscountAmount = d
			next.Items[i].FinalPrice = next.Items[i].LineTotal().Sub(d)
		}
	}
	return next.recalculate()
}

// Quantity returns the total number of units across all lines.
func (c Cart) Quantity() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// ProductIDs returns the distinct product IDs in line order.
func (c Cart) ProductIDs() []string {
	seen := make(map[string]struct{}, len(c.Items))
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

// EffectiveShipping is the shipping charge that lands on the total.
func (c Cart) EffectiveShipping() decimal.Decimal {
	if c.FreeShipping {
		return decimal.Zero
	}
	return c.ShippingCost
}

func (c Cart) clone() Cart {
	next := c
	next.Items = append([]Item(nil), c.Items...)
	next.AppliedCoupons = append([]AppliedCoupon(nil), c.AppliedCoupons...)
	return next
}

// recalculate derives Subtotal and Total. When free shipping is set the
// discount already equals the shipping cost and shipping is also left out,
// so the shipping cost comes off the subtotal.
func (c Cart) recalculate() Cart {
	subtotal := decimal.Zero
	for _, it := range c.Items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	c.Subtotal = subtotal.Round(2)

	total := c.Subtotal.Sub(c.TotalDiscount).Add(c.EffectiveShipping())
	if total.IsNegative() {
		total = decimal.Zero
	}
	c.Total = total.Round(2)
	return c
}

func resetItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		it.DiscountAmount = decimal.Zero
		it.FinalPrice = it.LineTotal()
		out[i] = it
	}
	return out
}
