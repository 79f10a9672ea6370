package coupon

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-promotions/internal/domain/cart"
)

// ApplyToCart commits c as the cart's only coupon. Previously applied
// coupons and line discounts are cleared first. It returns a
// *NotApplicableError carrying the evaluator's reason when c does not apply.
func ApplyToCart(in Input, c *Coupon) (cart.Cart, Breakdown, error) {
	res := CheckApplicability(in, c)
	if !res.Applicable {
		return cart.Cart{}, Breakdown{}, &NotApplicableError{CouponID: c.ID, Code: c.Code, Reason: res.Reason}
	}

	b, err := CalculateDiscount(in, c)
	if err != nil {
		return cart.Cart{}, Breakdown{}, err
	}

	itemDiscounts := make(map[string]decimal.Decimal, len(b.AffectedItems))
	for _, ai := range b.AffectedItems {
		if _, seen := itemDiscounts[ai.ProductID]; !seen {
			itemDiscounts[ai.ProductID] = ai.DiscountAmount
		}
	}

	updated := in.Cart.WithoutCoupons().WithCoupon(
		cart.AppliedCoupon{CouponID: c.ID, Code: c.Code, DiscountAmount: b.TotalDiscount},
		b.TotalDiscount,
		b.FreeShipping,
		itemDiscounts,
	)
	return updated, b, nil
}
