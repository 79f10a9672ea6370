package handler

import (
	"github.com/go-faster/jx"

	"github.com/xenking/kart-promotions/internal/codec"
	"github.com/xenking/kart-promotions/internal/domain/cart"
	"github.com/xenking/kart-promotions/internal/domain/coupon"
)

func encodeWelcome(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("message", func(e *jx.Encoder) { e.Str("Welcome to E-Commerce Coupon API") })
		e.Field("version", func(e *jx.Encoder) { e.Str("1.0.0") })
		e.Field("endpoints", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("health", func(e *jx.Encoder) { e.Str("/api/health") })
				e.Field("products", func(e *jx.Encoder) { e.Str("/api/products") })
				e.Field("coupons", func(e *jx.Encoder) { e.Str("/api/coupons") })
				e.Field("applicableCoupons", func(e *jx.Encoder) { e.Str("/api/applicable-coupons") })
				e.Field("applyCoupon", func(e *jx.Encoder) { e.Str("/api/apply-coupon/{id}") })
			})
		})
	})
}

func encodeCouponSummary(e *jx.Encoder, c *coupon.Coupon) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("code", func(e *jx.Encoder) { e.Str(c.Code) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("type", func(e *jx.Encoder) { e.Str(string(c.Type())) })
		e.Field("discount", func(e *jx.Encoder) { codec.EncodeDiscount(e, c.Discount) })
	})
}

// breakdownFields writes the breakdown into the enclosing object. Metadata
// that does not apply to the coupon type is omitted.
func breakdownFields(e *jx.Encoder, b coupon.Breakdown) {
	e.Field("discountAmount", func(e *jx.Encoder) { codec.WriteMoney(e, b.TotalDiscount) })
	e.Field("freeShipping", func(e *jx.Encoder) { e.Bool(b.FreeShipping) })
	e.Field("affectedItems", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, it := range b.AffectedItems {
				encodeAffectedItem(e, it)
			}
		})
	})
	if b.TierApplied != "" {
		e.Field("tierApplied", func(e *jx.Encoder) { e.Str(b.TierApplied) })
	}
	if b.ApplicationsUsed > 0 {
		e.Field("applicationsUsed", func(e *jx.Encoder) { e.Int(b.ApplicationsUsed) })
	}
	if !b.LoyaltyMultiplier.IsZero() {
		e.Field("loyaltyMultiplier", func(e *jx.Encoder) { codec.WriteDecimal(e, b.LoyaltyMultiplier) })
	}
	if len(b.BuyCategories) > 0 {
		e.Field("buyCategories", func(e *jx.Encoder) { codec.WriteStrings(e, b.BuyCategories) })
	}
	if len(b.GetCategories) > 0 {
		e.Field("getCategories", func(e *jx.Encoder) { codec.WriteStrings(e, b.GetCategories) })
	}
}

func encodeAffectedItem(e *jx.Encoder, it coupon.AffectedItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
		e.Field("discountAmount", func(e *jx.Encoder) { codec.WriteMoney(e, it.DiscountAmount) })
		if it.FreeQuantity > 0 {
			e.Field("freeQuantity", func(e *jx.Encoder) { e.Int(it.FreeQuantity) })
		}
		if !it.DiscountPercentage.IsZero() {
			e.Field("discountPercentage", func(e *jx.Encoder) { codec.WriteDecimal(e, it.DiscountPercentage) })
		}
		if it.Category != "" {
			e.Field("category", func(e *jx.Encoder) { e.Str(it.Category) })
		}
	})
}

func encodeEvaluation(e *jx.Encoder, ev coupon.Evaluation) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("coupon", func(e *jx.Encoder) { encodeCouponSummary(e, ev.Coupon) })
		e.Field("isApplicable", func(e *jx.Encoder) { e.Bool(ev.Applicable) })
		e.Field("reason", func(e *jx.Encoder) { e.Str(ev.Reason) })
		breakdownFields(e, ev.Breakdown)
		e.Field("finalTotal", func(e *jx.Encoder) { codec.WriteMoney(e, ev.FinalTotal) })
		e.Field("savings", func(e *jx.Encoder) { codec.WriteMoney(e, ev.Savings) })
		e.Field("priority", func(e *jx.Encoder) { e.Int(ev.Coupon.Priority) })
		e.Field("stackable", func(e *jx.Encoder) { e.Bool(ev.Coupon.Stackable) })
	})
}

func encodeCartSummary(e *jx.Encoder, c cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("userId", func(e *jx.Encoder) { e.Str(c.UserID) })
		e.Field("itemCount", func(e *jx.Encoder) { e.Int(len(c.Items)) })
		e.Field("subtotal", func(e *jx.Encoder) { codec.WriteMoney(e, c.Subtotal) })
		e.Field("shippingCost", func(e *jx.Encoder) { codec.WriteMoney(e, c.ShippingCost) })
	})
}

func encodeCart(e *jx.Encoder, c cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("userId", func(e *jx.Encoder) { e.Str(c.UserID) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range c.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("price", func(e *jx.Encoder) { codec.WriteMoney(e, it.Price) })
						e.Field("discountAmount", func(e *jx.Encoder) { codec.WriteMoney(e, it.DiscountAmount) })
						e.Field("finalPrice", func(e *jx.Encoder) { codec.WriteMoney(e, it.FinalPrice) })
					})
				}
			})
		})
		e.Field("subtotal", func(e *jx.Encoder) { codec.WriteMoney(e, c.Subtotal) })
		e.Field("totalDiscount", func(e *jx.Encoder) { codec.WriteMoney(e, c.TotalDiscount) })
		e.Field("shippingCost", func(e *jx.Encoder) { codec.WriteMoney(e, c.EffectiveShipping()) })
		e.Field("freeShipping", func(e *jx.Encoder) { e.Bool(c.FreeShipping) })
		e.Field("total", func(e *jx.Encoder) { codec.WriteMoney(e, c.Total) })
		e.Field("appliedCoupons", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, ac := range c.AppliedCoupons {
					e.Obj(func(e *jx.Encoder) {
						e.Field("couponId", func(e *jx.Encoder) { e.Str(ac.CouponID) })
						e.Field("code", func(e *jx.Encoder) { e.Str(ac.Code) })
						e.Field("discountAmount", func(e *jx.Encoder) { codec.WriteMoney(e, ac.DiscountAmount) })
					})
				}
			})
		})
	})
}
