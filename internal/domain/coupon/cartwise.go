package coupon

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CartWise discounts the whole cart once the subtotal reaches MinimumAmount.
type CartWise struct {
	MinimumAmount *decimal.Decimal
}

func (CartWise) Type() Type { return TypeCartWise }

func (r CartWise) check(ev *evaluation) Applicability {
	if !meetsMinimum(ev.Cart.Subtotal, r.MinimumAmount) {
		return notApplicable(fmt.Sprintf("Cart total must be at least %s", r.MinimumAmount))
	}
	return applicable("Cart meets minimum requirements")
}

func (r CartWise) calculate(ev *evaluation) Breakdown {
	return ev.wholeCart(ev.coupon.Discount, one)
}
