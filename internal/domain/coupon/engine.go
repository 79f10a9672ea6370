package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const (
	reasonInvalid     = "Coupon is not valid or expired"
	reasonUsageLimit  = "Coupon has reached maximum usage limit"
	reasonUnknownType = "Unknown coupon type"
)

// CheckApplicability decides whether c applies to the cart in in. Validity
// window and usage limit are checked before the type-specific predicate.
func CheckApplicability(in Input, c *Coupon) Applicability {
	if !c.ValidAt(in.Now) {
		return notApplicable(reasonInvalid)
	}
	if c.UsageExhausted() {
		return notApplicable(reasonUsageLimit)
	}
	if c.Rule == nil {
		return notApplicable(reasonUnknownType)
	}
	return c.Rule.check(newEvaluation(in, c))
}

// CalculateDiscount computes the discount c grants the cart in in. It does
// not check applicability; callers run CheckApplicability first. All amounts
// are rounded to cents.
func CalculateDiscount(in Input, c *Coupon) (b Breakdown, err error) {
	if c.Rule == nil {
		return Breakdown{}, &ComputationError{CouponID: c.ID, Err: errors.New("coupon has no rule")}
	}

	defer func() {
		if r := recover(); r != nil {
			b = Breakdown{}
			err = &ComputationError{CouponID: c.ID, Type: c.Type(), Err: errors.Errorf("panic: %v", r)}
		}
	}()

	return c.Rule.calculate(newEvaluation(in, c)), nil
}

// Evaluation is the outcome of running one candidate coupon against a cart.
type Evaluation struct {
	Breakdown

	Coupon     *Coupon
	Applicable bool
	Reason     string
	// FinalTotal is the cart total if this coupon alone were applied.
	FinalTotal decimal.Decimal
	// Savings is the discount plus any waived shipping.
	Savings decimal.Decimal
}

// Evaluate checks c and, when applicable, calculates its discount.
func Evaluate(in Input, c *Coupon) (Evaluation, error) {
	res := CheckApplicability(in, c)
	ev := Evaluation{Coupon: c, Applicable: res.Applicable, Reason: res.Reason}
	if !res.Applicable {
		return ev, nil
	}

	b, err := CalculateDiscount(in, c)
	if err != nil {
		return Evaluation{}, err
	}
	ev.Breakdown = b

	shipping := in.Cart.ShippingCost
	total := in.Cart.Subtotal.Sub(b.TotalDiscount)
	savings := b.TotalDiscount
	if b.FreeShipping {
		savings = savings.Add(shipping)
	} else {
		total = total.Add(shipping)
	}
	if total.IsNegative() {
		total = zero
	}
	ev.FinalTotal = total.Round(2)
	ev.Savings = savings.Round(2)
	return ev, nil
}
