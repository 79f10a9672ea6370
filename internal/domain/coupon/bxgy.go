package coupon

import "fmt"

// BxGy grants units of the get products once enough buy products are in the
// cart, up to RepetitionLimit times (default once).
type BxGy struct {
	BuyProducts     []ProductQuantity
	GetProducts     []ProductQuantity
	RepetitionLimit *int
}

func (BxGy) Type() Type { return TypeBxGy }

func (r BxGy) check(ev *evaluation) Applicability {
	if len(r.BuyProducts) == 0 {
		return notApplicable("No buy products specified")
	}
	if len(r.GetProducts) == 0 {
		return notApplicable("No get products specified")
	}

	required := sumQuantities(r.BuyProducts)
	available := ev.quantityOf(r.BuyProducts)
	if available < required {
		return notApplicable(fmt.Sprintf("Need %d buy products, but only %d available", required, available))
	}
	if ev.quantityOf(r.GetProducts) == 0 {
		return notApplicable("No get products found in cart")
	}
	return applicable("BxGy requirements met")
}

// calculate scales each granted unit by the discount value when the coupon's
// discount is a percentage; any other discount type grants units for free.
func (r BxGy) calculate(ev *evaluation) Breakdown {
	apps := applications(ev.quantityOf(r.BuyProducts), sumQuantities(r.BuyProducts), r.RepetitionLimit)
	b := Breakdown{ApplicationsUsed: apps, TotalDiscount: zero}
	if apps <= 0 {
		return b
	}

	pct := hundred
	if ev.coupon.Discount.Type == DiscountPercentage {
		pct = ev.coupon.Discount.Value
	}
	b.TotalDiscount, b.AffectedItems = allocate(ev.linesFor(r.GetProducts), apps*sumQuantities(r.GetProducts), pct, false)
	return b
}
