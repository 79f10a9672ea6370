package coupon

import (
	"slices"

	"github.com/xenking/kart-promotions/internal/domain/product"
)

// ProductWise discounts matching lines. Only the first non-empty list among
// products, categories and brands is consulted.
type ProductWise struct {
	ApplicableProducts   []string
	ApplicableCategories []string
	ApplicableBrands     []string
}

func (ProductWise) Type() Type { return TypeProductWise }

func (r ProductWise) matches(p *product.Product) bool {
	if p == nil {
		return false
	}
	switch {
	case len(r.ApplicableProducts) > 0:
		return slices.Contains(r.ApplicableProducts, p.ID)
	case len(r.ApplicableCategories) > 0:
		return slices.Contains(r.ApplicableCategories, p.Category)
	case len(r.ApplicableBrands) > 0:
		return slices.Contains(r.ApplicableBrands, p.Brand)
	}
	return false
}

func (r ProductWise) check(ev *evaluation) Applicability {
	for _, l := range ev.lines {
		if r.matches(l.product) {
			return applicable("Cart contains applicable products")
		}
	}
	return notApplicable("Cart does not contain applicable products")
}

// calculate caps each line independently. Free shipping has no per-line
// meaning and yields no discount here.
func (r ProductWise) calculate(ev *evaluation) Breakdown {
	d := ev.coupon.Discount
	total := zero
	var affected []AffectedItem
	for _, l := range ev.lines {
		if !r.matches(l.product) {
			continue
		}
		lineDiscount := zero
		if d.Type != DiscountFreeShipping {
			lineDiscount, _ = amount(d, l.LineTotal(), zero, one)
		}
		total = total.Add(lineDiscount)
		affected = append(affected, AffectedItem{
			ProductID:      l.ProductID,
			DiscountAmount: lineDiscount.Round(2),
		})
	}
	return Breakdown{TotalDiscount: total.Round(2), AffectedItems: affected}
}
