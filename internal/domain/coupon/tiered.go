package coupon

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Tier is one threshold of a tiered coupon.
type Tier struct {
	Name              string
	MinimumAmount     decimal.Decimal
	DiscountType      DiscountType
	DiscountValue     decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
}

// Label returns the tier name, or "Tier <minimum>" when unnamed.
func (t Tier) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("Tier %s", t.MinimumAmount)
}

func (t Tier) discount() Discount {
	dt := t.DiscountType
	if dt == "" {
		dt = DiscountPercentage
	}
	return Discount{Type: dt, Value: t.DiscountValue, MaxAmount: t.MaxDiscountAmount}
}

// Tiered scales the discount with the cart subtotal. The highest tier whose
// minimum the subtotal reaches wins.
type Tiered struct {
	Tiers []Tier
}

func (Tiered) Type() Type { return TypeTiered }

// Qualifying returns the highest tier reached by subtotal.
func (r Tiered) Qualifying(subtotal decimal.Decimal) (Tier, bool) {
	sorted := slices.Clone(r.Tiers)
	slices.SortStableFunc(sorted, func(a, b Tier) int {
		return b.MinimumAmount.Cmp(a.MinimumAmount)
	})
	for _, t := range sorted {
		if subtotal.GreaterThanOrEqual(t.MinimumAmount) {
			return t, true
		}
	}
	return Tier{}, false
}

func (r Tiered) check(ev *evaluation) Applicability {
	tier, ok := r.Qualifying(ev.Cart.Subtotal)
	if !ok {
		return notApplicable("Cart value does not meet any tier requirements")
	}
	return applicable(fmt.Sprintf("Qualifies for %s", tier.Label()))
}

func (r Tiered) calculate(ev *evaluation) Breakdown {
	tier, ok := r.Qualifying(ev.Cart.Subtotal)
	if !ok {
		return Breakdown{TotalDiscount: zero}
	}
	b := ev.wholeCart(tier.discount(), one)
	b.TierApplied = tier.Label()
	return b
}
