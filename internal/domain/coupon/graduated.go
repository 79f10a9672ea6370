package coupon

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// GraduatedRule is one buy/get threshold of a graduated BxGy coupon.
type GraduatedRule struct {
	Name               string
	BuyQuantity        int
	GetQuantity        int
	DiscountPercentage decimal.Decimal
}

// Label returns the rule name, or "Unknown" when unnamed.
func (g GraduatedRule) Label() string {
	if g.Name != "" {
		return g.Name
	}
	return "Unknown"
}

// GraduatedBxGy is BxGy with several thresholds; the highest buy quantity
// reached wins.
type GraduatedBxGy struct {
	BuyProducts     []ProductQuantity
	GetProducts     []ProductQuantity
	Rules           []GraduatedRule
	RepetitionLimit *int
}

func (GraduatedBxGy) Type() Type { return TypeGraduatedBxGy }

// Qualifying returns the rule with the largest BuyQuantity not above qty.
func (r GraduatedBxGy) Qualifying(qty int) (GraduatedRule, bool) {
	sorted := slices.Clone(r.Rules)
	slices.SortStableFunc(sorted, func(a, b GraduatedRule) int {
		return b.BuyQuantity - a.BuyQuantity
	})
	for _, g := range sorted {
		if qty >= g.BuyQuantity {
			return g, true
		}
	}
	return GraduatedRule{}, false
}

func (r GraduatedBxGy) check(ev *evaluation) Applicability {
	if len(r.Rules) == 0 {
		return notApplicable("No graduated rules specified")
	}

	g, ok := r.Qualifying(ev.quantityOf(r.BuyProducts))
	if !ok {
		smallest := slices.MinFunc(r.Rules, func(a, b GraduatedRule) int { return a.BuyQuantity - b.BuyQuantity })
		return notApplicable(fmt.Sprintf("Need at least %d buy products", smallest.BuyQuantity))
	}
	if ev.quantityOf(r.GetProducts) == 0 {
		return notApplicable("No get products found in cart")
	}
	return applicable(fmt.Sprintf("Qualifies for tier: Buy %d get %d", g.BuyQuantity, g.GetQuantity))
}

func (r GraduatedBxGy) calculate(ev *evaluation) Breakdown {
	bought := ev.quantityOf(r.BuyProducts)
	g, ok := r.Qualifying(bought)
	if !ok {
		return Breakdown{TotalDiscount: zero}
	}

	apps := applications(bought, g.BuyQuantity, r.RepetitionLimit)
	b := Breakdown{TierApplied: g.Label(), ApplicationsUsed: apps, TotalDiscount: zero}
	if apps <= 0 {
		return b
	}
	b.TotalDiscount, b.AffectedItems = allocate(ev.linesFor(r.GetProducts), apps*g.GetQuantity, percentOrFull(g.DiscountPercentage), false)
	return b
}
