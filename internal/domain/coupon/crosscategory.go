package coupon

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CrossCategoryBxGy is BxGy where both sides are product categories.
type CrossCategoryBxGy struct {
	BuyCategories         []string
	GetCategories         []string
	BuyQuantity           int
	GetQuantity           int
	GetDiscountPercentage decimal.Decimal
	RepetitionLimit       *int
}

func (CrossCategoryBxGy) Type() Type { return TypeCrossCategoryBxGy }

func (r CrossCategoryBxGy) buyQuantity() int {
	return max(r.BuyQuantity, 1)
}

func (r CrossCategoryBxGy) getQuantity() int {
	return max(r.GetQuantity, 1)
}

func (r CrossCategoryBxGy) bought(ev *evaluation) int {
	n := 0
	for _, l := range ev.linesInCategories(r.BuyCategories) {
		n += l.Quantity
	}
	return n
}

func (r CrossCategoryBxGy) check(ev *evaluation) Applicability {
	if len(r.BuyCategories) == 0 || len(r.GetCategories) == 0 {
		return notApplicable("Buy and get categories not specified")
	}
	if r.bought(ev) < r.buyQuantity() {
		return notApplicable(fmt.Sprintf("Need %d products from categories: %s",
			r.buyQuantity(), strings.Join(r.BuyCategories, ", ")))
	}
	if len(ev.linesInCategories(r.GetCategories)) == 0 {
		return notApplicable(fmt.Sprintf("No products found from get categories: %s",
			strings.Join(r.GetCategories, ", ")))
	}
	return applicable("Cross-category BxGy requirements met")
}

func (r CrossCategoryBxGy) calculate(ev *evaluation) Breakdown {
	apps := applications(r.bought(ev), r.buyQuantity(), r.RepetitionLimit)
	b := Breakdown{
		TotalDiscount:    zero,
		ApplicationsUsed: apps,
		BuyCategories:    r.BuyCategories,
		GetCategories:    r.GetCategories,
	}
	if apps <= 0 {
		return b
	}
	b.TotalDiscount, b.AffectedItems = allocate(ev.linesInCategories(r.GetCategories),
		apps*r.getQuantity(), percentOrFull(r.GetDiscountPercentage), true)
	return b
}
