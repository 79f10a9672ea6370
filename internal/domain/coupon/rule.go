package coupon

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/kart-promotions/internal/domain/cart"
	"github.com/xenking/kart-promotions/internal/domain/product"
	"github.com/xenking/kart-promotions/internal/domain/user"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
	zero    = decimal.Zero
)

// Rule is the type-specific half of a coupon. Each variant pairs its
// eligibility predicate with its discount function so the two can never
// disagree on which coupon types exist.
type Rule interface {
	Type() Type
	check(ev *evaluation) Applicability
	calculate(ev *evaluation) Breakdown
}

var (
	_ Rule = CartWise{}
	_ Rule = ProductWise{}
	_ Rule = BxGy{}
	_ Rule = Tiered{}
	_ Rule = FlashSale{}
	_ Rule = UserSpecific{}
	_ Rule = GraduatedBxGy{}
	_ Rule = CrossCategoryBxGy{}
)

// Input is everything an evaluation reads. Now is explicit so evaluations are
// deterministic; its location decides flash-sale hours and weekdays.
type Input struct {
	Cart     cart.Cart
	User     *user.User
	Products product.Catalog
	Now      time.Time
}

// Applicability is the evaluator's verdict.
type Applicability struct {
	Applicable bool
	Reason     string
}

func applicable(reason string) Applicability {
	return Applicability{Applicable: true, Reason: reason}
}

func notApplicable(reason string) Applicability {
	return Applicability{Reason: reason}
}

// AffectedItem attributes part of a discount to a cart line.
type AffectedItem struct {
	ProductID          string
	DiscountAmount     decimal.Decimal
	FreeQuantity       int
	DiscountPercentage decimal.Decimal
	Category           string
}

// Breakdown is the result of a discount calculation. Only the metadata
// fields relevant to the coupon type are populated.
type Breakdown struct {
	TotalDiscount     decimal.Decimal
	FreeShipping      bool
	AffectedItems     []AffectedItem
	TierApplied       string
	ApplicationsUsed  int
	LoyaltyMultiplier decimal.Decimal
	BuyCategories     []string
	GetCategories     []string
}

// ProductQuantity pairs a product with a required or granted quantity.
type ProductQuantity struct {
	ProductID string
	Quantity  int
}

// line is a cart item joined with its catalog product. product is nil when
// the catalog has no entry, and such lines never match any predicate.
type line struct {
	cart.Item
	product *product.Product
}

func (l line) category() string {
	if l.product == nil {
		return ""
	}
	return l.product.Category
}

type evaluation struct {
	Input
	coupon *Coupon
	lines  []line
}

func newEvaluation(in Input, c *Coupon) *evaluation {
	lines := make([]line, len(in.Cart.Items))
	for i, it := range in.Cart.Items {
		lines[i] = line{Item: it}
		if p, ok := in.Products.Lookup(it.ProductID); ok {
			lines[i].product = &p
		}
	}
	return &evaluation{Input: in, coupon: c, lines: lines}
}

// quantityOf sums quantities of known lines whose product is in ids.
func (ev *evaluation) quantityOf(ids []ProductQuantity) int {
	n := 0
	for _, l := range ev.linesFor(ids) {
		n += l.Quantity
	}
	return n
}

func (ev *evaluation) linesFor(ids []ProductQuantity) []line {
	var out []line
	for _, l := range ev.lines {
		if l.product == nil {
			continue
		}
		if slices.ContainsFunc(ids, func(pq ProductQuantity) bool { return pq.ProductID == l.ProductID }) {
			out = append(out, l)
		}
	}
	return out
}

func (ev *evaluation) linesInCategories(categories []string) []line {
	var out []line
	for _, l := range ev.lines {
		if l.product != nil && slices.Contains(categories, l.product.Category) {
			out = append(out, l)
		}
	}
	return out
}

func meetsMinimum(subtotal decimal.Decimal, minimum *decimal.Decimal) bool {
	return minimum == nil || subtotal.GreaterThanOrEqual(*minimum)
}

func sumQuantities(pqs []ProductQuantity) int {
	n := 0
	for _, pq := range pqs {
		n += pq.Quantity
	}
	return n
}

// repetitions resolves a repetition limit; unset or non-positive means one.
func repetitions(limit *int) int {
	if limit == nil || *limit < 1 {
		return 1
	}
	return *limit
}

// applications returns min(floor(available/required), limit).
func applications(available, required int, limit *int) int {
	if required < 1 {
		required = 1
	}
	return min(available/required, repetitions(limit))
}

// amount applies the base formula of d to base. multiplier scales the
// discount value before percentage or fixed math.
func amount(d Discount, base, shipping, multiplier decimal.Decimal) (decimal.Decimal, bool) {
	switch d.Type {
	case DiscountPercentage:
		amt := base.Mul(d.Value).Mul(multiplier).Div(hundred)
		if d.MaxAmount != nil && amt.GreaterThan(*d.MaxAmount) {
			amt = *d.MaxAmount
		}
		return decimal.Min(amt, base), false
	case DiscountFixed:
		return decimal.Min(d.Value.Mul(multiplier), base), false
	case DiscountFreeShipping:
		return shipping, true
	default:
		return zero, false
	}
}

// wholeCart computes a cart-level discount and apportions it pro-rata across
// lines for display.
func (ev *evaluation) wholeCart(d Discount, multiplier decimal.Decimal) Breakdown {
	subtotal := ev.Cart.Subtotal
	total, free := amount(d, subtotal, ev.Cart.ShippingCost, multiplier)

	affected := make([]AffectedItem, 0, len(ev.lines))
	for _, l := range ev.lines {
		share := zero
		if subtotal.IsPositive() {
			share = total.Mul(l.LineTotal()).Div(subtotal)
		}
		affected = append(affected, AffectedItem{ProductID: l.ProductID, DiscountAmount: share.Round(2)})
	}

	return Breakdown{
		TotalDiscount: total.Round(2),
		FreeShipping:  free,
		AffectedItems: affected,
	}
}

// allocate spends a free-unit budget on lines, most expensive first, each
// unit discounted by pct percent.
func allocate(lines []line, budget int, pct decimal.Decimal, withCategory bool) (decimal.Decimal, []AffectedItem) {
	sorted := slices.Clone(lines)
	slices.SortStableFunc(sorted, func(a, b line) int {
		return b.Price.Cmp(a.Price)
	})

	total := zero
	var affected []AffectedItem
	for _, l := range sorted {
		if budget <= 0 {
			break
		}
		qty := min(l.Quantity, budget)
		disc := l.Price.Mul(decimal.NewFromInt(int64(qty))).Mul(pct).Div(hundred)
		total = total.Add(disc)

		item := AffectedItem{
			ProductID:          l.ProductID,
			DiscountAmount:     disc.Round(2),
			FreeQuantity:       qty,
			DiscountPercentage: pct,
		}
		if withCategory {
			item.Category = l.category()
		}
		affected = append(affected, item)
		budget -= qty
	}
	return total.Round(2), affected
}

func percentOrFull(p decimal.Decimal) decimal.Decimal {
	if p.IsZero() {
		return hundred
	}
	return p
}
