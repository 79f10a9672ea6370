package coupon

import (
	"slices"

	"github.com/shopspring/decimal"
)

// MaxStackSize bounds how many stackable coupons one combination may hold.
// The search enumerates every combination up to this size, so cost grows as
// O(n^MaxStackSize) in the number of stackable candidates.
const MaxStackSize = 3

// SelectBest picks the coupons to present when stacking is allowed.
//
// Scores are the plain sum of each coupon's independently computed discount;
// coupons are not re-evaluated against a cart already discounted by the
// others. With no stackable candidates the best single non-stackable coupon
// wins. Otherwise every stackable combination of size 1..MaxStackSize
// (priority order) competes with every non-stackable coupon on its own, and
// the strictly highest score wins, earliest on ties. A winner must save
// something: when every score is zero the result is empty.
func SelectBest(candidates []Evaluation) []Evaluation {
	var stackable, exclusive []Evaluation
	for _, c := range candidates {
		if c.Coupon.Stackable {
			stackable = append(stackable, c)
		} else {
			exclusive = append(exclusive, c)
		}
	}

	if len(stackable) == 0 {
		if len(exclusive) == 0 {
			return nil
		}
		best := exclusive[0]
		for _, c := range exclusive[1:] {
			if c.TotalDiscount.GreaterThan(best.TotalDiscount) {
				best = c
			}
		}
		return []Evaluation{best}
	}

	slices.SortStableFunc(stackable, func(a, b Evaluation) int {
		return b.Coupon.Priority - a.Coupon.Priority
	})

	var (
		best      []Evaluation
		bestScore = decimal.Zero
	)
	consider := func(combo []Evaluation) {
		score := decimal.Zero
		for _, c := range combo {
			score = score.Add(c.TotalDiscount)
		}
		if score.GreaterThan(bestScore) {
			best = slices.Clone(combo)
			bestScore = score
		}
	}

	for size := 1; size <= min(MaxStackSize, len(stackable)); size++ {
		combinations(stackable, size, consider)
	}
	for _, c := range exclusive {
		consider([]Evaluation{c})
	}
	return best
}

// combinations calls fn with every size-k subset of items in lexicographic
// index order. The slice passed to fn is reused between calls.
func combinations(items []Evaluation, k int, fn func([]Evaluation)) {
	combo := make([]Evaluation, k)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == k {
			fn(combo)
			return
		}
		for i := start; i <= len(items)-(k-depth); i++ {
			combo[depth] = items[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
}
