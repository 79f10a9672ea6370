package coupon

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// TimeWindow is a recurring hour range, inclusive on both ends. An empty
// DaysOfWeek matches every day.
type TimeWindow struct {
	StartHour  int
	EndHour    int
	DaysOfWeek []time.Weekday
}

func (w TimeWindow) contains(now time.Time) bool {
	if len(w.DaysOfWeek) > 0 && !slices.Contains(w.DaysOfWeek, now.Weekday()) {
		return false
	}
	h := now.Hour()
	return h >= w.StartHour && h <= w.EndHour
}

// FlashSale is a time-gated coupon whose discount value is boosted by
// Multiplier (zero means 1).
type FlashSale struct {
	MinimumAmount *decimal.Decimal
	Multiplier    decimal.Decimal
	Windows       []TimeWindow
	StartTime     *time.Time
	EndTime       *time.Time
}

func (FlashSale) Type() Type { return TypeFlashSale }

// ActiveAt reports whether the sale runs at now. Recurring windows take
// precedence over the absolute range; with neither configured the sale is
// always active.
func (r FlashSale) ActiveAt(now time.Time) bool {
	if len(r.Windows) > 0 {
		return slices.ContainsFunc(r.Windows, func(w TimeWindow) bool { return w.contains(now) })
	}
	if r.StartTime != nil && r.EndTime != nil {
		return !now.Before(*r.StartTime) && !now.After(*r.EndTime)
	}
	return true
}

func (r FlashSale) multiplier() decimal.Decimal {
	if r.Multiplier.IsZero() {
		return one
	}
	return r.Multiplier
}

func (r FlashSale) check(ev *evaluation) Applicability {
	if !r.ActiveAt(ev.Now) {
		return notApplicable("Flash sale is not currently active")
	}
	if !meetsMinimum(ev.Cart.Subtotal, r.MinimumAmount) {
		return notApplicable(fmt.Sprintf("Cart total must be at least %s for flash sale", r.MinimumAmount))
	}
	return applicable("Flash sale active and conditions met")
}

func (r FlashSale) calculate(ev *evaluation) Breakdown {
	return ev.wholeCart(ev.coupon.Discount, r.multiplier())
}
