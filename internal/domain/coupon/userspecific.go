package coupon

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/kart-promotions/internal/domain/user"
)

var defaultMaxMultiplier = decimal.NewFromInt(2)

// DayRange bounds the account age in whole days, inclusive.
type DayRange struct {
	Min int
	Max int
}

// UserCriteria lists optional constraints on the shopper. Nil fields and an
// empty UserType are not enforced.
type UserCriteria struct {
	UserType          string
	IsFirstTime       *bool
	LoyaltyLevel      *int
	MinOrders         *int
	MaxOrders         *int
	RegistrationDays  *DayRange
	LoyaltyMultiplier *decimal.Decimal
	MaxMultiplier     *decimal.Decimal
}

// Eligible reports whether u satisfies every configured constraint. Missing
// criteria or a missing user pass.
func (c *UserCriteria) Eligible(u *user.User, now time.Time) bool {
	if c == nil || u == nil {
		return true
	}
	if c.UserType != "" && u.Type != c.UserType {
		return false
	}
	if c.IsFirstTime != nil && u.IsFirstTime != *c.IsFirstTime {
		return false
	}
	if c.LoyaltyLevel != nil && u.LoyaltyLevel < *c.LoyaltyLevel {
		return false
	}
	if c.MinOrders != nil && u.OrderCount < *c.MinOrders {
		return false
	}
	if c.MaxOrders != nil && u.OrderCount > *c.MaxOrders {
		return false
	}
	if c.RegistrationDays != nil {
		days := u.DaysSinceRegistration(now)
		if days < c.RegistrationDays.Min || days > c.RegistrationDays.Max {
			return false
		}
	}
	return true
}

// Multiplier returns min(LoyaltyMultiplier × level, MaxMultiplier) for a user
// with a positive loyalty level, and 1 otherwise.
func (c *UserCriteria) Multiplier(u *user.User) decimal.Decimal {
	if c == nil || u == nil || c.LoyaltyMultiplier == nil || c.LoyaltyMultiplier.IsZero() || u.LoyaltyLevel <= 0 {
		return one
	}
	maxMult := defaultMaxMultiplier
	if c.MaxMultiplier != nil && !c.MaxMultiplier.IsZero() {
		maxMult = *c.MaxMultiplier
	}
	return decimal.Min(c.LoyaltyMultiplier.Mul(decimal.NewFromInt(int64(u.LoyaltyLevel))), maxMult)
}

// UserSpecific targets shoppers matching Criteria and may scale the discount
// by their loyalty level.
type UserSpecific struct {
	MinimumAmount *decimal.Decimal
	Criteria      *UserCriteria
}

func (UserSpecific) Type() Type { return TypeUserSpecific }

func (r UserSpecific) check(ev *evaluation) Applicability {
	if ev.User == nil {
		return notApplicable("User information required for user-specific coupon")
	}
	if !r.Criteria.Eligible(ev.User, ev.Now) {
		return notApplicable("User does not meet eligibility criteria")
	}
	if !meetsMinimum(ev.Cart.Subtotal, r.MinimumAmount) {
		return notApplicable(fmt.Sprintf("Cart total must be at least %s", r.MinimumAmount))
	}
	return applicable("User meets all eligibility criteria")
}

func (r UserSpecific) calculate(ev *evaluation) Breakdown {
	mult := r.Criteria.Multiplier(ev.User)
	b := ev.wholeCart(ev.coupon.Discount, mult)
	b.LoyaltyMultiplier = mult
	return b
}
