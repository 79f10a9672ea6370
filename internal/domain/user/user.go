// Package user holds the ephemeral shopper profile used for eligibility and
// loyalty multiplier lookups. Profiles arrive with each request and are never
// persisted.
package user

import "time"

// User describes the shopper evaluating coupons.
type User struct {
	Type             string
	IsFirstTime      bool
	LoyaltyLevel     int
	OrderCount       int
	RegistrationDate time.Time
}

// DaysSinceRegistration returns the number of whole days between the
// registration date and now. It is negative for future registration dates.
func (u *User) DaysSinceRegistration(now time.Time) int {
	d := now.Sub(u.RegistrationDate)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}
