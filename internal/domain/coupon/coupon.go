package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the coupon semantics the engine understands.
type Type string

const (
	TypeCartWise          Type = "cart_wise"
	TypeProductWise       Type = "product_wise"
	TypeBxGy              Type = "bxgy"
	TypeTiered            Type = "tiered"
	TypeFlashSale         Type = "flash_sale"
	TypeUserSpecific      Type = "user_specific"
	TypeGraduatedBxGy     Type = "graduated_bxgy"
	TypeCrossCategoryBxGy Type = "cross_category_bxgy"
)

// Types lists every supported coupon type.
var Types = []Type{
	TypeCartWise, TypeProductWise, TypeBxGy, TypeTiered,
	TypeFlashSale, TypeUserSpecific, TypeGraduatedBxGy, TypeCrossCategoryBxGy,
}

// Valid reports whether t is a known coupon type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// DiscountType enumerates the ways a discount value is interpreted.
type DiscountType string

const (
	// DiscountPercentage takes value percent of the base, optionally capped.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes value off the base, never more than the base.
	DiscountFixed DiscountType = "fixed_amount"
	// DiscountFreeShipping waives the cart's shipping cost.
	DiscountFreeShipping DiscountType = "free_shipping"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFixed, DiscountFreeShipping:
		return true
	}
	return false
}

const (
	minCodeLen = 3
	maxCodeLen = 20
)

var (
	// ErrNotFound is returned when a coupon ID or code does not exist.
	ErrNotFound = errors.New("coupon not found")
	// ErrCodeTaken is returned when creating a coupon whose code already exists.
	ErrCodeTaken = errors.New("coupon code already exists")
	// ErrUsageLimitReached is returned by IncrementUsage when the coupon has
	// no remaining redemptions.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
)

// ValidationError describes a malformed coupon definition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid coupon %s: %s", e.Field, e.Reason)
}

// NotApplicableError is returned when a coupon is committed to a cart it does
// not apply to. Reason carries the eligibility explanation.
type NotApplicableError struct {
	CouponID string
	Code     string
	Reason   string
}

func (e *NotApplicableError) Error() string {
	return fmt.Sprintf("coupon %s not applicable: %s", e.Code, e.Reason)
}

// ComputationError wraps an unexpected failure during discount math.
type ComputationError struct {
	CouponID string
	Type     Type
	Err      error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("calculate %s discount for coupon %s: %v", e.Type, e.CouponID, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// Discount is the coupon-level discount definition.
type Discount struct {
	Type      DiscountType
	Value     decimal.Decimal
	MaxAmount *decimal.Decimal
}

// Coupon is a promotional rule. The Rule variant determines the coupon type
// and carries the only type-specific payload that is consulted.
type Coupon struct {
	ID            string
	Code          string
	Name          string
	Description   string
	Discount      Discount
	Rule          Rule
	Priority      int
	Stackable     bool
	Active        bool
	StartDate     time.Time
	EndDate       time.Time
	CurrentUsage  int
	MaxTotalUsage *int
}

// Type returns the coupon type derived from its rule.
func (c *Coupon) Type() Type {
	if c.Rule == nil {
		return ""
	}
	return c.Rule.Type()
}

// ValidAt reports whether the coupon is active and now falls inside
// [StartDate, EndDate).
func (c *Coupon) ValidAt(now time.Time) bool {
	return c.Active && !now.Before(c.StartDate) && now.Before(c.EndDate)
}

// UsageExhausted reports whether CurrentUsage reached MaxTotalUsage.
func (c *Coupon) UsageExhausted() bool {
	return c.MaxTotalUsage != nil && c.CurrentUsage >= *c.MaxTotalUsage
}

// NormalizeCode upper-cases and trims a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the structural constraints of a coupon definition.
func (c *Coupon) Validate() error {
	code := NormalizeCode(c.Code)
	switch {
	case len(code) < minCodeLen || len(code) > maxCodeLen:
		return &ValidationError{Field: "code", Reason: fmt.Sprintf("length must be between %d and %d", minCodeLen, maxCodeLen)}
	case strings.ContainsAny(code, " \t\r\n"):
		return &ValidationError{Field: "code", Reason: "must not contain whitespace"}
	case c.Name == "" || len(c.Name) > 100:
		return &ValidationError{Field: "name", Reason: "length must be between 1 and 100"}
	case len(c.Description) > 500:
		return &ValidationError{Field: "description", Reason: "must be at most 500 characters"}
	case c.Rule == nil:
		return &ValidationError{Field: "type", Reason: "unknown coupon type"}
	case !c.EndDate.After(c.StartDate):
		return &ValidationError{Field: "endDate", Reason: "must be after startDate"}
	case c.MaxTotalUsage != nil && *c.MaxTotalUsage < 0:
		return &ValidationError{Field: "conditions.maxTotalUsage", Reason: "must not be negative"}
	case c.CurrentUsage < 0:
		return &ValidationError{Field: "currentUsage", Reason: "must not be negative"}
	}
	return validateDiscount("discount", c.Discount)
}

func validateDiscount(field string, d Discount) error {
	switch {
	case !d.Type.Valid():
		return &ValidationError{Field: field + ".type", Reason: fmt.Sprintf("unknown discount type %q", d.Type)}
	case d.Value.IsNegative():
		return &ValidationError{Field: field + ".value", Reason: "must not be negative"}
	case d.Type == DiscountPercentage && d.Value.GreaterThan(hundred):
		return &ValidationError{Field: field + ".value", Reason: "percentage must not exceed 100"}
	case d.MaxAmount != nil && d.MaxAmount.IsNegative():
		return &ValidationError{Field: field + ".maxDiscountAmount", Reason: "must not be negative"}
	}
	return nil
}

// Repository is the read side the engine consumes.
type Repository interface {
	// FindActive returns coupons that are active with StartDate <= now < EndDate.
	FindActive(ctx context.Context, now time.Time) ([]Coupon, error)
	// FindByID returns ErrNotFound when no coupon has the given ID.
	FindByID(ctx context.Context, id string) (*Coupon, error)
}
