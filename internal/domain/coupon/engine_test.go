package coupon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-promotions/internal/domain/cart"
	"github.com/xenking/kart-promotions/internal/domain/user"
)

func TestCheckApplicability_Preconditions(t *testing.T) {
	c := subtotalCart(t, "100")

	tests := []struct {
		name       string
		mutate     func(*Coupon)
		wantOK     bool
		wantReason string
	}{
		{
			name:   "valid coupon",
			mutate: func(*Coupon) {},
			wantOK: true,
		},
		{
			name:       "inactive",
			mutate:     func(c *Coupon) { c.Active = false },
			wantReason: reasonInvalid,
		},
		{
			name:       "not started",
			mutate:     func(c *Coupon) { c.StartDate = fixedNow.Add(time.Minute) },
			wantReason: reasonInvalid,
		},
		{
			name:       "end date is exclusive",
			mutate:     func(c *Coupon) { c.EndDate = fixedNow },
			wantReason: reasonInvalid,
		},
		{
			name:   "start date is inclusive",
			mutate: func(c *Coupon) { c.StartDate = fixedNow },
			wantOK: true,
		},
		{
			name: "usage limit reached",
			mutate: func(c *Coupon) {
				c.MaxTotalUsage = ip(10)
				c.CurrentUsage = 10
			},
			wantReason: reasonUsageLimit,
		},
		{
			name: "usage below limit",
			mutate: func(c *Coupon) {
				c.MaxTotalUsage = ip(10)
				c.CurrentUsage = 9
			},
			wantOK: true,
		},
		{
			name:       "missing rule",
			mutate:     func(c *Coupon) { c.Rule = nil },
			wantReason: reasonUnknownType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := newCoupon("SAVE10", CartWise{}, percent("10"))
			tt.mutate(cp)

			res := CheckApplicability(input(c), cp)
			assert.Equal(t, tt.wantOK, res.Applicable)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, res.Reason)
			}
		})
	}
}

func TestCheckApplicability_ByType(t *testing.T) {
	electronics := newCart(t, "10",
		lineSpec{id: "laptop", qty: 1, price: "1999.99"},
		lineSpec{id: "mouse", qty: 2, price: "79.99"},
	)
	clothing := newCart(t, "10",
		lineSpec{id: "tshirt", qty: 3, price: "29.99"},
		lineSpec{id: "jeans", qty: 1, price: "89.99"},
	)
	unknownOnly := newCart(t, "0", lineSpec{id: "ghost", qty: 5, price: "10"})
	loyal := &user.User{Type: "premium", LoyaltyLevel: 3, OrderCount: 12, RegistrationDate: fixedNow.AddDate(0, 0, -400)}

	tests := []struct {
		name       string
		cart       cart.Cart
		user       *user.User
		rule       Rule
		wantOK     bool
		wantReason string
	}{
		{
			name:   "cart_wise without minimum",
			cart:   clothing,
			rule:   CartWise{},
			wantOK: true,
		},
		{
			name:       "cart_wise below minimum",
			cart:       clothing,
			rule:       CartWise{MinimumAmount: dp("500")},
			wantReason: "Cart total must be at least 500",
		},
		{
			name:   "product_wise by product id",
			cart:   electronics,
			rule:   ProductWise{ApplicableProducts: []string{"mouse"}},
			wantOK: true,
		},
		{
			name: "product_wise consults only the first non-empty list",
			cart: clothing,
			rule: ProductWise{
				ApplicableProducts:   []string{"laptop"},
				ApplicableCategories: []string{"Clothing"},
			},
			wantReason: "Cart does not contain applicable products",
		},
		{
			name:   "product_wise by brand",
			cart:   clothing,
			rule:   ProductWise{ApplicableBrands: []string{"FashionBrand"}},
			wantOK: true,
		},
		{
			name:       "product_wise ignores lines missing from catalog",
			cart:       unknownOnly,
			rule:       ProductWise{ApplicableProducts: []string{"ghost"}},
			wantReason: "Cart does not contain applicable products",
		},
		{
			name:       "bxgy without buy products",
			cart:       electronics,
			rule:       BxGy{GetProducts: []ProductQuantity{{ProductID: "mouse", Quantity: 1}}},
			wantReason: "No buy products specified",
		},
		{
			name: "bxgy insufficient buy quantity",
			cart: electronics,
			rule: BxGy{
				BuyProducts: []ProductQuantity{{ProductID: "laptop", Quantity: 2}},
				GetProducts: []ProductQuantity{{ProductID: "mouse", Quantity: 1}},
			},
			wantReason: "Need 2 buy products, but only 1 available",
		},
		{
			name: "bxgy get product absent",
			cart: electronics,
			rule: BxGy{
				BuyProducts: []ProductQuantity{{ProductID: "laptop", Quantity: 1}},
				GetProducts: []ProductQuantity{{ProductID: "keyboard", Quantity: 1}},
			},
			wantReason: "No get products found in cart",
		},
		{
			name: "bxgy met",
			cart: electronics,
			rule: BxGy{
				BuyProducts: []ProductQuantity{{ProductID: "laptop", Quantity: 1}},
				GetProducts: []ProductQuantity{{ProductID: "mouse", Quantity: 1}},
			},
			wantOK:     true,
			wantReason: "BxGy requirements met",
		},
		{
			name: "tiered picks highest reached tier",
			cart: clothing,
			rule: Tiered{Tiers: []Tier{
				{Name: "Bronze", MinimumAmount: d("50"), DiscountValue: d("5")},
				{Name: "Silver", MinimumAmount: d("150"), DiscountValue: d("10")},
				{Name: "Gold", MinimumAmount: d("500"), DiscountValue: d("15")},
			}},
			wantOK:     true,
			wantReason: "Qualifies for Silver",
		},
		{
			name:       "tiered with no tiers",
			cart:       clothing,
			rule:       Tiered{},
			wantReason: "Cart value does not meet any tier requirements",
		},
		{
			name: "flash sale inside friday window",
			cart: clothing,
			rule: FlashSale{Windows: []TimeWindow{
				{StartHour: 18, EndHour: 19, DaysOfWeek: []time.Weekday{time.Friday}},
			}},
			wantOK: true,
		},
		{
			name: "flash sale on wrong day",
			cart: clothing,
			rule: FlashSale{Windows: []TimeWindow{
				{StartHour: 0, EndHour: 23, DaysOfWeek: []time.Weekday{time.Monday}},
			}},
			wantReason: "Flash sale is not currently active",
		},
		{
			name: "flash sale active but below minimum",
			cart: clothing,
			rule: FlashSale{
				MinimumAmount: dp("1000"),
			},
			wantReason: "Cart total must be at least 1000 for flash sale",
		},
		{
			name:       "user_specific needs a user",
			cart:       clothing,
			rule:       UserSpecific{},
			wantReason: "User information required for user-specific coupon",
		},
		{
			name:       "user_specific criteria not met",
			cart:       clothing,
			user:       loyal,
			rule:       UserSpecific{Criteria: &UserCriteria{UserType: "vip"}},
			wantReason: "User does not meet eligibility criteria",
		},
		{
			name:   "user_specific criteria met",
			cart:   clothing,
			user:   loyal,
			rule:   UserSpecific{Criteria: &UserCriteria{UserType: "premium", LoyaltyLevel: ip(2)}},
			wantOK: true,
		},
		{
			name:       "graduated without rules",
			cart:       electronics,
			rule:       GraduatedBxGy{},
			wantReason: "No graduated rules specified",
		},
		{
			name: "graduated below smallest threshold",
			cart: electronics,
			rule: GraduatedBxGy{
				BuyProducts: []ProductQuantity{{ProductID: "mouse"}},
				GetProducts: []ProductQuantity{{ProductID: "laptop"}},
				Rules: []GraduatedRule{
					{BuyQuantity: 3, GetQuantity: 1},
					{BuyQuantity: 5, GetQuantity: 2},
				},
			},
			wantReason: "Need at least 3 buy products",
		},
		{
			name: "graduated qualifies for highest reached rule",
			cart: electronics,
			rule: GraduatedBxGy{
				BuyProducts: []ProductQuantity{{ProductID: "mouse"}},
				GetProducts: []ProductQuantity{{ProductID: "laptop"}},
				Rules: []GraduatedRule{
					{BuyQuantity: 1, GetQuantity: 1},
					{BuyQuantity: 2, GetQuantity: 3},
				},
			},
			wantOK:     true,
			wantReason: "Qualifies for tier: Buy 2 get 3",
		},
		{
			name:       "cross category without categories",
			cart:       clothing,
			rule:       CrossCategoryBxGy{BuyCategories: []string{"Clothing"}},
			wantReason: "Buy and get categories not specified",
		},
		{
			name:       "cross category insufficient buy quantity",
			cart:       clothing,
			rule:       CrossCategoryBxGy{BuyCategories: []string{"Clothing"}, GetCategories: []string{"Footwear"}, BuyQuantity: 5},
			wantReason: "Need 5 products from categories: Clothing",
		},
		{
			name:       "cross category get category absent",
			cart:       clothing,
			rule:       CrossCategoryBxGy{BuyCategories: []string{"Clothing"}, GetCategories: []string{"Footwear"}, BuyQuantity: 2},
			wantReason: "No products found from get categories: Footwear",
		},
		{
			name:   "cross category met",
			cart:   clothing,
			rule:   CrossCategoryBxGy{BuyCategories: []string{"Clothing"}, GetCategories: []string{"Clothing"}, BuyQuantity: 2},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(tt.cart)
			in.User = tt.user

			res := CheckApplicability(in, newCoupon("TEST", tt.rule, percent("10")))
			assert.Equal(t, tt.wantOK, res.Applicable, res.Reason)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, res.Reason)
			}
		})
	}
}

func TestFlashSale_ActiveAt(t *testing.T) {
	start := fixedNow.Add(-time.Hour)
	end := fixedNow.Add(time.Hour)
	past := fixedNow.Add(-2 * time.Hour)

	tests := []struct {
		name string
		sale FlashSale
		want bool
	}{
		{name: "no windows and no range", sale: FlashSale{}, want: true},
		{name: "empty windows list", sale: FlashSale{Windows: []TimeWindow{}}, want: true},
		{name: "end hour inclusive", sale: FlashSale{Windows: []TimeWindow{{StartHour: 10, EndHour: 19}}}, want: true},
		{name: "before start hour", sale: FlashSale{Windows: []TimeWindow{{StartHour: 20, EndHour: 23}}}, want: false},
		{
			name: "any matching window",
			sale: FlashSale{Windows: []TimeWindow{
				{StartHour: 1, EndHour: 2},
				{StartHour: 19, EndHour: 19, DaysOfWeek: []time.Weekday{time.Thursday, time.Friday}},
			}},
			want: true,
		},
		{name: "inside absolute range", sale: FlashSale{StartTime: &start, EndTime: &end}, want: true},
		{name: "after absolute range", sale: FlashSale{StartTime: &past, EndTime: &start}, want: false},
		{
			name: "windows take precedence over range",
			sale: FlashSale{
				Windows:   []TimeWindow{{StartHour: 1, EndHour: 2}},
				StartTime: &start,
				EndTime:   &end,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sale.ActiveAt(fixedNow))
		})
	}
}

func TestFlashSale_UsesLocationOfNow(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	sale := FlashSale{Windows: []TimeWindow{{StartHour: 0, EndHour: 1, DaysOfWeek: []time.Weekday{time.Saturday}}}}

	assert.False(t, sale.ActiveAt(fixedNow))
	assert.True(t, sale.ActiveAt(fixedNow.In(loc)))
}

func TestUserCriteria_Eligible(t *testing.T) {
	base := user.User{
		Type:             "existing",
		IsFirstTime:      false,
		LoyaltyLevel:     2,
		OrderCount:       5,
		RegistrationDate: fixedNow.AddDate(0, 0, -30),
	}

	tests := []struct {
		name     string
		criteria *UserCriteria
		user     *user.User
		want     bool
	}{
		{name: "no criteria", criteria: nil, user: &base, want: true},
		{name: "nil user is permissive", criteria: &UserCriteria{UserType: "vip"}, user: nil, want: true},
		{name: "user type mismatch", criteria: &UserCriteria{UserType: "vip"}, user: &base, want: false},
		{name: "first time mismatch", criteria: &UserCriteria{IsFirstTime: bp(true)}, user: &base, want: false},
		{name: "first time match", criteria: &UserCriteria{IsFirstTime: bp(false)}, user: &base, want: true},
		{name: "loyalty too low", criteria: &UserCriteria{LoyaltyLevel: ip(3)}, user: &base, want: false},
		{name: "orders below min", criteria: &UserCriteria{MinOrders: ip(6)}, user: &base, want: false},
		{name: "orders above max", criteria: &UserCriteria{MaxOrders: ip(4)}, user: &base, want: false},
		{name: "orders within bounds", criteria: &UserCriteria{MinOrders: ip(5), MaxOrders: ip(5)}, user: &base, want: true},
		{name: "registration age within", criteria: &UserCriteria{RegistrationDays: &DayRange{Min: 30, Max: 60}}, user: &base, want: true},
		{name: "registration too recent", criteria: &UserCriteria{RegistrationDays: &DayRange{Min: 31, Max: 60}}, user: &base, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Eligible(tt.user, fixedNow))
		})
	}
}

func TestCheckApplicability_IsDeterministic(t *testing.T) {
	c := newCart(t, "5", lineSpec{id: "tshirt", qty: 2, price: "29.99"})
	cp := newCoupon("FASHION", ProductWise{ApplicableCategories: []string{"Clothing"}}, percent("15"))

	first := CheckApplicability(input(c), cp)
	b1, err := CalculateDiscount(input(c), cp)
	require.NoError(t, err)
	for range 5 {
		assert.Equal(t, first, CheckApplicability(input(c), cp))
		b2, err := CalculateDiscount(input(c), cp)
		require.NoError(t, err)
		assert.True(t, b1.TotalDiscount.Equal(b2.TotalDiscount))
	}
}
