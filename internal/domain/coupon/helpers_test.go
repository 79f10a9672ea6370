package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-promotions/internal/domain/cart"
	"github.com/xenking/kart-promotions/internal/domain/product"
)

// Friday 2025-06-13 19:30 UTC.
var fixedNow = time.Date(2025, 6, 13, 19, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func ip(v int) *int {
	return &v
}

func bp(v bool) *bool {
	return &v
}

var testCatalog = product.NewCatalog([]product.Product{
	{ID: "laptop", Category: "Electronics", Brand: "TechBrand", Price: d("1999.99")},
	{ID: "mouse", Category: "Electronics", Brand: "TechBrand", Price: d("79.99")},
	{ID: "keyboard", Category: "Electronics", Brand: "KeyCo", Price: d("149.99")},
	{ID: "tshirt", Category: "Clothing", Brand: "FashionBrand", Price: d("29.99")},
	{ID: "jeans", Category: "Clothing", Brand: "FashionBrand", Price: d("89.99")},
	{ID: "shoes", Category: "Footwear", Brand: "SportsBrand", Price: d("129.99")},
	{ID: "a", Category: "Misc", Price: d("30")},
	{ID: "b", Category: "Misc", Price: d("20")},
	{ID: "c", Category: "Misc", Price: d("10")},
	{ID: "x", Category: "Misc", Price: d("5")},
})

type lineSpec struct {
	id    string
	qty   int
	price string
}

func newCart(t *testing.T, shipping string, lines ...lineSpec) cart.Cart {
	t.Helper()
	items := make([]cart.Item, len(lines))
	for i, l := range lines {
		items[i] = cart.Item{ProductID: l.id, Quantity: l.qty, Price: d(l.price)}
	}
	c, err := cart.New("user-1", items, d(shipping))
	require.NoError(t, err)
	return c
}

// subtotalCart returns a single-line cart whose subtotal is amount.
func subtotalCart(t *testing.T, amount string) cart.Cart {
	t.Helper()
	return newCart(t, "0", lineSpec{id: "laptop", qty: 1, price: amount})
}

func newCoupon(code string, rule Rule, discount Discount) *Coupon {
	return &Coupon{
		ID:        "id-" + code,
		Code:      code,
		Name:      code,
		Discount:  discount,
		Rule:      rule,
		Active:    true,
		StartDate: fixedNow.AddDate(0, -1, 0),
		EndDate:   fixedNow.AddDate(0, 1, 0),
	}
}

func percent(v string) Discount {
	return Discount{Type: DiscountPercentage, Value: d(v)}
}

func input(c cart.Cart) Input {
	return Input{Cart: c, Products: testCatalog, Now: fixedNow}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "want %s, got %s", want, got)
}
