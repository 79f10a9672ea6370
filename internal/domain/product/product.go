package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is the read-only reference data the promotion engine matches
// coupons against.
type Product struct {
	ID       string
	Name     string
	Category string
	Brand    string
	SKU      string
	Price    decimal.Decimal
	Stock    int
	Active   bool
}

// Repository defines catalog access. GetByIDs is the batch lookup used on
// every evaluation; it silently omits unknown IDs.
type Repository interface {
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	List(ctx context.Context) ([]Product, error)
	Upsert(ctx context.Context, p Product) error
}

// Catalog indexes products by ID.
type Catalog map[string]Product

// NewCatalog builds a Catalog from a product slice. Later duplicates win.
func NewCatalog(products []Product) Catalog {
	c := make(Catalog, len(products))
	for _, p := range products {
		c[p.ID] = p
	}
	return c
}

// Lookup returns the product for id and whether it exists.
func (c Catalog) Lookup(id string) (Product, bool) {
	p, ok := c[id]
	return p, ok
}
