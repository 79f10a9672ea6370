// Package handler serves the promotion API over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/kart-promotions/internal/domain/cart"
	"github.com/xenking/kart-promotions/internal/domain/coupon"
	"github.com/xenking/kart-promotions/internal/domain/product"
	"github.com/xenking/kart-promotions/internal/domain/promotion"
	"github.com/xenking/kart-promotions/internal/domain/user"
	"github.com/xenking/kart-promotions/pkg/httpmiddleware"
)

// Service is the promotion surface the handlers drive.
type Service interface {
	ApplicableCoupons(ctx context.Context, req promotion.Request) ([]coupon.Evaluation, error)
	CheckApplicability(ctx context.Context, couponID string, c cart.Cart, u *user.User) (coupon.Applicability, error)
	CalculateDiscount(ctx context.Context, couponID string, c cart.Cart, u *user.User) (coupon.Evaluation, error)
	ApplyCoupon(ctx context.Context, couponID string, c cart.Cart, u *user.User) (*promotion.ApplyResult, error)

	CreateCoupon(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error)
	UpdateCoupon(ctx context.Context, id string, c *coupon.Coupon) (*coupon.Coupon, error)
	ListCoupons(ctx context.Context, f promotion.CouponFilter) ([]coupon.Coupon, error)
	GetCoupon(ctx context.Context, id string) (*coupon.Coupon, error)
	DeactivateCoupon(ctx context.Context, id string) error
}

// Compile-time check ensuring the promotion service satisfies Service.
var _ Service = (*promotion.Service)(nil)

// ProductLister lists the catalog.
type ProductLister interface {
	List(ctx context.Context) ([]product.Product, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// CreateLimit guards coupon creation on top of the global limiter.
	// Nil disables it.
	CreateLimit httpmiddleware.Middleware
	// MaxBodyBytes caps request bodies. Defaults to 10 MiB.
	MaxBodyBytes int64
}

// Handler implements the /api routes.
type Handler struct {
	svc      Service
	products ProductLister
	cfg      Config
}

// New constructs a Handler.
func New(cfg Config, svc Service, products ProductLister) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10 << 20
	}
	return &Handler{svc: svc, products: products, cfg: cfg}
}

// Routes registers the API on r, which is expected to be mounted at /api.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/products", h.ListProducts)
	r.Post("/applicable-coupons", h.ApplicableCoupons)
	r.Post("/apply-coupon/{id}", h.ApplyCoupon)

	var createMiddlewares []func(http.Handler) http.Handler
	if h.cfg.CreateLimit != nil {
		createMiddlewares = append(createMiddlewares, h.cfg.CreateLimit)
	}
	r.Route("/coupons", func(r chi.Router) {
		r.Get("/", h.ListCoupons)
		r.With(createMiddlewares...).Post("/", h.CreateCoupon)
		r.Get("/{id}", h.GetCoupon)
		r.Put("/{id}", h.UpdateCoupon)
		r.Delete("/{id}", h.DeactivateCoupon)
		r.Post("/{id}/applicability", h.CheckApplicability)
		r.Post("/{id}/discount", h.CalculateDiscount)
	})
}

// Welcome serves the API index at /.
func Welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, encodeWelcome)
}

// NotFound serves unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeAPIError(w, http.StatusNotFound, apiError{
		Code:    "NOT_FOUND",
		Message: "Route " + r.Method + " " + r.URL.Path + " not found",
	})
}
