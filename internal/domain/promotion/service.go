// Package promotion runs the coupon engine against stored coupons and
// catalog data.
package promotion

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-promotions/internal/domain/cart"
	"github.com/xenking/kart-promotions/internal/domain/coupon"
	"github.com/xenking/kart-promotions/internal/domain/product"
	"github.com/xenking/kart-promotions/internal/domain/user"
)

const instrumentationName = "github.com/xenking/kart-promotions/internal/domain/promotion"

// CouponRepository is the coupon store the service reads and administers.
type CouponRepository interface {
	coupon.Repository
	// List returns all coupons, or only currently valid ones when activeOnly.
	List(ctx context.Context, activeOnly bool, now time.Time) ([]coupon.Coupon, error)
	// FindByCode returns coupon.ErrNotFound when no coupon uses code.
	FindByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	// Create stores a new coupon. It returns coupon.ErrCodeTaken on a
	// duplicate code.
	Create(ctx context.Context, c *coupon.Coupon) error
	// Update replaces the definition stored under c.ID, keeping its usage
	// counter. It returns coupon.ErrNotFound for unknown IDs and
	// coupon.ErrCodeTaken when c.Code belongs to another coupon.
	Update(ctx context.Context, c *coupon.Coupon) error
	// Deactivate clears the active flag. It returns coupon.ErrNotFound for
	// unknown IDs.
	Deactivate(ctx context.Context, id string) error
}

// Request is the input for ApplicableCoupons.
type Request struct {
	Cart          cart.Cart
	User          *user.User
	AllowStacking bool
	// CouponIDs restricts evaluation to these coupons. Unknown IDs are
	// skipped. Empty means every active coupon.
	CouponIDs []string
}

// ApplyResult is the outcome of committing a coupon to a cart.
type ApplyResult struct {
	Cart      cart.Cart
	Coupon    *coupon.Coupon
	Breakdown coupon.Breakdown
	// Savings is the discount plus any waived shipping.
	Savings decimal.Decimal
}

// Service evaluates coupons for carts.
type Service struct {
	coupons  CouponRepository
	products product.Repository

	now         func() time.Time
	location    *time.Location
	concurrency int

	tracer      trace.Tracer
	evaluations metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewService creates a Service. Without options it uses the wall clock in
// UTC, evaluates up to 8 coupons in parallel and reports to the global
// OpenTelemetry providers.
func NewService(coupons CouponRepository, products product.Repository, opts ...Option) (*Service, error) {
	cfg := options{
		now:            time.Now,
		location:       time.UTC,
		concurrency:    8,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, o := range opts {
		o(&cfg)
	}

	meter := cfg.meterProvider.Meter(instrumentationName)
	evaluations, err := meter.Int64Counter("promotion.evaluations",
		metric.WithDescription("Coupons evaluated against a cart"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create evaluations counter")
	}
	duration, err := meter.Float64Histogram("promotion.evaluation.duration",
		metric.WithDescription("Time spent evaluating candidate coupons for one cart"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create duration histogram")
	}

	return &Service{
		coupons:     coupons,
		products:    products,
		now:         cfg.now,
		location:    cfg.location,
		concurrency: cfg.concurrency,
		tracer:      cfg.tracerProvider.Tracer(instrumentationName),
		evaluations: evaluations,
		duration:    duration,
	}, nil
}

func (s *Service) input(ctx context.Context, c cart.Cart, u *user.User) (coupon.Input, error) {
	products, err := s.products.GetByIDs(ctx, c.ProductIDs())
	if err != nil {
		return coupon.Input{}, errors.Wrap(err, "get products")
	}
	return coupon.Input{
		Cart:     c,
		User:     u,
		Products: product.NewCatalog(products),
		Now:      s.now().In(s.location),
	}, nil
}

func (s *Service) candidates(ctx context.Context, ids []string, now time.Time) ([]*coupon.Coupon, error) {
	if len(ids) == 0 {
		active, err := s.coupons.FindActive(ctx, now)
		if err != nil {
			return nil, errors.Wrap(err, "find active coupons")
		}
		out := make([]*coupon.Coupon, len(active))
		for i := range active {
			out[i] = &active[i]
		}
		return out, nil
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]*coupon.Coupon, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		c, err := s.coupons.FindByID(ctx, id)
		switch {
		case errors.Is(err, coupon.ErrNotFound):
			continue
		case err != nil:
			return nil, errors.Wrapf(err, "find coupon %s", id)
		}
		out = append(out, c)
	}
	return out, nil
}

// ApplicableCoupons evaluates every candidate coupon against the cart and
// returns the applicable ones. With AllowStacking the result is the best
// combination; otherwise all applicable coupons ordered by discount,
// largest first.
func (s *Service) ApplicableCoupons(ctx context.Context, req Request) (_ []coupon.Evaluation, err error) {
	ctx, span := s.tracer.Start(ctx, "promotion.ApplicableCoupons", trace.WithAttributes(
		attribute.Int("cart.items", len(req.Cart.Items)),
		attribute.Bool("allow_stacking", req.AllowStacking),
	))
	defer func() { endSpan(span, err) }()

	start := time.Now()
	defer func() {
		s.duration.Record(ctx, time.Since(start).Seconds())
	}()

	in, err := s.input(ctx, req.Cart, req.User)
	if err != nil {
		return nil, err
	}
	candidates, err := s.candidates(ctx, req.CouponIDs, in.Now)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("coupons.candidates", len(candidates)))

	results := make([]coupon.Evaluation, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev, err := coupon.Evaluate(in, c)
			if err != nil {
				return errors.Wrapf(err, "evaluate coupon %s", c.Code)
			}
			s.evaluations.Add(gctx, 1, metric.WithAttributes(
				attribute.String("type", string(c.Type())),
				attribute.Bool("applicable", ev.Applicable),
			))
			results[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	applicable := slices.DeleteFunc(results, func(ev coupon.Evaluation) bool {
		return !ev.Applicable
	})
	span.SetAttributes(attribute.Int("coupons.applicable", len(applicable)))

	if req.AllowStacking {
		return coupon.SelectBest(applicable), nil
	}
	slices.SortStableFunc(applicable, func(a, b coupon.Evaluation) int {
		return b.TotalDiscount.Cmp(a.TotalDiscount)
	})
	return applicable, nil
}

// CheckApplicability reports whether the coupon with the given ID applies
// to the cart.
func (s *Service) CheckApplicability(ctx context.Context, couponID string, c cart.Cart, u *user.User) (_ coupon.Applicability, err error) {
	ctx, span := s.tracer.Start(ctx, "promotion.CheckApplicability", trace.WithAttributes(
		attribute.String("coupon.id", couponID),
	))
	defer func() { endSpan(span, err) }()

	cp, in, err := s.load(ctx, couponID, c, u)
	if err != nil {
		return coupon.Applicability{}, err
	}
	res := coupon.CheckApplicability(in, cp)
	s.evaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", string(cp.Type())),
		attribute.Bool("applicable", res.Applicable),
	))
	return res, nil
}

// CalculateDiscount evaluates the coupon with the given ID against the
// cart. A coupon that does not apply is reported through the evaluation's
// Applicable and Reason fields rather than an error.
func (s *Service) CalculateDiscount(ctx context.Context, couponID string, c cart.Cart, u *user.User) (_ coupon.Evaluation, err error) {
	ctx, span := s.tracer.Start(ctx, "promotion.CalculateDiscount", trace.WithAttributes(
		attribute.String("coupon.id", couponID),
	))
	defer func() { endSpan(span, err) }()

	cp, in, err := s.load(ctx, couponID, c, u)
	if err != nil {
		return coupon.Evaluation{}, err
	}
	ev, err := coupon.Evaluate(in, cp)
	if err != nil {
		return coupon.Evaluation{}, err
	}
	s.evaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", string(cp.Type())),
		attribute.Bool("applicable", ev.Applicable),
	))
	return ev, nil
}

// ApplyCoupon commits the coupon with the given ID to the cart, replacing
// any coupon applied before. It returns *coupon.NotApplicableError when the
// coupon does not apply. Usage counters are not touched.
func (s *Service) ApplyCoupon(ctx context.Context, couponID string, c cart.Cart, u *user.User) (_ *ApplyResult, err error) {
	ctx, span := s.tracer.Start(ctx, "promotion.ApplyCoupon", trace.WithAttributes(
		attribute.String("coupon.id", couponID),
	))
	defer func() { endSpan(span, err) }()

	cp, in, err := s.load(ctx, couponID, c, u)
	if err != nil {
		return nil, err
	}
	updated, b, err := coupon.ApplyToCart(in, cp)
	if err != nil {
		return nil, err
	}

	savings := b.TotalDiscount
	if b.FreeShipping {
		savings = savings.Add(c.ShippingCost)
	}
	return &ApplyResult{
		Cart:      updated,
		Coupon:    cp,
		Breakdown: b,
		Savings:   savings.Round(2),
	}, nil
}

func (s *Service) load(ctx context.Context, couponID string, c cart.Cart, u *user.User) (*coupon.Coupon, coupon.Input, error) {
	cp, err := s.coupons.FindByID(ctx, couponID)
	if err != nil {
		return nil, coupon.Input{}, errors.Wrapf(err, "find coupon %s", couponID)
	}
	in, err := s.input(ctx, c, u)
	if err != nil {
		return nil, coupon.Input{}, err
	}
	return cp, in, nil
}

// CreateCoupon validates c, assigns it a fresh ID and stores it. A zero
// StartDate defaults to now.
func (s *Service) CreateCoupon(ctx context.Context, c *coupon.Coupon) (_ *coupon.Coupon, err error) {
	ctx, span := s.tracer.Start(ctx, "promotion.CreateCoupon")
	defer func() { endSpan(span, err) }()

	created := *c
	created.ID = uuid.NewString()
	created.Code = coupon.NormalizeCode(created.Code)
	created.CurrentUsage = 0
	if created.StartDate.IsZero() {
		created.StartDate = s.now()
	}
	if err := created.Validate(); err != nil {
		return nil, err
	}
	if err := s.coupons.Create(ctx, &created); err != nil {
		return nil, errors.Wrapf(err, "create coupon %s", created.Code)
	}
	return &created, nil
}

// UpdateCoupon replaces the definition of the coupon with the given ID by
// c. The ID and usage counter are kept, and a zero StartDate keeps the
// stored one. It returns coupon.ErrCodeTaken when the new code belongs to
// another coupon.
func (s *Service) UpdateCoupon(ctx context.Context, id string, c *coupon.Coupon) (_ *coupon.Coupon, err error) {
	ctx, span := s.tracer.Start(ctx, "promotion.UpdateCoupon", trace.WithAttributes(
		attribute.String("coupon.id", id),
	))
	defer func() { endSpan(span, err) }()

	existing, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon %s", id)
	}

	updated := *c
	updated.ID = existing.ID
	updated.Code = coupon.NormalizeCode(updated.Code)
	updated.CurrentUsage = existing.CurrentUsage
	if updated.StartDate.IsZero() {
		updated.StartDate = existing.StartDate
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if updated.Code != existing.Code {
		other, err := s.coupons.FindByCode(ctx, updated.Code)
		switch {
		case errors.Is(err, coupon.ErrNotFound):
		case err != nil:
			return nil, errors.Wrapf(err, "find coupon %s", updated.Code)
		case other.ID != existing.ID:
			return nil, errors.Wrapf(coupon.ErrCodeTaken, "update coupon %s", updated.Code)
		}
	}

	if err := s.coupons.Update(ctx, &updated); err != nil {
		return nil, errors.Wrapf(err, "update coupon %s", id)
	}
	return &updated, nil
}

// CouponFilter narrows ListCoupons. Zero fields match everything.
type CouponFilter struct {
	// ActiveOnly keeps coupons valid now.
	ActiveOnly bool
	Type       coupon.Type
	// Search matches a substring of the code or name, ignoring case.
	Search string
}

func (f CouponFilter) match(c *coupon.Coupon) bool {
	if f.Type != "" && c.Type() != f.Type {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(c.Code), q) || strings.Contains(strings.ToLower(c.Name), q)
}

// ListCoupons returns stored coupons matching f.
func (s *Service) ListCoupons(ctx context.Context, f CouponFilter) ([]coupon.Coupon, error) {
	coupons, err := s.coupons.List(ctx, f.ActiveOnly, s.now())
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	return slices.DeleteFunc(coupons, func(c coupon.Coupon) bool {
		return !f.match(&c)
	}), nil
}

// GetCoupon returns coupon.ErrNotFound for unknown IDs.
func (s *Service) GetCoupon(ctx context.Context, id string) (*coupon.Coupon, error) {
	c, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon %s", id)
	}
	return c, nil
}

// DeactivateCoupon soft-deletes a coupon so it is no longer a candidate.
func (s *Service) DeactivateCoupon(ctx context.Context, id string) error {
	if err := s.coupons.Deactivate(ctx, id); err != nil {
		return errors.Wrapf(err, "deactivate coupon %s", id)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
