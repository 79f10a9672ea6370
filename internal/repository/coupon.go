package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-promotions/internal/codec"
	"github.com/xenking/kart-promotions/internal/domain/coupon"
	"github.com/xenking/kart-promotions/internal/domain/promotion"
)

// Coupons are read back as the same JSON document the codec writes, so the
// column layout never leaks into the domain mapping.
const (
	couponDocument = `jsonb_build_object(
		'id', id::text, 'code', code, 'name', name, 'description', description, 'type', type,
		'discount', discount, 'conditions', conditions,
		'tieredRules', tiered_rules, 'flashSaleData', flash_sale_data, 'userCriteria', user_criteria,
		'priority', priority, 'stackable', stackable, 'isActive', is_active,
		'startDate', start_date, 'endDate', end_date, 'currentUsage', current_usage)`

	validAt = `is_active AND start_date <= $1 AND end_date > $1`

	findActiveCouponsSQL = `SELECT ` + couponDocument + ` FROM coupons
		WHERE ` + validAt + `
		ORDER BY priority DESC, created_at, code`

	listCouponsSQL = `SELECT ` + couponDocument + ` FROM coupons
		WHERE NOT $2 OR (` + validAt + `)
		ORDER BY created_at DESC, code`

	getCouponByIDSQL = `SELECT ` + couponDocument + ` FROM coupons WHERE id = $1`

	getCouponByCodeSQL = `SELECT ` + couponDocument + ` FROM coupons WHERE code = $1`

	listCouponCodesSQL = `SELECT code FROM coupons`

	couponColumns = `id, code, name, description, type, discount, conditions,
		tiered_rules, flash_sale_data, user_criteria, priority, stackable, is_active,
		start_date, end_date, current_usage`

	couponFromDocument = `SELECT (d->>'id')::uuid, d->>'code', d->>'name', COALESCE(d->>'description', ''), d->>'type',
		d->'discount', COALESCE(d->'conditions', '{}'::jsonb),
		d->'tieredRules', d->'flashSaleData', d->'userCriteria',
		(d->>'priority')::int, (d->>'stackable')::boolean, (d->>'isActive')::boolean,
		(d->>'startDate')::timestamptz, (d->>'endDate')::timestamptz, (d->>'currentUsage')::int
		FROM (SELECT $1::jsonb AS d) AS src`

	insertCouponSQL = `INSERT INTO coupons (` + couponColumns + `) ` + couponFromDocument

	upsertCouponSQL = insertCouponSQL + `
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, type = EXCLUDED.type,
			discount = EXCLUDED.discount, conditions = EXCLUDED.conditions,
			tiered_rules = EXCLUDED.tiered_rules, flash_sale_data = EXCLUDED.flash_sale_data,
			user_criteria = EXCLUDED.user_criteria, priority = EXCLUDED.priority,
			stackable = EXCLUDED.stackable, is_active = EXCLUDED.is_active,
			start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date, updated_at = now()`

	updateCouponSQL = `UPDATE coupons SET (code, name, description, type, discount, conditions,
		tiered_rules, flash_sale_data, user_criteria, priority, stackable, is_active,
		start_date, end_date, updated_at) = (
		SELECT d->>'code', d->>'name', COALESCE(d->>'description', ''), d->>'type',
			d->'discount', COALESCE(d->'conditions', '{}'::jsonb),
			d->'tieredRules', d->'flashSaleData', d->'userCriteria',
			(d->>'priority')::int, (d->>'stackable')::boolean, (d->>'isActive')::boolean,
			(d->>'startDate')::timestamptz, (d->>'endDate')::timestamptz, now()
		FROM (SELECT $1::jsonb AS d) AS src)
		WHERE id = $2`

	deactivateCouponSQL = `UPDATE coupons SET is_active = FALSE, updated_at = now() WHERE id = $1`

	incrementCouponUsageSQL = `UPDATE coupons SET current_usage = current_usage + 1, updated_at = now()
		WHERE id = $1
		AND (conditions->>'maxTotalUsage' IS NULL OR current_usage < (conditions->>'maxTotalUsage')::int)
		RETURNING current_usage`

	couponExistsSQL = `SELECT EXISTS (SELECT 1 FROM coupons WHERE id = $1)`

	uniqueViolation = "23505"
)

var _ promotion.CouponRepository = (*CouponRepository)(nil)

// CouponRepository implements promotion.CouponRepository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindActive returns coupons that are active and valid at now, highest
// priority first.
func (r *CouponRepository) FindActive(ctx context.Context, now time.Time) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, findActiveCouponsSQL, now)
	if err != nil {
		return nil, fmt.Errorf("finding active coupons: %w", err)
	}
	return collectCoupons(rows)
}

// List returns every coupon, newest first, or only those valid at now.
func (r *CouponRepository) List(ctx context.Context, activeOnly bool, now time.Time) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL, now, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return collectCoupons(rows)
}

// FindByID returns coupon.ErrNotFound when no coupon has the given ID,
// including IDs that are not UUIDs.
func (r *CouponRepository) FindByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, coupon.ErrNotFound
	}
	return r.findOne(ctx, getCouponByIDSQL, id)
}

// FindByCode looks up a coupon by its normalized code regardless of its
// active flag.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.findOne(ctx, getCouponByCodeSQL, coupon.NormalizeCode(code))
}

func (r *CouponRepository) findOne(ctx context.Context, query string, arg string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", arg, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", arg, err)
	}
	return &c, nil
}

// Codes returns every stored coupon code.
func (r *CouponRepository) Codes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCouponCodesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupon codes: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Create inserts a new coupon. It returns coupon.ErrCodeTaken when the code
// is already in use.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, insertCouponSQL, string(codec.EncodeCouponBytes(c)))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return coupon.ErrCodeTaken
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Upsert inserts c or replaces the definition stored under the same code.
// The stored ID and usage counter are kept on update.
func (r *CouponRepository) Upsert(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, upsertCouponSQL, string(codec.EncodeCouponBytes(c)))
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update replaces the definition stored under c.ID. The usage counter is
// kept. It returns coupon.ErrCodeTaken when c.Code belongs to another
// coupon.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	if _, err := uuid.Parse(c.ID); err != nil {
		return coupon.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, updateCouponSQL, string(codec.EncodeCouponBytes(c)), c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return coupon.ErrCodeTaken
		}
		return fmt.Errorf("updating coupon %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Deactivate clears the active flag of a coupon.
func (r *CouponRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return coupon.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, deactivateCouponSQL, id)
	if err != nil {
		return fmt.Errorf("deactivating coupon %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// IncrementUsage atomically records one redemption and returns the new
// usage count. It returns coupon.ErrUsageLimitReached when the coupon has
// no remaining redemptions.
func (r *CouponRepository) IncrementUsage(ctx context.Context, id string) (int, error) {
	if _, err := uuid.Parse(id); err != nil {
		return 0, coupon.ErrNotFound
	}

	var usage int
	err := r.pool.QueryRow(ctx, incrementCouponUsageSQL, id).Scan(&usage)
	if err == nil {
		return usage, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("incrementing usage for coupon %q: %w", id, err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, couponExistsSQL, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("checking coupon %q: %w", id, err)
	}
	if !exists {
		return 0, coupon.ErrNotFound
	}
	return 0, coupon.ErrUsageLimitReached
}

func collectCoupons(rows pgx.Rows) ([]coupon.Coupon, error) {
	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("reading coupons: %w", err)
	}
	return coupons, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		return coupon.Coupon{}, err
	}
	c, err := codec.DecodeCoupon(doc)
	if err != nil {
		return coupon.Coupon{}, err
	}
	return *c, nil
}
