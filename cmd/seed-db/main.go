package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/kart-promotions/db"
	"github.com/xenking/kart-promotions/internal/codec"
	"github.com/xenking/kart-promotions/internal/repository"
)

func main() {
	var (
		databaseURL string
		skipCoupons bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&skipCoupons, "skip-coupons", false, "seed the product catalog only")
	flag.Parse()

	lg, _ := zap.NewDevelopment()
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, skipCoupons); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}

	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL string, skipCoupons bool) error {
	lg.Info("Connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "migrate")
	}

	if err := seedProducts(ctx, lg, repository.NewProductRepository(pool)); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if skipCoupons {
		return nil
	}
	if err := seedCoupons(ctx, lg, repository.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	return nil
}

func seedProducts(ctx context.Context, lg *zap.Logger, repo *repository.ProductRepository) error {
	f, err := db.Seed.Open("seed/products.json")
	if err != nil {
		return errors.Wrap(err, "open products")
	}
	defer func() { _ = f.Close() }()

	products, err := codec.DecodeProducts(f)
	if err != nil {
		return err
	}

	for _, p := range products {
		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}

	lg.Info("Seeded products", zap.Int("count", len(products)))
	return nil
}

func seedCoupons(ctx context.Context, lg *zap.Logger, repo *repository.CouponRepository) error {
	f, err := db.Seed.Open("seed/coupons.json")
	if err != nil {
		return errors.Wrap(err, "open coupons")
	}
	defer func() { _ = f.Close() }()

	coupons, err := codec.DecodeCoupons(f)
	if err != nil {
		return err
	}

	for _, c := range coupons {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if err := repo.Upsert(ctx, c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}
	}

	lg.Info("Seeded coupons", zap.Int("count", len(coupons)))
	return nil
}
