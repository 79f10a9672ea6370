// Command coupon-import loads coupon definitions from JSON or NDJSON files,
// optionally gzip-compressed, into the coupons table.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-promotions/internal/codec"
	"github.com/xenking/kart-promotions/internal/domain/coupon"
	"github.com/xenking/kart-promotions/internal/repository"
)

const (
	bloomFPR      = 0.001
	progressEvery = 1000
)

// couponStore is the subset of repository.CouponRepository the importer uses.
type couponStore interface {
	Codes(ctx context.Context) ([]string, error)
	FindByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	Create(ctx context.Context, c *coupon.Coupon) error
	Upsert(ctx context.Context, c *coupon.Coupon) error
}

var _ couponStore = (*repository.CouponRepository)(nil)

type options struct {
	skipExisting bool
	dryRun       bool
}

type summary struct {
	created  int
	updated  int
	skipped  int
	existing int
}

func main() {
	var (
		databaseURL string
		opts        options
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&opts.skipExisting, "skip-existing", false, "leave coupons whose code is already stored untouched")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "decode and validate the input without writing")
	flag.Usage = func() {
		_, _ = io.WriteString(flag.CommandLine.Output(),
			"usage: coupon-import [flags] file.json [file.ndjson.gz ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	lg, _ := zap.NewDevelopment()
	defer func() { _ = lg.Sync() }()

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !opts.dryRun {
		lg.Fatal("database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, files, opts); err != nil {
		lg.Fatal("Coupon import failed", zap.Error(err))
	}
}

func run(ctx context.Context, lg *zap.Logger, databaseURL string, files []string, opts options) error {
	lg.Info("Decoding coupon files", zap.Int("files", len(files)))

	coupons, err := decodeFiles(ctx, files)
	if err != nil {
		return err
	}
	lg.Info("Decoded coupons", zap.Int("count", len(coupons)))

	if opts.dryRun || len(coupons) == 0 {
		return nil
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "migrate")
	}

	s, err := importCoupons(ctx, lg, repository.NewCouponRepository(pool), coupons, opts)
	if err != nil {
		return err
	}

	lg.Info("Coupon import completed",
		zap.Int("created", s.created),
		zap.Int("updated", s.updated),
		zap.Int("skipped", s.skipped),
	)
	return nil
}

// decodeFiles decodes every file concurrently and returns the coupons in
// input order. Every coupon must be valid and its code unique across all
// files.
func decodeFiles(ctx context.Context, files []string) ([]*coupon.Coupon, error) {
	results := make([][]*coupon.Coupon, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			coupons, err := decodeFile(ctx, path)
			if err != nil {
				return errors.Wrapf(err, "decode %s", path)
			}
			results[i] = coupons
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeCoupons(files, results)
}

func decodeFile(ctx context.Context, path string) ([]*coupon.Coupon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	r, err := openReader(path, f)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return codec.DecodeCoupons(r)
}

// openReader wraps r in a parallel gzip reader when path ends in ".gz".
func openReader(path string, r io.Reader) (io.ReadCloser, error) {
	if !strings.HasSuffix(path, ".gz") {
		return io.NopCloser(r), nil
	}
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "create gzip reader")
	}
	return gz, nil
}

func mergeCoupons(files []string, results [][]*coupon.Coupon) ([]*coupon.Coupon, error) {
	seen := make(map[string]string)

	var out []*coupon.Coupon
	for i, coupons := range results {
		for _, c := range coupons {
			if err := c.Validate(); err != nil {
				return nil, errors.Wrapf(err, "coupon %s in %s", c.Code, files[i])
			}
			if prev, ok := seen[c.Code]; ok {
				return nil, errors.Errorf("coupon code %s in %s already defined in %s", c.Code, files[i], prev)
			}
			seen[c.Code] = files[i]
			out = append(out, c)
		}
	}
	return out, nil
}

// importCoupons writes coupons to store. Stored codes are loaded into a
// bloom filter first so only probable matches cost a lookup.
func importCoupons(
	ctx context.Context,
	lg *zap.Logger,
	store couponStore,
	coupons []*coupon.Coupon,
	opts options,
) (summary, error) {
	var s summary

	codes, err := store.Codes(ctx)
	if err != nil {
		return s, errors.Wrap(err, "load stored codes")
	}
	filter := bloom.NewWithEstimates(uint(max(len(codes), 1)), bloomFPR)
	for _, code := range codes {
		filter.AddString(code)
	}
	lg.Info("Loaded stored coupon codes", zap.Int("count", len(codes)))

	for i, c := range coupons {
		exists := false
		if filter.TestString(c.Code) {
			stored, err := store.FindByCode(ctx, c.Code)
			switch {
			case err == nil:
				exists = true
				c.ID = stored.ID
			case errors.Is(err, coupon.ErrNotFound):
			default:
				return s, errors.Wrapf(err, "look up coupon %s", c.Code)
			}
		}
		if exists {
			s.existing++
		}

		switch {
		case exists && opts.skipExisting:
			s.skipped++
		case exists:
			if err := store.Upsert(ctx, c); err != nil {
				return s, errors.Wrapf(err, "update coupon %s", c.Code)
			}
			s.updated++
		default:
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			if err := store.Create(ctx, c); err != nil {
				return s, errors.Wrapf(err, "create coupon %s", c.Code)
			}
			s.created++
		}

		if (i+1)%progressEvery == 0 {
			lg.Info("Import progress", zap.Int("processed", i+1), zap.Int("total", len(coupons)))
		}
	}

	return s, nil
}
