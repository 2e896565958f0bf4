// Command seed-db loads catalog and contact content fixtures into the
// storefront database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/storage/postgres"
)

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Usage = func() {
		_, _ = io.WriteString(flag.CommandLine.Output(),
			"usage: seed-db [-database-url URL] fixture.json [fixture.json.gz ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set -database-url or DATABASE_URL")
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, flag.Args()); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL string, paths []string) error {
	fx, err := loadFixtures(ctx, paths)
	if err != nil {
		return errors.Wrap(err, "load fixtures")
	}
	lg.Info("Fixtures loaded",
		zap.Int("files", len(paths)),
		zap.Int("manufacturers", len(fx.Manufacturers)),
		zap.Int("parent_categories", len(fx.ParentCategories)),
		zap.Int("products", len(fx.Products)),
		zap.Int("banners", len(fx.Banners)),
	)

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	stats, err := postgres.Seed(ctx, pool, fx)
	if err != nil {
		return errors.Wrap(err, "seed")
	}
	lg.Info("Seeded",
		zap.Int("manufacturers", stats.Manufacturers),
		zap.Int("categories", stats.Categories),
		zap.Int("products", stats.Products),
		zap.Int("banners", stats.Banners),
	)
	return nil
}

// loadFixtures decodes all files concurrently and merges them in argument
// order.
func loadFixtures(ctx context.Context, paths []string) (postgres.Fixture, error) {
	decoded := make([]postgres.Fixture, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fx, err := readFixture(path)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			decoded[i] = fx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return postgres.Fixture{}, err
	}

	var merged postgres.Fixture
	for _, fx := range decoded {
		merged.Merge(fx)
	}
	return merged, nil
}

func readFixture(path string) (postgres.Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return postgres.Fixture{}, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".json.gz"):
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return postgres.Fixture{}, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	case filepath.Ext(path) == ".json":
	default:
		return postgres.Fixture{}, errors.Errorf("unsupported fixture format %q", filepath.Base(path))
	}
	return decodeFixture(r)
}

func decodeFixture(r io.Reader) (postgres.Fixture, error) {
	var fx postgres.Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fx); err != nil {
		return postgres.Fixture{}, errors.Wrap(err, "decode fixture")
	}
	return fx, nil
}
