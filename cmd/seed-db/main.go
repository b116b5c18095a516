// Command seed-db applies migrations and loads sample data from a YAML
// fixture in one transaction.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/auth"
	"github.com/sneakyevil96/DatabaseProject/internal/storage/postgres"
)

type options struct {
	databaseURL string
	fixture     string
	purge       bool
	apiKey      string
	pepper      string
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or PIZZERIA_DATABASE_URL / DATABASE_URL env)")
	flag.StringVar(&opts.fixture, "fixture", "db/seed/pizzeria.yaml", "path to the YAML fixture")
	flag.BoolVar(&opts.purge, "purge", false, "truncate menu, customer, courier and order data before loading")
	flag.StringVar(&opts.apiKey, "api-key", "", "extra API key with orders:write scope (or PIZZERIA_SEED_API_KEY env)")
	flag.StringVar(&opts.pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or PIZZERIA_API_KEY_PEPPER env)")
	flag.Parse()

	opts.databaseURL = firstNonEmpty(opts.databaseURL, os.Getenv("PIZZERIA_DATABASE_URL"), os.Getenv("DATABASE_URL"))
	opts.apiKey = firstNonEmpty(opts.apiKey, os.Getenv("PIZZERIA_SEED_API_KEY"))
	opts.pepper = firstNonEmpty(opts.pepper, os.Getenv("PIZZERIA_API_KEY_PEPPER"))

	lg, _ := zap.NewDevelopment()
	defer func() { _ = lg.Sync() }()

	if opts.databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, opts); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		cancel()
		os.Exit(1)
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, opts options) error {
	file, err := os.Open(opts.fixture)
	if err != nil {
		return errors.Wrap(err, "open fixture")
	}
	defer func() { _ = file.Close() }()

	f, err := ParseFixture(file)
	if err != nil {
		return errors.Wrapf(err, "parse %s", opts.fixture)
	}
	if opts.apiKey != "" {
		f.APIKeys = append(f.APIKeys, APIKey{Name: "seed", Key: opts.apiKey, Scopes: []string{auth.ScopeOrdersWrite}})
	}
	if len(f.APIKeys) > 0 && opts.pepper == "" {
		return errors.New("API key pepper is required to seed api keys: set --api-key-pepper or PIZZERIA_API_KEY_PEPPER")
	}

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		s := newSeeder(tx, []byte(opts.pepper), lg)
		if opts.purge {
			if err := s.Purge(ctx); err != nil {
				return err
			}
		}
		return s.Load(ctx, f)
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
