// Command code-ingest bulk imports promotional codes from gzip-compressed CSV
// files, skipping codes that repeat case-insensitively across the input.
//
// Files need a header line with at least code, type, value and valid_from;
// valid_until, one_time, usage_limit and description are optional.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"slices"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sneakyevil96/DatabaseProject/internal/storage/postgres"
)

const upsertCodeSQL = `INSERT INTO discount_codes
	(code, description, discount_type, discount_value, valid_from, valid_until, is_one_time, usage_limit)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT ((UPPER(code))) DO UPDATE SET description = EXCLUDED.description,
	discount_type = EXCLUDED.discount_type, discount_value = EXCLUDED.discount_value,
	valid_from = EXCLUDED.valid_from, valid_until = EXCLUDED.valid_until,
	is_one_time = EXCLUDED.is_one_time,
	usage_limit = GREATEST(EXCLUDED.usage_limit, discount_codes.used_count),
	is_active = TRUE`

func main() {
	_ = godotenv.Load()

	var (
		dataDir     string
		databaseURL string
		capacity    uint
		batchSize   int
	)
	flag.StringVar(&dataDir, "data-dir", "data", "directory with *.csv.gz files; ignored when files are given as arguments")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or PIZZERIA_DATABASE_URL / DATABASE_URL env)")
	flag.UintVar(&capacity, "bloom-capacity", 1_000_000, "expected number of codes per file")
	flag.IntVar(&batchSize, "batch-size", 500, "rows upserted per transaction")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("PIZZERIA_DATABASE_URL")
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	lg, _ := zap.NewDevelopment()
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	files := flag.Args()
	if len(files) == 0 {
		var err error
		if files, err = filepath.Glob(filepath.Join(dataDir, "*.csv.gz")); err != nil {
			lg.Fatal("Bad data dir", zap.Error(err))
		}
		slices.Sort(files)
	}
	if len(files) == 0 {
		lg.Fatal("No input files", zap.String("data_dir", dataDir))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, files, capacity, batchSize); err != nil {
		lg.Error("Code ingest failed", zap.Error(err))
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, lg *zap.Logger, databaseURL string, files []string, capacity uint, batchSize int) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	in := &Ingester{
		Capacity:  capacity,
		FPRate:    0.001,
		BatchSize: batchSize,
		Sink:      upsertSink(pool),
		Log:       lg,
	}
	lg.Info("Ingesting", zap.Strings("files", files))
	stats, err := in.Run(ctx, files)
	if err != nil {
		return err
	}
	lg.Info("Code ingest completed",
		zap.Int("rows", stats.Rows),
		zap.Int("invalid", stats.Invalid),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("written", stats.Written),
	)
	return nil
}

// upsertSink writes each batch in its own transaction with one round trip.
func upsertSink(pool *pgxpool.Pool) func(ctx context.Context, rows []Row) error {
	return func(ctx context.Context, rows []Row) error {
		return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			var b pgx.Batch
			for _, r := range rows {
				b.Queue(upsertCodeSQL,
					r.Key(), r.Description, string(r.Type), r.Value,
					r.ValidFrom, r.ValidUntil, r.OneTime, r.UsageLimit,
				)
			}
			if err := tx.SendBatch(ctx, &b).Close(); err != nil {
				return errors.Wrapf(err, "upsert %d codes", len(rows))
			}
			return nil
		})
	}
}
