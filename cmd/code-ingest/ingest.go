package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/promo"
)

// Row is one promotional code read from an import file.
type Row struct {
	Code        string
	Type        promo.DiscountType
	Value       decimal.Decimal
	ValidFrom   time.Time
	ValidUntil  *time.Time
	OneTime     bool
	UsageLimit  int
	Description string
}

// Key is the case-insensitive identity of the code.
func (r Row) Key() string { return strings.ToUpper(r.Code) }

var requiredColumns = []string{"code", "type", "value", "valid_from"}

// rowParser maps CSV records to Rows using the header line.
type rowParser struct {
	cols map[string]int
}

func newRowParser(header []string) (*rowParser, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, errors.Errorf("missing column %q", c)
		}
	}
	return &rowParser{cols: cols}, nil
}

func (p *rowParser) field(rec []string, name string) string {
	i, ok := p.cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (p *rowParser) parse(rec []string) (Row, error) {
	r := Row{
		Code:        p.field(rec, "code"),
		Type:        promo.DiscountType(p.field(rec, "type")),
		Description: p.field(rec, "description"),
		OneTime:     true,
		UsageLimit:  1,
	}
	if r.Code == "" {
		return Row{}, errors.New("empty code")
	}
	switch r.Type {
	case promo.DiscountPercentage, promo.DiscountFixed:
	default:
		return Row{}, errors.Errorf("unknown type %q", r.Type)
	}

	var err error
	if r.Value, err = decimal.NewFromString(p.field(rec, "value")); err != nil {
		return Row{}, errors.Wrap(err, "value")
	}
	if !r.Value.IsPositive() {
		return Row{}, errors.New("value must be positive")
	}
	if r.ValidFrom, err = time.Parse(time.DateOnly, p.field(rec, "valid_from")); err != nil {
		return Row{}, errors.Wrap(err, "valid_from")
	}
	if s := p.field(rec, "valid_until"); s != "" {
		until, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return Row{}, errors.Wrap(err, "valid_until")
		}
		if until.Before(r.ValidFrom) {
			return Row{}, errors.New("valid_until before valid_from")
		}
		r.ValidUntil = &until
	}
	if s := p.field(rec, "one_time"); s != "" {
		if r.OneTime, err = strconv.ParseBool(s); err != nil {
			return Row{}, errors.Wrap(err, "one_time")
		}
	}
	if s := p.field(rec, "usage_limit"); s != "" {
		if r.UsageLimit, err = strconv.Atoi(s); err != nil {
			return Row{}, errors.Wrap(err, "usage_limit")
		}
		if r.UsageLimit <= 0 {
			return Row{}, errors.New("usage_limit must be positive")
		}
	}
	return r, nil
}

// streamFile calls fn for every valid row of a gzip CSV file. Invalid rows
// are reported to bad and skipped.
func streamFile(ctx context.Context, path string, fn func(Row) error, bad func(line int, err error)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	cr := csv.NewReader(gz)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return errors.Wrapf(err, "read header of %s", path)
	}
	p, err := newRowParser(header)
	if err != nil {
		return errors.Wrapf(err, "header of %s", path)
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		row, err := p.parse(rec)
		if err != nil {
			bad(line, err)
			continue
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// Stats summarizes an ingest run.
type Stats struct {
	Rows       int
	Invalid    int
	Duplicates int
	Written    int
}

// Ingester deduplicates codes across files case-insensitively and hands
// unique rows to a sink in batches.
//
// Pass 1 builds a bloom filter per file concurrently and marks codes that may
// repeat. Pass 2 streams every file in order and tracks exact keys only for
// those candidates, so memory grows with the number of suspected duplicates
// rather than with the file size. The first occurrence of a code wins.
type Ingester struct {
	Capacity  uint
	FPRate    float64
	BatchSize int
	Sink      func(ctx context.Context, rows []Row) error
	Log       *zap.Logger
}

func (in *Ingester) Run(ctx context.Context, files []string) (Stats, error) {
	candidates, err := in.candidates(ctx, files)
	if err != nil {
		return Stats{}, errors.Wrap(err, "find duplicate candidates")
	}
	in.Log.Info("Duplicate candidates", zap.Int("count", len(candidates)))

	var (
		stats Stats
		seen  = make(map[string]struct{}, len(candidates))
		batch = make([]Row, 0, in.BatchSize)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := in.Sink(ctx, batch); err != nil {
			return err
		}
		stats.Written += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, path := range files {
		err := streamFile(ctx, path, func(r Row) error {
			stats.Rows++
			key := r.Key()
			if _, maybe := candidates[key]; maybe {
				if _, dup := seen[key]; dup {
					stats.Duplicates++
					return nil
				}
				seen[key] = struct{}{}
			}
			batch = append(batch, r)
			if len(batch) >= in.BatchSize {
				return flush()
			}
			return nil
		}, func(line int, err error) {
			stats.Invalid++
			in.Log.Warn("Skipping invalid row", zap.String("file", path), zap.Int("line", line), zap.Error(err))
		})
		if err != nil {
			return stats, err
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

// candidates returns the keys that the bloom filters report as possibly
// occurring more than once across all files.
func (in *Ingester) candidates(ctx context.Context, files []string) (map[string]struct{}, error) {
	filters := make([]*bloom.BloomFilter, len(files))
	local := make([]map[string]struct{}, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(in.Capacity, in.FPRate)
			suspects := make(map[string]struct{})
			err := streamFile(gctx, path, func(r Row) error {
				key := r.Key()
				if filter.TestAndAddString(key) {
					suspects[key] = struct{}{}
				}
				return nil
			}, func(int, error) {})
			if err != nil {
				return err
			}
			filters[i] = filter
			local[i] = suspects
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cross := make([]map[string]struct{}, len(files))
	g, gctx = errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			found := make(map[string]struct{})
			err := streamFile(gctx, path, func(r Row) error {
				key := r.Key()
				for j, f := range filters {
					if j != i && f.TestString(key) {
						found[key] = struct{}{}
						break
					}
				}
				return nil
			}, func(int, error) {})
			if err != nil {
				return err
			}
			cross[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]struct{})
	for _, sets := range [][]map[string]struct{}{local, cross} {
		for _, set := range sets {
			for key := range set {
				out[key] = struct{}{}
			}
		}
	}
	return out, nil
}
