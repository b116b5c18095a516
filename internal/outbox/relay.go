package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RelayConfig controls how often and how much the relay publishes.
type RelayConfig struct {
	Interval   time.Duration
	BatchSize  int
	RetryBase  time.Duration
	RetryLimit time.Duration
}

func (c *RelayConfig) setDefaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 30 * time.Second
	}
	if c.RetryLimit <= 0 {
		c.RetryLimit = time.Hour
	}
}

// Relay moves messages from the outbox to a Publisher on a schedule.
type Relay struct {
	store Store
	pub   Publisher
	cfg   RelayConfig
	lg    *zap.Logger
	now   func() time.Time

	cron *cron.Cron
}

// NewRelay creates a Relay. Zero config fields take defaults.
func NewRelay(store Store, pub Publisher, cfg RelayConfig, lg *zap.Logger) *Relay {
	cfg.setDefaults()
	return &Relay{
		store: store,
		pub:   pub,
		cfg:   cfg,
		lg:    lg,
		now:   time.Now,
	}
}

// Start schedules the relay until ctx is done or Stop is called.
func (r *Relay) Start(ctx context.Context) error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", r.cfg.Interval), func() {
		if err := r.Flush(ctx); err != nil && ctx.Err() == nil {
			r.lg.Error("Outbox flush failed", zap.Error(err))
		}
	}); err != nil {
		return errors.Wrap(err, "schedule outbox relay")
	}
	r.cron = c
	c.Start()

	r.lg.Info("Outbox relay started",
		zap.Duration("interval", r.cfg.Interval),
		zap.Int("batch_size", r.cfg.BatchSize),
	)
	return nil
}

// Stop halts scheduling and waits for a running flush to finish.
func (r *Relay) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.lg.Info("Outbox relay stopped")
}

// Flush publishes one batch of due messages. Published messages are
// deleted; failed ones are rescheduled with exponential backoff.
func (r *Relay) Flush(ctx context.Context) error {
	now := r.now()
	batch, err := r.store.Pending(ctx, now, r.cfg.BatchSize)
	if err != nil {
		return errors.Wrap(err, "load pending")
	}

	for _, p := range batch {
		if err := r.pub.Publish(ctx, p.Message); err != nil {
			attempts := p.Attempts + 1
			next := now.Add(r.backoff(attempts))
			r.lg.Warn("Publish failed, will retry",
				zap.Stringer("id", p.ID),
				zap.String("topic", p.Topic),
				zap.Int("attempts", attempts),
				zap.Time("next_attempt", next),
				zap.Error(err),
			)
			if err := r.store.Retry(ctx, p.ID, attempts, err.Error(), next); err != nil {
				return errors.Wrapf(err, "reschedule %s", p.ID)
			}
			continue
		}
		if err := r.store.Delete(ctx, p.ID); err != nil {
			return errors.Wrapf(err, "delete %s", p.ID)
		}
	}
	return nil
}

func (r *Relay) backoff(attempts int) time.Duration {
	d := r.cfg.RetryBase
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= r.cfg.RetryLimit {
			return r.cfg.RetryLimit
		}
	}
	return min(d, r.cfg.RetryLimit)
}
