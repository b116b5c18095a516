package health

import (
	"context"
	"runtime"
	"time"

	"github.com/go-faster/errors"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck fails when p cannot be reached.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

// GoroutineCountCheck fails when the process runs more than threshold
// goroutines.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// BacklogFunc reports how many items are waiting at now.
type BacklogFunc func(ctx context.Context, now time.Time) (int, error)

// BacklogCheck fails when more than limit items are waiting, which for the
// outbox means the broker has been unreachable for a while.
func BacklogCheck(backlog BacklogFunc, limit int) CheckFunc {
	return func(ctx context.Context) error {
		n, err := backlog(ctx, time.Now())
		if err != nil {
			return errors.Wrap(err, "backlog")
		}
		if n > limit {
			return errors.Errorf("backlog %d exceeds limit %d", n, limit)
		}
		return nil
	}
}
