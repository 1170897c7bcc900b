package ingestion

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Janitor periodically reclaims sources stuck in "ingesting" past a
// staleness threshold — the failure mode being guarded against is a
// crashed worker, not cache expiry.
type Janitor struct {
	store      reclaimer
	interval   time.Duration
	staleAfter time.Duration
	logger     *zap.Logger
}

type reclaimer interface {
	ReclaimStaleIngesting(ctx context.Context, olderThanSeconds int64) (int, error)
}

func NewJanitor(s reclaimer, interval, staleAfter time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{store: s, interval: interval, staleAfter: staleAfter, logger: logger}
}

// Run blocks, ticking until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.store.ReclaimStaleIngesting(ctx, int64(j.staleAfter.Seconds()))
			if err != nil {
				if j.logger != nil {
					j.logger.Error("failed to reclaim stale ingesting sources", zap.Error(err))
				}
				continue
			}
			if n > 0 && j.logger != nil {
				j.logger.Info("reclaimed stale ingesting sources", zap.Int("count", n))
			}
		}
	}
}
