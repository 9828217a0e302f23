package main

import (
	"context"
	"time"

	"easyadmin/pkg/logger"
)

// Purger deletes records created before a cutoff.
type Purger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// Target is one table kept under retention.
type Target struct {
	Table  string
	Purger Purger
}

// RetentionWorker periodically removes expired operation log and application
// log records.
type RetentionWorker struct {
	targets   []Target
	retention time.Duration
	interval  time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func NewRetentionWorker(retention, interval time.Duration, log *logger.Logger, targets ...Target) *RetentionWorker {
	return &RetentionWorker{
		targets:   targets,
		retention: retention,
		interval:  interval,
		log:       log.WithComponent("worker"),
		now:       time.Now,
	}
}

// Run purges once immediately, then on every tick until ctx is cancelled.
func (w *RetentionWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.purgeOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.purgeOnce(ctx)
		}
	}
}

func (w *RetentionWorker) purgeOnce(ctx context.Context) {
	cutoff := w.now().UTC().Add(-w.retention)

	for _, target := range w.targets {
		deleted, err := target.Purger.Purge(ctx, cutoff)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Errorw("failed to purge", "table", target.Table, "error", err, "before", cutoff)
			continue
		}
		if deleted > 0 {
			w.log.Infow("purged expired rows", "table", target.Table, "deleted", deleted, "before", cutoff)
		}
	}
}
