package workers

import (
	"context"
	"time"

	"canvango_backend/internal/logger"
	"canvango_backend/internal/repositories"
)

// RetentionWorker deletes expired rate-limit counters and aged
// low-severity audit events on a schedule. Dedup-bearing events are never
// touched; that ledger outlives the aggregator's retry horizon.
type RetentionWorker struct {
	rateLimits *repositories.RateLimitRepository
	events     *repositories.SecurityEventRepository

	// EventRetentionDays bounds how long advisory low-severity events
	// are kept.
	EventRetentionDays int
}

func NewRetentionWorker(rateLimits *repositories.RateLimitRepository, events *repositories.SecurityEventRepository) *RetentionWorker {
	return &RetentionWorker{
		rateLimits:         rateLimits,
		events:             events,
		EventRetentionDays: 90,
	}
}

// Start launches the background loops. They stop when ctx is cancelled.
func (w *RetentionWorker) Start(ctx context.Context) {
	go w.purgeRateLimits(ctx)
	go w.purgeEvents(ctx)
}

func (w *RetentionWorker) purgeRateLimits(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("rate limit retention worker stopped")
			return
		case <-ticker.C:
			n, err := w.rateLimits.PurgeExpired(ctx)
			if err != nil {
				logger.Error("failed to purge expired rate limit counters", "error", err)
			} else if n > 0 {
				logger.Debug("purged expired rate limit counters", "count", n)
			}
		}
	}
}

func (w *RetentionWorker) purgeEvents(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("event retention worker stopped")
			return
		case <-ticker.C:
			n, err := w.events.PurgeOldLowSeverity(ctx, w.EventRetentionDays)
			if err != nil {
				logger.Error("failed to purge aged security events", "error", err)
			} else if n > 0 {
				logger.Info("purged aged low-severity security events", "count", n)
			}
		}
	}
}
