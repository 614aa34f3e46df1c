package worker

import (
	"context"
	"time"

	"github.com/truongngoctrac/claims-platform/pkg/logger"
)

type EventCleaner interface {
	CleanupProcessedEvents(ctx context.Context) error
}

// OutboxCleanupWorker periodically deletes relayed outbox events.
type OutboxCleanupWorker struct {
	events          EventCleaner
	cleanupInterval time.Duration
	logger          *logger.Logger
}

func NewOutboxCleanupWorker(events EventCleaner, cleanupInterval time.Duration, log *logger.Logger) *OutboxCleanupWorker {
	if log == nil {
		log = logger.Nop()
	}
	return &OutboxCleanupWorker{
		events:          events,
		cleanupInterval: cleanupInterval,
		logger:          log,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.events.CleanupProcessedEvents(ctx); err != nil {
				// Log error but continue
				w.logger.Error(err, "Error cleaning up outbox events")
			}
		}
	}
}
