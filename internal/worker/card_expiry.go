package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/internal/service/event"
	"github.com/truongngoctrac/claims-platform/pkg/logger"
	"github.com/truongngoctrac/claims-platform/pkg/metrics"
)

type CardExpiryConfig struct {
	Interval  time.Duration
	BatchSize int
}

// CardExpiryWorker flips active cards past their valid_to date to expired
// and emits card.expired for each. Validation never depends on this sweep;
// it only keeps the stored status in line with the dates.
type CardExpiryWorker struct {
	cards   repository.CardRepository
	events  event.EventServicer
	config  CardExpiryConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	clock   func() time.Time
}

func NewCardExpiryWorker(
	cards repository.CardRepository,
	events event.EventServicer,
	config CardExpiryConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *CardExpiryWorker {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CardExpiryWorker{
		cards:   cards,
		events:  events,
		config:  config,
		logger:  log,
		metrics: m,
		clock:   time.Now,
	}
}

func (w *CardExpiryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.logger.Info("Starting card expiry worker", "interval", w.config.Interval.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				w.logger.Error(err, "Card expiry sweep failed")
			}
		}
	}
}

// Sweep expires batches until none are left and returns the total.
func (w *CardExpiryWorker) Sweep(ctx context.Context) (int, error) {
	now := w.clock()
	total := 0
	for {
		cards, err := w.cards.ExpireBefore(ctx, now, w.config.BatchSize)
		if err != nil {
			return total, fmt.Errorf("failed to expire cards: %w", err)
		}
		for _, c := range cards {
			payload := model.CardEvent{
				CardID:     c.ID,
				CardNumber: c.CardNumber,
				UserID:     c.UserID,
				OccurredAt: now,
			}
			if err := w.events.Emit(ctx, model.EventCardExpired, c.ID, payload); err != nil {
				w.logger.Error(err, "Failed to emit card expiry", "card_id", c.ID.String())
			}
		}
		total += len(cards)
		w.metrics.ObserveCardsExpired(len(cards))
		if len(cards) < w.config.BatchSize {
			break
		}
	}
	if total > 0 {
		w.logger.Info("expired insurance cards", "count", total)
	}
	return total, nil
}
