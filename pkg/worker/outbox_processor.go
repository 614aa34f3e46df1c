package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/pkg/logger"
	"github.com/truongngoctrac/claims-platform/pkg/messaging"
	"github.com/truongngoctrac/claims-platform/pkg/metrics"
	"github.com/truongngoctrac/claims-platform/pkg/repository"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// RetryAttempts is the number of publish attempts within one poll.
	RetryAttempts int
	RetryDelay    time.Duration
	// MaxRetries is the number of polls an event may fail before it is
	// parked as failed.
	MaxRetries int
	Channel    string
}

type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*OutboxProcessor, error) {
	// Config validation instead of defaults
	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		return nil, fmt.Errorf("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		return nil, fmt.Errorf("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		return nil, fmt.Errorf("RetryDelay must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return nil, fmt.Errorf("MaxRetries must be greater than 0")
	}
	if config.Channel == "" {
		config.Channel = "claims.events"
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor", "channel", p.config.Channel)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessEvents(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessEvents relays one batch and returns how many events were published.
func (p *OutboxProcessor) ProcessEvents(ctx context.Context) (int, error) {
	defer p.metrics.OutboxTimer()()

	events, err := p.repo.GetPendingEvents(ctx, p.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending events: %w", err)
	}

	published := 0
	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "Failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
			continue
		}
		published++
	}

	return published, nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	msg := messaging.Message{
		ID:          event.ID,
		Type:        event.EventType,
		AggregateID: event.AggregateID,
		Payload:     event.Payload,
		OccurredAt:  event.CreatedAt,
	}
	err := retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func() error {
		return p.broker.Publish(ctx, p.config.Channel, msg)
	})
	p.metrics.ObserveOutbox(event.EventType, err, event.RetryCount > 0)

	if err != nil {
		errStr := err.Error()
		if event.RetryCount+1 >= p.config.MaxRetries {
			if updateErr := p.repo.MarkFailed(ctx, event.ID, errStr); updateErr != nil {
				p.logger.Error(updateErr, "Failed to update event status", "event_id", event.ID.String())
			}
			return err
		}
		retryAt := p.now().Add(backoff(p.config.RetryDelay, event.RetryCount))
		if updateErr := p.repo.MarkRetry(ctx, event.ID, errStr, retryAt); updateErr != nil {
			p.logger.Error(updateErr, "Failed to update event status", "event_id", event.ID.String())
		}
		return err
	}

	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		p.logger.Error(err, "Failed to update event status", "event_id", event.ID.String())
		return err
	}

	return nil
}

// backoff doubles the delay per previous failure, capped at 64x.
func backoff(delay time.Duration, failures int) time.Duration {
	if failures > 6 {
		failures = 6
	}
	return delay << uint(failures)
}

// Helper retry function
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
