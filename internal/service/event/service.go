package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/pkg/logger"
)

const eventExpiry = 24 * time.Hour

type EventServicer interface {
	Emit(ctx context.Context, eventType string, aggregateID uuid.UUID, payload interface{}) error
}

// Service writes domain events to the outbox. Publication happens in the
// worker process.
type Service struct {
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewService(outboxRepo repository.OutboxRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		outboxRepo: outboxRepo,
		logger:     log,
	}
}

// NewOutboxEvent builds a pending event without storing it, for callers
// that write the event in their own transaction.
func NewOutboxEvent(eventType string, aggregateID uuid.UUID, payload interface{}) (*model.OutboxEvent, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return &model.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     payloadJSON,
		Status:      model.OutboxStatusPending,
	}, nil
}

func (s *Service) Emit(ctx context.Context, eventType string, aggregateID uuid.UUID, payload interface{}) error {
	event, err := NewOutboxEvent(eventType, aggregateID, payload)
	if err != nil {
		return err
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	s.logger.Debug("event queued", "event_id", event.ID.String(), "event_type", eventType)
	return nil
}

// CleanupProcessedEvents drops processed events older than a day.
func (s *Service) CleanupProcessedEvents(ctx context.Context) error {
	cutoff := time.Now().Add(-eventExpiry)
	count, err := s.outboxRepo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup events: %w", err)
	}
	s.logger.Info("cleaned up processed events", "deleted_count", count, "cutoff", cutoff)
	return nil
}
