package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
)

// OutboxRepository is the slice of the outbox store the relay needs.
type OutboxRepository interface {
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}
