package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
)

var _ repository.OutboxRepository = (*OutboxRepository)(nil)

type OutboxRepository struct{ s *Store }

func (r *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.appendOutboxLocked(event)
	return nil
}

func (s *Store) appendOutboxLocked(event *model.OutboxEvent) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now()
	event.CreatedAt, event.UpdatedAt = now, now
	if event.Status == "" {
		event.Status = model.OutboxStatusPending
	}
	cp := *event
	s.outbox = append(s.outbox, &cp)
}

func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	now := time.Now()
	var out []*model.OutboxEvent
	for _, e := range r.s.outbox {
		if limit > 0 && len(out) >= limit {
			break
		}
		due := e.RetryAt == nil || !e.RetryAt.After(now)
		if (e.Status == model.OutboxStatusPending || e.Status == model.OutboxStatusRetry) && due {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(e *model.OutboxEvent) {
		now := time.Now()
		e.Status = model.OutboxStatusProcessed
		e.ProcessedAt = &now
	})
}

func (r *OutboxRepository) MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error {
	return r.update(id, func(e *model.OutboxEvent) {
		e.Status = model.OutboxStatusRetry
		e.ErrorMessage = &errMsg
		e.RetryCount++
		e.RetryAt = &retryAt
	})
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.update(id, func(e *model.OutboxEvent) {
		e.Status = model.OutboxStatusFailed
		e.ErrorMessage = &errMsg
	})
}

func (r *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.outbox[:0]
	var deleted int64
	for _, e := range r.s.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.s.outbox = kept
	return deleted, nil
}

// Events returns a snapshot of every stored event.
func (r *OutboxRepository) Events() []model.OutboxEvent {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.OutboxEvent, 0, len(r.s.outbox))
	for _, e := range r.s.outbox {
		out = append(out, *e)
	}
	return out
}

func (r *OutboxRepository) update(id uuid.UUID, fn func(*model.OutboxEvent)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.outbox {
		if e.ID == id {
			fn(e)
			e.UpdatedAt = time.Now()
			return nil
		}
	}
	return nil
}
