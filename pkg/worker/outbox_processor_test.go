package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository/memory"
	"github.com/truongngoctrac/claims-platform/internal/service/event"
	"github.com/truongngoctrac/claims-platform/pkg/logger"
	"github.com/truongngoctrac/claims-platform/pkg/messaging"
)

type fakeBroker struct {
	mu       sync.Mutex
	fail     bool
	messages []messaging.Message
	channels []string
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, msg messaging.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("broker down")
	}
	b.messages = append(b.messages, msg)
	b.channels = append(b.channels, channel)
	return nil
}

func (b *fakeBroker) Close() error { return nil }

func testProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		MaxRetries:    2,
		Channel:       "claims.test",
	}
}

func TestNewOutboxProcessorValidatesConfig(t *testing.T) {
	cfg := testProcessorConfig()
	cfg.BatchSize = 0
	_, err := NewOutboxProcessor(nil, nil, cfg, logger.Nop(), nil)
	assert.Error(t, err)
}

func TestProcessEventsPublishes(t *testing.T) {
	store := memory.NewStore()
	events := event.NewService(store.Outbox(), nil)
	claimID := uuid.New()
	require.NoError(t, events.Emit(context.Background(), model.EventClaimSubmitted, claimID,
		model.ClaimEvent{ClaimID: claimID, NewStatus: model.ClaimStatusSubmitted}))

	broker := &fakeBroker{}
	p, err := NewOutboxProcessor(store.Outbox(), broker, testProcessorConfig(), logger.Nop(), nil)
	require.NoError(t, err)

	n, err := p.ProcessEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, broker.messages, 1)
	assert.Equal(t, "claims.test", broker.channels[0])
	assert.Equal(t, model.EventClaimSubmitted, broker.messages[0].Type)
	assert.Equal(t, claimID, broker.messages[0].AggregateID)

	stored := store.Outbox().Events()
	assert.Equal(t, model.OutboxStatusProcessed, stored[0].Status)

	n, err = p.ProcessEvents(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessEventsRetriesThenFails(t *testing.T) {
	store := memory.NewStore()
	events := event.NewService(store.Outbox(), nil)
	require.NoError(t, events.Emit(context.Background(), model.EventCardExpired, uuid.New(), model.CardEvent{}))

	broker := &fakeBroker{fail: true}
	p, err := NewOutboxProcessor(store.Outbox(), broker, testProcessorConfig(), logger.Nop(), nil)
	require.NoError(t, err)
	// Put the scheduled retry in the past so the next poll picks it up.
	p.now = func() time.Time { return time.Now().Add(-time.Hour) }

	_, err = p.ProcessEvents(context.Background())
	require.NoError(t, err)
	stored := store.Outbox().Events()
	assert.Equal(t, model.OutboxStatusRetry, stored[0].Status)
	assert.Equal(t, 1, stored[0].RetryCount)
	require.NotNil(t, stored[0].ErrorMessage)
	assert.Equal(t, "broker down", *stored[0].ErrorMessage)

	_, err = p.ProcessEvents(context.Background())
	require.NoError(t, err)
	stored = store.Outbox().Events()
	assert.Equal(t, model.OutboxStatusFailed, stored[0].Status)

	n, err := p.ProcessEvents(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, backoff(time.Second, 0))
	assert.Equal(t, 4*time.Second, backoff(time.Second, 2))
	assert.Equal(t, 64*time.Second, backoff(time.Second, 20))
}
