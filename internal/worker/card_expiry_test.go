package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository/memory"
	"github.com/truongngoctrac/claims-platform/internal/service/event"
)

func TestCardExpirySweep(t *testing.T) {
	store := memory.NewStore()
	cardType := &model.CardType{ID: uuid.New(), Code: "HN"}
	store.AddCardType(cardType)

	now := time.Date(2024, 6, 15, 3, 0, 0, 0, time.UTC)
	add := func(n int, validTo time.Time, status model.CardStatus) {
		store.AddCard(&model.InsuranceCard{
			UserID:     uuid.New(),
			CardNumber: fmt.Sprintf("HN40100000%05d", n),
			CardTypeID: cardType.ID,
			ValidFrom:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:    validTo,
			Status:     status,
		})
	}
	for i := 0; i < 5; i++ {
		add(i, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), model.CardStatusActive)
	}
	add(10, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), model.CardStatusActive)   // last valid day
	add(11, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), model.CardStatusSuspended) // not active

	events := event.NewService(store.Outbox(), nil)
	w := NewCardExpiryWorker(store.Cards(), events, CardExpiryConfig{BatchSize: 2}, nil, nil)
	w.clock = func() time.Time { return now }

	n, err := w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	emitted := store.Outbox().Events()
	require.Len(t, emitted, 5)
	for _, e := range emitted {
		assert.Equal(t, model.EventCardExpired, e.EventType)
		var payload model.CardEvent
		require.NoError(t, json.Unmarshal(e.Payload, &payload))
		assert.Equal(t, e.AggregateID, payload.CardID)
	}

	still, err := store.Cards().GetByNumber(context.Background(), "HN4010000000010")
	require.NoError(t, err)
	assert.Equal(t, model.CardStatusActive, still.Status)

	n, err = w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
