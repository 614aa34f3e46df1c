package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(Settings{Name: "test", MaxFailures: 2, Timeout: time.Second})
	cb.now = func() time.Time { return now }

	boom := errors.New("boom")
	calls := 0
	failing := func() error { calls++; return boom }
	ok := func() error { calls++; return nil }

	assert.Equal(t, boom, cb.Execute(failing))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, boom, cb.Execute(failing))
	assert.Equal(t, StateOpen, cb.State())

	assert.Equal(t, ErrOpen, cb.Execute(ok))
	assert.Equal(t, 2, calls)

	// A failed trial call re-opens immediately.
	now = now.Add(2 * time.Second)
	assert.Equal(t, boom, cb.Execute(failing))
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Second)
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 4, calls)
}
