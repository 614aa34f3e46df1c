package claimnumber

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truongngoctrac/claims-platform/internal/repository/memory"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

// flakySequence fails with a conflict for the first n calls.
type flakySequence struct {
	mu        sync.Mutex
	conflicts int
	calls     int
	value     int64
	err       error
}

func (f *flakySequence) Next(ctx context.Context, monthKey string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if f.calls <= f.conflicts {
		return 0, errors.SequenceConflict(monthKey, fmt.Errorf("serialization failure"))
	}
	f.value++
	return f.value, nil
}

func testConfig() Config {
	return Config{RetryAttempts: 3, RetryDelay: time.Millisecond}
}

func TestFormatAndParse(t *testing.T) {
	assert.Equal(t, "BHYT202406000042", Format("202406", 42))
	assert.Equal(t, "202406", MonthKey(time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC)))

	month, seq, err := Parse("BHYT202406000042")
	require.NoError(t, err)
	assert.Equal(t, "202406", month)
	assert.Equal(t, int64(42), seq)

	for _, bad := range []string{"", "BHYT2024060000", "XXXX202406000001", "BHYT202413000001", "BHYT202406000000", "BHYT20240600000a"} {
		_, _, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestNextIsSequentialPerMonth(t *testing.T) {
	store := memory.NewStore()
	g := NewGenerator(store.Sequences(), testConfig(), nil, nil)
	ctx := context.Background()

	first, err := g.Next(ctx, "202406")
	require.NoError(t, err)
	second, err := g.Next(ctx, "202406")
	require.NoError(t, err)
	other, err := g.Next(ctx, "202407")
	require.NoError(t, err)

	assert.Equal(t, "BHYT202406000001", first)
	assert.Equal(t, "BHYT202406000002", second)
	assert.Equal(t, "BHYT202407000001", other)
}

func TestNextConcurrentUnique(t *testing.T) {
	store := memory.NewStore()
	g := NewGenerator(store.Sequences(), testConfig(), nil, nil)

	const n = 200
	results := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			num, err := g.Next(context.Background(), "202406")
			assert.NoError(t, err)
			results[i] = num
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, r := range results {
		assert.False(t, seen[r], "duplicate %s", r)
		seen[r] = true
	}
	assert.True(t, seen[Format("202406", 1)])
	assert.True(t, seen[Format("202406", n)])
}

func TestNextRetriesConflicts(t *testing.T) {
	seq := &flakySequence{conflicts: 2}
	g := NewGenerator(seq, testConfig(), nil, nil)

	num, err := g.Next(context.Background(), "202406")
	require.NoError(t, err)
	assert.Equal(t, "BHYT202406000001", num)
	assert.Equal(t, 3, seq.calls)
}

func TestNextGivesUpAfterAttempts(t *testing.T) {
	seq := &flakySequence{conflicts: 10}
	g := NewGenerator(seq, testConfig(), nil, nil)

	_, err := g.Next(context.Background(), "202406")
	assert.True(t, errors.HasReason(err, errors.ReasonSequenceConflict))
	assert.Equal(t, 3, seq.calls)
}

func TestNextDoesNotRetryOtherErrors(t *testing.T) {
	seq := &flakySequence{err: fmt.Errorf("connection refused")}
	g := NewGenerator(seq, testConfig(), nil, nil)

	_, err := g.Next(context.Background(), "202406")
	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 1, seq.calls)
}

func TestNextExhausted(t *testing.T) {
	seq := &flakySequence{value: 999999}
	g := NewGenerator(seq, testConfig(), nil, nil)

	_, err := g.Next(context.Background(), "202406")
	assert.True(t, errors.HasReason(err, errors.ReasonSequenceExhausted))
}
