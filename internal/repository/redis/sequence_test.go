package redis

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository/memory"
)

func newTestRepo(t *testing.T) (*SequenceRepository, *miniredis.Miniredis, *memory.Store) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	store := memory.NewStore()
	return NewSequenceRepository(client, store.Claims()), srv, store
}

func TestNextSeedsFromExistingClaims(t *testing.T) {
	repo, srv, store := newTestRepo(t)
	ctx := context.Background()

	existing := &model.Claim{ClaimNumber: model.FormatClaimNumber("202406", 5), UserID: uuid.New()}
	require.NoError(t, store.Claims().Create(ctx, existing, nil, nil))

	next, err := repo.Next(ctx, "202406")
	require.NoError(t, err)
	assert.Equal(t, int64(6), next)

	next, err = repo.Next(ctx, "202406")
	require.NoError(t, err)
	assert.Equal(t, int64(7), next)

	got, err := srv.Get(Key("202406"))
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	next, err = repo.Next(ctx, "202407")
	require.NoError(t, err)
	assert.Equal(t, int64(1), next, "months count independently")
}

func TestNextKeepsExistingCounter(t *testing.T) {
	repo, srv, _ := newTestRepo(t)
	require.NoError(t, srv.Set(Key("202406"), "41"))

	next, err := repo.Next(context.Background(), "202406")
	require.NoError(t, err)
	assert.Equal(t, int64(42), next)
}

func TestNextConcurrentValuesAreUnique(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	const n = 200
	values := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := repo.Next(ctx, "202406")
			if assert.NoError(t, err) {
				values[i] = v
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, v := range values {
		assert.False(t, seen[v], "value %d handed out twice", v)
		seen[v] = true
	}
	for v := int64(1); v <= n; v++ {
		assert.True(t, seen[v], "value %d missing", v)
	}
}

func TestNextReportsRedisErrors(t *testing.T) {
	repo, srv, _ := newTestRepo(t)
	srv.SetError("READONLY")

	_, err := repo.Next(context.Background(), "202406")
	assert.Error(t, err)
}
