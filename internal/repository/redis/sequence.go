package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/truongngoctrac/claims-platform/internal/repository"
)

const keyPrefix = "claims:seq:"

// SequenceRepository keeps one INCR counter per month. A counter missing
// from Redis is seeded from the claims table before the first increment.
type SequenceRepository struct {
	client *redis.Client
	claims repository.ClaimRepository
}

var _ repository.SequenceRepository = (*SequenceRepository)(nil)

func NewSequenceRepository(client *redis.Client, claims repository.ClaimRepository) *SequenceRepository {
	return &SequenceRepository{client: client, claims: claims}
}

func Key(monthKey string) string {
	return keyPrefix + monthKey
}

func (r *SequenceRepository) Next(ctx context.Context, monthKey string) (int64, error) {
	key := Key(monthKey)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check sequence key: %w", err)
	}
	if exists == 0 {
		seed, err := r.claims.MaxSequence(ctx, monthKey)
		if err != nil {
			return 0, err
		}
		// SETNX keeps whichever seed landed first.
		if err := r.client.SetNX(ctx, key, seed, 0).Err(); err != nil {
			return 0, fmt.Errorf("failed to seed sequence: %w", err)
		}
	}

	next, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return next, nil
}
