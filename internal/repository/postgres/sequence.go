package postgres

import (
	"context"
	"fmt"

	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

type sequenceRepository struct {
	BaseRepository
	claims *claimRepository
}

func NewSequenceRepository(base BaseRepository) repository.SequenceRepository {
	return &sequenceRepository{BaseRepository: base, claims: &claimRepository{base}}
}

// Next increments the month's counter row. A month seen for the first time
// is seeded from the highest claim number already stored for it.
func (r *sequenceRepository) Next(ctx context.Context, monthKey string) (int64, error) {
	var next int64
	err := r.db.GetContext(ctx, &next, `
		UPDATE claim_sequences SET last_value = last_value + 1, updated_at = NOW()
		WHERE month_key = $1
		RETURNING last_value`, monthKey)
	if err == nil {
		return next, nil
	}
	if !isNoRows(err) {
		return 0, r.wrap(monthKey, err)
	}

	seed, err := r.claims.MaxSequence(ctx, monthKey)
	if err != nil {
		return 0, err
	}
	err = r.db.GetContext(ctx, &next, `
		INSERT INTO claim_sequences (month_key, last_value, updated_at)
		VALUES ($1, $2 + 1, NOW())
		ON CONFLICT (month_key) DO UPDATE
		SET last_value = claim_sequences.last_value + 1, updated_at = NOW()
		RETURNING last_value`, monthKey, seed)
	if err != nil {
		return 0, r.wrap(monthKey, err)
	}
	return next, nil
}

func (r *sequenceRepository) wrap(monthKey string, err error) error {
	if isConflict(err) {
		return errors.SequenceConflict(monthKey, err)
	}
	return fmt.Errorf("failed to advance claim sequence: %w", err)
}
