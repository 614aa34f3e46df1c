package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

func setupMockDB(t *testing.T) (BaseRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "postgres")
	t.Cleanup(func() { db.Close() })
	return NewBaseRepository(db), mock
}

const (
	advanceSequence = `UPDATE claim_sequences SET last_value = last_value + 1`
	seedSequence    = `INSERT INTO claim_sequences (month_key, last_value, updated_at)`
	maxClaimNumber  = `SELECT COALESCE(MAX(CAST(SUBSTRING(claim_number FROM $2) AS BIGINT)), 0)`
)

func TestSequenceNextAdvancesExistingCounter(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewSequenceRepository(base)

	mock.ExpectQuery(regexp.QuoteMeta(advanceSequence)).
		WithArgs("202406").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(42)))

	next, err := repo.Next(context.Background(), "202406")
	require.NoError(t, err)
	assert.Equal(t, int64(42), next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceNextSeedsNewMonthFromClaims(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewSequenceRepository(base)

	mock.ExpectQuery(regexp.QuoteMeta(advanceSequence)).
		WithArgs("202407").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}))
	mock.ExpectQuery(regexp.QuoteMeta(maxClaimNumber)).
		WithArgs("BHYT202407%", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(17)))
	mock.ExpectQuery(regexp.QuoteMeta(seedSequence)).
		WithArgs("202407", int64(17)).
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(18)))

	next, err := repo.Next(context.Background(), "202407")
	require.NoError(t, err)
	assert.Equal(t, int64(18), next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceNextReportsConflicts(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewSequenceRepository(base)

	mock.ExpectQuery(regexp.QuoteMeta(advanceSequence)).
		WithArgs("202406").
		WillReturnError(&pq.Error{Code: serializationFailure})

	_, err := repo.Next(context.Background(), "202406")
	assert.True(t, errors.HasReason(err, errors.ReasonSequenceConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
