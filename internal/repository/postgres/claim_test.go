package postgres

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

func newClaim() (*model.Claim, *model.ClaimStatusHistory, *model.OutboxEvent) {
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	claim := &model.Claim{
		Base:                 model.Base{ID: uuid.New()},
		ClaimNumber:          "BHYT202406000001",
		UserID:               uuid.New(),
		InsuranceCardID:      uuid.New(),
		FacilityID:           uuid.New(),
		PolicyID:             uuid.New(),
		VisitType:            model.VisitTypeOutpatient,
		AdmissionDate:        now,
		PrimaryDiagnosisCode: "J06.9",
		PrimaryDiagnosisName: "Acute upper respiratory infection",
		TotalAmount:          decimal.NewFromInt(500000),
		CoveredAmount:        decimal.NewFromInt(300000),
		PatientPayment:       decimal.NewFromInt(200000),
		Status:               model.ClaimStatusSubmitted,
		SubmittedAt:          now,
	}
	initial := &model.ClaimStatusHistory{NewStatus: model.ClaimStatusSubmitted, ChangedBy: claim.UserID, ChangedAt: now}
	event := &model.OutboxEvent{
		AggregateID: claim.ID,
		EventType:   model.EventClaimSubmitted,
		Payload:     []byte(`{"claim_number":"BHYT202406000001"}`),
	}
	return claim, initial, event
}

func TestClaimCreateWritesOutboxInTransaction(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewClaimRepository(base)
	claim, initial, event := newClaim()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO claims").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO claim_status_history").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(sqlmock.AnyArg(), claim.ID, model.EventClaimSubmitted, sqlmock.AnyArg(),
			model.OutboxStatusPending, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), claim, initial, event))
	assert.Equal(t, claim.ID, initial.ClaimID)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimCreateRollsBackWhenOutboxFails(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewClaimRepository(base)
	claim, initial, event := newClaim()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO claims").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO claim_status_history").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").WillReturnError(stderrors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), claim, initial, event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimCreateDuplicateNumberIsSequenceConflict(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewClaimRepository(base)
	claim, initial, event := newClaim()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO claims").WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), claim, initial, event)
	assert.True(t, errors.HasReason(err, errors.ReasonSequenceConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
