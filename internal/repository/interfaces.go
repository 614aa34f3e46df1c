package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
)

// StatusUpdate mutates a locked claim and returns the history entry and
// outbox event to store with it. A nil event stores none.
type StatusUpdate func(*model.Claim) (*model.ClaimStatusHistory, *model.OutboxEvent, error)

// All repository interfaces in one file
type (
	// CardRepository reads insurance cards and their card types.
	CardRepository interface {
		GetByNumber(ctx context.Context, cardNumber string) (*model.InsuranceCard, error)
		GetCardType(ctx context.Context, id uuid.UUID) (*model.CardType, error)
		GetCardTypeByCode(ctx context.Context, code string) (*model.CardType, error)
		ListCardTypes(ctx context.Context) ([]*model.CardType, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.InsuranceCard, error)
		// ExpireBefore marks active cards whose valid_to is before asOf as
		// expired and returns the cards it changed.
		ExpireBefore(ctx context.Context, asOf time.Time, limit int) ([]*model.InsuranceCard, error)
	}

	FacilityRepository interface {
		GetByCode(ctx context.Context, code string) (*model.HealthcareFacility, error)
		// List returns active facilities ordered by level, then name.
		List(ctx context.Context, filters *model.FacilityFilters) ([]*model.HealthcareFacility, error)
	}

	// PolicyRepository returns candidate policies. Callers re-check
	// applicability, so implementations may over-approximate.
	PolicyRepository interface {
		FindApplicable(ctx context.Context, q model.PolicyQuery) ([]*model.CoveragePolicy, error)
		ListByCardType(ctx context.Context, cardTypeID uuid.UUID) ([]*model.CoveragePolicy, error)
		List(ctx context.Context, filters *model.PolicyFilters) ([]*model.CoveragePolicy, error)
	}

	ClaimRepository interface {
		// Create persists the claim, its line items, the initial history
		// entry and the outbox event atomically. A duplicate claim number
		// fails with sequence_conflict.
		Create(ctx context.Context, claim *model.Claim, initial *model.ClaimStatusHistory, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Claim, error)
		GetByNumber(ctx context.Context, claimNumber string) (*model.Claim, error)
		List(ctx context.Context, filters *model.ClaimFilters) ([]*model.Claim, int, error)
		// UpdateStatus loads the claim under a row lock, hands it to apply and
		// persists the status fields plus the returned history entry and
		// outbox event in the same transaction. The write is conditional on
		// the status the claim had when loaded.
		UpdateStatus(ctx context.Context, id uuid.UUID, apply StatusUpdate) (*model.Claim, error)
		ListHistory(ctx context.Context, claimID uuid.UUID) ([]*model.ClaimStatusHistory, error)
		// MaxSequence returns the highest sequence already used in claim
		// numbers for monthKey, or 0.
		MaxSequence(ctx context.Context, monthKey string) (int64, error)
	}

	// SequenceRepository hands out per-month claim sequence values. Next is
	// an atomic increment-and-read.
	SequenceRepository interface {
		Next(ctx context.Context, monthKey string) (int64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
