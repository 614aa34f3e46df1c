package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/truongngoctrac/claims-platform/internal/repository"
)

// Repositories bundles every Postgres-backed repository.
type Repositories struct {
	Cards      repository.CardRepository
	Facilities repository.FacilityRepository
	Policies   repository.PolicyRepository
	Claims     repository.ClaimRepository
	Sequences  repository.SequenceRepository
	Outbox     repository.OutboxRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	base := NewBaseRepository(db)
	return &Repositories{
		Cards:      NewCardRepository(base),
		Facilities: NewFacilityRepository(base),
		Policies:   NewPolicyRepository(base),
		Claims:     NewClaimRepository(base),
		Sequences:  NewSequenceRepository(base),
		Outbox:     NewOutboxRepository(base),
	}
}
