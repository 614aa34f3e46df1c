package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

var (
	_ repository.ClaimRepository    = (*ClaimRepository)(nil)
	_ repository.SequenceRepository = (*SequenceRepository)(nil)
)

type ClaimRepository struct{ s *Store }

func (r *ClaimRepository) Create(ctx context.Context, claim *model.Claim, initial *model.ClaimStatusHistory, event *model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.claims {
		if existing.ClaimNumber == claim.ClaimNumber {
			monthKey, _, _ := model.ParseClaimNumber(claim.ClaimNumber)
			return errors.SequenceConflict(monthKey, fmt.Errorf("duplicate claim number %s", claim.ClaimNumber))
		}
	}

	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	now := time.Now()
	claim.CreatedAt, claim.UpdatedAt = now, now
	for i := range claim.Services {
		claim.Services[i].ID = uuid.New()
		claim.Services[i].ClaimID = claim.ID
		claim.Services[i].CreatedAt = now
	}
	for i := range claim.Medications {
		claim.Medications[i].ID = uuid.New()
		claim.Medications[i].ClaimID = claim.ID
		claim.Medications[i].CreatedAt = now
	}
	for i := range claim.Documents {
		claim.Documents[i].ID = uuid.New()
		claim.Documents[i].ClaimID = claim.ID
	}

	stored := cloneClaim(claim)
	stored.History = nil
	r.s.claims[claim.ID] = stored

	if initial != nil {
		initial.ID = uuid.New()
		initial.ClaimID = claim.ID
		h := *initial
		r.s.history[claim.ID] = append(r.s.history[claim.ID], &h)
	}
	if event != nil {
		r.s.appendOutboxLocked(event)
	}
	return nil
}

func (r *ClaimRepository) Get(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.claims[id]
	if !ok {
		return nil, errors.ClaimNotFound(id.String())
	}
	return r.hydrate(c), nil
}

func (r *ClaimRepository) GetByNumber(ctx context.Context, claimNumber string) (*model.Claim, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.claims {
		if c.ClaimNumber == claimNumber {
			return r.hydrate(c), nil
		}
	}
	return nil, errors.ClaimNotFound(claimNumber)
}

func (r *ClaimRepository) List(ctx context.Context, filters *model.ClaimFilters) ([]*model.Claim, int, error) {
	if filters == nil {
		filters = &model.ClaimFilters{}
	}
	r.s.mu.RLock()
	var out []*model.Claim
	for _, c := range r.s.claims {
		if filters.UserID != uuid.Nil && c.UserID != filters.UserID {
			continue
		}
		if filters.FacilityID != uuid.Nil && c.FacilityID != filters.FacilityID {
			continue
		}
		if filters.Status != "" && c.Status != filters.Status {
			continue
		}
		if filters.VisitType != "" && c.VisitType != filters.VisitType {
			continue
		}
		if filters.From != nil && c.SubmittedAt.Before(*filters.From) {
			continue
		}
		if filters.To != nil && c.SubmittedAt.After(*filters.To) {
			continue
		}
		cp := cloneClaim(c)
		cp.Services, cp.Medications, cp.Documents = nil, nil, nil
		out = append(out, cp)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ClaimNumber > out[j].ClaimNumber })
	return page(out, filters.Pagination), len(out), nil
}

func (r *ClaimRepository) UpdateStatus(ctx context.Context, id uuid.UUID, apply repository.StatusUpdate) (*model.Claim, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.claims[id]
	if !ok {
		return nil, errors.ClaimNotFound(id.String())
	}
	working := cloneClaim(stored)
	entry, event, err := apply(working)
	if err != nil {
		return nil, err
	}

	working.UpdatedAt = time.Now()
	r.s.claims[id] = working
	if entry != nil {
		entry.ID = uuid.New()
		entry.ClaimID = id
		h := *entry
		r.s.history[id] = append(r.s.history[id], &h)
	}
	if event != nil {
		r.s.appendOutboxLocked(event)
	}
	return r.hydrate(working), nil
}

func (r *ClaimRepository) ListHistory(ctx context.Context, claimID uuid.UUID) ([]*model.ClaimStatusHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.claims[claimID]; !ok {
		return nil, errors.ClaimNotFound(claimID.String())
	}
	out := make([]*model.ClaimStatusHistory, 0, len(r.s.history[claimID]))
	for _, h := range r.s.history[claimID] {
		cp := *h
		out = append(out, &cp)
	}
	return out, nil
}

func (r *ClaimRepository) MaxSequence(ctx context.Context, monthKey string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.maxSequenceLocked(monthKey), nil
}

// hydrate expects the read lock to be held.
func (r *ClaimRepository) hydrate(c *model.Claim) *model.Claim {
	cp := cloneClaim(c)
	for _, h := range r.s.history[c.ID] {
		cp.History = append(cp.History, *h)
	}
	return cp
}

func (s *Store) maxSequenceLocked(monthKey string) int64 {
	var max int64
	for _, c := range s.claims {
		mk, seq, err := model.ParseClaimNumber(c.ClaimNumber)
		if err == nil && mk == monthKey && seq > max {
			max = seq
		}
	}
	return max
}

func cloneClaim(c *model.Claim) *model.Claim {
	cp := *c
	cp.SecondaryDiagnoses = append(model.Diagnoses(nil), c.SecondaryDiagnoses...)
	cp.Services = append([]model.ClaimServiceDetail(nil), c.Services...)
	cp.Medications = append([]model.ClaimMedication(nil), c.Medications...)
	cp.Documents = append([]model.ClaimDocument(nil), c.Documents...)
	cp.History = append([]model.ClaimStatusHistory(nil), c.History...)
	return &cp
}

type SequenceRepository struct{ s *Store }

// Next seeds a month from existing claim numbers the first time it is seen.
func (r *SequenceRepository) Next(ctx context.Context, monthKey string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.sequences[monthKey]
	if !ok {
		cur = r.s.maxSequenceLocked(monthKey)
	}
	cur++
	r.s.sequences[monthKey] = cur
	return cur, nil
}
