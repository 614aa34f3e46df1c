package policy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
)

type PolicyResolver interface {
	FindApplicable(ctx context.Context, cardTypeID uuid.UUID, policyType model.PolicyType, level model.FacilityLevel, asOf time.Time) ([]*model.CoveragePolicy, error)
	AvailableBenefits(ctx context.Context, cardTypeID uuid.UUID, asOf time.Time) (*model.AvailableBenefits, error)
}

type Resolver struct {
	repo repository.PolicyRepository
}

func NewResolver(repo repository.PolicyRepository) *Resolver {
	return &Resolver{repo: repo}
}

// FindApplicable returns every policy applicable to the service event, sorted
// by ID. No match is an empty slice, not an error.
func (r *Resolver) FindApplicable(ctx context.Context, cardTypeID uuid.UUID, policyType model.PolicyType, level model.FacilityLevel, asOf time.Time) ([]*model.CoveragePolicy, error) {
	q := model.PolicyQuery{
		CardTypeID:    cardTypeID,
		PolicyType:    policyType,
		FacilityLevel: level,
		AsOf:          model.DateOf(asOf),
	}
	candidates, err := r.repo.FindApplicable(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to find policies: %w", err)
	}
	return Filter(candidates, q), nil
}

// AvailableBenefits summarises what a card type can claim on asOf.
func (r *Resolver) AvailableBenefits(ctx context.Context, cardTypeID uuid.UUID, asOf time.Time) (*model.AvailableBenefits, error) {
	policies, err := r.repo.ListByCardType(ctx, cardTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}

	benefits := &model.AvailableBenefits{
		PolicyTypes:    []model.PolicyType{},
		FacilityLevels: []model.FacilityLevel{},
	}
	seenTypes := map[model.PolicyType]bool{}
	seenLevels := map[model.FacilityLevel]bool{}
	for _, p := range policies {
		if p.CardTypeID != cardTypeID || !p.IsApplicable(asOf) {
			continue
		}
		benefits.TotalPolicies++
		if !seenTypes[p.PolicyType] {
			seenTypes[p.PolicyType] = true
			benefits.PolicyTypes = append(benefits.PolicyTypes, p.PolicyType)
		}
		if !seenLevels[p.FacilityLevel] {
			seenLevels[p.FacilityLevel] = true
			benefits.FacilityLevels = append(benefits.FacilityLevels, p.FacilityLevel)
		}
	}
	sort.Slice(benefits.PolicyTypes, func(i, j int) bool { return benefits.PolicyTypes[i] < benefits.PolicyTypes[j] })
	sort.Slice(benefits.FacilityLevels, func(i, j int) bool { return benefits.FacilityLevels[i] < benefits.FacilityLevels[j] })
	return benefits, nil
}

// Filter keeps the policies matching q and orders them by ID.
func Filter(policies []*model.CoveragePolicy, q model.PolicyQuery) []*model.CoveragePolicy {
	out := make([]*model.CoveragePolicy, 0, len(policies))
	for _, p := range policies {
		if p != nil && q.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}
