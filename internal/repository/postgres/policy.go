package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
)

var policyColumns = []interface{}{
	"id", "name", "policy_type", "card_type_id", "facility_level", "coverage_percentage",
	"max_amount", "deductible", "conditions", "effective_from", "effective_to",
	"is_active", "created_at", "updated_at",
}

type policyRepository struct {
	BaseRepository
}

func NewPolicyRepository(base BaseRepository) repository.PolicyRepository {
	return &policyRepository{base}
}

// FindApplicable pushes the whole applicability predicate into SQL.
func (r *policyRepository) FindApplicable(ctx context.Context, q model.PolicyQuery) ([]*model.CoveragePolicy, error) {
	return r.selectPolicies(ctx, applicableDataset(q))
}

func applicableDataset(q model.PolicyQuery) *goqu.SelectDataset {
	day := model.DateOf(q.AsOf)
	return dialect.From("coverage_policies").Select(policyColumns...).
		Where(
			goqu.Ex{
				"card_type_id":   q.CardTypeID.String(),
				"policy_type":    string(q.PolicyType),
				"facility_level": string(q.FacilityLevel),
				"is_active":      true,
			},
			goqu.C("effective_from").Lte(day),
			goqu.Or(goqu.C("effective_to").IsNull(), goqu.C("effective_to").Gte(day)),
		).
		Order(goqu.I("id").Asc())
}

func (r *policyRepository) ListByCardType(ctx context.Context, cardTypeID uuid.UUID) ([]*model.CoveragePolicy, error) {
	ds := dialect.From("coverage_policies").Select(policyColumns...).
		Where(goqu.Ex{"card_type_id": cardTypeID.String()}).
		Order(goqu.I("id").Asc())
	return r.selectPolicies(ctx, ds)
}

func (r *policyRepository) List(ctx context.Context, filters *model.PolicyFilters) ([]*model.CoveragePolicy, error) {
	if filters == nil {
		filters = &model.PolicyFilters{}
	}
	ds := dialect.From("coverage_policies").Select(policyColumns...)
	if filters.CardTypeID != uuid.Nil {
		ds = ds.Where(goqu.Ex{"card_type_id": filters.CardTypeID.String()})
	}
	if filters.PolicyType != "" {
		ds = ds.Where(goqu.Ex{"policy_type": string(filters.PolicyType)})
	}
	if filters.FacilityLevel != "" {
		ds = ds.Where(goqu.Ex{"facility_level": string(filters.FacilityLevel)})
	}
	if filters.ActiveOnly {
		ds = ds.Where(goqu.Ex{"is_active": true})
	}
	limit, offset := filters.Normalize()
	ds = ds.Order(goqu.I("id").Asc()).Limit(uint(limit)).Offset(uint(offset))
	return r.selectPolicies(ctx, ds)
}

func (r *policyRepository) selectPolicies(ctx context.Context, ds *goqu.SelectDataset) ([]*model.CoveragePolicy, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build policy query: %w", err)
	}
	policies := []*model.CoveragePolicy{}
	if err := r.db.SelectContext(ctx, &policies, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	for _, p := range policies {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid policy row %s: %w", p.ID, err)
		}
	}
	return policies, nil
}
