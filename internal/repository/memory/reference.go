package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

var (
	_ repository.CardRepository     = (*CardRepository)(nil)
	_ repository.FacilityRepository = (*FacilityRepository)(nil)
	_ repository.PolicyRepository   = (*PolicyRepository)(nil)
)

type CardRepository struct{ s *Store }

func (r *CardRepository) GetByNumber(ctx context.Context, cardNumber string) (*model.InsuranceCard, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.cards {
		if c.CardNumber == cardNumber {
			cp := *c
			return &cp, nil
		}
	}
	return nil, errors.CardNotFound(cardNumber)
}

func (r *CardRepository) GetCardType(ctx context.Context, id uuid.UUID) (*model.CardType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ct, ok := r.s.cardTypes[id]
	if !ok {
		return nil, errors.CardTypeNotFound(id.String())
	}
	cp := *ct
	return &cp, nil
}

func (r *CardRepository) GetCardTypeByCode(ctx context.Context, code string) (*model.CardType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, ct := range r.s.cardTypes {
		if ct.Code == code {
			cp := *ct
			return &cp, nil
		}
	}
	return nil, errors.CardTypeNotFound(code)
}

func (r *CardRepository) ListCardTypes(ctx context.Context) ([]*model.CardType, error) {
	r.s.mu.RLock()
	out := make([]*model.CardType, 0, len(r.s.cardTypes))
	for _, ct := range r.s.cardTypes {
		cp := *ct
		out = append(out, &cp)
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *CardRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.InsuranceCard, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.InsuranceCard
	for _, c := range r.s.cards {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidTo.After(out[j].ValidTo) })
	return out, nil
}

func (r *CardRepository) ExpireBefore(ctx context.Context, asOf time.Time, limit int) ([]*model.InsuranceCard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	day := model.DateOf(asOf)
	var out []*model.InsuranceCard
	for _, c := range r.s.cards {
		if limit > 0 && len(out) >= limit {
			break
		}
		if c.Status == model.CardStatusActive && model.DateOf(c.ValidTo).Before(day) {
			c.Status = model.CardStatusExpired
			c.UpdatedAt = time.Now()
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type FacilityRepository struct{ s *Store }

func (r *FacilityRepository) GetByCode(ctx context.Context, code string) (*model.HealthcareFacility, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, f := range r.s.facilities {
		if f.Code == code {
			cp := *f
			return &cp, nil
		}
	}
	return nil, errors.FacilityNotFound(code)
}

func (r *FacilityRepository) List(ctx context.Context, filters *model.FacilityFilters) ([]*model.HealthcareFacility, error) {
	if filters == nil {
		filters = &model.FacilityFilters{}
	}
	search := strings.ToLower(filters.Search)
	r.s.mu.RLock()
	var out []*model.HealthcareFacility
	for _, f := range r.s.facilities {
		if !f.IsActive {
			continue
		}
		if filters.ProvinceCode != "" && f.ProvinceCode != filters.ProvinceCode {
			continue
		}
		if filters.Level != "" && f.Level != filters.Level {
			continue
		}
		if search != "" && !matchesFacility(f, search) {
			continue
		}
		cp := *f
		out = append(out, &cp)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Name < out[j].Name
	})
	return page(out, filters.Pagination), nil
}

func matchesFacility(f *model.HealthcareFacility, search string) bool {
	for _, v := range []string{f.Name, f.Code, f.Address} {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

type PolicyRepository struct{ s *Store }

func (r *PolicyRepository) FindApplicable(ctx context.Context, q model.PolicyQuery) ([]*model.CoveragePolicy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.CoveragePolicy
	for _, p := range r.s.policies {
		if q.Matches(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *PolicyRepository) ListByCardType(ctx context.Context, cardTypeID uuid.UUID) ([]*model.CoveragePolicy, error) {
	return r.List(ctx, &model.PolicyFilters{CardTypeID: cardTypeID, Pagination: model.Pagination{PageSize: 100}})
}

func (r *PolicyRepository) List(ctx context.Context, filters *model.PolicyFilters) ([]*model.CoveragePolicy, error) {
	if filters == nil {
		filters = &model.PolicyFilters{}
	}
	r.s.mu.RLock()
	var out []*model.CoveragePolicy
	for _, p := range r.s.policies {
		if filters.CardTypeID != uuid.Nil && p.CardTypeID != filters.CardTypeID {
			continue
		}
		if filters.PolicyType != "" && p.PolicyType != filters.PolicyType {
			continue
		}
		if filters.FacilityLevel != "" && p.FacilityLevel != filters.FacilityLevel {
			continue
		}
		if filters.ActiveOnly && !p.IsActive {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return page(out, filters.Pagination), nil
}

func page[T any](items []T, p model.Pagination) []T {
	limit, offset := p.Normalize()
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
