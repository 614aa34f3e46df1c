package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
)

type Config struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		TTL:             5 * time.Minute,
		CleanupInterval: 10 * time.Minute,
	}
}

// PolicyRepository memoises policy lookups for a TTL. The resolver re-checks
// applicability on every result it gets back.
type PolicyRepository struct {
	next  repository.PolicyRepository
	cache *gocache.Cache
}

var _ repository.PolicyRepository = (*PolicyRepository)(nil)

func NewPolicyRepository(next repository.PolicyRepository, config Config) *PolicyRepository {
	if config.TTL <= 0 {
		config = DefaultConfig()
	}
	return &PolicyRepository{
		next:  next,
		cache: gocache.New(config.TTL, config.CleanupInterval),
	}
}

func (r *PolicyRepository) FindApplicable(ctx context.Context, q model.PolicyQuery) ([]*model.CoveragePolicy, error) {
	key := fmt.Sprintf("applicable:%s:%s:%s:%s",
		q.CardTypeID, q.PolicyType, q.FacilityLevel, model.DateOf(q.AsOf).Format(model.DateLayout))
	if cached, found := r.cache.Get(key); found {
		return cached.([]*model.CoveragePolicy), nil
	}

	policies, err := r.next.FindApplicable(ctx, q)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, policies, gocache.DefaultExpiration)
	return policies, nil
}

func (r *PolicyRepository) ListByCardType(ctx context.Context, cardTypeID uuid.UUID) ([]*model.CoveragePolicy, error) {
	key := "card_type:" + cardTypeID.String()
	if cached, found := r.cache.Get(key); found {
		return cached.([]*model.CoveragePolicy), nil
	}

	policies, err := r.next.ListByCardType(ctx, cardTypeID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, policies, gocache.DefaultExpiration)
	return policies, nil
}

// List is an administrative query and always reads through.
func (r *PolicyRepository) List(ctx context.Context, filters *model.PolicyFilters) ([]*model.CoveragePolicy, error) {
	return r.next.List(ctx, filters)
}

// Invalidate drops every cached lookup.
func (r *PolicyRepository) Invalidate() {
	r.cache.Flush()
}
