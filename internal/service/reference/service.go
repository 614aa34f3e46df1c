// Package reference serves the read-only lookup data callers need to build
// adjudication requests: facilities, card types and coverage policies.
package reference

import (
	"context"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/internal/service/authz"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
	"github.com/truongngoctrac/claims-platform/pkg/logger"
	"github.com/truongngoctrac/claims-platform/pkg/validator"
)

const provinceRules = "numeric,max=3"

type ReferenceServicer interface {
	ListFacilities(ctx context.Context, actor model.Actor, filters *model.FacilityFilters) ([]*model.HealthcareFacility, error)
	GetFacility(ctx context.Context, actor model.Actor, code string) (*model.HealthcareFacility, error)
	ListCardTypes(ctx context.Context, actor model.Actor) ([]*model.CardType, error)
	ListPolicies(ctx context.Context, actor model.Actor, cardTypeCode string, filters *model.PolicyFilters) ([]*model.CoveragePolicy, error)
}

type Service struct {
	cards      repository.CardRepository
	facilities repository.FacilityRepository
	policies   repository.PolicyRepository
	fields     validator.Validator
	logger     *logger.Logger
}

func NewService(cards repository.CardRepository, facilities repository.FacilityRepository, policies repository.PolicyRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		cards:      cards,
		facilities: facilities,
		policies:   policies,
		fields:     validator.New(),
		logger:     log,
	}
}

// ListFacilities lists active facilities, optionally narrowed to one
// province or level.
func (s *Service) ListFacilities(ctx context.Context, actor model.Actor, filters *model.FacilityFilters) ([]*model.HealthcareFacility, error) {
	if err := authz.Authorize(actor, authz.ViewReference()); err != nil {
		return nil, err
	}
	if filters == nil {
		filters = &model.FacilityFilters{}
	}
	if filters.ProvinceCode != "" {
		if err := s.fields.ValidateField("province", filters.ProvinceCode, provinceRules); err != nil {
			return nil, err
		}
	}
	if filters.Level != "" && !filters.Level.Valid() {
		return nil, errors.BadRequest("invalid facility level", nil).WithDetail("level", string(filters.Level))
	}
	facilities, err := s.facilities.List(ctx, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return facilities, nil
}

func (s *Service) GetFacility(ctx context.Context, actor model.Actor, code string) (*model.HealthcareFacility, error) {
	if err := authz.Authorize(actor, authz.ViewReference()); err != nil {
		return nil, err
	}
	return s.facilities.GetByCode(ctx, code)
}

func (s *Service) ListCardTypes(ctx context.Context, actor model.Actor) ([]*model.CardType, error) {
	if err := authz.Authorize(actor, authz.ViewReference()); err != nil {
		return nil, err
	}
	cardTypes, err := s.cards.ListCardTypes(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return cardTypes, nil
}

// ListPolicies lists active policies. A non-empty cardTypeCode must name a
// known card type.
func (s *Service) ListPolicies(ctx context.Context, actor model.Actor, cardTypeCode string, filters *model.PolicyFilters) ([]*model.CoveragePolicy, error) {
	if err := authz.Authorize(actor, authz.ViewReference()); err != nil {
		return nil, err
	}
	if filters == nil {
		filters = &model.PolicyFilters{}
	}
	if filters.PolicyType != "" && !filters.PolicyType.Valid() {
		return nil, errors.BadRequest("invalid policy type", nil).WithDetail("policy_type", string(filters.PolicyType))
	}
	if filters.FacilityLevel != "" && !filters.FacilityLevel.Valid() {
		return nil, errors.BadRequest("invalid facility level", nil).WithDetail("facility_level", string(filters.FacilityLevel))
	}
	if cardTypeCode != "" {
		cardType, err := s.cards.GetCardTypeByCode(ctx, cardTypeCode)
		if err != nil {
			return nil, err
		}
		filters.CardTypeID = cardType.ID
	}
	filters.ActiveOnly = true

	policies, err := s.policies.List(ctx, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	s.logger.Debug("policies listed", "count", len(policies), "card_type", cardTypeCode)
	return policies, nil
}
