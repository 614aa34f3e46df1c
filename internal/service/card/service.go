package card

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/internal/service/authz"
	"github.com/truongngoctrac/claims-platform/internal/service/policy"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
	"github.com/truongngoctrac/claims-platform/pkg/logger"
)

type CardServicer interface {
	GetCard(ctx context.Context, actor model.Actor, cardNumber string) (*model.CardDetails, error)
	ValidateCard(ctx context.Context, actor model.Actor, cardNumber string, asOf time.Time) (*model.CardValidation, error)
	CheckEligibility(ctx context.Context, actor model.Actor, cardNumber string, asOf time.Time) (*model.Eligibility, error)
	ListUserCards(ctx context.Context, actor model.Actor, userID uuid.UUID) ([]*model.InsuranceCard, error)
}

type Service struct {
	cards     repository.CardRepository
	resolver  policy.PolicyResolver
	validator *Validator
	logger    *logger.Logger
}

func NewService(cards repository.CardRepository, resolver policy.PolicyResolver, validator *Validator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		cards:     cards,
		resolver:  resolver,
		validator: validator,
		logger:    log,
	}
}

// GetCard returns the card and its card type to the owner or to staff.
func (s *Service) GetCard(ctx context.Context, actor model.Actor, cardNumber string) (*model.CardDetails, error) {
	card, cardType, err := s.load(ctx, actor, cardNumber)
	if err != nil {
		return nil, err
	}
	return &model.CardDetails{Card: card, CardType: cardType}, nil
}

func (s *Service) ValidateCard(ctx context.Context, actor model.Actor, cardNumber string, asOf time.Time) (*model.CardValidation, error) {
	card, cardType, err := s.load(ctx, actor, cardNumber)
	if err != nil {
		return nil, err
	}
	return s.validator.Check(card, cardType, asOf), nil
}

// CheckEligibility validates the card and, when it is usable, lists the
// benefits its card type currently grants.
func (s *Service) CheckEligibility(ctx context.Context, actor model.Actor, cardNumber string, asOf time.Time) (*model.Eligibility, error) {
	card, cardType, err := s.load(ctx, actor, cardNumber)
	if err != nil {
		return nil, err
	}

	validation := s.validator.Check(card, cardType, asOf)
	result := &model.Eligibility{CardValidation: *validation}
	if !validation.IsValid {
		s.logger.Debug("card not eligible", "card_number", cardNumber, "reasons", validation.InvalidReasons)
		return result, nil
	}

	benefits, err := s.resolver.AvailableBenefits(ctx, card.CardTypeID, validation.ValidationDate)
	if err != nil {
		return nil, errors.Internal(err)
	}
	result.AvailableBenefits = benefits
	return result, nil
}

func (s *Service) ListUserCards(ctx context.Context, actor model.Actor, userID uuid.UUID) ([]*model.InsuranceCard, error) {
	if err := authz.Authorize(actor, authz.ViewCard(userID)); err != nil {
		return nil, err
	}
	cards, err := s.cards.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return cards, nil
}

func (s *Service) load(ctx context.Context, actor model.Actor, cardNumber string) (*model.InsuranceCard, *model.CardType, error) {
	if !model.ValidCardNumber(cardNumber) {
		return nil, nil, errors.BadRequest("card number must be exactly 15 characters", nil)
	}
	card, err := s.cards.GetByNumber(ctx, cardNumber)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.Authorize(actor, authz.ViewCard(card.UserID)); err != nil {
		return nil, nil, err
	}
	cardType, err := s.cards.GetCardType(ctx, card.CardTypeID)
	if err != nil {
		return nil, nil, err
	}
	return card, cardType, nil
}
