package card

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository/memory"
	"github.com/truongngoctrac/claims-platform/internal/service/policy"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

func newCardService(t *testing.T) (*Service, model.Actor) {
	t.Helper()
	store := memory.NewStore()
	cardType := &model.CardType{ID: uuid.New(), Code: "DN", Name: "Doanh nghiep", CoveragePercentage: decimal.NewFromInt(80)}
	store.AddCardType(cardType)

	owner := model.Actor{ID: uuid.New(), Role: model.RoleUser}
	store.AddCard(&model.InsuranceCard{
		UserID:     owner.ID,
		CardNumber: "DN4790000000001",
		CardTypeID: cardType.ID,
		ValidFrom:  day("2024-01-01"),
		ValidTo:    day("2024-12-31"),
		Status:     model.CardStatusActive,
	})
	store.AddCard(&model.InsuranceCard{
		UserID:     owner.ID,
		CardNumber: "DN4790000000002",
		CardTypeID: cardType.ID,
		ValidFrom:  day("2024-01-01"),
		ValidTo:    day("2024-12-31"),
		Status:     model.CardStatusSuspended,
	})
	for _, pt := range []model.PolicyType{model.PolicyTypeOutpatient, model.PolicyTypeInpatient} {
		store.AddPolicy(&model.CoveragePolicy{
			PolicyType:         pt,
			CardTypeID:         cardType.ID,
			FacilityLevel:      model.FacilityLevelProvincial,
			CoveragePercentage: decimal.NewFromInt(80),
			EffectiveFrom:      day("2024-01-01"),
			IsActive:           true,
		})
	}

	svc := NewService(store.Cards(), policy.NewResolver(store.Policies()), NewValidator(), nil)
	return svc, owner
}

func TestValidateCard(t *testing.T) {
	svc, owner := newCardService(t)
	ctx := context.Background()

	res, err := svc.ValidateCard(ctx, owner, "DN4790000000001", day("2024-12-01"))
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, 30, res.ExpiresInDays)
	assert.Equal(t, "DN", res.CardType.Code)

	_, err = svc.ValidateCard(ctx, owner, "DN4790000000009", time.Time{})
	assert.True(t, errors.HasReason(err, errors.ReasonCardNotFound))

	_, err = svc.ValidateCard(ctx, owner, "DN479", time.Time{})
	assert.True(t, errors.HasReason(err, errors.ReasonValidationFailed))

	stranger := model.Actor{ID: uuid.New(), Role: model.RoleUser}
	_, err = svc.ValidateCard(ctx, stranger, "DN4790000000001", time.Time{})
	assert.True(t, errors.HasReason(err, errors.ReasonForbidden))
}

func TestCheckEligibility(t *testing.T) {
	svc, owner := newCardService(t)
	ctx := context.Background()

	res, err := svc.CheckEligibility(ctx, owner, "DN4790000000001", day("2024-06-01"))
	require.NoError(t, err)
	require.NotNil(t, res.AvailableBenefits)
	assert.Equal(t, 2, res.AvailableBenefits.TotalPolicies)
	assert.Equal(t, []model.FacilityLevel{model.FacilityLevelProvincial}, res.AvailableBenefits.FacilityLevels)

	res, err = svc.CheckEligibility(ctx, owner, "DN4790000000002", day("2024-06-01"))
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Nil(t, res.AvailableBenefits)
	assert.Equal(t, []string{ReasonStatusNotActive}, res.InvalidReasons)
}

func TestListUserCards(t *testing.T) {
	svc, owner := newCardService(t)
	ctx := context.Background()

	cards, err := svc.ListUserCards(ctx, owner, owner.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	staff := model.Actor{ID: uuid.New(), Role: model.RoleStaff}
	cards, err = svc.ListUserCards(ctx, staff, owner.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	_, err = svc.ListUserCards(ctx, model.Actor{ID: uuid.New(), Role: model.RoleDoctor}, owner.ID)
	assert.True(t, errors.HasReason(err, errors.ReasonForbidden))
}

func TestGetCard(t *testing.T) {
	svc, owner := newCardService(t)
	ctx := context.Background()

	details, err := svc.GetCard(ctx, owner, "DN4790000000002")
	require.NoError(t, err)
	assert.Equal(t, "DN4790000000002", details.Card.CardNumber)
	assert.Equal(t, model.CardStatusSuspended, details.Card.Status)
	assert.Equal(t, "DN", details.CardType.Code)

	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	_, err = svc.GetCard(ctx, admin, "DN4790000000001")
	assert.NoError(t, err)

	_, err = svc.GetCard(ctx, model.Actor{ID: uuid.New(), Role: model.RoleUser}, "DN4790000000001")
	assert.True(t, errors.HasReason(err, errors.ReasonForbidden))
}
