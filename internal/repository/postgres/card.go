package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

const cardColumns = `id, user_id, card_number, card_type_id, issued_date, valid_from, valid_to,
	issuing_province_code, registration_place, status, created_at, updated_at`

const cardTypeColumns = `id, code, name, COALESCE(description, '') AS description, coverage_percentage, created_at`

type cardRepository struct {
	BaseRepository
}

func NewCardRepository(base BaseRepository) repository.CardRepository {
	return &cardRepository{base}
}

func (r *cardRepository) GetByNumber(ctx context.Context, cardNumber string) (*model.InsuranceCard, error) {
	var card model.InsuranceCard
	query := `SELECT ` + cardColumns + ` FROM insurance_cards WHERE card_number = $1`
	if err := r.db.GetContext(ctx, &card, query, cardNumber); err != nil {
		if isNoRows(err) {
			return nil, errors.CardNotFound(cardNumber)
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("invalid card row %s: %w", card.ID, err)
	}
	return &card, nil
}

func (r *cardRepository) GetCardType(ctx context.Context, id uuid.UUID) (*model.CardType, error) {
	var ct model.CardType
	query := `SELECT ` + cardTypeColumns + ` FROM card_types WHERE id = $1`
	if err := r.db.GetContext(ctx, &ct, query, id); err != nil {
		if isNoRows(err) {
			return nil, errors.CardTypeNotFound(id.String())
		}
		return nil, fmt.Errorf("failed to get card type: %w", err)
	}
	return &ct, nil
}

func (r *cardRepository) GetCardTypeByCode(ctx context.Context, code string) (*model.CardType, error) {
	var ct model.CardType
	query := `SELECT ` + cardTypeColumns + ` FROM card_types WHERE code = $1`
	if err := r.db.GetContext(ctx, &ct, query, code); err != nil {
		if isNoRows(err) {
			return nil, errors.CardTypeNotFound(code)
		}
		return nil, fmt.Errorf("failed to get card type: %w", err)
	}
	return &ct, nil
}

func (r *cardRepository) ListCardTypes(ctx context.Context) ([]*model.CardType, error) {
	cardTypes := []*model.CardType{}
	query := `SELECT ` + cardTypeColumns + ` FROM card_types ORDER BY code`
	if err := r.db.SelectContext(ctx, &cardTypes, query); err != nil {
		return nil, fmt.Errorf("failed to list card types: %w", err)
	}
	return cardTypes, nil
}

func (r *cardRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.InsuranceCard, error) {
	cards := []*model.InsuranceCard{}
	query := `SELECT ` + cardColumns + ` FROM insurance_cards WHERE user_id = $1 ORDER BY valid_to DESC`
	if err := r.db.SelectContext(ctx, &cards, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	for _, c := range cards {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid card row %s: %w", c.ID, err)
		}
	}
	return cards, nil
}

func (r *cardRepository) ExpireBefore(ctx context.Context, asOf time.Time, limit int) ([]*model.InsuranceCard, error) {
	query := `
		UPDATE insurance_cards SET status = $1, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM insurance_cards
			WHERE status = $2 AND valid_to < $3
			ORDER BY valid_to
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + cardColumns

	cards := []*model.InsuranceCard{}
	err := r.db.SelectContext(ctx, &cards, query,
		model.CardStatusExpired, model.CardStatusActive, model.DateOf(asOf), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to expire cards: %w", err)
	}
	return cards, nil
}
