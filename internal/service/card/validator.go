package card

import (
	"time"

	"github.com/truongngoctrac/claims-platform/internal/model"
)

// Reasons a card is not usable on a date.
const (
	ReasonStatusNotActive = "status_not_active"
	ReasonNotYetValid     = "not_yet_valid"
	ReasonExpired         = "expired"
)

// Validator decides card validity. It holds no state besides the clock used
// when asOf is the zero time.
type Validator struct {
	clock func() time.Time
}

func NewValidator() *Validator {
	return &Validator{clock: time.Now}
}

// WithClock replaces the source of "now".
func (v *Validator) WithClock(clock func() time.Time) *Validator {
	v.clock = clock
	return v
}

func (v *Validator) resolve(asOf time.Time) time.Time {
	if asOf.IsZero() {
		asOf = v.clock()
	}
	return model.DateOf(asOf)
}

// IsValid reports whether the card is active and asOf lies in
// [ValidFrom, ValidTo], both ends inclusive.
func (v *Validator) IsValid(card *model.InsuranceCard, asOf time.Time) bool {
	return len(v.Explain(card, asOf)) == 0
}

// Explain lists every condition the card violates on asOf.
func (v *Validator) Explain(card *model.InsuranceCard, asOf time.Time) []string {
	day := v.resolve(asOf)
	reasons := []string{}
	if card.Status != model.CardStatusActive {
		reasons = append(reasons, ReasonStatusNotActive)
	}
	if day.Before(model.DateOf(card.ValidFrom)) {
		reasons = append(reasons, ReasonNotYetValid)
	}
	if day.After(model.DateOf(card.ValidTo)) {
		reasons = append(reasons, ReasonExpired)
	}
	return reasons
}

// Check builds the full validation snapshot for the card.
func (v *Validator) Check(card *model.InsuranceCard, cardType *model.CardType, asOf time.Time) *model.CardValidation {
	day := v.resolve(asOf)
	reasons := v.Explain(card, day)
	dateValid := !day.Before(model.DateOf(card.ValidFrom)) && !day.After(model.DateOf(card.ValidTo))
	return &model.CardValidation{
		Card:           card,
		CardType:       cardType,
		IsValid:        len(reasons) == 0,
		ValidationDate: day,
		StatusValid:    card.Status == model.CardStatusActive,
		DateValid:      dateValid,
		ExpiresInDays:  card.DaysRemaining(day),
		InvalidReasons: reasons,
	}
}
