package model

import (
	"fmt"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CardStatus string

const (
	CardStatusActive    CardStatus = "active"
	CardStatusSuspended CardStatus = "suspended"
	CardStatusExpired   CardStatus = "expired"
	CardStatusCancelled CardStatus = "cancelled"
)

// CardNumberLength is the fixed length of a BHYT card number.
const CardNumberLength = 15

func (s CardStatus) Valid() bool {
	switch s {
	case CardStatusActive, CardStatusSuspended, CardStatusExpired, CardStatusCancelled:
		return true
	}
	return false
}

// CardType is immutable reference data describing a coverage tier.
type CardType struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	Code               string          `db:"code" json:"code"`
	Name               string          `db:"name" json:"name"`
	Description        string          `db:"description" json:"description,omitempty"`
	CoveragePercentage decimal.Decimal `db:"coverage_percentage" json:"coverage_percentage"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

type InsuranceCard struct {
	Base
	UserID              uuid.UUID  `db:"user_id" json:"user_id"`
	CardNumber          string     `db:"card_number" json:"card_number"`
	CardTypeID          uuid.UUID  `db:"card_type_id" json:"card_type_id"`
	IssuedDate          time.Time  `db:"issued_date" json:"issued_date"`
	ValidFrom           time.Time  `db:"valid_from" json:"valid_from"`
	ValidTo             time.Time  `db:"valid_to" json:"valid_to"`
	IssuingProvinceCode string     `db:"issuing_province_code" json:"issuing_province_code"`
	RegistrationPlace   string     `db:"registration_place" json:"registration_place"`
	Status              CardStatus `db:"status" json:"status"`
}

// ValidCardNumber reports whether s is exactly 15 printable characters.
func ValidCardNumber(s string) bool {
	runes := []rune(s)
	if len(runes) != CardNumberLength {
		return false
	}
	for _, r := range runes {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

func (c *InsuranceCard) Validate() error {
	if !ValidCardNumber(c.CardNumber) {
		return fmt.Errorf("card number must be exactly %d printable characters", CardNumberLength)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("invalid card status %q", c.Status)
	}
	if DateOf(c.ValidTo).Before(DateOf(c.ValidFrom)) {
		return fmt.Errorf("valid_to %s is before valid_from %s",
			c.ValidTo.Format(DateLayout), c.ValidFrom.Format(DateLayout))
	}
	return nil
}

// DaysRemaining returns whole days from asOf until ValidTo. The count goes
// negative once the card has expired.
func (c *InsuranceCard) DaysRemaining(asOf time.Time) int {
	return int(DateOf(c.ValidTo).Sub(DateOf(asOf)).Hours() / 24)
}

// CardValidation is the detailed answer to "is this card usable on this date".
type CardValidation struct {
	Card           *InsuranceCard `json:"card"`
	CardType       *CardType      `json:"card_type,omitempty"`
	IsValid        bool           `json:"is_valid"`
	ValidationDate time.Time      `json:"validation_date"`
	StatusValid    bool           `json:"status_valid"`
	DateValid      bool           `json:"date_valid"`
	ExpiresInDays  int            `json:"expires_in_days"`
	InvalidReasons []string       `json:"invalid_reasons,omitempty"`
}

// CardDetails is a card together with its card type.
type CardDetails struct {
	Card     *InsuranceCard `json:"card"`
	CardType *CardType      `json:"card_type"`
}

// Eligibility summarises the benefits a valid card can draw on.
type Eligibility struct {
	CardValidation
	AvailableBenefits *AvailableBenefits `json:"available_benefits,omitempty"`
}

type AvailableBenefits struct {
	PolicyTypes    []PolicyType    `json:"policy_types"`
	FacilityLevels []FacilityLevel `json:"facility_levels"`
	TotalPolicies  int             `json:"total_policies"`
}
