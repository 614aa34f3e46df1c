package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PolicyType string

const (
	PolicyTypeInpatient  PolicyType = "inpatient"
	PolicyTypeOutpatient PolicyType = "outpatient"
	PolicyTypeEmergency  PolicyType = "emergency"
	PolicyTypePreventive PolicyType = "preventive"
)

func (t PolicyType) Valid() bool {
	switch t {
	case PolicyTypeInpatient, PolicyTypeOutpatient, PolicyTypeEmergency, PolicyTypePreventive:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

type CoveragePolicy struct {
	Base
	Name               string           `db:"name" json:"name"`
	PolicyType         PolicyType       `db:"policy_type" json:"policy_type"`
	CardTypeID         uuid.UUID        `db:"card_type_id" json:"card_type_id"`
	FacilityLevel      FacilityLevel    `db:"facility_level" json:"facility_level"`
	CoveragePercentage decimal.Decimal  `db:"coverage_percentage" json:"coverage_percentage"`
	MaxAmount          *decimal.Decimal `db:"max_amount" json:"max_amount,omitempty"`
	Deductible         decimal.Decimal  `db:"deductible" json:"deductible"`
	Conditions         JSONMap          `db:"conditions" json:"conditions,omitempty"`
	EffectiveFrom      time.Time        `db:"effective_from" json:"effective_from"`
	EffectiveTo        *time.Time       `db:"effective_to" json:"effective_to,omitempty"`
	IsActive           bool             `db:"is_active" json:"is_active"`
}

func (p *CoveragePolicy) Validate() error {
	if !p.PolicyType.Valid() {
		return fmt.Errorf("invalid policy type %q", p.PolicyType)
	}
	if !p.FacilityLevel.Valid() {
		return fmt.Errorf("invalid facility level %q", p.FacilityLevel)
	}
	if p.CoveragePercentage.IsNegative() || p.CoveragePercentage.GreaterThan(hundred) {
		return fmt.Errorf("coverage percentage %s outside [0,100]", p.CoveragePercentage)
	}
	if p.Deductible.IsNegative() {
		return fmt.Errorf("deductible must not be negative")
	}
	if p.MaxAmount != nil && p.MaxAmount.IsNegative() {
		return fmt.Errorf("max amount must not be negative")
	}
	if p.EffectiveTo != nil && DateOf(*p.EffectiveTo).Before(DateOf(p.EffectiveFrom)) {
		return fmt.Errorf("effective_to is before effective_from")
	}
	return nil
}

// IsApplicable reports whether the policy is active and its effective
// window contains asOf. A nil EffectiveTo is open-ended.
func (p *CoveragePolicy) IsApplicable(asOf time.Time) bool {
	if !p.IsActive {
		return false
	}
	day := DateOf(asOf)
	if day.Before(DateOf(p.EffectiveFrom)) {
		return false
	}
	if p.EffectiveTo != nil && day.After(DateOf(*p.EffectiveTo)) {
		return false
	}
	return true
}

// Summary is the caller-facing projection used in adjudication results.
func (p *CoveragePolicy) Summary() *PolicySummary {
	return &PolicySummary{
		ID:                 p.ID,
		Name:               p.Name,
		PolicyType:         p.PolicyType,
		FacilityLevel:      p.FacilityLevel,
		CoveragePercentage: p.CoveragePercentage,
		MaxAmount:          p.MaxAmount,
		Deductible:         p.Deductible,
		EffectiveFrom:      p.EffectiveFrom,
		EffectiveTo:        p.EffectiveTo,
	}
}

type PolicySummary struct {
	ID                 uuid.UUID        `json:"id"`
	Name               string           `json:"name"`
	PolicyType         PolicyType       `json:"policy_type"`
	FacilityLevel      FacilityLevel    `json:"facility_level"`
	CoveragePercentage decimal.Decimal  `json:"coverage_percentage"`
	MaxAmount          *decimal.Decimal `json:"max_amount,omitempty"`
	Deductible         decimal.Decimal  `json:"deductible"`
	EffectiveFrom      time.Time        `json:"effective_from"`
	EffectiveTo        *time.Time       `json:"effective_to,omitempty"`
}

// PolicyQuery identifies the policies applicable to one service event.
type PolicyQuery struct {
	CardTypeID    uuid.UUID
	PolicyType    PolicyType
	FacilityLevel FacilityLevel
	AsOf          time.Time
}

// Matches evaluates the full applicability predicate for the query.
func (q PolicyQuery) Matches(p *CoveragePolicy) bool {
	return p.CardTypeID == q.CardTypeID &&
		p.PolicyType == q.PolicyType &&
		p.FacilityLevel == q.FacilityLevel &&
		p.IsApplicable(q.AsOf)
}

// Echo returns the query parameters for diagnostics.
func (q PolicyQuery) Echo() map[string]interface{} {
	return map[string]interface{}{
		"card_type_id":   q.CardTypeID.String(),
		"policy_type":    q.PolicyType,
		"facility_level": q.FacilityLevel,
		"service_date":   DateOf(q.AsOf).Format(DateLayout),
	}
}

type PolicyFilters struct {
	CardTypeID    uuid.UUID
	PolicyType    PolicyType
	FacilityLevel FacilityLevel
	ActiveOnly    bool
	Pagination
}
