package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjudicationRequest is the already-parsed input for an eligibility check.
type AdjudicationRequest struct {
	CardNumber   string          `json:"card_number" validate:"required,cardnumber"`
	FacilityCode string          `json:"facility_code" validate:"required,max=10"`
	PolicyType   PolicyType      `json:"policy_type" validate:"required,oneof=inpatient outpatient emergency preventive"`
	BilledAmount decimal.Decimal `json:"total_amount"`
	ServiceDate  time.Time       `json:"service_date"`
}

// PolicyCoverage is one candidate policy with its computed amounts.
type PolicyCoverage struct {
	Policy         *PolicySummary  `json:"policy"`
	CoveredAmount  decimal.Decimal `json:"covered_amount"`
	PatientPayment decimal.Decimal `json:"patient_payment"`
}

type AdjudicationResult struct {
	Eligible              bool                `json:"eligible"`
	BestPolicy            *PolicySummary      `json:"best_policy,omitempty"`
	CoveredAmount         decimal.Decimal     `json:"covered_amount"`
	PatientPayment        decimal.Decimal     `json:"patient_payment"`
	AllApplicablePolicies []PolicyCoverage    `json:"all_applicable_policies"`
	InvalidReasons        []string            `json:"invalid_reasons"`
	BilledAmount          decimal.Decimal     `json:"total_amount"`
	PolicyType            PolicyType          `json:"policy_type"`
	ServiceDate           time.Time           `json:"service_date"`
	Card                  *InsuranceCard      `json:"card,omitempty"`
	Facility              *HealthcareFacility `json:"facility,omitempty"`
}

// Ineligible builds the response body for a card that failed validation.
func Ineligible(req AdjudicationRequest, reasons []string) *AdjudicationResult {
	return &AdjudicationResult{
		Eligible:              false,
		CoveredAmount:         decimal.Zero,
		PatientPayment:        req.BilledAmount,
		AllApplicablePolicies: []PolicyCoverage{},
		InvalidReasons:        reasons,
		BilledAmount:          req.BilledAmount,
		PolicyType:            req.PolicyType,
		ServiceDate:           DateOf(req.ServiceDate),
	}
}

// CoverageQuote is a card-type level quote that is not tied to a card.
type CoverageQuote struct {
	CardType              *CardType        `json:"card_type"`
	Best                  PolicyCoverage   `json:"coverage"`
	AllApplicablePolicies []PolicyCoverage `json:"all_applicable_policies"`
}

// QuoteRequest asks what a card type would be covered for, without a card.
type QuoteRequest struct {
	CardTypeCode  string          `json:"card_type_code" validate:"required,max=10"`
	PolicyType    PolicyType      `json:"policy_type" validate:"required,oneof=inpatient outpatient emergency preventive"`
	FacilityLevel FacilityLevel   `json:"facility_level" validate:"required,oneof=central provincial district commune"`
	BilledAmount  decimal.Decimal `json:"total_amount"`
	ServiceDate   time.Time       `json:"service_date"`
}
