package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VisitType string

const (
	VisitTypeInpatient  VisitType = "inpatient"
	VisitTypeOutpatient VisitType = "outpatient"
	VisitTypeEmergency  VisitType = "emergency"
)

func (v VisitType) Valid() bool {
	switch v {
	case VisitTypeInpatient, VisitTypeOutpatient, VisitTypeEmergency:
		return true
	}
	return false
}

type ClaimStatus string

const (
	ClaimStatusSubmitted ClaimStatus = "submitted"
	ClaimStatusReviewing ClaimStatus = "reviewing"
	ClaimStatusApproved  ClaimStatus = "approved"
	ClaimStatusRejected  ClaimStatus = "rejected"
	ClaimStatusPaid      ClaimStatus = "paid"
)

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimStatusSubmitted, ClaimStatusReviewing, ClaimStatusApproved, ClaimStatusRejected, ClaimStatusPaid:
		return true
	}
	return false
}

// Claim numbers are BHYT + YYYYMM + a six digit per-month sequence.
const (
	ClaimNumberPrefix = "BHYT"
	MonthKeyLayout    = "200601"
	MaxClaimSequence  = 999999
	claimNumberLength = len(ClaimNumberPrefix) + len(MonthKeyLayout) + 6
)

// MonthKey returns the YYYYMM bucket of t in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyLayout)
}

func FormatClaimNumber(monthKey string, seq int64) string {
	return fmt.Sprintf("%s%s%06d", ClaimNumberPrefix, monthKey, seq)
}

// ParseClaimNumber splits a claim number into its month key and sequence.
func ParseClaimNumber(number string) (string, int64, error) {
	if len(number) != claimNumberLength || !strings.HasPrefix(number, ClaimNumberPrefix) {
		return "", 0, fmt.Errorf("malformed claim number %q", number)
	}
	rest := number[len(ClaimNumberPrefix):]
	monthKey, digits := rest[:len(MonthKeyLayout)], rest[len(MonthKeyLayout):]
	if _, err := time.Parse(MonthKeyLayout, monthKey); err != nil {
		return "", 0, fmt.Errorf("malformed claim number %q: bad month", number)
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq < 1 {
		return "", 0, fmt.Errorf("malformed claim number %q: bad sequence", number)
	}
	return monthKey, seq, nil
}

type ServiceType string

const (
	ServiceTypeExamination ServiceType = "examination"
	ServiceTypeTreatment   ServiceType = "treatment"
	ServiceTypeMedication  ServiceType = "medication"
	ServiceTypeTest        ServiceType = "test"
)

type DocumentType string

const (
	DocumentTypeMedicalRecord DocumentType = "medical_record"
	DocumentTypePrescription  DocumentType = "prescription"
	DocumentTypeInvoice       DocumentType = "invoice"
	DocumentTypeTestResult    DocumentType = "test_result"
)

// Diagnosis is an ICD-10 code with its display name.
type Diagnosis struct {
	Code string `json:"code" validate:"required,max=10"`
	Name string `json:"name" validate:"required,max=255"`
}

// Diagnoses is an ordered list persisted as JSON.
type Diagnoses []Diagnosis

func (d Diagnoses) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *Diagnoses) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return fmt.Errorf("cannot scan %T into Diagnoses", src)
}

type Claim struct {
	Base
	ClaimNumber          string          `db:"claim_number" json:"claim_number"`
	UserID               uuid.UUID       `db:"user_id" json:"user_id"`
	InsuranceCardID      uuid.UUID       `db:"insurance_card_id" json:"insurance_card_id"`
	FacilityID           uuid.UUID       `db:"facility_id" json:"facility_id"`
	PolicyID             uuid.UUID       `db:"policy_id" json:"policy_id"`
	VisitType            VisitType       `db:"visit_type" json:"visit_type"`
	AdmissionDate        time.Time       `db:"admission_date" json:"admission_date"`
	DischargeDate        *time.Time      `db:"discharge_date" json:"discharge_date,omitempty"`
	PrimaryDiagnosisCode string          `db:"primary_diagnosis_code" json:"primary_diagnosis_code"`
	PrimaryDiagnosisName string          `db:"primary_diagnosis_name" json:"primary_diagnosis_name"`
	SecondaryDiagnoses   Diagnoses       `db:"secondary_diagnoses" json:"secondary_diagnoses"`
	TotalAmount          decimal.Decimal `db:"total_amount" json:"total_amount"`
	CoveredAmount        decimal.Decimal `db:"covered_amount" json:"covered_amount"`
	PatientPayment       decimal.Decimal `db:"patient_payment" json:"patient_payment"`
	Status               ClaimStatus     `db:"status" json:"status"`
	SubmittedAt          time.Time       `db:"submitted_at" json:"submitted_at"`
	ReviewedAt           *time.Time      `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewerID           *uuid.UUID      `db:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewNotes          *string         `db:"review_notes" json:"review_notes,omitempty"`
	PaymentDate          *time.Time      `db:"payment_date" json:"payment_date,omitempty"`

	Services    []ClaimServiceDetail `db:"-" json:"service_details,omitempty"`
	Medications []ClaimMedication    `db:"-" json:"medications,omitempty"`
	Documents   []ClaimDocument      `db:"-" json:"documents,omitempty"`
	History     []ClaimStatusHistory `db:"-" json:"status_history,omitempty"`
}

// Reconciles checks covered + patient == total and covered <= total.
func (c *Claim) Reconciles() bool {
	return c.CoveredAmount.Add(c.PatientPayment).Equal(c.TotalAmount) &&
		c.CoveredAmount.LessThanOrEqual(c.TotalAmount) &&
		!c.CoveredAmount.IsNegative()
}

type ClaimServiceDetail struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	ClaimID            uuid.UUID       `db:"claim_id" json:"claim_id"`
	ServiceCode        string          `db:"service_code" json:"service_code"`
	ServiceName        string          `db:"service_name" json:"service_name"`
	ServiceType        ServiceType     `db:"service_type" json:"service_type"`
	Quantity           int             `db:"quantity" json:"quantity"`
	UnitPrice          decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice         decimal.Decimal `db:"total_price" json:"total_price"`
	CoveredAmount      decimal.Decimal `db:"covered_amount" json:"covered_amount"`
	CoveragePercentage decimal.Decimal `db:"coverage_percentage" json:"coverage_percentage"`
	ServiceDate        time.Time       `db:"service_date" json:"service_date"`
	DoctorName         *string         `db:"doctor_name" json:"doctor_name,omitempty"`
	Notes              *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

type ClaimMedication struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	ClaimID            uuid.UUID       `db:"claim_id" json:"claim_id"`
	MedicationCode     string          `db:"medication_code" json:"medication_code"`
	MedicationName     string          `db:"medication_name" json:"medication_name"`
	Dosage             *string         `db:"dosage" json:"dosage,omitempty"`
	Quantity           int             `db:"quantity" json:"quantity"`
	Unit               string          `db:"unit" json:"unit"`
	UnitPrice          decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice         decimal.Decimal `db:"total_price" json:"total_price"`
	CoveredAmount      decimal.Decimal `db:"covered_amount" json:"covered_amount"`
	CoveragePercentage decimal.Decimal `db:"coverage_percentage" json:"coverage_percentage"`
	PrescribedDate     time.Time       `db:"prescribed_date" json:"prescribed_date"`
	DoctorName         *string         `db:"doctor_name" json:"doctor_name,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// ClaimDocument holds metadata for a file stored elsewhere.
type ClaimDocument struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	ClaimID      uuid.UUID    `db:"claim_id" json:"claim_id"`
	DocumentType DocumentType `db:"document_type" json:"document_type"`
	FileName     string       `db:"file_name" json:"file_name"`
	FilePath     string       `db:"file_path" json:"file_path"`
	FileSize     int64        `db:"file_size" json:"file_size"`
	MimeType     string       `db:"mime_type" json:"mime_type"`
	UploadedBy   uuid.UUID    `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt   time.Time    `db:"uploaded_at" json:"uploaded_at"`
}

// ClaimStatusHistory is one append-only row of the claim audit ledger.
type ClaimStatusHistory struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	ClaimID   uuid.UUID    `db:"claim_id" json:"claim_id"`
	OldStatus *ClaimStatus `db:"old_status" json:"old_status"`
	NewStatus ClaimStatus  `db:"new_status" json:"new_status"`
	ChangedBy uuid.UUID    `db:"changed_by" json:"changed_by"`
	Reason    *string      `db:"reason" json:"reason,omitempty"`
	ChangedAt time.Time    `db:"changed_at" json:"changed_at"`
}

// ClaimDetails carries the clinical part of a claim supplied by the caller.
type ClaimDetails struct {
	VisitType            VisitType        `json:"visit_type" validate:"omitempty,oneof=inpatient outpatient emergency"`
	AdmissionDate        time.Time        `json:"admission_date" validate:"required"`
	DischargeDate        *time.Time       `json:"discharge_date"`
	PrimaryDiagnosisCode string           `json:"primary_diagnosis_code" validate:"required,max=10"`
	PrimaryDiagnosisName string           `json:"primary_diagnosis_name" validate:"required,max=255"`
	SecondaryDiagnoses   Diagnoses        `json:"secondary_diagnoses" validate:"dive"`
	Services             []ServiceLine    `json:"service_details" validate:"dive"`
	Medications          []MedicationLine `json:"medications" validate:"dive"`
	Documents            []DocumentRef    `json:"documents" validate:"dive"`
}

type ServiceLine struct {
	ServiceCode string          `json:"service_code" validate:"required,max=20"`
	ServiceName string          `json:"service_name" validate:"required,max=255"`
	ServiceType ServiceType     `json:"service_type" validate:"required,oneof=examination treatment medication test"`
	Quantity    int             `json:"quantity" validate:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	ServiceDate time.Time       `json:"service_date" validate:"required"`
	DoctorName  *string         `json:"doctor_name"`
	Notes       *string         `json:"notes"`
}

type MedicationLine struct {
	MedicationCode string          `json:"medication_code" validate:"required,max=20"`
	MedicationName string          `json:"medication_name" validate:"required,max=255"`
	Dosage         *string         `json:"dosage"`
	Quantity       int             `json:"quantity" validate:"required,min=1"`
	Unit           string          `json:"unit" validate:"required,max=20"`
	UnitPrice      decimal.Decimal `json:"unit_price" validate:"gte=0"`
	PrescribedDate time.Time       `json:"prescribed_date" validate:"required"`
	DoctorName     *string         `json:"doctor_name"`
}

type DocumentRef struct {
	DocumentType DocumentType `json:"document_type" validate:"required,oneof=medical_record prescription invoice test_result"`
	FileName     string       `json:"file_name" validate:"required,max=255"`
	FilePath     string       `json:"file_path" validate:"required"`
	FileSize     int64        `json:"file_size" validate:"min=0"`
	MimeType     string       `json:"mime_type" validate:"required,max=100"`
}

type ClaimFilters struct {
	UserID     uuid.UUID
	FacilityID uuid.UUID
	Status     ClaimStatus
	VisitType  VisitType
	From       *time.Time
	To         *time.Time
	Pagination
}
