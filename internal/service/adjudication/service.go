package adjudication

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/internal/service/authz"
	"github.com/truongngoctrac/claims-platform/internal/service/card"
	"github.com/truongngoctrac/claims-platform/internal/service/claimnumber"
	"github.com/truongngoctrac/claims-platform/internal/service/coverage"
	"github.com/truongngoctrac/claims-platform/internal/service/event"
	"github.com/truongngoctrac/claims-platform/internal/service/lifecycle"
	"github.com/truongngoctrac/claims-platform/internal/service/policy"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
	"github.com/truongngoctrac/claims-platform/pkg/logger"
	"github.com/truongngoctrac/claims-platform/pkg/metrics"
	"github.com/truongngoctrac/claims-platform/pkg/validator"
)

const defaultFileAttempts = 3

type AdjudicationServicer interface {
	Adjudicate(ctx context.Context, actor model.Actor, req model.AdjudicationRequest) (*model.AdjudicationResult, error)
	FileClaim(ctx context.Context, actor model.Actor, result *model.AdjudicationResult, details model.ClaimDetails) (*model.Claim, error)
	ReviewClaim(ctx context.Context, actor model.Actor, claimID uuid.UUID, decision model.ClaimStatus, reason *string) (*model.Claim, error)
	GetClaim(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Claim, error)
	GetClaimByNumber(ctx context.Context, actor model.Actor, number string) (*model.Claim, error)
	ListClaims(ctx context.Context, actor model.Actor, filters *model.ClaimFilters) ([]*model.Claim, int, error)
	ClaimHistory(ctx context.Context, actor model.Actor, id uuid.UUID) ([]*model.ClaimStatusHistory, error)
	CalculateCoverage(ctx context.Context, actor model.Actor, req model.QuoteRequest) (*model.CoverageQuote, error)
}

// Deps groups the collaborators of Service.
type Deps struct {
	Cards      repository.CardRepository
	Facilities repository.FacilityRepository
	Claims     repository.ClaimRepository
	Resolver   policy.PolicyResolver
	Calculator *coverage.Calculator
	Validator  *card.Validator
	Numbers    *claimnumber.Generator
	Fields     validator.Validator
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
}

type Service struct {
	Deps
	clock        func() time.Time
	fileAttempts int
}

func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Calculator == nil {
		deps.Calculator = coverage.NewCalculator()
	}
	if deps.Validator == nil {
		deps.Validator = card.NewValidator()
	}
	if deps.Fields == nil {
		deps.Fields = validator.New()
	}
	return &Service{
		Deps:         deps,
		clock:        time.Now,
		fileAttempts: defaultFileAttempts,
	}
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Adjudicate decides whether the billed service is covered and how the
// amount splits between insurer and patient.
func (s *Service) Adjudicate(ctx context.Context, actor model.Actor, req model.AdjudicationRequest) (*model.AdjudicationResult, error) {
	started := time.Now()
	result, err := s.adjudicate(ctx, actor, req)
	outcome := "eligible"
	if err != nil {
		outcome = "error"
		if appErr, ok := errors.As(err); ok {
			outcome = appErr.Reason
		}
	}
	s.Metrics.ObserveAdjudication(outcome, started)
	return result, err
}

func (s *Service) adjudicate(ctx context.Context, actor model.Actor, req model.AdjudicationRequest) (*model.AdjudicationResult, error) {
	if err := authz.Authorize(actor, authz.Adjudicate()); err != nil {
		return nil, err
	}
	if err := s.Fields.Validate(&req); err != nil {
		return nil, err
	}
	if err := coverage.ValidateAmount(req.BilledAmount); err != nil {
		return nil, err
	}

	serviceDate := req.ServiceDate
	if serviceDate.IsZero() {
		serviceDate = s.clock()
	}
	serviceDate = model.DateOf(serviceDate)

	insuranceCard, err := s.Cards.GetByNumber(ctx, req.CardNumber)
	if err != nil {
		return nil, err
	}
	if reasons := s.Validator.Explain(insuranceCard, serviceDate); len(reasons) > 0 {
		s.Logger.Info("card rejected", "card_number", req.CardNumber, "reasons", reasons)
		return nil, errors.CardInvalid(req.CardNumber, reasons)
	}

	facility, err := s.Facilities.GetByCode(ctx, req.FacilityCode)
	if err != nil {
		return nil, err
	}
	if !facility.IsActive {
		return nil, errors.FacilityInactive(req.FacilityCode)
	}

	q := model.PolicyQuery{
		CardTypeID:    insuranceCard.CardTypeID,
		PolicyType:    req.PolicyType,
		FacilityLevel: facility.Level,
		AsOf:          serviceDate,
	}
	policies, err := s.Resolver.FindApplicable(ctx, q.CardTypeID, q.PolicyType, q.FacilityLevel, q.AsOf)
	if err != nil {
		return nil, errors.Internal(err)
	}
	best, all, err := s.Calculator.Resolve(policies, q, req.BilledAmount)
	if err != nil {
		return nil, err
	}

	coverages := make([]model.PolicyCoverage, 0, len(all))
	for _, o := range all {
		coverages = append(coverages, o.Coverage())
	}

	s.Logger.Info("adjudicated",
		"card_number", req.CardNumber,
		"facility_code", req.FacilityCode,
		"policy_id", best.Policy.ID.String(),
		"covered_amount", best.Covered.String())

	return &model.AdjudicationResult{
		Eligible:              true,
		BestPolicy:            best.Policy.Summary(),
		CoveredAmount:         best.Covered,
		PatientPayment:        best.Patient,
		AllApplicablePolicies: coverages,
		InvalidReasons:        []string{},
		BilledAmount:          req.BilledAmount,
		PolicyType:            req.PolicyType,
		ServiceDate:           serviceDate,
		Card:                  insuranceCard,
		Facility:              facility,
	}, nil
}

// FileClaim turns an eligible adjudication into a submitted claim with a
// fresh claim number.
func (s *Service) FileClaim(ctx context.Context, actor model.Actor, result *model.AdjudicationResult, details model.ClaimDetails) (*model.Claim, error) {
	if result == nil || !result.Eligible || result.BestPolicy == nil || result.Card == nil || result.Facility == nil {
		return nil, errors.BadRequest("claim requires an eligible adjudication result", nil)
	}
	if err := authz.Authorize(actor, authz.FileClaim(result.Card.UserID)); err != nil {
		return nil, err
	}
	if err := s.Fields.Validate(&details); err != nil {
		return nil, err
	}
	if details.DischargeDate != nil && model.DateOf(*details.DischargeDate).Before(model.DateOf(details.AdmissionDate)) {
		return nil, errors.BadRequest("discharge date is before admission date", nil)
	}

	now := s.clock()
	claim := buildClaim(actor, result, details, now)
	monthKey := claimnumber.MonthKey(now)

	var initial *model.ClaimStatusHistory
	for attempt := 1; ; attempt++ {
		number, err := s.Numbers.Next(ctx, monthKey)
		if err != nil {
			return nil, err
		}
		claim.ClaimNumber = number
		initial = lifecycle.Initial(claim, actor, now)
		submitted, err := claimEvent(model.EventClaimSubmitted, claim, initial)
		if err != nil {
			return nil, err
		}

		err = s.Claims.Create(ctx, claim, initial, submitted)
		if err == nil {
			break
		}
		if !errors.HasReason(err, errors.ReasonSequenceConflict) || attempt >= s.fileAttempts {
			return nil, err
		}
		s.Metrics.ObserveSequenceRetry(monthKey)
		s.Logger.Warn("claim number already taken, reserving another", "claim_number", number, "attempt", attempt)
	}
	claim.History = []model.ClaimStatusHistory{*initial}

	s.Metrics.ObserveClaimFiled(string(claim.VisitType))
	s.Logger.Info("claim filed",
		"claim_id", claim.ID.String(),
		"claim_number", claim.ClaimNumber,
		"covered_amount", claim.CoveredAmount.String())

	return claim, nil
}

// ReviewClaim moves a claim along its lifecycle on behalf of a reviewer.
func (s *Service) ReviewClaim(ctx context.Context, actor model.Actor, claimID uuid.UUID, decision model.ClaimStatus, reason *string) (*model.Claim, error) {
	if !decision.Valid() {
		return nil, errors.BadRequest("unknown claim status", nil).WithDetail("status", string(decision))
	}
	if err := authz.Authorize(actor, authz.Transition(decision)); err != nil {
		return nil, err
	}

	now := s.clock()
	var from model.ClaimStatus
	claim, err := s.Claims.UpdateStatus(ctx, claimID, func(c *model.Claim) (*model.ClaimStatusHistory, *model.OutboxEvent, error) {
		from = c.Status
		h, err := lifecycle.Transition(c, decision, actor, reason, now)
		if err != nil {
			return nil, nil, err
		}
		changed, err := claimEvent(model.EventClaimStatusChanged, c, h)
		if err != nil {
			return nil, nil, err
		}
		return h, changed, nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.ObserveTransition(string(from), string(decision))
	s.Logger.Info("claim status changed",
		"claim_id", claim.ID.String(),
		"from", string(from),
		"to", string(decision),
		"changed_by", actor.ID.String())

	return claim, nil
}

func (s *Service) GetClaim(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Claim, error) {
	claim, err := s.Claims.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.ViewClaim(claim.UserID)); err != nil {
		return nil, err
	}
	return claim, nil
}

func (s *Service) GetClaimByNumber(ctx context.Context, actor model.Actor, number string) (*model.Claim, error) {
	if _, _, err := claimnumber.Parse(number); err != nil {
		return nil, errors.BadRequest("malformed claim number", err)
	}
	claim, err := s.Claims.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.ViewClaim(claim.UserID)); err != nil {
		return nil, err
	}
	return claim, nil
}

// ListClaims scopes plain users to their own claims.
func (s *Service) ListClaims(ctx context.Context, actor model.Actor, filters *model.ClaimFilters) ([]*model.Claim, int, error) {
	if err := authz.Authorize(actor, authz.ListClaims()); err != nil {
		return nil, 0, err
	}
	if filters == nil {
		filters = &model.ClaimFilters{}
	}
	if !authz.SeesAllClaims(actor) {
		filters.UserID = actor.ID
	}
	claims, total, err := s.Claims.List(ctx, filters)
	if err != nil {
		return nil, 0, errors.Internal(err)
	}
	return claims, total, nil
}

func (s *Service) ClaimHistory(ctx context.Context, actor model.Actor, id uuid.UUID) ([]*model.ClaimStatusHistory, error) {
	if _, err := s.GetClaim(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.Claims.ListHistory(ctx, id)
}

// CalculateCoverage quotes every applicable policy for a card type without
// looking at a specific card.
func (s *Service) CalculateCoverage(ctx context.Context, actor model.Actor, req model.QuoteRequest) (*model.CoverageQuote, error) {
	if err := authz.Authorize(actor, authz.Quote()); err != nil {
		return nil, err
	}
	if err := s.Fields.Validate(&req); err != nil {
		return nil, err
	}
	if err := coverage.ValidateAmount(req.BilledAmount); err != nil {
		return nil, err
	}
	asOf := req.ServiceDate
	if asOf.IsZero() {
		asOf = s.clock()
	}
	asOf = model.DateOf(asOf)

	cardType, err := s.Cards.GetCardTypeByCode(ctx, req.CardTypeCode)
	if err != nil {
		return nil, err
	}
	q := model.PolicyQuery{
		CardTypeID:    cardType.ID,
		PolicyType:    req.PolicyType,
		FacilityLevel: req.FacilityLevel,
		AsOf:          asOf,
	}
	policies, err := s.Resolver.FindApplicable(ctx, q.CardTypeID, q.PolicyType, q.FacilityLevel, q.AsOf)
	if err != nil {
		return nil, errors.Internal(err)
	}
	best, all, err := s.Calculator.Resolve(policies, q, req.BilledAmount)
	if err != nil {
		return nil, err
	}

	quote := &model.CoverageQuote{
		CardType:              cardType,
		Best:                  best.Coverage(),
		AllApplicablePolicies: make([]model.PolicyCoverage, 0, len(all)),
	}
	for _, o := range all {
		quote.AllApplicablePolicies = append(quote.AllApplicablePolicies, o.Coverage())
	}
	return quote, nil
}

// claimEvent builds the outbox event stored alongside a claim change.
func claimEvent(eventType string, claim *model.Claim, entry *model.ClaimStatusHistory) (*model.OutboxEvent, error) {
	payload := model.ClaimEvent{
		ClaimID:       claim.ID,
		ClaimNumber:   claim.ClaimNumber,
		UserID:        claim.UserID,
		OldStatus:     entry.OldStatus,
		NewStatus:     entry.NewStatus,
		ChangedBy:     entry.ChangedBy,
		CoveredAmount: claim.CoveredAmount.StringFixed(2),
		OccurredAt:    entry.ChangedAt,
	}
	ev, err := event.NewOutboxEvent(eventType, claim.ID, payload)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return ev, nil
}

func buildClaim(actor model.Actor, result *model.AdjudicationResult, details model.ClaimDetails, now time.Time) *model.Claim {
	visitType := details.VisitType
	if visitType == "" {
		visitType = visitTypeFor(result.PolicyType)
	}

	claim := &model.Claim{
		Base:                 model.Base{ID: uuid.New()},
		UserID:               result.Card.UserID,
		InsuranceCardID:      result.Card.ID,
		FacilityID:           result.Facility.ID,
		PolicyID:             result.BestPolicy.ID,
		VisitType:            visitType,
		AdmissionDate:        model.DateOf(details.AdmissionDate),
		PrimaryDiagnosisCode: details.PrimaryDiagnosisCode,
		PrimaryDiagnosisName: details.PrimaryDiagnosisName,
		SecondaryDiagnoses:   details.SecondaryDiagnoses,
		TotalAmount:          result.BilledAmount,
		CoveredAmount:        result.CoveredAmount,
		PatientPayment:       result.PatientPayment,
	}
	if details.DischargeDate != nil {
		d := model.DateOf(*details.DischargeDate)
		claim.DischargeDate = &d
	}
	if claim.SecondaryDiagnoses == nil {
		claim.SecondaryDiagnoses = model.Diagnoses{}
	}

	pct := result.BestPolicy.CoveragePercentage
	totals := make([]decimal.Decimal, 0, len(details.Services)+len(details.Medications))
	for _, line := range details.Services {
		total := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		totals = append(totals, total)
		claim.Services = append(claim.Services, model.ClaimServiceDetail{
			ServiceCode:        line.ServiceCode,
			ServiceName:        line.ServiceName,
			ServiceType:        line.ServiceType,
			Quantity:           line.Quantity,
			UnitPrice:          line.UnitPrice,
			TotalPrice:         total,
			CoveragePercentage: pct,
			ServiceDate:        model.DateOf(line.ServiceDate),
			DoctorName:         line.DoctorName,
			Notes:              line.Notes,
		})
	}
	for _, line := range details.Medications {
		total := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		totals = append(totals, total)
		claim.Medications = append(claim.Medications, model.ClaimMedication{
			MedicationCode:     line.MedicationCode,
			MedicationName:     line.MedicationName,
			Dosage:             line.Dosage,
			Quantity:           line.Quantity,
			Unit:               line.Unit,
			UnitPrice:          line.UnitPrice,
			TotalPrice:         total,
			CoveragePercentage: pct,
			PrescribedDate:     model.DateOf(line.PrescribedDate),
			DoctorName:         line.DoctorName,
		})
	}

	shares := coverage.AllocateLineItems(claim.CoveredAmount, totals)
	for i := range claim.Services {
		claim.Services[i].CoveredAmount = shares[i]
	}
	for i := range claim.Medications {
		claim.Medications[i].CoveredAmount = shares[len(claim.Services)+i]
	}

	for _, doc := range details.Documents {
		claim.Documents = append(claim.Documents, model.ClaimDocument{
			DocumentType: doc.DocumentType,
			FileName:     doc.FileName,
			FilePath:     doc.FilePath,
			FileSize:     doc.FileSize,
			MimeType:     doc.MimeType,
			UploadedBy:   actor.ID,
			UploadedAt:   now,
		})
	}
	return claim
}

func visitTypeFor(t model.PolicyType) model.VisitType {
	switch t {
	case model.PolicyTypeInpatient:
		return model.VisitTypeInpatient
	case model.PolicyTypeEmergency:
		return model.VisitTypeEmergency
	}
	return model.VisitTypeOutpatient
}
