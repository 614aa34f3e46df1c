package adjudication

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/truongngoctrac/claims-platform/internal/handler"
	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/service/adjudication"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
	"github.com/truongngoctrac/claims-platform/pkg/httputil"
)

// AdjudicateRequest is the wire form of an eligibility check.
type AdjudicateRequest struct {
	CardNumber   string           `json:"card_number" binding:"required"`
	FacilityCode string           `json:"facility_code" binding:"required"`
	PolicyType   model.PolicyType `json:"policy_type" binding:"required"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	ServiceDate  string           `json:"service_date"`
}

// ToModel parses the request dates.
func (r AdjudicateRequest) ToModel() (model.AdjudicationRequest, error) {
	date, err := handler.ParseDate("service_date", r.ServiceDate)
	if err != nil {
		return model.AdjudicationRequest{}, err
	}
	return model.AdjudicationRequest{
		CardNumber:   r.CardNumber,
		FacilityCode: r.FacilityCode,
		PolicyType:   r.PolicyType,
		BilledAmount: r.TotalAmount,
		ServiceDate:  date,
	}, nil
}

type QuoteRequest struct {
	CardTypeCode  string              `json:"card_type_code" binding:"required"`
	PolicyType    model.PolicyType    `json:"policy_type" binding:"required"`
	FacilityLevel model.FacilityLevel `json:"facility_level" binding:"required"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	ServiceDate   string              `json:"service_date"`
}

type Handler struct {
	service adjudication.AdjudicationServicer
}

func NewHandler(service adjudication.AdjudicationServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/adjudications", h.Adjudicate)
	r.POST("/coverage/quote", h.Quote)
}

// Adjudicate answers whether the service is covered. A card that fails
// validation is a regular answer with eligible=false, not an error.
func (h *Handler) Adjudicate(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var body AdjudicateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	req, err := body.ToModel()
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	result, err := h.service.Adjudicate(c.Request.Context(), actor, req)
	if err != nil {
		if ineligible := Ineligible(req, err); ineligible != nil {
			httputil.RespondWithSuccess(c, ineligible)
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

// Ineligible converts a card_invalid error into the eligible=false answer.
// It returns nil for every other error.
func Ineligible(req model.AdjudicationRequest, err error) *model.AdjudicationResult {
	appErr, ok := errors.As(err)
	if !ok || appErr.Reason != errors.ReasonCardInvalid {
		return nil
	}
	reasons, _ := appErr.Details["reasons"].([]string)
	if reasons == nil {
		reasons = []string{}
	}
	return model.Ineligible(req, reasons)
}

func (h *Handler) Quote(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var body QuoteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	date, err := handler.ParseDate("service_date", body.ServiceDate)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	quote, err := h.service.CalculateCoverage(c.Request.Context(), actor, model.QuoteRequest{
		CardTypeCode:  body.CardTypeCode,
		PolicyType:    body.PolicyType,
		FacilityLevel: body.FacilityLevel,
		BilledAmount:  body.TotalAmount,
		ServiceDate:   date,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, quote)
}
