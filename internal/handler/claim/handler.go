package claim

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/handler"
	adjhandler "github.com/truongngoctrac/claims-platform/internal/handler/adjudication"
	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/service/adjudication"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
	"github.com/truongngoctrac/claims-platform/pkg/httputil"
)

// CreateClaimRequest adjudicates and files in one call.
type CreateClaimRequest struct {
	adjhandler.AdjudicateRequest
	Details model.ClaimDetails `json:"details"`
}

type ReviewRequest struct {
	Status model.ClaimStatus `json:"status" binding:"required"`
	Reason *string           `json:"reason"`
}

type Handler struct {
	service adjudication.AdjudicationServicer
}

func NewHandler(service adjudication.AdjudicationServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	claims := r.Group("/claims")
	{
		claims.POST("", h.CreateClaim)
		claims.GET("", h.ListClaims)
		claims.GET("/:id", h.GetClaim)
		claims.GET("/:id/history", h.GetHistory)
		claims.POST("/:id/status", h.ReviewClaim)
	}
}

func (h *Handler) CreateClaim(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var body CreateClaimRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	req, err := body.ToModel()
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	result, err := h.service.Adjudicate(ctx, actor, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	claim, err := h.service.FileClaim(ctx, actor, result, body.Details)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, claim)
}

// GetClaim accepts either the claim UUID or its BHYT claim number.
func (h *Handler) GetClaim(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	ref := c.Param("id")
	var claim *model.Claim
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		claim, err = h.service.GetClaim(c.Request.Context(), actor, id)
	} else {
		claim, err = h.service.GetClaimByNumber(c.Request.Context(), actor, strings.ToUpper(ref))
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, claim)
}

func (h *Handler) ListClaims(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filters := &model.ClaimFilters{
		Status:     model.ClaimStatus(c.Query("status")),
		VisitType:  model.VisitType(c.Query("visit_type")),
		Pagination: handler.ParsePagination(c),
	}
	if filters.Status != "" && !filters.Status.Valid() {
		httputil.RespondWithError(c, errors.BadRequest("invalid status filter", nil))
		return
	}
	if v := c.Query("user_id"); v != "" {
		if filters.UserID, err = uuid.Parse(v); err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid user_id", err))
			return
		}
	}
	if v := c.Query("facility_id"); v != "" {
		if filters.FacilityID, err = uuid.Parse(v); err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid facility_id", err))
			return
		}
	}
	if from, err := handler.ParseDate("from", c.Query("from")); err != nil {
		httputil.RespondWithError(c, err)
		return
	} else if !from.IsZero() {
		filters.From = &from
	}
	if to, err := handler.ParseDate("to", c.Query("to")); err != nil {
		httputil.RespondWithError(c, err)
		return
	} else if !to.IsZero() {
		end := to.AddDate(0, 0, 1).Add(-1)
		filters.To = &end
	}

	claims, total, err := h.service.ListClaims(c.Request.Context(), actor, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	limit, _ := filters.Normalize()
	page := filters.Page
	if page < 1 {
		page = 1
	}
	httputil.RespondWithPagination(c, claims, page, limit, total)
}

func (h *Handler) GetHistory(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	history, err := h.service.ClaimHistory(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, history)
}

func (h *Handler) ReviewClaim(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var body ReviewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	claim, err := h.service.ReviewClaim(c.Request.Context(), actor, id, body.Status, body.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, claim)
}
