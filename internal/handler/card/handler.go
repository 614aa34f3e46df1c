package card

import (
	"github.com/gin-gonic/gin"

	"github.com/truongngoctrac/claims-platform/internal/handler"
	"github.com/truongngoctrac/claims-platform/internal/service/card"
	"github.com/truongngoctrac/claims-platform/pkg/httputil"
)

type Handler struct {
	service card.CardServicer
}

func NewHandler(service card.CardServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	cards := r.Group("/cards")
	{
		cards.GET("/:number", h.GetCard)
		cards.GET("/:number/validate", h.ValidateCard)
		cards.GET("/:number/eligibility", h.CheckEligibility)
	}
	r.GET("/users/:id/cards", h.ListUserCards)
}

func (h *Handler) GetCard(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	details, err := h.service.GetCard(c.Request.Context(), actor, c.Param("number"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, details)
}

// ValidateCard handles GET /cards/:number/validate?date=YYYY-MM-DD
func (h *Handler) ValidateCard(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	asOf, err := handler.ParseDate("date", c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	result, err := h.service.ValidateCard(c.Request.Context(), actor, c.Param("number"), asOf)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) CheckEligibility(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	asOf, err := handler.ParseDate("date", c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	result, err := h.service.CheckEligibility(c.Request.Context(), actor, c.Param("number"), asOf)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) ListUserCards(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	userID, err := handler.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	cards, err := h.service.ListUserCards(c.Request.Context(), actor, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cards)
}
