package reference

import (
	"github.com/gin-gonic/gin"

	"github.com/truongngoctrac/claims-platform/internal/handler"
	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/service/reference"
	"github.com/truongngoctrac/claims-platform/pkg/httputil"
)

type Handler struct {
	service reference.ReferenceServicer
}

func NewHandler(service reference.ReferenceServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	facilities := r.Group("/facilities")
	{
		facilities.GET("", h.ListFacilities)
		facilities.GET("/:code", h.GetFacility)
		facilities.GET("/by-province/:province", h.ListProvinceFacilities)
	}
	policies := r.Group("/policies")
	{
		policies.GET("", h.ListPolicies)
		policies.GET("/card-types", h.ListCardTypes)
	}
}

// ListFacilities handles GET /facilities?province=&level=&search=&page=&page_size=
func (h *Handler) ListFacilities(c *gin.Context) {
	h.listFacilities(c, &model.FacilityFilters{
		ProvinceCode: c.Query("province"),
		Level:        model.FacilityLevel(c.Query("level")),
		Search:       c.Query("search"),
		Pagination:   handler.ParsePagination(c),
	})
}

func (h *Handler) ListProvinceFacilities(c *gin.Context) {
	h.listFacilities(c, &model.FacilityFilters{
		ProvinceCode: c.Param("province"),
		Pagination:   model.Pagination{PageSize: 100},
	})
}

func (h *Handler) listFacilities(c *gin.Context, filters *model.FacilityFilters) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	facilities, err := h.service.ListFacilities(c.Request.Context(), actor, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, facilities)
}

func (h *Handler) GetFacility(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	facility, err := h.service.GetFacility(c.Request.Context(), actor, c.Param("code"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, facility)
}

func (h *Handler) ListCardTypes(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	cardTypes, err := h.service.ListCardTypes(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cardTypes)
}

// ListPolicies handles GET /policies?card_type=&policy_type=&facility_level=
func (h *Handler) ListPolicies(c *gin.Context) {
	actor, err := handler.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	filters := &model.PolicyFilters{
		PolicyType:    model.PolicyType(c.Query("policy_type")),
		FacilityLevel: model.FacilityLevel(c.Query("facility_level")),
		Pagination:    handler.ParsePagination(c),
	}
	policies, err := h.service.ListPolicies(c.Request.Context(), actor, c.Query("card_type"), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, policies)
}
