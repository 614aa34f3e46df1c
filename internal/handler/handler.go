package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

const contextActor = "actor"

// SetActor stores the authenticated caller on the request.
func SetActor(c *gin.Context, actor model.Actor) {
	c.Set(contextActor, actor)
}

// ActorFrom returns the caller stored by the auth middleware.
func ActorFrom(c *gin.Context) (model.Actor, error) {
	v, ok := c.Get(contextActor)
	if !ok {
		return model.Actor{}, errors.Unauthorized(nil)
	}
	actor, ok := v.(model.Actor)
	if !ok {
		return model.Actor{}, errors.Unauthorized(nil)
	}
	return actor, nil
}

// ParseUUIDParam reads a path parameter as a UUID.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.BadRequest("invalid "+name, err)
	}
	return id, nil
}

// ParseDate parses an optional YYYY-MM-DD value. Empty yields the zero
// time so services fall back to today.
func ParseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return time.Time{}, errors.BadRequest("invalid "+field+", expected YYYY-MM-DD", err).
			WithDetail("field", field)
	}
	return d, nil
}

// ParsePagination reads page and page_size query parameters.
func ParsePagination(c *gin.Context) model.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return model.Pagination{Page: page, PageSize: size}
}
