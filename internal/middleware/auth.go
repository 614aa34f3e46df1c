package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/truongngoctrac/claims-platform/internal/handler"
	"github.com/truongngoctrac/claims-platform/pkg/auth"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
	"github.com/truongngoctrac/claims-platform/pkg/httputil"
)

type AuthMiddleware struct {
	tokens auth.JWTService
}

func NewAuthMiddleware(tokens auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and stores the actor in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, errors.Unauthorized(nil).WithDetail("hint", "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondWithError(c, errors.Unauthorized(nil).WithDetail("hint", "invalid authorization format"))
			return
		}

		actor, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, errors.Unauthorized(err))
			return
		}

		handler.SetActor(c, actor)
		c.Next()
	}
}
