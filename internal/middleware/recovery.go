package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/truongngoctrac/claims-platform/pkg/errors"
	"github.com/truongngoctrac/claims-platform/pkg/httputil"
	"github.com/truongngoctrac/claims-platform/pkg/logger"
)

// Recovery handles panics and logs them appropriately
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)

				// Log the error
				log.Error(err, "Request panic recovered",
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"client_ip", c.ClientIP(),
					"request_id", c.GetString(ContextRequestID),
				)

				// Return error to client
				httputil.RespondWithError(c, errors.Internal(err))
			}
		}()
		c.Next()
	}
}
