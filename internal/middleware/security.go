package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

type SecurityConfig struct {
	// HSTSMaxAge of zero disables Strict-Transport-Security.
	HSTSMaxAge   time.Duration
	FrameOptions string
	// NoStore marks every response uncacheable. Claim and card payloads
	// carry personal health data.
	NoStore bool
}

func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSMaxAge:   365 * 24 * time.Hour,
		FrameOptions: "DENY",
		NoStore:      true,
	}
}

// SecurityHeaders sets the response headers every API answer carries.
func SecurityHeaders(config SecurityConfig) gin.HandlerFunc {
	hsts := ""
	if config.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d; includeSubDomains", int64(config.HSTSMaxAge/time.Second))
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}
		if config.FrameOptions != "" {
			h.Set("X-Frame-Options", config.FrameOptions)
		}
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		if config.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
		}
		c.Next()
	}
}
