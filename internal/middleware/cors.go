package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"audiencehub/internal/config"
)

const corsMaxAge = 24 * 60 * 60 // one day, in seconds

// CORS applies the cross-origin policy for the browser-facing endpoints:
// the request's Origin is reflected when it is on the allow-list, otherwise
// the first allow-listed origin is used as the default. Preflight requests
// terminate here with 204.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}
	defaultOrigin := ""
	if len(cfg.AllowedOrigins) > 0 {
		defaultOrigin = cfg.AllowedOrigins[0]
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if !allowed[origin] {
			origin = defaultOrigin
		}
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
