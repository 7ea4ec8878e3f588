package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Dashboard dev servers, always allowed next to the configured origins.
var devOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsHeaders = strings.Join([]string{"Authorization", "Content-Type", "Accept", requestIDHeader}, ", ")
)

// CORS echoes back allowed origins and answers preflight requests before auth.
func CORS(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(devOrigins)+len(origins))
	for _, o := range append(append([]string{}, devOrigins...), origins...) {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if origin := c.GetHeader("Origin"); origin != "" {
			h.Add("Vary", "Origin")
			if _, ok := allowed[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Expose-Headers", requestIDHeader)
			}
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		h.Set("Access-Control-Allow-Methods", corsMethods)
		h.Set("Access-Control-Allow-Headers", corsHeaders)
		h.Set("Access-Control-Max-Age", "600")
		c.AbortWithStatus(http.StatusNoContent)
	}
}
