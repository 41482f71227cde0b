package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS allows browser clients on the configured origins to call the API.
type CORS struct {
	allowed  map[string]bool
	allowAll bool
}

// NewCORS creates a CORS middleware for the given origins. An empty list
// or a "*" entry allows any origin.
func NewCORS(origins []string) *CORS {
	m := &CORS{allowed: make(map[string]bool, len(origins))}
	if len(origins) == 0 {
		m.allowAll = true
	}
	for _, origin := range origins {
		if origin == "*" {
			m.allowAll = true
			continue
		}
		m.allowed[origin] = true
	}
	return m
}

// Handle sets the CORS response headers and short-circuits preflight
// requests.
func (m *CORS) Handle(c *gin.Context) {
	origin := c.GetHeader("Origin")
	if origin != "" && (m.allowAll || m.allowed[origin]) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	}

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	c.Next()
}
