// Package requestid threads a trace id through every HTTP request so the
// access log and the audit trail can be correlated.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerName = "X-Request-ID"
	contextKey = "trace_id"
)

// Middleware keeps an inbound trace id when a proxy already assigned one and
// it looks sane, otherwise mints a fresh uuid. The id is echoed back in the
// response header so governance operators can quote it when raising issues.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sanitize(c.GetHeader(headerName))
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(headerName, id)

		c.Next()
	}
}

// Value returns the trace id stored in the Gin context.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// sanitize drops inbound ids that would pollute structured log fields.
func sanitize(id string) string {
	if id == "" || len(id) > 64 {
		return ""
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return ""
		}
	}
	return id
}
