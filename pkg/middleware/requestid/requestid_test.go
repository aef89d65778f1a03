package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func traceThrough(t *testing.T, inbound string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())

	var seen string
	router.GET("/health", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	if inbound != "" {
		req.Header.Set("X-Request-ID", inbound)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return seen, rec.Header().Get("X-Request-ID")
}

func TestMiddlewareMintsTraceID(t *testing.T) {
	seen, echoed := traceThrough(t, "")
	require.NotEmpty(t, seen)
	require.Equal(t, seen, echoed)
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
}

func TestMiddlewareKeepsSaneInboundID(t *testing.T) {
	seen, echoed := traceThrough(t, "proxy-trace_42")
	require.Equal(t, "proxy-trace_42", seen)
	require.Equal(t, "proxy-trace_42", echoed)
}

func TestMiddlewareReplacesJunkInboundID(t *testing.T) {
	for _, inbound := range []string{
		"has spaces",
		"new\nline",
		strings.Repeat("a", 65),
	} {
		seen, _ := traceThrough(t, inbound)
		require.NotEqual(t, inbound, seen)
		require.NotEmpty(t, seen)
	}
}
