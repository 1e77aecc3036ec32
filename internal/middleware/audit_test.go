package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/chapter-participation-api/internal/models"
)

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{Username: "advisor"})
		c.Next()
	})
	r.Use(Audit(zap.New(core)))
	r.GET("/students", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/students/:id", func(c *gin.Context) {
		if c.Param("id") == "404" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusNoContent)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/students", nil),
		httptest.NewRequest(http.MethodDelete, "/students/404", nil),
		httptest.NewRequest(http.MethodDelete, "/students/7", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "advisor", fields["actor"])
	assert.Equal(t, "/students/:id", fields["route"])
	assert.Equal(t, int64(http.StatusNoContent), fields["status"])
}
