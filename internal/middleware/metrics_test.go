package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type observed struct {
	method string
	path   string
	status int
}

type recordingObserver struct {
	requests []observed
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.requests = append(r.requests, observed{method: method, path: path, status: status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/students/:id/points", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/students/7/points", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []observed{
		{method: http.MethodGet, path: "/students/:id/points", status: http.StatusOK},
		{method: http.MethodGet, path: "unmatched", status: http.StatusNotFound},
	}, observer.requests)
}
