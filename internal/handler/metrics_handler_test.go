package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/chapter-participation-api/internal/service"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestMetricsHandlerReady(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, stubPinger{}).Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, stubPinger{err: errors.New("database is closed")}).Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordSubmission("succeeded")
	c, w := newTestContext(http.MethodGet, "/metrics", nil)

	NewMetricsHandler(metrics, nil).Prometheus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "composition_submissions_total")
}

func TestMetricsHandlerWithoutMetrics(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/metrics", nil)

	NewMetricsHandler(nil, nil).Prometheus(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
