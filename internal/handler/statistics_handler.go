package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/chapter-participation-api/internal/models"
	"github.com/noah-isme/chapter-participation-api/pkg/response"
)

type statisticsService interface {
	Statistics(ctx context.Context) (models.AggregateStatistics, error)
}

// StatisticsHandler serves aggregate roster statistics.
type StatisticsHandler struct {
	service statisticsService
}

// NewStatisticsHandler builds the handler.
func NewStatisticsHandler(service statisticsService) *StatisticsHandler {
	return &StatisticsHandler{service: service}
}

// Get godoc
// @Summary Aggregate statistics
// @Description Average points, the most active grade and the most common event kind. Fields are null when undefined.
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /statistics [get]
func (h *StatisticsHandler) Get(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
