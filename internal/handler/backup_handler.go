package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/chapter-participation-api/internal/dto"
	"github.com/noah-isme/chapter-participation-api/pkg/jobs"
	"github.com/noah-isme/chapter-participation-api/pkg/response"
)

type backupService interface {
	Enqueue(ctx context.Context) (*dto.BackupJobResponse, error)
	Status(id string) (jobs.Status, error)
	List() ([]dto.BackupFile, error)
	Database() dto.DatabaseInfo
}

// BackupHandler exposes database backup endpoints.
type BackupHandler struct {
	service backupService
}

// NewBackupHandler builds the handler.
func NewBackupHandler(service backupService) *BackupHandler {
	return &BackupHandler{service: service}
}

// Create godoc
// @Summary Back up the roster database
// @Description Queues a copy of the database into the backups directory
// @Tags Backups
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 501 {object} response.Envelope
// @Router /backups [post]
func (h *BackupHandler) Create(c *gin.Context) {
	job, err := h.service.Enqueue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// List godoc
// @Summary List backups
// @Tags Backups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /backups [get]
func (h *BackupHandler) List(c *gin.Context) {
	files, err := h.service.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, nil)
}

// Status godoc
// @Summary Backup job status
// @Tags Backups
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /backups/jobs/{id} [get]
func (h *BackupHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Database godoc
// @Summary Current database
// @Tags Backups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /database [get]
func (h *BackupHandler) Database(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Database(), nil)
}
