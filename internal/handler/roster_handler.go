package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/chapter-participation-api/internal/dto"
	"github.com/noah-isme/chapter-participation-api/internal/service"
	appErrors "github.com/noah-isme/chapter-participation-api/pkg/errors"
	"github.com/noah-isme/chapter-participation-api/pkg/response"
)

const maxImportBytes = 4 << 20

type rosterTransferService interface {
	Import(ctx context.Context, r io.Reader) (*dto.ImportResult, error)
	ExportCSV(ctx context.Context) (*service.ExportFile, error)
	ExportPDF(ctx context.Context) (*service.ExportFile, error)
}

// RosterHandler exposes roster import and export.
type RosterHandler struct {
	service rosterTransferService
}

// NewRosterHandler builds the handler.
func NewRosterHandler(service rosterTransferService) *RosterHandler {
	return &RosterHandler{service: service}
}

// Import godoc
// @Summary Import students from CSV
// @Description Header row then "name,gradeLevel" rows. Accepts a multipart "file" field or a raw text/csv body.
// @Tags Roster
// @Accept mpfd
// @Produce json
// @Param file formData file false "Roster CSV"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /roster/import [post]
func (h *RosterHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	var source io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "multipart field \"file\" is required"))
			return
		}
		file, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload"))
			return
		}
		defer file.Close()
		source = file
	}

	result, err := h.service.Import(c.Request.Context(), source)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ExportCSV godoc
// @Summary Export the roster as CSV
// @Tags Roster
// @Produce text/csv
// @Success 200 {file} file
// @Router /roster/export.csv [get]
func (h *RosterHandler) ExportCSV(c *gin.Context) {
	h.export(c, h.service.ExportCSV)
}

// ExportPDF godoc
// @Summary Export the roster as PDF
// @Tags Roster
// @Produce application/pdf
// @Success 200 {file} file
// @Router /roster/export.pdf [get]
func (h *RosterHandler) ExportPDF(c *gin.Context) {
	h.export(c, h.service.ExportPDF)
}

func (h *RosterHandler) export(c *gin.Context, render func(context.Context) (*service.ExportFile, error)) {
	file, err := render(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
