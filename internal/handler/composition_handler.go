package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/chapter-participation-api/internal/dto"
	"github.com/noah-isme/chapter-participation-api/internal/models"
	appErrors "github.com/noah-isme/chapter-participation-api/pkg/errors"
	"github.com/noah-isme/chapter-participation-api/pkg/response"
)

type compositionService interface {
	Open(ctx context.Context) (*dto.CompositionView, error)
	Get(ctx context.Context, id string) (*dto.CompositionView, error)
	SetStudent(ctx context.Context, id string, req dto.SetStudentRequest) (*dto.CompositionView, error)
	AddDraft(ctx context.Context, id string) (int, *dto.CompositionView, error)
	EditField(ctx context.Context, id string, draftID int, field models.DraftField, value string) (*dto.CompositionView, error)
	RemoveDraft(ctx context.Context, id string, draftID int) (*dto.CompositionView, error)
	Reset(ctx context.Context, id string) (*dto.CompositionView, error)
	Close(ctx context.Context, id string) error
	Submit(ctx context.Context, id string) (*models.Student, error)
}

// CompositionHandler drives the add-student dialog state held server-side.
type CompositionHandler struct {
	service compositionService
}

// NewCompositionHandler builds the handler.
func NewCompositionHandler(service compositionService) *CompositionHandler {
	return &CompositionHandler{service: service}
}

// Open godoc
// @Summary Open a composition session
// @Tags Compositions
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /compositions [post]
func (h *CompositionHandler) Open(c *gin.Context) {
	view, err := h.service.Open(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Get a composition session
// @Tags Compositions
// @Produce json
// @Param id path string true "Composition ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /compositions/{id} [get]
func (h *CompositionHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SetStudent godoc
// @Summary Set the student name and grade entries
// @Tags Compositions
// @Accept json
// @Produce json
// @Param id path string true "Composition ID"
// @Param payload body dto.SetStudentRequest true "Student entries"
// @Success 200 {object} response.Envelope
// @Router /compositions/{id}/student [put]
func (h *CompositionHandler) SetStudent(c *gin.Context) {
	var req dto.SetStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student entries"))
		return
	}
	view, err := h.service.SetStudent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// AddDraft godoc
// @Summary Append an empty draft event
// @Tags Compositions
// @Produce json
// @Param id path string true "Composition ID"
// @Success 201 {object} response.Envelope
// @Router /compositions/{id}/drafts [post]
func (h *CompositionHandler) AddDraft(c *gin.Context) {
	draftID, view, err := h.service.AddDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.AddDraftResponse{DraftID: draftID, Composition: *view})
}

// EditField godoc
// @Summary Edit one field of a draft
// @Description field is one of name, date, points, kind, notes
// @Tags Compositions
// @Accept json
// @Produce json
// @Param id path string true "Composition ID"
// @Param draftId path int true "Draft ID"
// @Param payload body dto.EditDraftRequest true "Field edit"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /compositions/{id}/drafts/{draftId} [patch]
func (h *CompositionHandler) EditField(c *gin.Context) {
	draftID, err := intParam(c, "draftId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.EditDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid draft edit"))
		return
	}
	view, err := h.service.EditField(c.Request.Context(), c.Param("id"), draftID, models.DraftField(req.Field), req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// RemoveDraft godoc
// @Summary Remove a draft
// @Tags Compositions
// @Produce json
// @Param id path string true "Composition ID"
// @Param draftId path int true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /compositions/{id}/drafts/{draftId} [delete]
func (h *CompositionHandler) RemoveDraft(c *gin.Context) {
	draftID, err := intParam(c, "draftId")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.RemoveDraft(c.Request.Context(), c.Param("id"), draftID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Reset godoc
// @Summary Clear a composition
// @Tags Compositions
// @Produce json
// @Param id path string true "Composition ID"
// @Success 200 {object} response.Envelope
// @Router /compositions/{id}/reset [post]
func (h *CompositionHandler) Reset(c *gin.Context) {
	view, err := h.service.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Close godoc
// @Summary Dismiss a composition
// @Tags Compositions
// @Param id path string true "Composition ID"
// @Success 204
// @Router /compositions/{id} [delete]
func (h *CompositionHandler) Close(c *gin.Context) {
	if err := h.service.Close(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit a ready composition as a new student
// @Tags Compositions
// @Produce json
// @Param id path string true "Composition ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /compositions/{id}/submit [post]
func (h *CompositionHandler) Submit(c *gin.Context) {
	student, err := h.service.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}
