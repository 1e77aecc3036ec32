package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/chapter-participation-api/internal/models"
	"github.com/noah-isme/chapter-participation-api/internal/service"
	appErrors "github.com/noah-isme/chapter-participation-api/pkg/errors"
	"github.com/noah-isme/chapter-participation-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context) ([]models.Student, error)
	Table(ctx context.Context) ([]models.RosterRow, error)
	Create(ctx context.Context, req service.CreateStudentRequest) (*models.Student, error)
	AddEvent(ctx context.Context, studentID int64, event models.ParticipationEvent) error
	Points(ctx context.Context, studentID int64) (int, error)
	Delete(ctx context.Context, studentID int64) error
	PickWinner(ctx context.Context) (*models.Student, error)
}

// StudentHandler exposes roster endpoints.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary Fetch the roster
// @Description Every student with nested participation events
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.students.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil, map[string]interface{}{"total": len(students)})
}

// Table godoc
// @Summary Roster table rows
// @Description Name, grade, points and last participation date per student
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/table [get]
func (h *StudentHandler) Table(c *gin.Context) {
	rows, err := h.students.Table(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// AddEvent godoc
// @Summary Record a participation event
// @Tags Students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body models.ParticipationEvent true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/events [post]
func (h *StudentHandler) AddEvent(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var event models.ParticipationEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	if err := h.students.AddEvent(c.Request.Context(), id, event); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Points godoc
// @Summary Total participation points
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/points [get]
func (h *StudentHandler) Points(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := h.students.Points(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"studentId": id, "points": total}, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Param id path int true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Winner godoc
// @Summary Appoint a random winner
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/winner [post]
func (h *StudentHandler) Winner(c *gin.Context) {
	winner, err := h.students.PickWinner(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, winner, nil)
}
