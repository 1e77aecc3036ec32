package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chapter-participation-api/internal/models"
	"github.com/noah-isme/chapter-participation-api/internal/service"
	appErrors "github.com/noah-isme/chapter-participation-api/pkg/errors"
)

type studentServiceMock struct {
	students   []models.Student
	createReq  service.CreateStudentRequest
	createErr  error
	addedTo    int64
	addedEvent models.ParticipationEvent
	points     int
	pointsErr  error
	deleted    int64
	deleteErr  error
	winner     *models.Student
	winnerErr  error
}

func (m *studentServiceMock) List(context.Context) ([]models.Student, error) {
	return m.students, nil
}

func (m *studentServiceMock) Table(context.Context) ([]models.RosterRow, error) {
	return service.SummarizeRoster(m.students), nil
}

func (m *studentServiceMock) Create(_ context.Context, req service.CreateStudentRequest) (*models.Student, error) {
	m.createReq = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Student{ID: 9, Name: req.Name, GradeLevel: req.GradeLevel, ParticipationEvents: req.ParticipationEvents}, nil
}

func (m *studentServiceMock) AddEvent(_ context.Context, studentID int64, event models.ParticipationEvent) error {
	m.addedTo = studentID
	m.addedEvent = event
	return nil
}

func (m *studentServiceMock) Points(context.Context, int64) (int, error) {
	return m.points, m.pointsErr
}

func (m *studentServiceMock) Delete(_ context.Context, studentID int64) error {
	m.deleted = studentID
	return m.deleteErr
}

func (m *studentServiceMock) PickWinner(context.Context) (*models.Student, error) {
	return m.winner, m.winnerErr
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func TestStudentHandlerCreate(t *testing.T) {
	mock := &studentServiceMock{}
	handler := NewStudentHandler(mock)
	body := []byte(`{"name":"Ada","gradeLevel":10,"participationEvents":[{"name":"Relay","date":1700000000,"points":5,"kind":"Sporting","notes":null}]}`)
	c, w := newTestContext(http.MethodPost, "/students", body)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Ada", mock.createReq.Name)
	require.Len(t, mock.createReq.ParticipationEvents, 1)
	assert.Equal(t, models.EventKindSporting, mock.createReq.ParticipationEvents[0].Kind)
	assert.Nil(t, mock.createReq.ParticipationEvents[0].Notes)
}

func TestStudentHandlerCreateMalformedBody(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{})
	c, w := newTestContext(http.MethodPost, "/students", []byte(`{"name":`))

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudentHandlerAddEvent(t *testing.T) {
	mock := &studentServiceMock{}
	handler := NewStudentHandler(mock)
	c, w := newTestContext(http.MethodPost, "/students/4/events", []byte(`{"name":"Gala","date":5,"points":2,"kind":"NonSporting","notes":"formal"}`))
	c.Params = gin.Params{{Key: "id", Value: "4"}}

	handler.AddEvent(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(4), mock.addedTo)
	require.NotNil(t, mock.addedEvent.Notes)
	assert.Equal(t, "formal", *mock.addedEvent.Notes)
}

func TestStudentHandlerPoints(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{points: 12})
	c, w := newTestContext(http.MethodGet, "/students/3/points", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.Points(c)

	require.Equal(t, http.StatusOK, w.Code)
	var payload struct {
		StudentID int64 `json:"studentId"`
		Points    int   `json:"points"`
	}
	decodeData(t, w, &payload)
	assert.Equal(t, int64(3), payload.StudentID)
	assert.Equal(t, 12, payload.Points)
}

func TestStudentHandlerRejectsBadID(t *testing.T) {
	mock := &studentServiceMock{}
	handler := NewStudentHandler(mock)
	c, w := newTestContext(http.MethodDelete, "/students/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Delete(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mock.deleted)
}

func TestStudentHandlerDeleteMissing(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{deleteErr: appErrors.Clone(appErrors.ErrNotFound, "student not found")})
	c, w := newTestContext(http.MethodDelete, "/students/8", nil)
	c.Params = gin.Params{{Key: "id", Value: "8"}}

	handler.Delete(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentHandlerTable(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{students: []models.Student{
		{ID: 1, Name: "Ada", GradeLevel: 10, ParticipationEvents: []models.ParticipationEvent{{Name: "a", Date: 30, Points: 4}}},
		{ID: 2, Name: "Grace", GradeLevel: 11, ParticipationEvents: []models.ParticipationEvent{}},
	}})
	c, w := newTestContext(http.MethodGet, "/students/table", nil)

	handler.Table(c)

	require.Equal(t, http.StatusOK, w.Code)
	var rows []map[string]interface{}
	decodeData(t, w, &rows)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[1]["dateOfLastParticipation"])
}

func TestStudentHandlerWinnerEmptyRoster(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{winnerErr: appErrors.Clone(appErrors.ErrNotFound, "roster is empty")})
	c, w := newTestContext(http.MethodPost, "/students/winner", nil)

	handler.Winner(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
