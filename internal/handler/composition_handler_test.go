package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chapter-participation-api/internal/dto"
	"github.com/noah-isme/chapter-participation-api/internal/models"
	"github.com/noah-isme/chapter-participation-api/internal/repository"
	"github.com/noah-isme/chapter-participation-api/internal/service"
)

type capturingCreator struct {
	requests []service.CreateStudentRequest
}

func (c *capturingCreator) Create(_ context.Context, req service.CreateStudentRequest) (*models.Student, error) {
	c.requests = append(c.requests, req)
	return &models.Student{ID: int64(len(c.requests)), Name: req.Name, GradeLevel: req.GradeLevel, ParticipationEvents: req.ParticipationEvents}, nil
}

func newCompositionRouter(creator *capturingCreator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewCompositionService(repository.NewMemorySessionRepository(), creator, time.Hour, 10, nil, nil)
	h := NewCompositionHandler(svc)

	r := gin.New()
	r.POST("/compositions", h.Open)
	r.GET("/compositions/:id", h.Get)
	r.PUT("/compositions/:id/student", h.SetStudent)
	r.POST("/compositions/:id/drafts", h.AddDraft)
	r.PATCH("/compositions/:id/drafts/:draftId", h.EditField)
	r.DELETE("/compositions/:id/drafts/:draftId", h.RemoveDraft)
	r.POST("/compositions/:id/reset", h.Reset)
	r.POST("/compositions/:id/submit", h.Submit)
	r.DELETE("/compositions/:id", h.Close)
	return r
}

func serve(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func compositionView(t *testing.T, w *httptest.ResponseRecorder) dto.CompositionView {
	t.Helper()
	var view dto.CompositionView
	decodeData(t, w, &view)
	return view
}

func TestCompositionHandlerComposeAndSubmit(t *testing.T) {
	creator := &capturingCreator{}
	r := newCompositionRouter(creator)

	w := serve(r, http.MethodPost, "/compositions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	opened := compositionView(t, w)
	assert.Equal(t, "10", opened.GradeLevel)
	assert.False(t, opened.Ready)
	base := "/compositions/" + opened.ID

	w = serve(r, http.MethodPut, base+"/student", `{"name":"Ada","gradeLevel":"11"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, compositionView(t, w).Ready)

	w = serve(r, http.MethodPost, base+"/drafts", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var added dto.AddDraftResponse
	decodeData(t, w, &added)
	assert.False(t, added.Composition.Ready)

	draft := base + "/drafts/" + strconv.Itoa(added.DraftID)
	for field, value := range map[string]string{"name": "Relay", "date": "1700000000", "points": "6", "kind": "Sporting"} {
		w = serve(r, http.MethodPatch, draft, `{"field":"`+field+`","value":"`+value+`"}`)
		require.Equal(t, http.StatusOK, w.Code, field)
	}
	assert.True(t, compositionView(t, w).Ready)

	w = serve(r, http.MethodPost, base+"/submit", "")
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, creator.requests, 1)
	submitted := creator.requests[0]
	assert.Equal(t, "Ada", submitted.Name)
	assert.Equal(t, 11, submitted.GradeLevel)
	require.Len(t, submitted.ParticipationEvents, 1)
	assert.Equal(t, int64(1700000000), submitted.ParticipationEvents[0].Date)
	assert.Nil(t, submitted.ParticipationEvents[0].Notes)

	w = serve(r, http.MethodGet, base, "")
	after := compositionView(t, w)
	assert.Empty(t, after.StudentName)
	assert.Empty(t, after.Drafts)
}

func TestCompositionHandlerSubmitNotReady(t *testing.T) {
	creator := &capturingCreator{}
	r := newCompositionRouter(creator)
	opened := compositionView(t, serve(r, http.MethodPost, "/compositions", ""))

	w := serve(r, http.MethodPost, "/compositions/"+opened.ID+"/submit", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, creator.requests)
}

func TestCompositionHandlerDraftErrors(t *testing.T) {
	r := newCompositionRouter(&capturingCreator{})
	opened := compositionView(t, serve(r, http.MethodPost, "/compositions", ""))
	base := "/compositions/" + opened.ID

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPatch, base+"/drafts/42", `{"field":"name","value":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, base+"/drafts/42", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPatch, base+"/drafts/nope", `{"field":"name","value":"x"}`).Code)

	serve(r, http.MethodPost, base+"/drafts", "")
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPatch, base+"/drafts/1", `{"field":"colour","value":"x"}`).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodDelete, base+"/drafts/1", "").Code)
}

func TestCompositionHandlerClose(t *testing.T) {
	r := newCompositionRouter(&capturingCreator{})
	opened := compositionView(t, serve(r, http.MethodPost, "/compositions", ""))

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/compositions/"+opened.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/compositions/"+opened.ID, "").Code)
}
