package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chapter-participation-api/internal/dto"
	"github.com/noah-isme/chapter-participation-api/internal/service"
)

type rosterTransferMock struct {
	received string
}

func (m *rosterTransferMock) Import(_ context.Context, r io.Reader) (*dto.ImportResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.received = string(body)
	return &dto.ImportResult{Imported: 1}, nil
}

func (m *rosterTransferMock) ExportCSV(context.Context) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "chapter-roster-export.csv", ContentType: "text/csv", Body: []byte("Student Name,Grade Level\n")}, nil
}

func (m *rosterTransferMock) ExportPDF(context.Context) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "chapter-roster-export.pdf", ContentType: "application/pdf", Body: []byte("%PDF-1.3")}, nil
}

func TestRosterHandlerImportRawBody(t *testing.T) {
	mock := &rosterTransferMock{}
	handler := NewRosterHandler(mock)
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/roster/import", bytes.NewBufferString("name,grade\nAda,10\n"))
	c.Request.Header.Set("Content-Type", "text/csv")

	handler.Import(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "name,grade\nAda,10\n", mock.received)
}

func TestRosterHandlerImportMultipart(t *testing.T) {
	mock := &rosterTransferMock{}
	handler := NewRosterHandler(mock)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "roster.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("name,grade\nGrace,12\n"))
	require.NoError(t, writer.Close())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/roster/import", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	handler.Import(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "name,grade\nGrace,12\n", mock.received)
}

func TestRosterHandlerImportMultipartWithoutFile(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("other", "x"))
	require.NoError(t, writer.Close())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/roster/import", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	NewRosterHandler(&rosterTransferMock{}).Import(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRosterHandlerExportCSV(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/roster/export.csv", nil)

	NewRosterHandler(&rosterTransferMock{}).ExportCSV(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="chapter-roster-export.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "Student Name,Grade Level\n", w.Body.String())
}
