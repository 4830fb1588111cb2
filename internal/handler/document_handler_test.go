package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vetscan/internal/domain"
	"vetscan/internal/handler"
	"vetscan/internal/middleware"
	"vetscan/internal/service"
	"vetscan/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) ExportDocumentsXLSX(ctx context.Context, ownerID string, status *domain.DocumentStatus) ([]byte, error) {
	args := m.Called(ctx, ownerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func setAuthContext(c *gin.Context, ownerID string) {
	c.Set(middleware.ContextKeyUserID, ownerID)
	c.Set(middleware.ContextKeyAuthType, "api_key")
	c.Set(middleware.ContextKeyScopes, []string{domain.ScopeDocumentsRead, domain.ScopeDocumentsWrite})
}

func multipartPDFBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestDocumentHandler_Upload_Accepted(t *testing.T) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc, new(mockExporter))

	docID := uuid.New()
	mockSvc.On("Upload", mock.Anything, mock.AnythingOfType("*service.UploadDocumentInput")).
		Return(&domain.Document{ID: docID, OwnerID: "clinic-1", Status: domain.StatusUploading}, nil)

	body, contentType := multipartPDFBody(t, "report.pdf", []byte("%PDF-1.4 test content"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents", body)
	c.Request.Header.Set("Content-Type", contentType)
	setAuthContext(c, "clinic-1")

	h.Upload(c)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Upload_MissingFile(t *testing.T) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc, new(mockExporter))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents", nil)
	setAuthContext(c, "clinic-1")

	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestDocumentHandler_Upload_QueueFull(t *testing.T) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc, new(mockExporter))

	mockSvc.On("Upload", mock.Anything, mock.AnythingOfType("*service.UploadDocumentInput")).
		Return(nil, domain.ErrQueueFull)

	body, contentType := multipartPDFBody(t, "report.pdf", []byte("%PDF-1.4 test content"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents", body)
	c.Request.Header.Set("Content-Type", contentType)
	setAuthContext(c, "clinic-1")

	h.Upload(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "QUEUE_FULL", resp.Error.Code)
}

func TestDocumentHandler_Upload_FileTooLarge(t *testing.T) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc, new(mockExporter))

	mockSvc.On("Upload", mock.Anything, mock.AnythingOfType("*service.UploadDocumentInput")).
		Return(nil, domain.ErrFileTooLarge)

	body, contentType := multipartPDFBody(t, "report.pdf", []byte("%PDF-1.4 test content"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents", body)
	c.Request.Header.Set("Content-Type", contentType)
	setAuthContext(c, "clinic-1")

	h.Upload(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestDocumentHandler_GetByID_NotFound(t *testing.T) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc, new(mockExporter))

	docID := uuid.New()
	mockSvc.On("GetByID", mock.Anything, "clinic-1", docID).
		Return(nil, domain.ErrDocumentNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents/"+docID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: docID.String()}}
	setAuthContext(c, "clinic-1")

	h.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DOCUMENT_NOT_FOUND", resp.Error.Code)
}

func TestDocumentHandler_GetByID_InvalidID(t *testing.T) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc, new(mockExporter))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	setAuthContext(c, "clinic-1")

	h.GetByID(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentHandler_List_WithStatusFilter(t *testing.T) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc, new(mockExporter))

	mockSvc.On("List", mock.Anything, mock.MatchedBy(func(q *service.ListDocumentsQuery) bool {
		return q.OwnerID == "clinic-1" &&
			q.Status != nil && *q.Status == domain.StatusCompleted &&
			q.Limit == 10 && q.Cursor == "abc"
	})).Return(&service.DocumentList{Documents: []domain.Document{}, NextCursor: "def"}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents?status=completed&limit=10&cursor=abc", nil)
	setAuthContext(c, "clinic-1")

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, "def", resp.Meta.NextCursor)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_List_InvalidStatus(t *testing.T) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc, new(mockExporter))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents?status=bogus", nil)
	setAuthContext(c, "clinic-1")

	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestDocumentHandler_GetImages(t *testing.T) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc, new(mockExporter))

	docID := uuid.New()
	images := []domain.ImageMetadata{{ID: uuid.New()}, {ID: uuid.New()}}
	mockSvc.On("GetImages", mock.Anything, "clinic-1", docID).Return(images, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents/"+docID.String()+"/images", nil)
	c.Params = gin.Params{{Key: "id", Value: docID.String()}}
	setAuthContext(c, "clinic-1")

	h.GetImages(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])
}

func TestDocumentHandler_Delete(t *testing.T) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc, new(mockExporter))

	docID := uuid.New()
	mockSvc.On("Delete", mock.Anything, "clinic-1", docID).Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/api/v1/documents/"+docID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: docID.String()}}
	setAuthContext(c, "clinic-1")

	h.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Export(t *testing.T) {
	mockSvc := new(mocks.MockDocumentService)
	exporter := new(mockExporter)
	h := handler.NewDocumentHandler(mockSvc, exporter)

	exporter.On("ExportDocumentsXLSX", mock.Anything, "clinic-1", (*domain.DocumentStatus)(nil)).
		Return([]byte("spreadsheet-bytes"), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents/export", nil)
	setAuthContext(c, "clinic-1")

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "documents.xlsx")
	assert.Equal(t, "spreadsheet-bytes", w.Body.String())
}

func TestDocumentHandler_MissingAuthContext(t *testing.T) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc, new(mockExporter))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents", nil)

	h.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
