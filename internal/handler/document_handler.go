package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vetscan/internal/domain"
	"vetscan/internal/export"
	"vetscan/internal/service"
)

// DocumentHandler handles report upload and management endpoints.
type DocumentHandler struct {
	docService service.DocumentService
	exporter   Exporter
}

// Exporter produces spreadsheet exports of a caller's documents.
type Exporter interface {
	ExportDocumentsXLSX(ctx context.Context, ownerID string, status *domain.DocumentStatus) ([]byte, error)
}

var _ Exporter = (*export.Service)(nil)

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docService service.DocumentService, exporter Exporter) *DocumentHandler {
	return &DocumentHandler{docService: docService, exporter: exporter}
}

// Upload handles POST /api/v1/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}

	doc, err := h.docService.Upload(c.Request.Context(), &service.UploadDocumentInput{
		OwnerID:     ownerID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, doc)
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	query := &service.ListDocumentsQuery{
		OwnerID: ownerID,
		Limit:   limit,
		Cursor:  c.Query("cursor"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		if !domain.ValidStatus(statusStr) {
			RespondError(c, http.StatusBadRequest, "INVALID_STATUS", "unknown document status")
			return
		}
		status := domain.DocumentStatus(statusStr)
		query.Status = &status
	}

	page, err := h.docService.List(c.Request.Context(), query)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, page.Documents, PageMeta{
		Limit:      query.Limit,
		NextCursor: page.NextCursor,
	})
}

// GetByID handles GET /api/v1/documents/:id
func (h *DocumentHandler) GetByID(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID format")
		return
	}

	doc, err := h.docService.GetByID(c.Request.Context(), ownerID, docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, doc)
}

// GetImages handles GET /api/v1/documents/:id/images
func (h *DocumentHandler) GetImages(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID format")
		return
	}

	images, err := h.docService.GetImages(c.Request.Context(), ownerID, docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"document_id": docID, "images": images, "count": len(images)})
}

// Delete handles DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID format")
		return
	}

	if err := h.docService.Delete(c.Request.Context(), ownerID, docID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"deleted": true, "document_id": docID})
}

// Export handles GET /api/v1/documents/export
func (h *DocumentHandler) Export(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	var status *domain.DocumentStatus
	if statusStr := c.Query("status"); statusStr != "" {
		if !domain.ValidStatus(statusStr) {
			RespondError(c, http.StatusBadRequest, "INVALID_STATUS", "unknown document status")
			return
		}
		s := domain.DocumentStatus(statusStr)
		status = &s
	}

	content, err := h.exporter.ExportDocumentsXLSX(c.Request.Context(), ownerID, status)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="documents.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}
