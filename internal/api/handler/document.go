package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jfries/batchlens/internal/repository"
	"github.com/jfries/batchlens/internal/service"
)

// DocumentHandler handles document listing and upload endpoints.
type DocumentHandler struct {
	documents *repository.DocumentRepository
	library   *service.LibraryService
}

func NewDocumentHandler(documents *repository.DocumentRepository, library *service.LibraryService) *DocumentHandler {
	return &DocumentHandler{documents: documents, library: library}
}

// ListDocuments handles GET /api/v1/documents.
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	docs, total, err := h.documents.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// GetDocument handles GET /api/v1/documents/:id.
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	doc, err := h.documents.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// UploadDocument handles POST /api/v1/documents. The multipart form
// carries the file plus a folder_id field naming the destination folder.
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	folderID := c.PostForm("folder_id")
	if folderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "folder_id is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required: " + err.Error()})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open upload: " + err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload: " + err.Error()})
		return
	}

	doc, err := h.library.UploadDocument(c.Request.Context(), folderID, fileHeader.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}
