package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jfries/batchlens/internal/repository"
	"github.com/jfries/batchlens/internal/service"
)

// FolderHandler handles folder registration and scanning endpoints.
type FolderHandler struct {
	library *service.LibraryService
	folders *repository.FolderRepository
}

// NewFolderHandler creates a new folder handler.
// Parameters:
//   - library: library service instance.
//   - folders: folder repository for listing and activation.
// Returns:
//   - *FolderHandler: initialized handler.
func NewFolderHandler(library *service.LibraryService, folders *repository.FolderRepository) *FolderHandler {
	return &FolderHandler{library: library, folders: folders}
}

type registerFolderRequest struct {
	Path string `json:"path" binding:"required"`
	Name string `json:"name"`
}

// RegisterFolder handles POST /api/v1/folders. It registers the directory
// and runs an initial scan; a partial scan still returns the folder with
// the scan error attached.
func (h *FolderHandler) RegisterFolder(c *gin.Context) {
	var req registerFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	folder, added, err := h.library.RegisterFolder(c.Request.Context(), req.Path, req.Name)
	if err != nil && folder == nil {
		writeError(c, err)
		return
	}

	resp := gin.H{
		"folder":          folder,
		"documents_added": added,
	}
	if err != nil {
		resp["scan_error"] = err.Error()
	}
	c.JSON(http.StatusCreated, resp)
}

// ListFolders handles GET /api/v1/folders.
func (h *FolderHandler) ListFolders(c *gin.Context) {
	folders, err := h.folders.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"folders": folders,
		"total":   len(folders),
	})
}

// Rescan handles POST /api/v1/folders/:id/rescan.
func (h *FolderHandler) Rescan(c *gin.Context) {
	added, err := h.library.Rescan(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp := gin.H{"documents_added": added, "error": err.Error()}
		c.JSON(statusFor(err), resp)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents_added": added})
}

// Deactivate handles DELETE /api/v1/folders/:id. Folders are never hard
// deleted; deactivation removes them from future batch configuration.
func (h *FolderHandler) Deactivate(c *gin.Context) {
	if err := h.folders.SetActive(c.Request.Context(), c.Param("id"), false); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}
