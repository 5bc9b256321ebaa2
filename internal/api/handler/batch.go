package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jfries/batchlens/internal/service"
)

// BatchHandler handles batch lifecycle endpoints.
type BatchHandler struct {
	batches  *service.BatchService
	progress *service.ProgressService
}

// NewBatchHandler creates a new batch handler.
// Parameters:
//   - batches: batch lifecycle service.
//   - progress: progress aggregation service.
// Returns:
//   - *BatchHandler: initialized handler.
func NewBatchHandler(batches *service.BatchService, progress *service.ProgressService) *BatchHandler {
	return &BatchHandler{batches: batches, progress: progress}
}

type createBatchRequest struct {
	Name          string   `json:"name" binding:"required"`
	FolderIDs     []string `json:"folder_ids" binding:"required"`
	ConnectionIDs []string `json:"connection_ids"`
	PromptIDs     []string `json:"prompt_ids"`
}

// CreateBatch handles POST /api/v1/batches. Omitted connection or prompt
// selections default to all active ones at creation time; the snapshot is
// frozen into the batch configuration.
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	batch, err := h.batches.Create(c.Request.Context(), req.Name, req.FolderIDs, req.ConnectionIDs, req.PromptIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// ListBatches handles GET /api/v1/batches. Archived batches are hidden
// unless ?include_archived=true.
func (h *BatchHandler) ListBatches(c *gin.Context) {
	includeArchived := c.Query("include_archived") == "true"
	batches, err := h.batches.List(c.Request.Context(), includeArchived)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches, "total": len(batches)})
}

// GetBatch handles GET /api/v1/batches/:id, returning the batch alongside
// its current progress.
func (h *BatchHandler) GetBatch(c *gin.Context) {
	batch, err := h.batches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	progress, err := h.progress.Batch(c.Request.Context(), batch.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"batch":    batch,
		"progress": progress,
	})
}

// StageBatch handles POST /api/v1/batches/:id/stage. Staging runs in the
// background; the response carries the task ID to poll. A batch already
// staging answers 409.
func (h *BatchHandler) StageBatch(c *gin.Context) {
	taskID, err := h.batches.Stage(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"task_id": taskID,
		"status":  "staging",
	})
}

// ArchiveBatch handles POST /api/v1/batches/:id/archive.
func (h *BatchHandler) ArchiveBatch(c *gin.Context) {
	if err := h.batches.Archive(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "archived"})
}

// BatchProgress handles GET /api/v1/batches/:id/progress.
func (h *BatchHandler) BatchProgress(c *gin.Context) {
	progress, err := h.progress.Batch(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
