package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jfries/batchlens/internal/domain"
	"github.com/jfries/batchlens/internal/repository"
)

// PromptHandler handles prompt CRUD endpoints.
type PromptHandler struct {
	prompts *repository.PromptRepository
}

func NewPromptHandler(prompts *repository.PromptRepository) *PromptHandler {
	return &PromptHandler{prompts: prompts}
}

type promptRequest struct {
	Text        string `json:"text" binding:"required"`
	Description string `json:"description"`
}

// CreatePrompt handles POST /api/v1/prompts.
func (h *PromptHandler) CreatePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	prompt := &domain.Prompt{
		ID:          uuid.New().String(),
		Text:        req.Text,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := h.prompts.Create(c.Request.Context(), prompt); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prompt)
}

// ListPrompts handles GET /api/v1/prompts.
func (h *PromptHandler) ListPrompts(c *gin.Context) {
	prompts, err := h.prompts.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompts": prompts, "total": len(prompts)})
}

// GetPrompt handles GET /api/v1/prompts/:id.
func (h *PromptHandler) GetPrompt(c *gin.Context) {
	prompt, err := h.prompts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

// UpdatePrompt handles PUT /api/v1/prompts/:id.
func (h *PromptHandler) UpdatePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	prompt, err := h.prompts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	prompt.Text = req.Text
	prompt.Description = req.Description
	prompt.UpdatedAt = time.Now()
	if err := h.prompts.Update(c.Request.Context(), prompt); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

// DeactivatePrompt handles DELETE /api/v1/prompts/:id. Prompts are kept
// for response history and only removed from future matrices.
func (h *PromptHandler) DeactivatePrompt(c *gin.Context) {
	if err := h.prompts.SetActive(c.Request.Context(), c.Param("id"), false); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}
