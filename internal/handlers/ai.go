package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/litmer/backend/internal/config"
	"github.com/litmer/backend/internal/middleware"
	"github.com/litmer/backend/internal/services"
	"github.com/litmer/backend/pkg/response"
	"gorm.io/gorm"
)

type AIHandler struct {
	aiService *services.AIService
}

func NewAIHandler(db *gorm.DB, cfg *config.AIConfig) *AIHandler {
	return &AIHandler{
		aiService: services.NewAIService(db, cfg),
	}
}

// Service exposes the underlying AI service for scheduler wiring.
func (h *AIHandler) Service() *services.AIService {
	return h.aiService
}

// Summarize returns a cached or fresh summary of the issue description
// POST /api/issues/:id/ai/summary
func (h *AIHandler) Summarize(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}

	userID := middleware.GetUserID(c)
	summary, err := h.aiService.Summarize(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"summary": summary})
}

// Suggest returns a cached or fresh solution approach for the issue
// POST /api/issues/:id/ai/suggestion
func (h *AIHandler) Suggest(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}

	userID := middleware.GetUserID(c)
	suggestion, err := h.aiService.Suggest(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"suggestion": suggestion})
}

// SummarizeThread summarizes the issue's comment discussion
// POST /api/issues/:id/ai/thread-summary
func (h *AIHandler) SummarizeThread(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}

	userID := middleware.GetUserID(c)
	summary, err := h.aiService.SummarizeThread(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"summary": summary})
}

type recommendLabelsRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=5000"`
}

// RecommendLabels suggests existing project labels for a draft issue
// POST /api/projects/:id/ai/labels
func (h *AIHandler) RecommendLabels(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req recommendLabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	labels, err := h.aiService.RecommendLabels(c.Request.Context(), userID, id, req.Title, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"labels": labels})
}

type findDuplicatesRequest struct {
	Title string `json:"title" binding:"required,max=200"`
}

// FindDuplicates flags existing issues similar to a draft title
// POST /api/projects/:id/ai/duplicates
func (h *AIHandler) FindDuplicates(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req findDuplicatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	matches, err := h.aiService.FindDuplicates(c.Request.Context(), userID, id, req.Title)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"duplicates": matches})
}

// Quota reports the remaining AI call budget for the current minute
// GET /api/ai/quota
func (h *AIHandler) Quota(c *gin.Context) {
	userID := middleware.GetUserID(c)
	remaining, err := h.aiService.Windows().Remaining(userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"remaining": remaining})
}
