package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/litmer/backend/internal/middleware"
	"github.com/litmer/backend/internal/services"
	"github.com/litmer/backend/pkg/response"
	"gorm.io/gorm"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(db *gorm.DB, queue services.TaskQueue) *CommentHandler {
	return &CommentHandler{
		commentService: services.NewCommentService(db, queue),
	}
}

// Create adds a comment to an issue
// POST /api/issues/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	issueID, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}

	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	comment, err := h.commentService.Create(userID, issueID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, comment)
}

// List lists an issue's comments oldest-first
// GET /api/issues/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	issueID, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}

	userID := middleware.GetUserID(c)
	comments, err := h.commentService.List(userID, issueID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, comments)
}

// Update edits a comment
// PUT /api/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}

	var req services.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	comment, err := h.commentService.Update(userID, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, comment)
}

// Delete removes a comment
// DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.commentService.Delete(userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "comment deleted successfully"})
}
