package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/litmer/backend/internal/middleware"
	"github.com/litmer/backend/internal/services"
	"github.com/litmer/backend/pkg/response"
	"gorm.io/gorm"
)

type IssueHandler struct {
	issueService *services.IssueService
}

func NewIssueHandler(db *gorm.DB, queue services.TaskQueue) *IssueHandler {
	return &IssueHandler{
		issueService: services.NewIssueService(db, queue),
	}
}

// Create creates an issue in a project
// POST /api/projects/:id/issues
func (h *IssueHandler) Create(c *gin.Context) {
	projectID, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	issue, err := h.issueService.Create(userID, projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, issue)
}

// List lists a project's issues for board rendering
// GET /api/projects/:id/issues
func (h *IssueHandler) List(c *gin.Context) {
	projectID, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	filter := services.IssueFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	}
	if v := c.Query("assignee_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			assignee := uint(id)
			filter.AssigneeID = &assignee
		}
	}
	if v := c.Query("label_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			label := uint(id)
			filter.LabelID = &label
		}
	}

	userID := middleware.GetUserID(c)
	issues, err := h.issueService.List(userID, projectID, &filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, issues)
}

// GetByID returns an issue by ID
// GET /api/issues/:id
func (h *IssueHandler) GetByID(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}

	userID := middleware.GetUserID(c)
	issue, err := h.issueService.Get(userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, issue)
}

// Update applies a partial edit to an issue
// PATCH /api/issues/:id
func (h *IssueHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}

	var req services.UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	issue, err := h.issueService.Update(userID, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, issue)
}

// Move repositions an issue on the board
// POST /api/issues/:id/move
func (h *IssueHandler) Move(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}

	var req services.MoveIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	issue, err := h.issueService.Move(userID, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, issue)
}

// Delete deletes an issue
// DELETE /api/issues/:id
func (h *IssueHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.issueService.Delete(userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "issue deleted successfully"})
}

// History returns the issue's change history
// GET /api/issues/:id/history
func (h *IssueHandler) History(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}

	userID := middleware.GetUserID(c)
	entries, err := h.issueService.History(userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, entries)
}
