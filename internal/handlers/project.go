package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/litmer/backend/internal/middleware"
	"github.com/litmer/backend/internal/services"
	"github.com/litmer/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db),
	}
}

// Create creates a project in a team
// POST /api/teams/:id/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	teamID, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	project, err := h.projectService.Create(userID, teamID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, project)
}

// ListForTeam lists a team's projects
// GET /api/teams/:id/projects
func (h *ProjectHandler) ListForTeam(c *gin.Context) {
	teamID, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	userID := middleware.GetUserID(c)
	projects, err := h.projectService.ListForTeam(userID, teamID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// GetByID returns a project by ID
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	userID := middleware.GetUserID(c)
	project, err := h.projectService.Get(userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Update updates a project
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	project, err := h.projectService.Update(userID, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Archive marks a project as archived
// POST /api/projects/:id/archive
func (h *ProjectHandler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

// Restore clears the archived mark
// POST /api/projects/:id/restore
func (h *ProjectHandler) Restore(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *ProjectHandler) setArchived(c *gin.Context, archived bool) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	userID := middleware.GetUserID(c)
	project, err := h.projectService.SetArchived(userID, id, archived)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Delete deletes a project
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.projectService.Delete(userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "project deleted successfully"})
}

// Favorite marks the project for the current user
// POST /api/projects/:id/favorite
func (h *ProjectHandler) Favorite(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.projectService.Favorite(userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "project favorited"})
}

// Unfavorite clears the mark
// DELETE /api/projects/:id/favorite
func (h *ProjectHandler) Unfavorite(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.projectService.Unfavorite(userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "project unfavorited"})
}

// CreateLabel adds a label to the project vocabulary
// POST /api/projects/:id/labels
func (h *ProjectHandler) CreateLabel(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.CreateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	label, err := h.projectService.CreateLabel(userID, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, label)
}

// Labels lists the project's labels
// GET /api/projects/:id/labels
func (h *ProjectHandler) Labels(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	userID := middleware.GetUserID(c)
	labels, err := h.projectService.Labels(userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, labels)
}

// DeleteLabel removes a label
// DELETE /api/projects/:id/labels/:labelId
func (h *ProjectHandler) DeleteLabel(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}
	labelID, err := parseID(c, "labelId")
	if err != nil {
		response.BadRequest(c, "invalid label id")
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.projectService.DeleteLabel(userID, id, labelID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "label deleted successfully"})
}
