package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/litmer/backend/internal/middleware"
	"github.com/litmer/backend/internal/services"
	"github.com/litmer/backend/pkg/response"
	"gorm.io/gorm"
)

type TeamHandler struct {
	teamService *services.TeamService
}

func NewTeamHandler(db *gorm.DB) *TeamHandler {
	return &TeamHandler{
		teamService: services.NewTeamService(db),
	}
}

// Create creates a new team
// POST /api/teams
func (h *TeamHandler) Create(c *gin.Context) {
	var req services.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	team, err := h.teamService.Create(userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, team)
}

// List returns the teams the current user belongs to
// GET /api/teams
func (h *TeamHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	teams, err := h.teamService.List(userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, teams)
}

// GetByID returns a team by ID
// GET /api/teams/:id
func (h *TeamHandler) GetByID(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	userID := middleware.GetUserID(c)
	team, err := h.teamService.Get(userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, team)
}

// Update renames a team
// PUT /api/teams/:id
func (h *TeamHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	var req services.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	team, err := h.teamService.Update(userID, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, team)
}

// Delete deletes a team
// DELETE /api/teams/:id
func (h *TeamHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.teamService.Delete(userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "team deleted successfully"})
}

// Members lists team members
// GET /api/teams/:id/members
func (h *TeamHandler) Members(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	userID := middleware.GetUserID(c)
	members, err := h.teamService.Members(userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, members)
}

// Invite creates an invite for an email address
// POST /api/teams/:id/invites
func (h *TeamHandler) Invite(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	var req services.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	invite, err := h.teamService.Invite(userID, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, invite)
}

// AcceptInvite redeems an invite token for the current user
// POST /api/invites/:token/accept
func (h *TeamHandler) AcceptInvite(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.BadRequest(c, "invite token required")
		return
	}

	userID := middleware.GetUserID(c)
	member, err := h.teamService.AcceptInvite(userID, token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, member)
}

// ChangeRole changes a member's role
// PUT /api/teams/:id/members/:userId/role
func (h *TeamHandler) ChangeRole(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}
	targetID, err := parseID(c, "userId")
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req services.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.teamService.ChangeRole(userID, id, targetID, &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "role updated successfully"})
}

// Kick removes a member from the team
// DELETE /api/teams/:id/members/:userId
func (h *TeamHandler) Kick(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}
	targetID, err := parseID(c, "userId")
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.teamService.Kick(userID, id, targetID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "member removed successfully"})
}

// Leave removes the current user from the team
// POST /api/teams/:id/leave
func (h *TeamHandler) Leave(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.teamService.Leave(userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "left team successfully"})
}

// Activity returns the team activity feed
// GET /api/teams/:id/activity
func (h *TeamHandler) Activity(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	userID := middleware.GetUserID(c)
	entries, err := h.teamService.Activity(userID, id, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, entries)
}

// parseID parses a uint path parameter.
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(id), err
}
