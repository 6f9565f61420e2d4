package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/response"
	"gorm.io/gorm"
)

const inviteTTL = 7 * 24 * time.Hour

type TeamService struct {
	db       *gorm.DB
	access   *AccessService
	activity *ActivityService
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{
		db:       db,
		access:   NewAccessService(db),
		activity: NewActivityService(db),
	}
}

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

type UpdateTeamRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=ADMIN MEMBER"`
}

// TeamWithRole is a team row annotated with the requesting user's
// membership and aggregate counts.
type TeamWithRole struct {
	models.Team
	MyRole       string `json:"my_role"`
	MemberCount  int64  `json:"member_count"`
	ProjectCount int64  `json:"project_count"`
}

type MemberInfo struct {
	ID           uint      `json:"id"`
	TeamID       uint      `json:"team_id"`
	UserID       uint      `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profile_image"`
	Role         string    `json:"role"`
	JoinedAt     time.Time `json:"joined_at"`
}

// Create makes a team with the creator as its single OWNER member, in one
// transaction so a team can never exist without an owner membership.
func (s *TeamService) Create(actorID uint, req *CreateTeamRequest) (*models.Team, error) {
	team := models.Team{Name: req.Name, OwnerID: actorID}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return fmt.Errorf("create team: %w", err)
		}
		member := models.TeamMember{TeamID: team.ID, UserID: actorID, Role: models.RoleOwner}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &team, nil
}

// List returns the live teams the user belongs to.
func (s *TeamService) List(actorID uint) ([]TeamWithRole, error) {
	type row struct {
		models.Team
		Role string
	}

	var rows []row
	err := s.db.Model(&models.Team{}).
		Select("teams.*, team_members.role AS role").
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", actorID).
		Order("teams.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	result := make([]TeamWithRole, 0, len(rows))
	for _, r := range rows {
		if r.DeletedAt.Valid {
			continue
		}
		var memberCount, projectCount int64
		s.db.Model(&models.TeamMember{}).Where("team_id = ?", r.ID).Count(&memberCount)
		s.db.Model(&models.Project{}).Where("team_id = ?", r.ID).Count(&projectCount)

		result = append(result, TeamWithRole{
			Team:         r.Team,
			MyRole:       r.Role,
			MemberCount:  memberCount,
			ProjectCount: projectCount,
		})
	}
	return result, nil
}

func (s *TeamService) Get(actorID, teamID uint) (*models.Team, error) {
	res, err := s.access.Authorize(actorID, TeamRef(teamID), ActionView)
	if err != nil {
		return nil, err
	}
	return res.Team, nil
}

func (s *TeamService) Update(actorID, teamID uint, req *UpdateTeamRequest) (*models.Team, error) {
	res, err := s.access.Authorize(actorID, TeamRef(teamID), ActionUpdateTeam)
	if err != nil {
		return nil, err
	}

	team := res.Team
	oldName := team.Name
	if err := s.db.Model(team).Update("name", req.Name).Error; err != nil {
		return nil, fmt.Errorf("update team: %w", err)
	}

	if oldName != req.Name {
		s.activity.LogTeamUpdated(teamID, actorID, oldName, req.Name)
	}

	return team, nil
}

// Delete soft-deletes the team and its projects. Deeper descendants stay
// untouched: a deleted ancestor already hides them from every read path.
func (s *TeamService) Delete(actorID, teamID uint) error {
	if _, err := s.access.Authorize(actorID, TeamRef(teamID), ActionDeleteTeam); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Team{}, teamID).Error; err != nil {
			return fmt.Errorf("delete team: %w", err)
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&models.Project{}).Error; err != nil {
			return fmt.Errorf("delete team projects: %w", err)
		}
		return nil
	})
}

func (s *TeamService) Members(actorID, teamID uint) ([]MemberInfo, error) {
	if _, err := s.access.Authorize(actorID, TeamRef(teamID), ActionView); err != nil {
		return nil, err
	}

	type row struct {
		models.TeamMember
		Name         string
		Email        string
		ProfileImage string
	}

	var rows []row
	err := s.db.Model(&models.TeamMember{}).
		Select("team_members.*, users.name, users.email, users.profile_image").
		Joins("JOIN users ON users.id = team_members.user_id").
		Where("team_members.team_id = ? AND users.deleted_at IS NULL", teamID).
		Order("team_members.joined_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]MemberInfo, 0, len(rows))
	for _, r := range rows {
		members = append(members, MemberInfo{
			ID:           r.ID,
			TeamID:       r.TeamID,
			UserID:       r.UserID,
			Name:         r.Name,
			Email:        r.Email,
			ProfileImage: r.ProfileImage,
			Role:         r.Role,
			JoinedAt:     r.JoinedAt,
		})
	}
	return members, nil
}

// Invite creates (or refreshes) a pending invite for an email address and
// returns its token. Delivery is out of band; the token is handed to the
// caller for the UI to share.
func (s *TeamService) Invite(actorID, teamID uint, req *InviteRequest) (*models.TeamInvite, error) {
	if _, err := s.access.Authorize(actorID, TeamRef(teamID), ActionInviteMember); err != nil {
		return nil, err
	}

	var existingUser models.User
	if err := s.db.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		var count int64
		s.db.Model(&models.TeamMember{}).
			Where("team_id = ? AND user_id = ?", teamID, existingUser.ID).
			Count(&count)
		if count > 0 {
			return nil, response.NewBadRequest("user is already a team member")
		}
	}

	var invite models.TeamInvite
	err := s.db.Where("team_id = ? AND email = ? AND status = ?", teamID, req.Email, models.InvitePending).
		First(&invite).Error
	if err == nil {
		invite.ExpiresAt = time.Now().UTC().Add(inviteTTL)
		if err := s.db.Save(&invite).Error; err != nil {
			return nil, fmt.Errorf("refresh invite: %w", err)
		}
		return &invite, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invite lookup: %w", err)
	}

	invite = models.TeamInvite{
		TeamID:    teamID,
		Email:     req.Email,
		Token:     uuid.NewString(),
		InvitedBy: actorID,
		ExpiresAt: time.Now().UTC().Add(inviteTTL),
		Status:    models.InvitePending,
	}
	if err := s.db.Create(&invite).Error; err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}
	return &invite, nil
}

// AcceptInvite redeems a pending invite token for the acting user.
func (s *TeamService) AcceptInvite(actorID uint, token string) (*models.TeamMember, error) {
	var invite models.TeamInvite
	if err := s.db.Where("token = ?", token).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("invite not found")
		}
		return nil, fmt.Errorf("invite lookup: %w", err)
	}

	if invite.Status != models.InvitePending {
		return nil, response.NewBadRequest("invite is no longer valid")
	}
	if time.Now().UTC().After(invite.ExpiresAt) {
		s.db.Model(&invite).Update("status", models.InviteExpired)
		return nil, response.NewBadRequest("invite has expired")
	}

	var user models.User
	if err := s.db.First(&user, actorID).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	var count int64
	s.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", invite.TeamID, actorID).
		Count(&count)
	if count > 0 {
		return nil, response.NewBadRequest("user is already a team member")
	}

	member := models.TeamMember{TeamID: invite.TeamID, UserID: actorID, Role: models.RoleMember}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("create membership: %w", err)
		}
		if err := tx.Model(&invite).Update("status", models.InviteAccepted).Error; err != nil {
			return fmt.Errorf("mark invite accepted: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.LogMemberJoined(invite.TeamID, actorID, actorID, user.Name)
	return &member, nil
}

// ChangeRole sets a member's role. OWNER only; self-targeting is rejected
// by the resolver, and OWNER role cannot be granted (no ownership transfer).
func (s *TeamService) ChangeRole(actorID, teamID, targetUserID uint, req *ChangeRoleRequest) error {
	target, err := s.access.AuthorizeMemberChange(actorID, teamID, targetUserID, false)
	if err != nil {
		return err
	}

	var targetUser models.User
	if err := s.db.First(&targetUser, targetUserID).Error; err != nil {
		return fmt.Errorf("load target user: %w", err)
	}

	oldRole := target.Role
	if err := s.db.Model(target).Update("role", req.Role).Error; err != nil {
		return fmt.Errorf("change role: %w", err)
	}

	s.activity.LogRoleChanged(teamID, actorID, targetUserID, targetUser.Name, oldRole, req.Role)
	return nil
}

// Kick removes another member from the team.
func (s *TeamService) Kick(actorID, teamID, targetUserID uint) error {
	target, err := s.access.AuthorizeMemberChange(actorID, teamID, targetUserID, true)
	if err != nil {
		return err
	}

	var targetUser models.User
	if err := s.db.First(&targetUser, targetUserID).Error; err != nil {
		return fmt.Errorf("load target user: %w", err)
	}

	if err := s.db.Delete(target).Error; err != nil {
		return fmt.Errorf("kick member: %w", err)
	}

	s.activity.LogMemberRemoved(teamID, actorID, targetUserID, targetUser.Name, true)
	return nil
}

// Leave removes the acting user's own membership.
func (s *TeamService) Leave(actorID, teamID uint) error {
	member, err := s.access.AuthorizeLeave(actorID, teamID)
	if err != nil {
		return err
	}

	var user models.User
	if err := s.db.First(&user, actorID).Error; err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if err := s.db.Delete(member).Error; err != nil {
		return fmt.Errorf("leave team: %w", err)
	}

	s.activity.LogMemberRemoved(teamID, actorID, actorID, user.Name, false)
	return nil
}

// Activity returns the team's activity feed, newest-first.
func (s *TeamService) Activity(actorID, teamID uint, limit, offset int) ([]ActivityEntry, error) {
	if _, err := s.access.Authorize(actorID, TeamRef(teamID), ActionView); err != nil {
		return nil, err
	}
	return s.activity.ListForTeam(teamID, limit, offset)
}
