package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/logger"
	"gorm.io/gorm"
)

// ActivityService records team-level administrative events. Logging is
// best-effort: a failed write is reported but never fails the operation
// that triggered it.
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

func (s *ActivityService) log(entry *models.TeamActivityLog) {
	if err := s.db.Create(entry).Error; err != nil {
		logger.Warn().Err(err).Str("action", entry.Action).Msg("activity log write failed")
	}
}

func detailsJSON(kv map[string]string) string {
	if len(kv) == 0 {
		return ""
	}
	b, err := json.Marshal(kv)
	if err != nil {
		return ""
	}
	return string(b)
}

func (s *ActivityService) LogMemberJoined(teamID, actorID, targetUserID uint, targetName string) {
	s.log(&models.TeamActivityLog{
		TeamID:     teamID,
		UserID:     actorID,
		Action:     models.ActivityMemberJoined,
		TargetType: "USER",
		TargetID:   &targetUserID,
		TargetName: targetName,
	})
}

func (s *ActivityService) LogMemberRemoved(teamID, actorID, targetUserID uint, targetName string, kicked bool) {
	action := models.ActivityMemberLeft
	if kicked {
		action = models.ActivityMemberKicked
	}
	s.log(&models.TeamActivityLog{
		TeamID:     teamID,
		UserID:     actorID,
		Action:     action,
		TargetType: "USER",
		TargetID:   &targetUserID,
		TargetName: targetName,
	})
}

func (s *ActivityService) LogRoleChanged(teamID, actorID, targetUserID uint, targetName, oldRole, newRole string) {
	s.log(&models.TeamActivityLog{
		TeamID:     teamID,
		UserID:     actorID,
		Action:     models.ActivityRoleChanged,
		TargetType: "USER",
		TargetID:   &targetUserID,
		TargetName: targetName,
		Details:    detailsJSON(map[string]string{"old_role": oldRole, "new_role": newRole}),
	})
}

func (s *ActivityService) LogTeamUpdated(teamID, actorID uint, oldName, newName string) {
	s.log(&models.TeamActivityLog{
		TeamID:     teamID,
		UserID:     actorID,
		Action:     models.ActivityTeamUpdated,
		TargetType: "TEAM",
		TargetID:   &teamID,
		TargetName: newName,
		Details:    detailsJSON(map[string]string{"old_name": oldName, "new_name": newName}),
	})
}

func (s *ActivityService) LogProjectCreated(teamID, actorID, projectID uint, name string) {
	s.log(&models.TeamActivityLog{
		TeamID:     teamID,
		UserID:     actorID,
		Action:     models.ActivityProjectCreated,
		TargetType: "PROJECT",
		TargetID:   &projectID,
		TargetName: name,
	})
}

func (s *ActivityService) LogProjectArchived(teamID, actorID, projectID uint, name string, archived bool) {
	action := models.ActivityProjectArchived
	if !archived {
		action = models.ActivityProjectRestored
	}
	s.log(&models.TeamActivityLog{
		TeamID:     teamID,
		UserID:     actorID,
		Action:     action,
		TargetType: "PROJECT",
		TargetID:   &projectID,
		TargetName: name,
	})
}

func (s *ActivityService) LogProjectDeleted(teamID, actorID, projectID uint, name string) {
	s.log(&models.TeamActivityLog{
		TeamID:     teamID,
		UserID:     actorID,
		Action:     models.ActivityProjectDeleted,
		TargetType: "PROJECT",
		TargetID:   &projectID,
		TargetName: name,
	})
}

// ActivityEntry is an activity row joined with the actor's current name.
type ActivityEntry struct {
	ID         uint      `json:"id"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   *uint     `json:"target_id"`
	TargetName string    `json:"target_name"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UserID     uint      `json:"user_id"`
	UserName   string    `json:"user_name"`
}

// ListForTeam returns the team's activity feed, newest-first.
func (s *ActivityService) ListForTeam(teamID uint, limit, offset int) ([]ActivityEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	type row struct {
		models.TeamActivityLog
		UserName string
	}

	var rows []row
	err := s.db.Model(&models.TeamActivityLog{}).
		Select("team_activity_logs.*, users.name AS user_name").
		Joins("JOIN users ON users.id = team_activity_logs.user_id").
		Where("team_activity_logs.team_id = ?", teamID).
		Order("team_activity_logs.created_at DESC, team_activity_logs.id DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	entries := make([]ActivityEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, ActivityEntry{
			ID:         r.ID,
			Action:     r.Action,
			TargetType: r.TargetType,
			TargetID:   r.TargetID,
			TargetName: r.TargetName,
			Details:    r.Details,
			CreatedAt:  r.CreatedAt,
			UserID:     r.UserID,
			UserName:   r.UserName,
		})
	}
	return entries, nil
}
