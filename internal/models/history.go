package models

import "time"

// IssueHistory is append-only: rows are never updated or deleted. One row
// per actually-changed field per mutation.
type IssueHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IssueID   uint      `gorm:"not null;index" json:"issue_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Field     string    `gorm:"size:50;not null" json:"field"`
	OldValue  *string   `gorm:"size:500" json:"old_value"`
	NewValue  *string   `gorm:"size:500" json:"new_value"`
	CreatedAt time.Time `json:"created_at"`
}

func (IssueHistory) TableName() string { return "issue_histories" }

// Team activity actions.
const (
	ActivityMemberJoined    = "MEMBER_JOINED"
	ActivityMemberLeft      = "MEMBER_LEFT"
	ActivityMemberKicked    = "MEMBER_KICKED"
	ActivityRoleChanged     = "ROLE_CHANGED"
	ActivityTeamUpdated     = "TEAM_UPDATED"
	ActivityProjectCreated  = "PROJECT_CREATED"
	ActivityProjectArchived = "PROJECT_ARCHIVED"
	ActivityProjectRestored = "PROJECT_RESTORED"
	ActivityProjectDeleted  = "PROJECT_DELETED"
)

// TeamActivityLog records team-level administrative events.
type TeamActivityLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TeamID     uint      `gorm:"not null;index" json:"team_id"`
	UserID     uint      `gorm:"not null" json:"user_id"`
	Action     string    `gorm:"size:50;not null" json:"action"`
	TargetType string    `gorm:"size:50" json:"target_type"` // USER, PROJECT, TEAM
	TargetID   *uint     `json:"target_id"`
	TargetName string    `gorm:"size:200" json:"target_name"`
	Details    string    `gorm:"type:text" json:"details"` // JSON payload with extra context
	CreatedAt  time.Time `json:"created_at"`
}

func (TeamActivityLog) TableName() string { return "team_activity_logs" }
