package models

import "time"

// Notification types.
const (
	NotifyIssueAssigned = "ISSUE_ASSIGNED"
	NotifyCommentAdded  = "COMMENT_ADDED"
)

type Notification struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Type           string    `gorm:"size:50;not null" json:"type"`
	Title          string    `gorm:"size:200;not null" json:"title"`
	Message        string    `gorm:"type:text;not null" json:"message"`
	RelatedIssueID *uint     `json:"related_issue_id"`
	RelatedTeamID  *uint     `json:"related_team_id"`
	IsRead         bool      `gorm:"default:false" json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
