package models

import (
	"time"

	"gorm.io/gorm"
)

// Issue priorities.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// DefaultStatus is the board column new issues are appended to. Status is an
// open string enum; boards may define arbitrary columns.
const DefaultStatus = "Backlog"

// Issue belongs to a project. Position is unique and dense within one
// (project, status) group. The ai_* columns cache generated text; both the
// value and its timestamp must be present for the cache to be valid, and all
// four are cleared together when the description changes.
type Issue struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	ProjectID            uint           `gorm:"not null;index" json:"project_id"`
	Title                string         `gorm:"size:200;not null" json:"title"`
	Description          string         `gorm:"type:text" json:"description"`
	Status               string         `gorm:"size:50;not null;default:Backlog" json:"status"`
	Priority             string         `gorm:"size:10;not null;default:MEDIUM" json:"priority"`
	AssigneeID           *uint          `gorm:"index" json:"assignee_id"`
	OwnerID              uint           `gorm:"not null" json:"owner_id"`
	DueDate              *time.Time     `json:"due_date"`
	Position             int            `gorm:"not null;default:0" json:"position"`
	AISummary            *string        `gorm:"column:ai_summary;type:text" json:"ai_summary"`
	AISummaryCachedAt    *time.Time     `gorm:"column:ai_summary_cached_at" json:"ai_summary_cached_at"`
	AISuggestion         *string        `gorm:"column:ai_suggestion;type:text" json:"ai_suggestion"`
	AISuggestionCachedAt *time.Time     `gorm:"column:ai_suggestion_cached_at" json:"ai_suggestion_cached_at"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Issue) TableName() string { return "issues" }

type IssueLabel struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	IssueID uint `gorm:"not null;uniqueIndex:idx_issue_label" json:"issue_id"`
	LabelID uint `gorm:"not null;uniqueIndex:idx_issue_label" json:"label_id"`
}

func (IssueLabel) TableName() string { return "issue_labels" }

// Comment belongs to an issue; content is bounded to 1000 characters and
// only the author may edit it.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	IssueID   uint           `gorm:"not null;index" json:"issue_id"`
	UserID    uint           `gorm:"not null" json:"user_id"`
	Content   string         `gorm:"size:1000;not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Comment) TableName() string { return "comments" }

// ValidPriority reports whether p is one of the three priority values.
func ValidPriority(p string) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}
