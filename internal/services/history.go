package services

import (
	"fmt"
	"time"

	"github.com/litmer/backend/internal/models"
	"gorm.io/gorm"
)

// Fields recorded in issue history. Description changes are deliberately
// absent: they invalidate the AI cache instead.
const (
	FieldTitle    = "title"
	FieldPriority = "priority"
	FieldAssignee = "assignee"
	FieldDueDate  = "due_date"
	FieldStatus   = "status"
)

// FieldChange is one (field, old, new) pair. Callers pass only actual
// differences; a no-op write must never reach Record.
type FieldChange struct {
	Field string
	Old   *string
	New   *string
}

// HistoryService writes and reads the append-only issue audit trail.
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Record persists one history entry per change on the caller's transaction,
// so a rolled-back mutation leaves no trail.
func (s *HistoryService) Record(tx *gorm.DB, issueID, actorID uint, changes []FieldChange) error {
	for _, ch := range changes {
		entry := models.IssueHistory{
			IssueID:  issueID,
			UserID:   actorID,
			Field:    ch.Field,
			OldValue: ch.Old,
			NewValue: ch.New,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("record history: %w", err)
		}
	}
	return nil
}

// HistoryEntry is a history row joined with the acting user's current
// display identity. The join happens at read time, so actor renames are
// reflected retroactively.
type HistoryEntry struct {
	ID        uint              `json:"id"`
	Field     string            `json:"field"`
	OldValue  *string           `json:"old_value"`
	NewValue  *string           `json:"new_value"`
	CreatedAt time.Time         `json:"created_at"`
	User      models.UserBrief  `json:"user"`
}

// ListForIssue returns the issue's history newest-first.
func (s *HistoryService) ListForIssue(issueID uint) ([]HistoryEntry, error) {
	type row struct {
		models.IssueHistory
		UserName         string
		UserEmail        string
		UserProfileImage string
	}

	var rows []row
	err := s.db.Model(&models.IssueHistory{}).
		Select("issue_histories.*, users.name AS user_name, users.email AS user_email, users.profile_image AS user_profile_image").
		Joins("JOIN users ON users.id = issue_histories.user_id").
		Where("issue_histories.issue_id = ?", issueID).
		Order("issue_histories.created_at DESC, issue_histories.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, HistoryEntry{
			ID:        r.ID,
			Field:     r.Field,
			OldValue:  r.OldValue,
			NewValue:  r.NewValue,
			CreatedAt: r.CreatedAt,
			User: models.UserBrief{
				ID:           r.UserID,
				Name:         r.UserName,
				Email:        r.UserEmail,
				ProfileImage: r.UserProfileImage,
			},
		})
	}
	return entries, nil
}
