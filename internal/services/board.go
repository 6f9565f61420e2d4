package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BoardService maintains the per-status insertion order of issues. Within
// one (project, status) group, positions form a contiguous 0..n-1 sequence.
// All sibling mutations for a group run inside a single transaction.
type BoardService struct {
	db *gorm.DB
}

func NewBoardService(db *gorm.DB) *BoardService {
	return &BoardService{db: db}
}

// Append computes the position for a new issue in the given group: the end
// of the sequence, i.e. the count of live issues already there. Runs on the
// caller's transaction so creation and position stay atomic.
func (s *BoardService) Append(tx *gorm.DB, projectID uint, status string) (int, error) {
	var count int64
	err := tx.Model(&models.Issue{}).
		Where("project_id = ? AND status = ?", projectID, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count status group: %w", err)
	}
	return int(count), nil
}

// Move is the drag-and-drop primitive. The caller-supplied status and
// position are applied directly: the client computed the insertion slot and
// is trusted not to exceed the destination sequence. When the status
// changed, the gap left in the source group is closed by shifting every
// sibling past the old position down by one. The destination group is not
// re-compacted here. Runs on the caller's transaction so the reposition
// and whatever the caller records alongside it commit or roll back as one.
func (s *BoardService) Move(tx *gorm.DB, issueID uint, newStatus string, newPosition int) (*models.Issue, error) {
	var issue models.Issue
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&issue, issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("issue not found")
		}
		return nil, fmt.Errorf("load issue: %w", err)
	}

	oldStatus := issue.Status
	oldPosition := issue.Position

	updates := map[string]interface{}{
		"status":     newStatus,
		"position":   newPosition,
		"updated_at": time.Now().UTC(),
	}
	if err := tx.Model(&issue).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("move issue: %w", err)
	}

	if oldStatus != newStatus {
		err := tx.Model(&models.Issue{}).
			Where("project_id = ? AND status = ? AND position > ?", issue.ProjectID, oldStatus, oldPosition).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
		if err != nil {
			return nil, fmt.Errorf("close source gap: %w", err)
		}
	}

	return &issue, nil
}

// Delete soft-deletes an issue and compacts its former siblings so the
// group keeps a dense 0..n-1 sequence.
func (s *BoardService) Delete(issueID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var issue models.Issue
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&issue, issueID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("issue not found")
			}
			return fmt.Errorf("load issue: %w", err)
		}

		if err := tx.Delete(&issue).Error; err != nil {
			return fmt.Errorf("delete issue: %w", err)
		}

		err := tx.Model(&models.Issue{}).
			Where("project_id = ? AND status = ? AND position > ?", issue.ProjectID, issue.Status, issue.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
		if err != nil {
			return fmt.Errorf("compact status group: %w", err)
		}

		return nil
	})
}
