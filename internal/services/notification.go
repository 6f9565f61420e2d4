package services

import (
	"context"
	"fmt"

	"github.com/litmer/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationService persists and reads in-app notifications. Deliver is
// the task-queue processor; the rest serves the API.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Deliver writes one notification row. Wired as the queue processor.
func (s *NotificationService) Deliver(ctx context.Context, task *NotificationTask) error {
	n := models.Notification{
		UserID:         task.UserID,
		Type:           task.Type,
		Title:          task.Title,
		Message:        task.Message,
		RelatedIssueID: task.RelatedIssueID,
		RelatedTeamID:  task.RelatedTeamID,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	return nil
}

// List returns the user's notifications, newest-first.
func (s *NotificationService) List(userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := s.db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications as read. Marking a foreign
// or missing notification is a silent no-op.
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	err := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks all of the user's notifications as read.
func (s *NotificationService) MarkAllRead(userID uint) error {
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}
