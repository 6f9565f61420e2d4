package services

import (
	"fmt"

	"github.com/litmer/backend/internal/models"
	"gorm.io/gorm"
)

type CommentService struct {
	db     *gorm.DB
	access *AccessService
	queue  TaskQueue
}

func NewCommentService(db *gorm.DB, queue TaskQueue) *CommentService {
	return &CommentService{
		db:     db,
		access: NewAccessService(db),
		queue:  queue,
	}
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

// CommentInfo is a comment joined with its author's current identity.
type CommentInfo struct {
	models.Comment
	User models.UserBrief `json:"user"`
}

func (s *CommentService) Create(actorID, issueID uint, req *CreateCommentRequest) (*CommentInfo, error) {
	res, err := s.access.Authorize(actorID, IssueRef(issueID), ActionCreateComment)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		IssueID: issueID,
		UserID:  actorID,
		Content: req.Content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.notifyParticipants(actorID, res.Issue)

	var author models.User
	if err := s.db.First(&author, actorID).Error; err != nil {
		return nil, fmt.Errorf("load author: %w", err)
	}

	return &CommentInfo{Comment: comment, User: author.Brief()}, nil
}

// List returns an issue's live comments oldest-first with author identities
// joined at read time.
func (s *CommentService) List(actorID, issueID uint) ([]CommentInfo, error) {
	if _, err := s.access.Authorize(actorID, IssueRef(issueID), ActionView); err != nil {
		return nil, err
	}

	type row struct {
		models.Comment
		UserName         string
		UserEmail        string
		UserProfileImage string
	}

	var rows []row
	err := s.db.Model(&models.Comment{}).
		Select("comments.*, users.name AS user_name, users.email AS user_email, users.profile_image AS user_profile_image").
		Joins("JOIN users ON users.id = comments.user_id").
		Where("comments.issue_id = ? AND comments.deleted_at IS NULL", issueID).
		Order("comments.created_at ASC, comments.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]CommentInfo, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, CommentInfo{
			Comment: r.Comment,
			User: models.UserBrief{
				ID:           r.UserID,
				Name:         r.UserName,
				Email:        r.UserEmail,
				ProfileImage: r.UserProfileImage,
			},
		})
	}
	return comments, nil
}

// Update edits a comment's content. Only the author may edit, regardless of
// team role.
func (s *CommentService) Update(actorID, commentID uint, req *UpdateCommentRequest) (*models.Comment, error) {
	res, err := s.access.Authorize(actorID, CommentRef(commentID), ActionUpdateComment)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(res.Comment).Update("content", req.Content).Error; err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return res.Comment, nil
}

func (s *CommentService) Delete(actorID, commentID uint) error {
	res, err := s.access.Authorize(actorID, CommentRef(commentID), ActionDeleteComment)
	if err != nil {
		return err
	}

	if err := s.db.Delete(res.Comment).Error; err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// notifyParticipants tells the issue owner and assignee about a new comment,
// skipping the commenter themselves.
func (s *CommentService) notifyParticipants(actorID uint, issue *models.Issue) {
	if s.queue == nil {
		return
	}

	targets := map[uint]bool{}
	if issue.OwnerID != actorID {
		targets[issue.OwnerID] = true
	}
	if issue.AssigneeID != nil && *issue.AssigneeID != actorID {
		targets[*issue.AssigneeID] = true
	}

	for userID := range targets {
		s.queue.EnqueueNotification(&NotificationTask{
			UserID:         userID,
			Type:           models.NotifyCommentAdded,
			Title:          "New comment",
			Message:        fmt.Sprintf("New comment on issue %q", issue.Title),
			RelatedIssueID: &issue.ID,
		})
	}
}
