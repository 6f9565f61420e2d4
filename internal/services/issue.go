package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/response"
	"gorm.io/gorm"
)

const (
	// maxIssuesPerProject bounds board size.
	maxIssuesPerProject = 200
	// maxLabelsPerIssue bounds labels attached to one issue.
	maxLabelsPerIssue = 5
)

type IssueService struct {
	db      *gorm.DB
	access  *AccessService
	board   *BoardService
	history *HistoryService
	queue   TaskQueue
}

func NewIssueService(db *gorm.DB, queue TaskQueue) *IssueService {
	return &IssueService{
		db:      db,
		access:  NewAccessService(db),
		board:   NewBoardService(db),
		history: NewHistoryService(db),
		queue:   queue,
	}
}

type CreateIssueRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=5000"`
	Status      string     `json:"status" binding:"omitempty,max=50"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=HIGH MEDIUM LOW"`
	AssigneeID  *uint      `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	LabelIDs    []uint     `json:"label_ids"`
}

// UpdateIssueRequest carries partial updates. Nil means "leave unchanged";
// for AssigneeID, a pointer to zero clears the assignee.
type UpdateIssueRequest struct {
	Title       *string    `json:"title" binding:"omitempty,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	Status      *string    `json:"status" binding:"omitempty,max=50"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=HIGH MEDIUM LOW"`
	AssigneeID  *uint      `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	ClearDue    bool       `json:"clear_due_date"`
	LabelIDs    *[]uint    `json:"label_ids"`
}

type MoveIssueRequest struct {
	Status   string `json:"status" binding:"required,max=50"`
	Position int    `json:"position" binding:"min=0"`
}

type IssueFilter struct {
	Status     string
	Priority   string
	AssigneeID *uint
	LabelID    *uint
	Search     string
}

// IssueDetail is an issue with its labels, assignee identity, and comment
// count resolved.
type IssueDetail struct {
	models.Issue
	Labels       []models.Label    `json:"labels"`
	Assignee     *models.UserBrief `json:"assignee,omitempty"`
	CommentCount int64             `json:"comment_count"`
}

// Create appends a new issue to the end of its status group. Position
// assignment and row creation share one transaction so two concurrent
// creates cannot claim the same slot.
func (s *IssueService) Create(actorID, projectID uint, req *CreateIssueRequest) (*IssueDetail, error) {
	res, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionCreateIssue)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.Model(&models.Issue{}).Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count issues: %w", err)
	}
	if total >= maxIssuesPerProject {
		return nil, response.NewBadRequest(fmt.Sprintf("project has reached the maximum issue limit (%d)", maxIssuesPerProject))
	}

	status := req.Status
	if status == "" {
		status = models.DefaultStatus
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	if req.AssigneeID != nil {
		if err := s.requireTeamMember(res.Team.ID, *req.AssigneeID); err != nil {
			return nil, err
		}
	}

	labels, err := s.resolveLabels(projectID, req.LabelIDs)
	if err != nil {
		return nil, err
	}

	issue := models.Issue{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		AssigneeID:  req.AssigneeID,
		OwnerID:     actorID,
		DueDate:     req.DueDate,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		pos, err := s.board.Append(tx, projectID, status)
		if err != nil {
			return err
		}
		issue.Position = pos

		if err := tx.Create(&issue).Error; err != nil {
			return fmt.Errorf("create issue: %w", err)
		}
		for _, l := range labels {
			link := models.IssueLabel{IssueID: issue.ID, LabelID: l.ID}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("attach label: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.AssigneeID != nil && *req.AssigneeID != actorID {
		s.notifyAssigned(*req.AssigneeID, &issue)
	}

	return s.detail(&issue)
}

// List returns a project's issues ordered for board rendering: grouped by
// status, positions ascending within each group.
func (s *IssueService) List(actorID, projectID uint, filter *IssueFilter) ([]IssueDetail, error) {
	if _, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionView); err != nil {
		return nil, err
	}

	q := s.db.Where("project_id = ?", projectID)
	if filter != nil {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Priority != "" {
			q = q.Where("priority = ?", filter.Priority)
		}
		if filter.AssigneeID != nil {
			if *filter.AssigneeID == 0 {
				q = q.Where("assignee_id IS NULL")
			} else {
				q = q.Where("assignee_id = ?", *filter.AssigneeID)
			}
		}
		if filter.LabelID != nil {
			q = q.Where("id IN (?)", s.db.Model(&models.IssueLabel{}).
				Select("issue_id").Where("label_id = ?", *filter.LabelID))
		}
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			q = q.Where("title LIKE ? OR description LIKE ?", like, like)
		}
	}

	var issues []models.Issue
	if err := q.Order("status ASC, position ASC").Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	details := make([]IssueDetail, 0, len(issues))
	for i := range issues {
		d, err := s.detail(&issues[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, nil
}

func (s *IssueService) Get(actorID, issueID uint) (*IssueDetail, error) {
	res, err := s.access.Authorize(actorID, IssueRef(issueID), ActionView)
	if err != nil {
		return nil, err
	}
	return s.detail(res.Issue)
}

// Update applies a partial edit. Every tracked field that actually changed
// produces one history row on the same transaction as the write; a request
// that changes nothing writes nothing. Editing the description invalidates
// the cached AI summary and suggestion. A status change re-appends the
// issue at the end of the destination group and closes the source gap.
func (s *IssueService) Update(actorID, issueID uint, req *UpdateIssueRequest) (*IssueDetail, error) {
	res, err := s.access.Authorize(actorID, IssueRef(issueID), ActionUpdateIssue)
	if err != nil {
		return nil, err
	}
	issue := res.Issue

	updates := map[string]interface{}{}
	var changes []FieldChange

	if req.Title != nil && *req.Title != issue.Title {
		changes = append(changes, FieldChange{Field: FieldTitle, Old: strPtr(issue.Title), New: req.Title})
		updates["title"] = *req.Title
	}

	if req.Description != nil && *req.Description != issue.Description {
		updates["description"] = *req.Description
		updates["ai_summary"] = nil
		updates["ai_summary_cached_at"] = nil
		updates["ai_suggestion"] = nil
		updates["ai_suggestion_cached_at"] = nil
	}

	if req.Priority != nil && *req.Priority != issue.Priority {
		if !models.ValidPriority(*req.Priority) {
			return nil, response.NewBadRequest("invalid priority")
		}
		changes = append(changes, FieldChange{Field: FieldPriority, Old: strPtr(issue.Priority), New: req.Priority})
		updates["priority"] = *req.Priority
	}

	var notifyAssignee *uint
	if req.AssigneeID != nil {
		newID := req.AssigneeID
		if *newID == 0 {
			newID = nil
		}
		if !uintPtrEq(newID, issue.AssigneeID) {
			if newID != nil {
				if err := s.requireTeamMember(res.Team.ID, *newID); err != nil {
					return nil, err
				}
			}
			oldName, newName := s.assigneeNames(issue.AssigneeID, newID)
			changes = append(changes, FieldChange{Field: FieldAssignee, Old: oldName, New: newName})
			if newID == nil {
				updates["assignee_id"] = nil
			} else {
				updates["assignee_id"] = *newID
				if *newID != actorID {
					notifyAssignee = newID
				}
			}
		}
	}

	if req.ClearDue && issue.DueDate != nil {
		changes = append(changes, FieldChange{Field: FieldDueDate, Old: datePtr(issue.DueDate), New: nil})
		updates["due_date"] = nil
	} else if req.DueDate != nil && !timePtrEq(req.DueDate, issue.DueDate) {
		changes = append(changes, FieldChange{Field: FieldDueDate, Old: datePtr(issue.DueDate), New: datePtr(req.DueDate)})
		updates["due_date"] = *req.DueDate
	}

	statusChanged := req.Status != nil && *req.Status != issue.Status
	if statusChanged {
		changes = append(changes, FieldChange{Field: FieldStatus, Old: strPtr(issue.Status), New: req.Status})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if statusChanged {
			// Re-append at the end of the destination group, then close
			// the gap left in the source group.
			pos, err := s.board.Append(tx, issue.ProjectID, *req.Status)
			if err != nil {
				return err
			}
			updates["status"] = *req.Status
			updates["position"] = pos

			err = tx.Model(&models.Issue{}).
				Where("project_id = ? AND status = ? AND position > ?", issue.ProjectID, issue.Status, issue.Position).
				UpdateColumn("position", gorm.Expr("position - 1")).Error
			if err != nil {
				return fmt.Errorf("close source gap: %w", err)
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(issue).Updates(updates).Error; err != nil {
				return fmt.Errorf("update issue: %w", err)
			}
		}

		if req.LabelIDs != nil {
			labels, err := s.resolveLabels(issue.ProjectID, *req.LabelIDs)
			if err != nil {
				return err
			}
			if err := tx.Where("issue_id = ?", issue.ID).Delete(&models.IssueLabel{}).Error; err != nil {
				return fmt.Errorf("detach labels: %w", err)
			}
			for _, l := range labels {
				link := models.IssueLabel{IssueID: issue.ID, LabelID: l.ID}
				if err := tx.Create(&link).Error; err != nil {
					return fmt.Errorf("attach label: %w", err)
				}
			}
		}

		return s.history.Record(tx, issue.ID, actorID, changes)
	})
	if err != nil {
		return nil, err
	}

	if notifyAssignee != nil {
		s.notifyAssigned(*notifyAssignee, issue)
	}

	var fresh models.Issue
	if err := s.db.First(&fresh, issue.ID).Error; err != nil {
		return nil, fmt.Errorf("reload issue: %w", err)
	}
	return s.detail(&fresh)
}

// Move applies a drag-and-drop reposition and records the status change
// when the issue crossed columns. Reposition and history row share one
// transaction: a move without its trail never commits.
func (s *IssueService) Move(actorID, issueID uint, req *MoveIssueRequest) (*IssueDetail, error) {
	res, err := s.access.Authorize(actorID, IssueRef(issueID), ActionMoveIssue)
	if err != nil {
		return nil, err
	}
	oldStatus := res.Issue.Status

	var issue *models.Issue
	err = s.db.Transaction(func(tx *gorm.DB) error {
		moved, err := s.board.Move(tx, issueID, req.Status, req.Position)
		if err != nil {
			return err
		}
		issue = moved

		if oldStatus != req.Status {
			change := []FieldChange{{Field: FieldStatus, Old: strPtr(oldStatus), New: strPtr(req.Status)}}
			return s.history.Record(tx, issueID, actorID, change)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.detail(issue)
}

func (s *IssueService) Delete(actorID, issueID uint) error {
	if _, err := s.access.Authorize(actorID, IssueRef(issueID), ActionDeleteIssue); err != nil {
		return err
	}
	return s.board.Delete(issueID)
}

// History returns the issue's audit trail, newest-first.
func (s *IssueService) History(actorID, issueID uint) ([]HistoryEntry, error) {
	if _, err := s.access.Authorize(actorID, IssueRef(issueID), ActionView); err != nil {
		return nil, err
	}
	return s.history.ListForIssue(issueID)
}

func (s *IssueService) detail(issue *models.Issue) (*IssueDetail, error) {
	d := IssueDetail{Issue: *issue, Labels: []models.Label{}}

	err := s.db.Model(&models.Label{}).
		Joins("JOIN issue_labels ON issue_labels.label_id = labels.id").
		Where("issue_labels.issue_id = ?", issue.ID).
		Order("labels.id ASC").
		Find(&d.Labels).Error
	if err != nil {
		return nil, fmt.Errorf("load issue labels: %w", err)
	}

	if issue.AssigneeID != nil {
		var user models.User
		if err := s.db.First(&user, *issue.AssigneeID).Error; err == nil {
			brief := user.Brief()
			d.Assignee = &brief
		}
	}

	s.db.Model(&models.Comment{}).Where("issue_id = ?", issue.ID).Count(&d.CommentCount)
	return &d, nil
}

func (s *IssueService) requireTeamMember(teamID, userID uint) error {
	var count int64
	s.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).Count(&count)
	if count == 0 {
		return response.NewBadRequest("assignee must be a team member")
	}
	return nil
}

// resolveLabels validates a label id set against the project, enforcing the
// per-issue cap and rejecting foreign labels.
func (s *IssueService) resolveLabels(projectID uint, ids []uint) ([]models.Label, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxLabelsPerIssue {
		return nil, response.NewBadRequest(fmt.Sprintf("an issue can have at most %d labels", maxLabelsPerIssue))
	}

	var labels []models.Label
	err := s.db.Where("project_id = ? AND id IN ?", projectID, ids).Find(&labels).Error
	if err != nil {
		return nil, fmt.Errorf("resolve labels: %w", err)
	}
	if len(labels) != len(uniqueIDs(ids)) {
		return nil, response.NewBadRequest("label does not belong to this project")
	}
	return labels, nil
}

func (s *IssueService) notifyAssigned(assigneeID uint, issue *models.Issue) {
	if s.queue == nil {
		return
	}
	s.queue.EnqueueNotification(&NotificationTask{
		UserID:         assigneeID,
		Type:           models.NotifyIssueAssigned,
		Title:          "Issue assigned to you",
		Message:        fmt.Sprintf("You were assigned to issue %q", issue.Title),
		RelatedIssueID: &issue.ID,
	})
}

// assigneeNames maps assignee ids to display names for the audit trail. A
// missing user degrades to the raw id rather than dropping the entry.
func (s *IssueService) assigneeNames(oldID, newID *uint) (*string, *string) {
	lookup := func(id *uint) *string {
		if id == nil {
			return nil
		}
		var user models.User
		if err := s.db.First(&user, *id).Error; err != nil {
			v := strconv.FormatUint(uint64(*id), 10)
			return &v
		}
		return &user.Name
	}
	return lookup(oldID), lookup(newID)
}

func strPtr(s string) *string { return &s }

func datePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format("2006-01-02")
	return &v
}

func uintPtrEq(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEq(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
