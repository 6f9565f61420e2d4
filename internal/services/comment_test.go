package services

import (
	"net/http"
	"testing"

	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/response"
)

func TestCommentCreate_NotifiesParticipants(t *testing.T) {
	f := newFixture(t)
	queue := &recordingQueue{}
	svc := NewCommentService(f.db, queue)

	issue := models.Issue{
		ProjectID:  f.project.ID,
		Title:      "discussed",
		Status:     models.DefaultStatus,
		Priority:   models.PriorityMedium,
		OwnerID:    f.owner.ID,
		AssigneeID: &f.admin.ID,
	}
	if err := f.db.Create(&issue).Error; err != nil {
		t.Fatalf("create issue: %v", err)
	}

	comment, err := svc.Create(f.member.ID, issue.ID, &CreateCommentRequest{Content: "first"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if comment.User.ID != f.member.ID || comment.User.Name != "member" {
		t.Errorf("author = %+v", comment.User)
	}

	// Owner and assignee each get one notification; the commenter none.
	if len(queue.tasks) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(queue.tasks))
	}
	notified := map[uint]bool{}
	for _, task := range queue.tasks {
		if task.Type != models.NotifyCommentAdded {
			t.Errorf("task type = %q", task.Type)
		}
		notified[task.UserID] = true
	}
	if !notified[f.owner.ID] || !notified[f.admin.ID] {
		t.Errorf("notified = %v", notified)
	}

	// When the owner comments on their own issue, only the assignee hears.
	queue.tasks = nil
	if _, err := svc.Create(f.owner.ID, issue.ID, &CreateCommentRequest{Content: "second"}); err != nil {
		t.Fatalf("owner comment: %v", err)
	}
	if len(queue.tasks) != 1 || queue.tasks[0].UserID != f.admin.ID {
		t.Errorf("expected single assignee notification, got %+v", queue.tasks)
	}
}

func TestCommentList_OldestFirst(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db, nil)
	issue := f.createIssue(t, f.owner.ID, models.DefaultStatus, 0)

	for _, content := range []string{"one", "two", "three"} {
		if _, err := svc.Create(f.member.ID, issue.ID, &CreateCommentRequest{Content: content}); err != nil {
			t.Fatalf("create %q: %v", content, err)
		}
	}

	comments, err := svc.List(f.member.ID, issue.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(comments))
	}
	if comments[0].Content != "one" || comments[2].Content != "three" {
		t.Errorf("order = %s, %s, %s", comments[0].Content, comments[1].Content, comments[2].Content)
	}
}

func TestCommentUpdate_AuthorOnly(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db, nil)
	issue := f.createIssue(t, f.owner.ID, models.DefaultStatus, 0)

	comment, err := svc.Create(f.member.ID, issue.ID, &CreateCommentRequest{Content: "draft"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Even the team owner may not edit someone else's words.
	_, err = svc.Update(f.owner.ID, comment.ID, &UpdateCommentRequest{Content: "reworded"})
	if !response.IsKind(err, http.StatusForbidden) {
		t.Errorf("owner edit: expected forbidden, got %v", err)
	}

	updated, err := svc.Update(f.member.ID, comment.ID, &UpdateCommentRequest{Content: "final"})
	if err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if updated.Content != "final" {
		t.Errorf("content = %q", updated.Content)
	}
}

func TestCommentDelete_AuthorOrAdmin(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db, nil)
	issue := f.createIssue(t, f.owner.ID, models.DefaultStatus, 0)

	other := createUser(t, f.db, "other")
	addMember(t, f.db, f.team.ID, other.ID, models.RoleMember)

	first, _ := svc.Create(f.member.ID, issue.ID, &CreateCommentRequest{Content: "first"})
	second, _ := svc.Create(f.member.ID, issue.ID, &CreateCommentRequest{Content: "second"})

	// An unrelated member may not delete.
	err := svc.Delete(other.ID, first.ID)
	if !response.IsKind(err, http.StatusForbidden) {
		t.Errorf("unrelated delete: expected forbidden, got %v", err)
	}

	if err := svc.Delete(f.member.ID, first.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if err := svc.Delete(f.admin.ID, second.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	comments, err := svc.List(f.member.ID, issue.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("expected no live comments, got %d", len(comments))
	}
}
