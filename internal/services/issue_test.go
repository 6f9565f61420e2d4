package services

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/response"
)

// recordingQueue captures enqueued notification tasks.
type recordingQueue struct {
	tasks []*NotificationTask
}

func (q *recordingQueue) EnqueueNotification(task *NotificationTask) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) IsAsync() bool { return false }
func (q *recordingQueue) Close() error  { return nil }

func TestIssueCreate_AppendsToStatusGroup(t *testing.T) {
	f := newFixture(t)
	svc := NewIssueService(f.db, nil)

	for i := 0; i < 3; i++ {
		issue, err := svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{Title: "task"})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if issue.Position != i {
			t.Errorf("create %d: position %d", i, issue.Position)
		}
		if issue.Status != models.DefaultStatus {
			t.Errorf("create %d: status %q", i, issue.Status)
		}
		if issue.Priority != models.PriorityMedium {
			t.Errorf("create %d: priority %q", i, issue.Priority)
		}
	}
}

func TestIssueCreate_StatusAtLengthBound(t *testing.T) {
	f := newFixture(t)
	svc := NewIssueService(f.db, nil)

	// The longest status the request binding admits must fit the column.
	status := strings.Repeat("x", 50)
	created, err := svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{Title: "task", Status: status})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var stored models.Issue
	f.db.First(&stored, created.ID)
	if stored.Status != status {
		t.Errorf("stored status truncated: %d chars", len(stored.Status))
	}
}

func TestIssueCreate_AssigneeMustBeTeamMember(t *testing.T) {
	f := newFixture(t)
	svc := NewIssueService(f.db, nil)

	req := &CreateIssueRequest{Title: "task", AssigneeID: &f.outsider.ID}
	_, err := svc.Create(f.member.ID, f.project.ID, req)
	if !response.IsKind(err, http.StatusBadRequest) {
		t.Errorf("expected bad request, got %v", err)
	}
}

func TestIssueCreate_AssignmentNotifies(t *testing.T) {
	f := newFixture(t)
	queue := &recordingQueue{}
	svc := NewIssueService(f.db, queue)

	req := &CreateIssueRequest{Title: "task", AssigneeID: &f.admin.ID}
	if _, err := svc.Create(f.member.ID, f.project.ID, req); err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(queue.tasks) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(queue.tasks))
	}
	if queue.tasks[0].UserID != f.admin.ID || queue.tasks[0].Type != models.NotifyIssueAssigned {
		t.Errorf("notification = %+v", queue.tasks[0])
	}

	// Self-assignment is silent.
	queue.tasks = nil
	req = &CreateIssueRequest{Title: "mine", AssigneeID: &f.member.ID}
	if _, err := svc.Create(f.member.ID, f.project.ID, req); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(queue.tasks) != 0 {
		t.Errorf("self-assignment should not notify, got %d", len(queue.tasks))
	}
}

func TestIssueUpdate_RecordsOnlyActualChanges(t *testing.T) {
	f := newFixture(t)
	svc := NewIssueService(f.db, nil)

	created, err := svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{Title: "task"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "renamed"
	priority := models.PriorityHigh
	updated, err := svc.Update(f.member.ID, created.ID, &UpdateIssueRequest{Title: &title, Priority: &priority})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "renamed" || updated.Priority != models.PriorityHigh {
		t.Errorf("updated = %q/%q", updated.Title, updated.Priority)
	}

	entries, err := svc.History(f.member.ID, created.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}

	// Submitting the same values again writes nothing.
	if _, err := svc.Update(f.member.ID, created.ID, &UpdateIssueRequest{Title: &title, Priority: &priority}); err != nil {
		t.Fatalf("no-op update: %v", err)
	}
	entries, _ = svc.History(f.member.ID, created.ID)
	if len(entries) != 2 {
		t.Errorf("no-op update wrote history: %d entries", len(entries))
	}
}

func TestIssueUpdate_DescriptionEditClearsAICache(t *testing.T) {
	f := newFixture(t)
	svc := NewIssueService(f.db, nil)

	created, err := svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{
		Title:       "task",
		Description: "original description text",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now().UTC()
	summary, suggestion := "cached summary", "cached suggestion"
	f.db.Model(&models.Issue{}).Where("id = ?", created.ID).Updates(map[string]interface{}{
		"ai_summary":              summary,
		"ai_summary_cached_at":    now,
		"ai_suggestion":           suggestion,
		"ai_suggestion_cached_at": now,
	})

	desc := "edited description text"
	if _, err := svc.Update(f.member.ID, created.ID, &UpdateIssueRequest{Description: &desc}); err != nil {
		t.Fatalf("update: %v", err)
	}

	var stored models.Issue
	f.db.First(&stored, created.ID)
	if stored.AISummary != nil || stored.AISummaryCachedAt != nil ||
		stored.AISuggestion != nil || stored.AISuggestionCachedAt != nil {
		t.Error("description edit must clear all four AI cache fields")
	}

	// Description changes are not audit-trailed.
	entries, _ := svc.History(f.member.ID, created.ID)
	if len(entries) != 0 {
		t.Errorf("description edit wrote %d history entries", len(entries))
	}
}

func TestIssueUpdate_StatusChangeReappendsAndCompacts(t *testing.T) {
	f := newFixture(t)
	svc := NewIssueService(f.db, nil)

	var ids []uint
	for i := 0; i < 3; i++ {
		issue, err := svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{Title: "task"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, issue.ID)
	}
	existing, err := svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{Title: "busy", Status: "In Progress"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = existing

	status := "In Progress"
	updated, err := svc.Update(f.member.ID, ids[0], &UpdateIssueRequest{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	// Appended at the end of the destination group.
	if updated.Status != "In Progress" || updated.Position != 1 {
		t.Errorf("moved issue: status=%q position=%d", updated.Status, updated.Position)
	}

	assertDense(t, f, models.DefaultStatus, 2)

	entries, _ := svc.History(f.member.ID, ids[0])
	if len(entries) != 1 || entries[0].Field != FieldStatus {
		t.Errorf("expected one status history entry, got %+v", entries)
	}
}

func TestIssueUpdate_AssigneeClearAndChange(t *testing.T) {
	f := newFixture(t)
	svc := NewIssueService(f.db, nil)

	created, err := svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{Title: "task", AssigneeID: &f.admin.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Zero clears the assignee.
	var zero uint
	updated, err := svc.Update(f.member.ID, created.ID, &UpdateIssueRequest{AssigneeID: &zero})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AssigneeID != nil {
		t.Errorf("expected cleared assignee, got %v", *updated.AssigneeID)
	}

	entries, _ := svc.History(f.member.ID, created.ID)
	if len(entries) != 1 || entries[0].Field != FieldAssignee {
		t.Fatalf("expected one assignee entry, got %+v", entries)
	}
	// Old and new values are display names, not ids.
	if entries[0].OldValue == nil || *entries[0].OldValue != "admin" || entries[0].NewValue != nil {
		t.Errorf("assignee entry = %+v", entries[0])
	}
}

func TestIssueDelete_Permissions(t *testing.T) {
	f := newFixture(t)
	svc := NewIssueService(f.db, nil)

	created, err := svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{Title: "task"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other := createUser(t, f.db, "other")
	addMember(t, f.db, f.team.ID, other.ID, models.RoleMember)

	// A plain member who is not the reporter may not delete.
	err = svc.Delete(other.ID, created.ID)
	if !response.IsKind(err, http.StatusForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}

	// The reporter may.
	if err := svc.Delete(f.member.ID, created.ID); err != nil {
		t.Fatalf("reporter delete: %v", err)
	}

	_, err = svc.Get(f.member.ID, created.ID)
	if !response.IsKind(err, http.StatusNotFound) {
		t.Errorf("deleted issue should be invisible, got %v", err)
	}
}

func TestIssueList_FiltersAndOrder(t *testing.T) {
	f := newFixture(t)
	svc := NewIssueService(f.db, nil)

	high := models.PriorityHigh
	svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{Title: "alpha", Priority: high})
	svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{Title: "beta"})
	svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{Title: "gamma", Status: "Done"})

	all, err := svc.List(f.member.ID, f.project.ID, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(all))
	}

	filtered, err := svc.List(f.member.ID, f.project.ID, &IssueFilter{Priority: models.PriorityHigh})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Title != "alpha" {
		t.Errorf("priority filter = %+v", filtered)
	}

	searched, err := svc.List(f.member.ID, f.project.ID, &IssueFilter{Search: "gam"})
	if err != nil {
		t.Fatalf("list searched: %v", err)
	}
	if len(searched) != 1 || searched[0].Title != "gamma" {
		t.Errorf("search filter = %+v", searched)
	}
}

func TestIssueMove_RecordsStatusChange(t *testing.T) {
	f := newFixture(t)
	svc := NewIssueService(f.db, nil)

	created, err := svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{Title: "task"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	moved, err := svc.Move(f.member.ID, created.ID, &MoveIssueRequest{Status: "Done", Position: 0})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Status != "Done" {
		t.Errorf("status = %q", moved.Status)
	}

	entries, _ := svc.History(f.member.ID, created.ID)
	if len(entries) != 1 || entries[0].Field != FieldStatus {
		t.Fatalf("expected status entry, got %+v", entries)
	}

	// Same-column reorders leave no trail.
	if _, err := svc.Move(f.member.ID, created.ID, &MoveIssueRequest{Status: "Done", Position: 0}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	entries, _ = svc.History(f.member.ID, created.ID)
	if len(entries) != 1 {
		t.Errorf("reorder wrote history: %d entries", len(entries))
	}
}

func TestIssueMove_FailedHistoryWriteRollsBackMove(t *testing.T) {
	f := newFixture(t)
	svc := NewIssueService(f.db, nil)

	created, err := svc.Create(f.member.ID, f.project.ID, &CreateIssueRequest{Title: "task"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Make the history insert fail mid-transaction.
	if err := f.db.Migrator().DropTable(&models.IssueHistory{}); err != nil {
		t.Fatalf("drop history table: %v", err)
	}

	if _, err := svc.Move(f.member.ID, created.ID, &MoveIssueRequest{Status: "Done", Position: 0}); err == nil {
		t.Fatal("expected move to fail")
	}

	// The reposition rolled back with the trail: status and position are
	// untouched.
	var stored models.Issue
	f.db.First(&stored, created.ID)
	if stored.Status != models.DefaultStatus || stored.Position != 0 {
		t.Errorf("move leaked through rollback: status=%q position=%d", stored.Status, stored.Position)
	}
}
