package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/response"
)

func (f *fixture) createAssignedIssue(t *testing.T, assigneeID uint, status string, due *time.Time) models.Issue {
	t.Helper()
	issue := models.Issue{
		ProjectID:  f.project.ID,
		Title:      "assigned",
		Status:     status,
		Priority:   models.PriorityMedium,
		OwnerID:    f.owner.ID,
		AssigneeID: &assigneeID,
		DueDate:    due,
	}
	if err := f.db.Create(&issue).Error; err != nil {
		t.Fatalf("create issue: %v", err)
	}
	return issue
}

func TestDashboardPersonal_BucketsByDueDate(t *testing.T) {
	f := newFixture(t)
	svc := NewDashboardService(f.db)

	today := startOfDay(time.Now().UTC())
	yesterday := today.Add(-24 * time.Hour)
	tomorrow := today.Add(24 * time.Hour)
	farOut := today.Add(60 * 24 * time.Hour)

	f.createAssignedIssue(t, f.member.ID, models.DefaultStatus, &yesterday)
	f.createAssignedIssue(t, f.member.ID, models.DefaultStatus, &tomorrow)
	f.createAssignedIssue(t, f.member.ID, models.DefaultStatus, &farOut)
	f.createAssignedIssue(t, f.member.ID, models.DefaultStatus, nil)
	// Done issues never count as overdue.
	f.createAssignedIssue(t, f.member.ID, doneStatus, &yesterday)
	// Another member's deadlines are invisible.
	f.createAssignedIssue(t, f.admin.ID, models.DefaultStatus, &yesterday)

	dash, err := svc.Personal(f.member.ID)
	if err != nil {
		t.Fatalf("personal: %v", err)
	}

	if len(dash.Overdue) != 1 {
		t.Errorf("overdue = %d", len(dash.Overdue))
	}
	if len(dash.DueSoon) != 1 {
		t.Errorf("due soon = %d", len(dash.DueSoon))
	}
	if len(dash.Projects) != 1 || dash.Projects[0].IssueCount != 6 {
		t.Errorf("projects = %+v", dash.Projects)
	}

	var assigned int64
	for _, sc := range dash.IssuesByStatus {
		assigned += sc.Count
	}
	if assigned != 5 {
		t.Errorf("assigned total = %d", assigned)
	}
}

func TestDashboardPersonal_OutsiderIsEmpty(t *testing.T) {
	f := newFixture(t)
	svc := NewDashboardService(f.db)
	f.createIssue(t, f.owner.ID, models.DefaultStatus, 0)

	dash, err := svc.Personal(f.outsider.ID)
	if err != nil {
		t.Fatalf("personal: %v", err)
	}
	if len(dash.Projects) != 0 || len(dash.IssuesByStatus) != 0 {
		t.Errorf("outsider dashboard = %+v", dash)
	}
}

func TestDashboardProject_RatesAndCounts(t *testing.T) {
	f := newFixture(t)
	svc := NewDashboardService(f.db)

	f.createIssue(t, f.owner.ID, models.DefaultStatus, 0)
	f.createIssue(t, f.owner.ID, doneStatus, 0)
	f.createIssue(t, f.owner.ID, doneStatus, 1)
	f.createIssue(t, f.owner.ID, "In Progress", 0)

	dash, err := svc.Project(f.member.ID, f.project.ID)
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	if dash.TotalIssues != 4 {
		t.Errorf("total = %d", dash.TotalIssues)
	}
	if dash.CompletionRate != 0.5 {
		t.Errorf("completion rate = %v", dash.CompletionRate)
	}
	if len(dash.RecentIssues) != 4 {
		t.Errorf("recent = %d", len(dash.RecentIssues))
	}

	_, err = svc.Project(f.outsider.ID, f.project.ID)
	if !response.IsKind(err, http.StatusNotFound) {
		t.Errorf("outsider: expected not found, got %v", err)
	}
}
