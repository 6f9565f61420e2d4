package services

import (
	"errors"
	"testing"

	"github.com/litmer/backend/internal/models"
	"gorm.io/gorm"
)

func TestHistoryRecord_OneRowPerChange(t *testing.T) {
	f := newFixture(t)
	history := NewHistoryService(f.db)
	issue := f.createIssue(t, f.owner.ID, models.DefaultStatus, 0)

	oldStatus, newStatus := "Backlog", "Done"
	changes := []FieldChange{
		{Field: FieldStatus, Old: &oldStatus, New: &newStatus},
		{Field: FieldPriority, Old: strPtr("MEDIUM"), New: strPtr("HIGH")},
	}
	if err := history.Record(f.db, issue.ID, f.member.ID, changes); err != nil {
		t.Fatalf("record: %v", err)
	}

	entries, err := history.ListForIssue(issue.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.User.ID != f.member.ID || e.User.Name != "member" {
			t.Errorf("entry actor: got %+v", e.User)
		}
	}
}

func TestHistoryRecord_EmptyChangesWritesNothing(t *testing.T) {
	f := newFixture(t)
	history := NewHistoryService(f.db)
	issue := f.createIssue(t, f.owner.ID, models.DefaultStatus, 0)

	if err := history.Record(f.db, issue.ID, f.member.ID, nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	var count int64
	f.db.Model(&models.IssueHistory{}).Where("issue_id = ?", issue.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 entries, got %d", count)
	}
}

func TestHistoryRecord_RolledBackTransactionLeavesNoTrail(t *testing.T) {
	f := newFixture(t)
	history := NewHistoryService(f.db)
	issue := f.createIssue(t, f.owner.ID, models.DefaultStatus, 0)

	sentinel := errors.New("abort")
	err := f.db.Transaction(func(tx *gorm.DB) error {
		change := []FieldChange{{Field: FieldTitle, Old: strPtr("a"), New: strPtr("b")}}
		if err := history.Record(tx, issue.ID, f.member.ID, change); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	var count int64
	f.db.Model(&models.IssueHistory{}).Where("issue_id = ?", issue.ID).Count(&count)
	if count != 0 {
		t.Errorf("rolled-back change left %d entries", count)
	}
}

func TestHistoryList_NewestFirst(t *testing.T) {
	f := newFixture(t)
	history := NewHistoryService(f.db)
	issue := f.createIssue(t, f.owner.ID, models.DefaultStatus, 0)

	for i, field := range []string{FieldTitle, FieldPriority, FieldStatus} {
		change := []FieldChange{{Field: field, Old: strPtr("x"), New: strPtr("y")}}
		if err := history.Record(f.db, issue.ID, f.owner.ID, change); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	entries, err := history.ListForIssue(issue.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Identical timestamps are possible within one test run; the id tiebreak
	// keeps the order stable.
	if entries[0].Field != FieldStatus || entries[2].Field != FieldTitle {
		t.Errorf("unexpected order: %s, %s, %s", entries[0].Field, entries[1].Field, entries[2].Field)
	}
}
