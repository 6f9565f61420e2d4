package services

import (
	"net/http"
	"testing"

	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/response"
)

func TestAuthorize_NonMemberSeesNotFound(t *testing.T) {
	f := newFixture(t)
	access := NewAccessService(f.db)

	refs := []ResourceRef{
		TeamRef(f.team.ID),
		ProjectRef(f.project.ID),
	}
	for _, ref := range refs {
		_, err := access.Authorize(f.outsider.ID, ref, ActionView)
		if !response.IsKind(err, http.StatusNotFound) {
			t.Errorf("outsider on %s: expected not found, got %v", ref.Kind, err)
		}
	}
}

func TestAuthorize_MissingResourceNotFound(t *testing.T) {
	f := newFixture(t)
	access := NewAccessService(f.db)

	_, err := access.Authorize(f.owner.ID, IssueRef(9999), ActionView)
	if !response.IsKind(err, http.StatusNotFound) {
		t.Errorf("expected not found for missing issue, got %v", err)
	}
}

func TestAuthorize_RoleMatrix(t *testing.T) {
	f := newFixture(t)
	access := NewAccessService(f.db)

	tests := []struct {
		name    string
		actorID uint
		action  Action
		wantErr int // 0 means allowed
	}{
		{"member can view", f.member.ID, ActionView, 0},
		{"member cannot rename team", f.member.ID, ActionUpdateTeam, http.StatusForbidden},
		{"admin can rename team", f.admin.ID, ActionUpdateTeam, 0},
		{"admin cannot delete team", f.admin.ID, ActionDeleteTeam, http.StatusForbidden},
		{"owner can delete team", f.owner.ID, ActionDeleteTeam, 0},
		{"member can create project", f.member.ID, ActionCreateProject, 0},
		{"member cannot invite", f.member.ID, ActionInviteMember, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := access.Authorize(tt.actorID, TeamRef(f.team.ID), tt.action)
			if tt.wantErr == 0 {
				if err != nil {
					t.Errorf("expected allowed, got %v", err)
				}
				return
			}
			if !response.IsKind(err, tt.wantErr) {
				t.Errorf("expected status %d, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAuthorize_ProjectOwnerOverride(t *testing.T) {
	f := newFixture(t)
	access := NewAccessService(f.db)

	// A plain member who owns the project may update it.
	project := models.Project{TeamID: f.team.ID, Name: "Side", OwnerID: f.member.ID}
	if err := f.db.Create(&project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}

	if _, err := access.Authorize(f.member.ID, ProjectRef(project.ID), ActionUpdateProject); err != nil {
		t.Errorf("project owner should update own project, got %v", err)
	}

	// The same member may not update a project they do not own.
	_, err := access.Authorize(f.member.ID, ProjectRef(f.project.ID), ActionUpdateProject)
	if !response.IsKind(err, http.StatusForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestAuthorize_CommentPolicies(t *testing.T) {
	f := newFixture(t)
	access := NewAccessService(f.db)

	issue := f.createIssue(t, f.owner.ID, models.DefaultStatus, 0)
	comment := models.Comment{IssueID: issue.ID, UserID: f.member.ID, Content: "hello"}
	if err := f.db.Create(&comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}

	// Only the author may edit, not even the owner.
	if _, err := access.Authorize(f.member.ID, CommentRef(comment.ID), ActionUpdateComment); err != nil {
		t.Errorf("author should edit own comment, got %v", err)
	}
	_, err := access.Authorize(f.owner.ID, CommentRef(comment.ID), ActionUpdateComment)
	if !response.IsKind(err, http.StatusForbidden) {
		t.Errorf("owner editing foreign comment: expected forbidden, got %v", err)
	}

	// Admin may delete any comment; an unrelated member may not.
	if _, err := access.Authorize(f.admin.ID, CommentRef(comment.ID), ActionDeleteComment); err != nil {
		t.Errorf("admin should delete comment, got %v", err)
	}
	other := createUser(t, f.db, "other")
	addMember(t, f.db, f.team.ID, other.ID, models.RoleMember)
	_, err = access.Authorize(other.ID, CommentRef(comment.ID), ActionDeleteComment)
	if !response.IsKind(err, http.StatusForbidden) {
		t.Errorf("unrelated member deleting comment: expected forbidden, got %v", err)
	}
}

func TestResolve_SoftDeletedAncestorHidesDescendants(t *testing.T) {
	f := newFixture(t)
	access := NewAccessService(f.db)

	issue := f.createIssue(t, f.owner.ID, models.DefaultStatus, 0)
	comment := models.Comment{IssueID: issue.ID, UserID: f.member.ID, Content: "hi"}
	if err := f.db.Create(&comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if err := f.db.Delete(&models.Project{}, f.project.ID).Error; err != nil {
		t.Fatalf("delete project: %v", err)
	}

	for _, ref := range []ResourceRef{IssueRef(issue.ID), CommentRef(comment.ID)} {
		_, err := access.Authorize(f.owner.ID, ref, ActionView)
		if !response.IsKind(err, http.StatusNotFound) {
			t.Errorf("%s under deleted project: expected not found, got %v", ref.Kind, err)
		}
	}
}

func TestAuthorizeMemberChange(t *testing.T) {
	f := newFixture(t)
	access := NewAccessService(f.db)

	// Nobody targets themselves.
	_, err := access.AuthorizeMemberChange(f.owner.ID, f.team.ID, f.owner.ID, true)
	if !response.IsKind(err, http.StatusBadRequest) {
		t.Errorf("self target: expected bad request, got %v", err)
	}

	// Owner may change roles and kick anyone.
	if _, err := access.AuthorizeMemberChange(f.owner.ID, f.team.ID, f.admin.ID, false); err != nil {
		t.Errorf("owner changing admin role: %v", err)
	}

	// Admin may kick a member but not another admin.
	if _, err := access.AuthorizeMemberChange(f.admin.ID, f.team.ID, f.member.ID, true); err != nil {
		t.Errorf("admin kicking member: %v", err)
	}
	secondAdmin := createUser(t, f.db, "admin2")
	addMember(t, f.db, f.team.ID, secondAdmin.ID, models.RoleAdmin)
	_, err = access.AuthorizeMemberChange(f.admin.ID, f.team.ID, secondAdmin.ID, true)
	if !response.IsKind(err, http.StatusForbidden) {
		t.Errorf("admin kicking admin: expected forbidden, got %v", err)
	}

	// Admin may not change roles at all.
	_, err = access.AuthorizeMemberChange(f.admin.ID, f.team.ID, f.member.ID, false)
	if !response.IsKind(err, http.StatusForbidden) {
		t.Errorf("admin changing role: expected forbidden, got %v", err)
	}
}

func TestAuthorizeLeave_OwnerCannotLeave(t *testing.T) {
	f := newFixture(t)
	access := NewAccessService(f.db)

	_, err := access.AuthorizeLeave(f.owner.ID, f.team.ID)
	if !response.IsKind(err, http.StatusBadRequest) {
		t.Errorf("owner leave: expected bad request, got %v", err)
	}

	if _, err := access.AuthorizeLeave(f.member.ID, f.team.ID); err != nil {
		t.Errorf("member leave: %v", err)
	}
}
