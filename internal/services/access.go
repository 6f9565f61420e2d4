package services

import (
	"errors"
	"fmt"

	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/response"
	"gorm.io/gorm"
)

// Resource kinds addressable by the access resolver.
type ResourceKind string

const (
	ResourceTeam    ResourceKind = "team"
	ResourceProject ResourceKind = "project"
	ResourceIssue   ResourceKind = "issue"
	ResourceComment ResourceKind = "comment"
)

// ResourceRef identifies one resource by kind and id.
type ResourceRef struct {
	Kind ResourceKind
	ID   uint
}

func TeamRef(id uint) ResourceRef    { return ResourceRef{Kind: ResourceTeam, ID: id} }
func ProjectRef(id uint) ResourceRef { return ResourceRef{Kind: ResourceProject, ID: id} }
func IssueRef(id uint) ResourceRef   { return ResourceRef{Kind: ResourceIssue, ID: id} }
func CommentRef(id uint) ResourceRef { return ResourceRef{Kind: ResourceComment, ID: id} }

// Actions subject to authorization.
type Action string

const (
	ActionView           Action = "view"
	ActionUpdateTeam     Action = "team:update"
	ActionDeleteTeam     Action = "team:delete"
	ActionInviteMember   Action = "team:invite"
	ActionCreateProject  Action = "project:create"
	ActionUpdateProject  Action = "project:update"
	ActionArchiveProject Action = "project:archive"
	ActionDeleteProject  Action = "project:delete"
	ActionManageLabels   Action = "project:labels"
	ActionCreateIssue    Action = "issue:create"
	ActionUpdateIssue    Action = "issue:update"
	ActionMoveIssue      Action = "issue:move"
	ActionDeleteIssue    Action = "issue:delete"
	ActionCreateComment  Action = "comment:create"
	ActionUpdateComment  Action = "comment:update"
	ActionDeleteComment  Action = "comment:delete"
	ActionUseAI          Action = "ai:use"
)

// Resolution is the outcome of walking a resource up to its team. Role is
// empty when the actor holds no membership in the resolved team.
type Resolution struct {
	Role    string
	Team    *models.Team
	Project *models.Project
	Issue   *models.Issue
	Comment *models.Comment
}

// policy is one row of the permission table: a set of team roles that
// permit the action unconditionally, plus an optional ownership override
// evaluated against the resolved ancestors.
type policy struct {
	roles []string
	owner func(r *Resolution, actorID uint) bool
}

func anyMember() []string { return []string{models.RoleOwner, models.RoleAdmin, models.RoleMember} }
func adminUp() []string   { return []string{models.RoleOwner, models.RoleAdmin} }
func ownerOnly() []string { return []string{models.RoleOwner} }

var policyTable = map[Action]policy{
	ActionView:           {roles: anyMember()},
	ActionUpdateTeam:     {roles: adminUp()},
	ActionDeleteTeam:     {roles: ownerOnly()},
	ActionInviteMember:   {roles: adminUp()},
	ActionCreateProject:  {roles: anyMember()},
	ActionUpdateProject:  {roles: adminUp(), owner: projectOwner},
	ActionArchiveProject: {roles: adminUp(), owner: projectOwner},
	ActionDeleteProject:  {roles: adminUp(), owner: projectOwner},
	ActionManageLabels:   {roles: anyMember()},
	ActionCreateIssue:    {roles: anyMember()},
	ActionUpdateIssue:    {roles: anyMember()},
	ActionMoveIssue:      {roles: anyMember()},
	ActionDeleteIssue:    {roles: adminUp(), owner: issueOrProjectOwner},
	ActionCreateComment:  {roles: anyMember()},
	ActionUpdateComment:  {roles: nil, owner: commentAuthor},
	ActionDeleteComment:  {roles: adminUp(), owner: commentDeleteOwner},
	ActionUseAI:          {roles: anyMember()},
}

func projectOwner(r *Resolution, actorID uint) bool {
	return r.Project != nil && r.Project.OwnerID == actorID
}

func issueOrProjectOwner(r *Resolution, actorID uint) bool {
	if r.Issue != nil && r.Issue.OwnerID == actorID {
		return true
	}
	return projectOwner(r, actorID)
}

func commentAuthor(r *Resolution, actorID uint) bool {
	return r.Comment != nil && r.Comment.UserID == actorID
}

// Comment deletion: author, parent issue's owner, project owner, or the
// admin roles from the table.
func commentDeleteOwner(r *Resolution, actorID uint) bool {
	return commentAuthor(r, actorID) || issueOrProjectOwner(r, actorID)
}

// AccessService resolves (actor, resource) pairs into authorization
// decisions. It is a pure decision layer: no method mutates state.
type AccessService struct {
	db *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{db: db}
}

// notVisible builds the deny returned for both missing resources and
// resources the actor has no membership for. The two cases must stay
// externally indistinguishable.
func notVisible(kind ResourceKind) *response.AppError {
	return response.NewNotFound(fmt.Sprintf("%s not found", kind))
}

// Resolve walks from the referenced resource up to its team, then looks up
// the actor's membership. Soft-deleted rows at any level make the chain
// unresolvable (gorm's default scope excludes them), so a deleted ancestor
// hides every descendant without per-entity cascade logic.
func (s *AccessService) Resolve(actorID uint, ref ResourceRef) (*Resolution, error) {
	res := &Resolution{}

	switch ref.Kind {
	case ResourceComment:
		var comment models.Comment
		if err := s.db.First(&comment, ref.ID).Error; err != nil {
			return nil, s.lookupErr(err, ref.Kind)
		}
		res.Comment = &comment
		if err := s.loadIssue(res, comment.IssueID, ref.Kind); err != nil {
			return nil, err
		}
	case ResourceIssue:
		if err := s.loadIssue(res, ref.ID, ref.Kind); err != nil {
			return nil, err
		}
	case ResourceProject:
		if err := s.loadProject(res, ref.ID, ref.Kind); err != nil {
			return nil, err
		}
	case ResourceTeam:
		if err := s.loadTeam(res, ref.ID, ref.Kind); err != nil {
			return nil, err
		}
	default:
		return nil, response.NewServerError(fmt.Sprintf("unknown resource kind: %s", ref.Kind))
	}

	var member models.TeamMember
	err := s.db.Where("team_id = ? AND user_id = ?", res.Team.ID, actorID).First(&member).Error
	if err == nil {
		res.Role = member.Role
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("membership lookup: %w", err)
	}

	return res, nil
}

func (s *AccessService) loadIssue(res *Resolution, issueID uint, refKind ResourceKind) error {
	var issue models.Issue
	if err := s.db.First(&issue, issueID).Error; err != nil {
		return s.lookupErr(err, refKind)
	}
	res.Issue = &issue
	return s.loadProject(res, issue.ProjectID, refKind)
}

func (s *AccessService) loadProject(res *Resolution, projectID uint, refKind ResourceKind) error {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		return s.lookupErr(err, refKind)
	}
	res.Project = &project
	return s.loadTeam(res, project.TeamID, refKind)
}

func (s *AccessService) loadTeam(res *Resolution, teamID uint, refKind ResourceKind) error {
	var team models.Team
	if err := s.db.First(&team, teamID).Error; err != nil {
		return s.lookupErr(err, refKind)
	}
	res.Team = &team
	return nil
}

// lookupErr maps a missing row to the uniform not-visible deny; anything
// else is an unexpected datastore fault and propagates.
func (s *AccessService) lookupErr(err error, kind ResourceKind) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notVisible(kind)
	}
	return fmt.Errorf("resolve %s: %w", kind, err)
}

// Authorize resolves the resource and checks the permission table. A missing
// membership denies with the same not-found error as a missing resource; a
// visible resource with a disallowed action denies with forbidden.
func (s *AccessService) Authorize(actorID uint, ref ResourceRef, action Action) (*Resolution, error) {
	res, err := s.Resolve(actorID, ref)
	if err != nil {
		return nil, err
	}

	if res.Role == "" {
		return nil, notVisible(ref.Kind)
	}

	pol, ok := policyTable[action]
	if !ok {
		return nil, response.NewServerError(fmt.Sprintf("no policy for action: %s", action))
	}

	for _, role := range pol.roles {
		if res.Role == role {
			return res, nil
		}
	}
	if pol.owner != nil && pol.owner(res, actorID) {
		return res, nil
	}

	return nil, response.NewForbidden("insufficient permissions")
}

// AuthorizeMemberChange checks role-change and kick operations, which depend
// on the target member's role: OWNER may target anyone, ADMIN may kick only
// a MEMBER (and may not change roles), and nobody may target themselves.
func (s *AccessService) AuthorizeMemberChange(actorID, teamID, targetUserID uint, kick bool) (*models.TeamMember, error) {
	res, err := s.Resolve(actorID, TeamRef(teamID))
	if err != nil {
		return nil, err
	}
	if res.Role == "" {
		return nil, notVisible(ResourceTeam)
	}

	var target models.TeamMember
	if err := s.db.Where("team_id = ? AND user_id = ?", teamID, targetUserID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("member not found")
		}
		return nil, fmt.Errorf("member lookup: %w", err)
	}

	if targetUserID == actorID {
		return nil, response.NewBadRequest("cannot target yourself; use the leave endpoint")
	}

	switch {
	case res.Role == models.RoleOwner:
		return &target, nil
	case kick && res.Role == models.RoleAdmin && target.Role == models.RoleMember:
		return &target, nil
	default:
		return nil, response.NewForbidden("insufficient permissions")
	}
}

// AuthorizeLeave permits a member to remove themselves. The owner may not
// leave; the team must be deleted (ownership transfer is not supported).
func (s *AccessService) AuthorizeLeave(actorID, teamID uint) (*models.TeamMember, error) {
	res, err := s.Resolve(actorID, TeamRef(teamID))
	if err != nil {
		return nil, err
	}
	if res.Role == "" {
		return nil, notVisible(ResourceTeam)
	}
	if res.Role == models.RoleOwner {
		return nil, response.NewBadRequest("owner cannot leave the team")
	}

	var member models.TeamMember
	if err := s.db.Where("team_id = ? AND user_id = ?", teamID, actorID).First(&member).Error; err != nil {
		return nil, fmt.Errorf("member lookup: %w", err)
	}
	return &member, nil
}
