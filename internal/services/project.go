package services

import (
	"errors"
	"fmt"

	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/response"
	"gorm.io/gorm"
)

// maxLabelsPerProject bounds a project's label vocabulary.
const maxLabelsPerProject = 20

type ProjectService struct {
	db       *gorm.DB
	access   *AccessService
	activity *ActivityService
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{
		db:       db,
		access:   NewAccessService(db),
		activity: NewActivityService(db),
	}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

type CreateLabelRequest struct {
	Name  string `json:"name" binding:"required,max=30"`
	Color string `json:"color" binding:"required,max=7"`
}

// ProjectInfo is a project row annotated with aggregate counts and the
// requesting user's favorite flag.
type ProjectInfo struct {
	models.Project
	IssueCount  int64 `json:"issue_count"`
	MemberCount int64 `json:"member_count"`
	IsFavorite  bool  `json:"is_favorite"`
}

func (s *ProjectService) Create(actorID, teamID uint, req *CreateProjectRequest) (*models.Project, error) {
	if _, err := s.access.Authorize(actorID, TeamRef(teamID), ActionCreateProject); err != nil {
		return nil, err
	}

	project := models.Project{
		TeamID:      teamID,
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     actorID,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.activity.LogProjectCreated(teamID, actorID, project.ID, project.Name)
	return &project, nil
}

// ListForTeam returns the team's live projects with issue counts and the
// actor's favorite marks.
func (s *ProjectService) ListForTeam(actorID, teamID uint) ([]ProjectInfo, error) {
	if _, err := s.access.Authorize(actorID, TeamRef(teamID), ActionView); err != nil {
		return nil, err
	}

	var projects []models.Project
	err := s.db.Where("team_id = ?", teamID).Order("id ASC").Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var favorites []models.ProjectFavorite
	s.db.Where("user_id = ?", actorID).Find(&favorites)
	favSet := make(map[uint]bool, len(favorites))
	for _, f := range favorites {
		favSet[f.ProjectID] = true
	}

	var memberCount int64
	s.db.Model(&models.TeamMember{}).Where("team_id = ?", teamID).Count(&memberCount)

	result := make([]ProjectInfo, 0, len(projects))
	for _, p := range projects {
		var issueCount int64
		s.db.Model(&models.Issue{}).Where("project_id = ?", p.ID).Count(&issueCount)

		result = append(result, ProjectInfo{
			Project:     p,
			IssueCount:  issueCount,
			MemberCount: memberCount,
			IsFavorite:  favSet[p.ID],
		})
	}
	return result, nil
}

func (s *ProjectService) Get(actorID, projectID uint) (*ProjectInfo, error) {
	res, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionView)
	if err != nil {
		return nil, err
	}

	var issueCount, memberCount, favCount int64
	s.db.Model(&models.Issue{}).Where("project_id = ?", projectID).Count(&issueCount)
	s.db.Model(&models.TeamMember{}).Where("team_id = ?", res.Project.TeamID).Count(&memberCount)
	s.db.Model(&models.ProjectFavorite{}).
		Where("project_id = ? AND user_id = ?", projectID, actorID).Count(&favCount)

	return &ProjectInfo{
		Project:     *res.Project,
		IssueCount:  issueCount,
		MemberCount: memberCount,
		IsFavorite:  favCount > 0,
	}, nil
}

func (s *ProjectService) Update(actorID, projectID uint, req *UpdateProjectRequest) (*models.Project, error) {
	res, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionUpdateProject)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		return res.Project, nil
	}

	if err := s.db.Model(res.Project).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return res.Project, nil
}

// SetArchived toggles the archived flag. Archived projects stay fully
// visible; archiving only marks them in listings.
func (s *ProjectService) SetArchived(actorID, projectID uint, archived bool) (*models.Project, error) {
	res, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionArchiveProject)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(res.Project).Update("is_archived", archived).Error; err != nil {
		return nil, fmt.Errorf("archive project: %w", err)
	}

	s.activity.LogProjectArchived(res.Project.TeamID, actorID, projectID, res.Project.Name, archived)
	return res.Project, nil
}

// Delete soft-deletes the project and its issues together. Comments and
// labels survive untouched; the hidden ancestor keeps them unreachable.
func (s *ProjectService) Delete(actorID, projectID uint) error {
	res, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionDeleteProject)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Project{}, projectID).Error; err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Issue{}).Error; err != nil {
			return fmt.Errorf("delete project issues: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.activity.LogProjectDeleted(res.Project.TeamID, actorID, projectID, res.Project.Name)
	return nil
}

// Favorite marks the project for the acting user. Idempotent.
func (s *ProjectService) Favorite(actorID, projectID uint) error {
	if _, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionView); err != nil {
		return err
	}

	var count int64
	s.db.Model(&models.ProjectFavorite{}).
		Where("project_id = ? AND user_id = ?", projectID, actorID).Count(&count)
	if count > 0 {
		return nil
	}

	fav := models.ProjectFavorite{ProjectID: projectID, UserID: actorID}
	if err := s.db.Create(&fav).Error; err != nil {
		return fmt.Errorf("favorite project: %w", err)
	}
	return nil
}

// Unfavorite clears the mark. Idempotent.
func (s *ProjectService) Unfavorite(actorID, projectID uint) error {
	if _, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionView); err != nil {
		return err
	}

	err := s.db.Where("project_id = ? AND user_id = ?", projectID, actorID).
		Delete(&models.ProjectFavorite{}).Error
	if err != nil {
		return fmt.Errorf("unfavorite project: %w", err)
	}
	return nil
}

func (s *ProjectService) CreateLabel(actorID, projectID uint, req *CreateLabelRequest) (*models.Label, error) {
	if _, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionManageLabels); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Label{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count labels: %w", err)
	}
	if count >= maxLabelsPerProject {
		return nil, response.NewBadRequest(fmt.Sprintf("project has reached the maximum label limit (%d)", maxLabelsPerProject))
	}

	var existing models.Label
	err := s.db.Where("project_id = ? AND name = ?", projectID, req.Name).First(&existing).Error
	if err == nil {
		return nil, response.NewBadRequest("label with this name already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("label lookup: %w", err)
	}

	label := models.Label{ProjectID: projectID, Name: req.Name, Color: req.Color}
	if err := s.db.Create(&label).Error; err != nil {
		return nil, fmt.Errorf("create label: %w", err)
	}
	return &label, nil
}

func (s *ProjectService) Labels(actorID, projectID uint) ([]models.Label, error) {
	if _, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionView); err != nil {
		return nil, err
	}

	var labels []models.Label
	err := s.db.Where("project_id = ?", projectID).Order("id ASC").Find(&labels).Error
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	return labels, nil
}

// DeleteLabel removes a label and its issue attachments.
func (s *ProjectService) DeleteLabel(actorID, projectID, labelID uint) error {
	if _, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionManageLabels); err != nil {
		return err
	}

	var label models.Label
	err := s.db.Where("id = ? AND project_id = ?", labelID, projectID).First(&label).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("label not found")
		}
		return fmt.Errorf("label lookup: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("label_id = ?", labelID).Delete(&models.IssueLabel{}).Error; err != nil {
			return fmt.Errorf("detach label: %w", err)
		}
		if err := tx.Delete(&label).Error; err != nil {
			return fmt.Errorf("delete label: %w", err)
		}
		return nil
	})
}
