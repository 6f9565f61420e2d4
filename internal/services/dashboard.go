package services

import (
	"fmt"
	"time"

	"github.com/litmer/backend/internal/models"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"gorm.io/gorm"
)

const (
	// dueSoonWorkdays is the business-day horizon for the due-soon list.
	dueSoonWorkdays = 5
	dueSoonLimit    = 5
	recentLimit     = 5
	doneStatus      = "Done"
)

// DashboardService aggregates board state for the personal and per-project
// dashboards. Due-date math runs on a business calendar, so a Friday
// deadline and a Monday deadline are equally "soon".
type DashboardService struct {
	db       *gorm.DB
	access   *AccessService
	calendar *cal.BusinessCalendar
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(us.Holidays...)

	return &DashboardService{
		db:       db,
		access:   NewAccessService(db),
		calendar: c,
	}
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int64  `json:"count"`
}

type ProjectSummary struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	TeamID     uint   `json:"team_id"`
	IssueCount int64  `json:"issue_count"`
}

type PersonalDashboard struct {
	IssuesByStatus []StatusCount    `json:"issues_by_status"`
	DueSoon        []models.Issue   `json:"due_soon"`
	Overdue        []models.Issue   `json:"overdue"`
	Projects       []ProjectSummary `json:"projects"`
}

type ProjectDashboard struct {
	IssuesByStatus   []StatusCount   `json:"issues_by_status"`
	IssuesByPriority []PriorityCount `json:"issues_by_priority"`
	TotalIssues      int64           `json:"total_issues"`
	CompletionRate   float64         `json:"completion_rate"`
	RecentIssues     []models.Issue  `json:"recent_issues"`
}

// Personal builds the cross-team dashboard for the acting user: their
// assigned issues grouped by status, upcoming and overdue deadlines, and
// the projects they can see.
func (s *DashboardService) Personal(actorID uint) (*PersonalDashboard, error) {
	memberTeams := s.db.Model(&models.TeamMember{}).
		Select("team_id").Where("user_id = ?", actorID)
	visibleProjects := s.db.Model(&models.Project{}).
		Select("id").Where("team_id IN (?)", memberTeams)

	mine := func() *gorm.DB {
		return s.db.Model(&models.Issue{}).
			Where("assignee_id = ? AND project_id IN (?)", actorID, visibleProjects)
	}

	var byStatus []StatusCount
	err := mine().Select("status, COUNT(*) AS count").
		Group("status").Order("status ASC").Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("count issues by status: %w", err)
	}

	today := startOfDay(time.Now().UTC())
	horizon := s.calendar.WorkdaysFrom(today, dueSoonWorkdays)

	var dueSoon []models.Issue
	err = s.db.Where("assignee_id = ? AND project_id IN (?)", actorID, visibleProjects).
		Where("status != ? AND due_date IS NOT NULL AND due_date >= ? AND due_date <= ?", doneStatus, today, horizon).
		Order("due_date ASC").Limit(dueSoonLimit).
		Find(&dueSoon).Error
	if err != nil {
		return nil, fmt.Errorf("list due soon: %w", err)
	}

	var overdue []models.Issue
	err = s.db.Where("assignee_id = ? AND project_id IN (?)", actorID, visibleProjects).
		Where("status != ? AND due_date IS NOT NULL AND due_date < ?", doneStatus, today).
		Order("due_date ASC").
		Find(&overdue).Error
	if err != nil {
		return nil, fmt.Errorf("list overdue: %w", err)
	}

	var projects []models.Project
	err = s.db.Where("team_id IN (?)", memberTeams).Order("id ASC").Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		var count int64
		s.db.Model(&models.Issue{}).Where("project_id = ?", p.ID).Count(&count)
		summaries = append(summaries, ProjectSummary{
			ID:         p.ID,
			Name:       p.Name,
			TeamID:     p.TeamID,
			IssueCount: count,
		})
	}

	return &PersonalDashboard{
		IssuesByStatus: byStatus,
		DueSoon:        dueSoon,
		Overdue:        overdue,
		Projects:       summaries,
	}, nil
}

// Project builds the per-project dashboard.
func (s *DashboardService) Project(actorID, projectID uint) (*ProjectDashboard, error) {
	if _, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionView); err != nil {
		return nil, err
	}

	var byStatus []StatusCount
	err := s.db.Model(&models.Issue{}).
		Where("project_id = ?", projectID).
		Select("status, COUNT(*) AS count").
		Group("status").Order("status ASC").Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("count issues by status: %w", err)
	}

	var byPriority []PriorityCount
	err = s.db.Model(&models.Issue{}).
		Where("project_id = ?", projectID).
		Select("priority, COUNT(*) AS count").
		Group("priority").Order("priority ASC").Scan(&byPriority).Error
	if err != nil {
		return nil, fmt.Errorf("count issues by priority: %w", err)
	}

	var total, done int64
	for _, sc := range byStatus {
		total += sc.Count
		if sc.Status == doneStatus {
			done = sc.Count
		}
	}
	rate := 0.0
	if total > 0 {
		rate = float64(done) / float64(total)
	}

	var recent []models.Issue
	err = s.db.Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").Limit(recentLimit).
		Find(&recent).Error
	if err != nil {
		return nil, fmt.Errorf("list recent issues: %w", err)
	}

	return &ProjectDashboard{
		IssuesByStatus:   byStatus,
		IssuesByPriority: byPriority,
		TotalIssues:      total,
		CompletionRate:   rate,
		RecentIssues:     recent,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
