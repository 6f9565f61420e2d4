package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/litmer/backend/internal/config"
	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/logger"
	"github.com/litmer/backend/pkg/response"
	"gorm.io/gorm"
)

const (
	// Summary and suggestion generation need a non-trivial source text.
	minSourceTextLen = 10
	// Thread summarization needs a real discussion.
	minThreadComments = 5
	// Upper bound on labels and duplicate matches returned per call.
	maxAIMatches = 3
)

// AIService is the gateway in front of the external text model: every
// operation authorizes the actor, consumes rate-limit budget (before the
// call, never refunded), and re-validates whatever the model returns.
type AIService struct {
	db      *gorm.DB
	cfg     *config.AIConfig
	model   TextModel
	access  *AccessService
	windows *RateWindowService
}

func NewAIService(db *gorm.DB, cfg *config.AIConfig) *AIService {
	return &AIService{
		db:      db,
		cfg:     cfg,
		model:   NewTextModel(cfg),
		access:  NewAccessService(db),
		windows: NewRateWindowService(db, cfg.RatePerMinute),
	}
}

// Windows exposes the rate limiter for scheduler wiring.
func (s *AIService) Windows() *RateWindowService {
	return s.windows
}

// generate runs one bounded model call. A nil model is a permanent
// unavailable condition; a failed call is a service error. Neither refunds
// the already-consumed budget.
func (s *AIService) generate(ctx context.Context, prompt string) (string, error) {
	if s.model == nil {
		return "", response.NewServiceUnavailable("AI service not configured")
	}

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := s.model.Generate(ctx, prompt)
	if err != nil {
		logger.Warn().Err(err).Msg("text model call failed")
		return "", response.NewServiceError("AI service error: " + err.Error())
	}
	return out, nil
}

// Summarize returns a short summary of the issue description, cached on the
// issue until the description is edited.
func (s *AIService) Summarize(ctx context.Context, actorID, issueID uint) (string, error) {
	if err := s.windows.CheckAndConsume(actorID); err != nil {
		return "", err
	}

	res, err := s.access.Authorize(actorID, IssueRef(issueID), ActionUseAI)
	if err != nil {
		return "", err
	}
	issue := res.Issue

	// Cache is valid only when both the value and its timestamp are set.
	if issue.AISummary != nil && issue.AISummaryCachedAt != nil {
		return *issue.AISummary, nil
	}

	if s.model == nil {
		return "", response.NewServiceUnavailable("AI service not configured")
	}
	if len(issue.Description) <= minSourceTextLen {
		return "", response.NewBadRequest("description must be more than 10 characters")
	}

	prompt := fmt.Sprintf(`Summarize the following issue description in 2-4 concise sentences.
Focus on the main problem and key points.

Issue Description:
%s

Summary:`, issue.Description)

	summary, err := s.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	err = s.db.Model(issue).Updates(map[string]interface{}{
		"ai_summary":           summary,
		"ai_summary_cached_at": now,
	}).Error
	if err != nil {
		return "", fmt.Errorf("cache summary: %w", err)
	}

	return summary, nil
}

// Suggest returns a solution approach for the issue, cached like Summarize.
func (s *AIService) Suggest(ctx context.Context, actorID, issueID uint) (string, error) {
	if err := s.windows.CheckAndConsume(actorID); err != nil {
		return "", err
	}

	res, err := s.access.Authorize(actorID, IssueRef(issueID), ActionUseAI)
	if err != nil {
		return "", err
	}
	issue := res.Issue

	if issue.AISuggestion != nil && issue.AISuggestionCachedAt != nil {
		return *issue.AISuggestion, nil
	}

	if s.model == nil {
		return "", response.NewServiceUnavailable("AI service not configured")
	}
	if len(issue.Description) <= minSourceTextLen {
		return "", response.NewBadRequest("description must be more than 10 characters")
	}

	prompt := fmt.Sprintf(`Suggest an approach to solve this issue. Provide practical steps or recommendations.

Issue Title: %s

Issue Description:
%s

Solution Approach:`, issue.Title, issue.Description)

	suggestion, err := s.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	err = s.db.Model(issue).Updates(map[string]interface{}{
		"ai_suggestion":           suggestion,
		"ai_suggestion_cached_at": now,
	}).Error
	if err != nil {
		return "", fmt.Errorf("cache suggestion: %w", err)
	}

	return suggestion, nil
}

// RecommendLabels asks the model for up to three labels for the given
// title/description, constrained to the project's existing label set. Names
// the model invents are discarded.
func (s *AIService) RecommendLabels(ctx context.Context, actorID, projectID uint, title, description string) ([]models.Label, error) {
	if err := s.windows.CheckAndConsume(actorID); err != nil {
		return nil, err
	}

	if _, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionUseAI); err != nil {
		return nil, err
	}

	var labels []models.Label
	if err := s.db.Where("project_id = ?", projectID).Order("id ASC").Find(&labels).Error; err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	if len(labels) == 0 {
		return []models.Label{}, nil
	}

	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}

	prompt := fmt.Sprintf(`Based on the following issue, recommend up to 3 most relevant labels from the available list.
Only return the label names separated by commas, nothing else.

Issue Title: %s
Issue Description: %s

Available Labels: %s

Recommended Labels (max 3):`, title, description, strings.Join(names, ", "))

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return matchLabels(raw, labels), nil
}

// IssueBrief is the (id, title) pair returned by duplicate detection.
type IssueBrief struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// FindDuplicates asks the model which existing issues look like duplicates
// of the candidate title. The model answers with ordinals into the supplied
// list; anything out of range or unparsable is dropped.
func (s *AIService) FindDuplicates(ctx context.Context, actorID, projectID uint, title string) ([]IssueBrief, error) {
	if err := s.windows.CheckAndConsume(actorID); err != nil {
		return nil, err
	}

	if _, err := s.access.Authorize(actorID, ProjectRef(projectID), ActionUseAI); err != nil {
		return nil, err
	}

	var issues []models.Issue
	if err := s.db.Where("project_id = ?", projectID).Order("id ASC").Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("load issues: %w", err)
	}
	if len(issues) == 0 {
		return []IssueBrief{}, nil
	}

	existing := make([]IssueBrief, len(issues))
	var listing strings.Builder
	for i, iss := range issues {
		existing[i] = IssueBrief{ID: iss.ID, Title: iss.Title}
		fmt.Fprintf(&listing, "%d. %s\n", i+1, iss.Title)
	}

	prompt := fmt.Sprintf(`Compare the following new issue title with existing issues and identify potential duplicates.
Return only the numbers of similar issues (e.g., "1, 3, 5"), or "none" if no duplicates found.

New Issue: %s

Existing Issues:
%s
Similar Issues (numbers only):`, title, listing.String())

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	matches := []IssueBrief{}
	for _, idx := range parseOrdinals(raw, len(existing)) {
		matches = append(matches, existing[idx])
	}
	return matches, nil
}

// SummarizeThread summarizes an issue's comment discussion. Requires at
// least five live comments; the result is not cached.
func (s *AIService) SummarizeThread(ctx context.Context, actorID, issueID uint) (string, error) {
	if err := s.windows.CheckAndConsume(actorID); err != nil {
		return "", err
	}

	if _, err := s.access.Authorize(actorID, IssueRef(issueID), ActionUseAI); err != nil {
		return "", err
	}

	type row struct {
		Content  string
		UserName string
	}
	var rows []row
	err := s.db.Model(&models.Comment{}).
		Select("comments.content, users.name AS user_name").
		Joins("JOIN users ON users.id = comments.user_id").
		Where("comments.issue_id = ? AND comments.deleted_at IS NULL", issueID).
		Order("comments.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return "", fmt.Errorf("load comments: %w", err)
	}

	if len(rows) < minThreadComments {
		return "", response.NewBadRequest("at least 5 comments required for summary")
	}

	var discussion strings.Builder
	for i, r := range rows {
		if i > 0 {
			discussion.WriteString("\n\n")
		}
		discussion.WriteString(r.UserName)
		discussion.WriteString(": ")
		discussion.WriteString(r.Content)
	}

	prompt := fmt.Sprintf(`Summarize the following discussion in 3-5 sentences.
Highlight key points, decisions made, and any action items.

Discussion:
%s

Summary:`, discussion.String())

	return s.generate(ctx, prompt)
}

// matchLabels filters the model's free-text label list against the
// candidate set: exact, case-sensitive name equality only, at most three,
// preserving candidate order.
func matchLabels(raw string, candidates []models.Label) []models.Label {
	recommended := make(map[string]bool)
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' }) {
		if name := strings.TrimSpace(part); name != "" {
			recommended[name] = true
		}
	}

	matched := []models.Label{}
	for _, label := range candidates {
		if recommended[label.Name] && len(matched) < maxAIMatches {
			matched = append(matched, label)
		}
	}
	return matched
}

// parseOrdinals extracts 1-based ordinals from the model's answer and
// returns them as unique 0-based indices into a list of length n, at most
// three. "none" and empty answers yield nothing.
func parseOrdinals(raw string, n int) []int {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" || text == "none" {
		return nil
	}

	seen := make(map[int]bool)
	var indices []int
	for _, part := range strings.Split(text, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		idx := v - 1
		if idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		indices = append(indices, idx)
		if len(indices) == maxAIMatches {
			break
		}
	}
	return indices
}
