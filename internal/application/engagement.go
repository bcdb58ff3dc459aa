package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
	"github.com/ericfisherdev/issuepulse/internal/domain/port/driven"
)

// DefaultPreviousScoreWindow is how far back the previous score looks.
const DefaultPreviousScoreWindow = 7 * 24 * time.Hour

// Score weights.
const (
	commentsWeight           = 3
	reactionsWeight          = 1
	contributorsWeight       = 2
	lastActivityWeight       = 1
	issueAgeWeight           = 1
	linkedPullRequestsWeight = 2
)

// CalculateScore computes the engagement score of an issue as of now.
//
// The recency and age terms use integer division of 1 by whole days (floored,
// minimum 1), so each contributes 1 within the first two days and 0 after.
// Linked pull requests are not tracked and count as zero.
func CalculateScore(issue model.Issue, now time.Time) int {
	comments := issue.TotalUserComments()
	reactions := issue.TotalReactions + issue.TotalCommentReactions()
	contributors := issue.TotalUserContributors()
	lastActivity := wholeDays(issue.TimeSinceLastActivity(now))
	age := wholeDays(issue.Age(now))
	linkedPullRequests := 0

	return commentsWeight*comments +
		reactionsWeight*reactions +
		contributorsWeight*contributors +
		lastActivityWeight*(1/lastActivity) +
		issueAgeWeight*(1/age) +
		linkedPullRequestsWeight*linkedPullRequests
}

// CalculatePreviousScore scores the issue as it looked one window ago,
// evaluated at now. It is 0 when the issue did not exist yet.
//
// Reconstruction trims comment and reaction lists but keeps the summary
// TotalReactions and per-comment TotalReactions counts, so reactions added
// inside the window still count toward the previous score.
func CalculatePreviousScore(issue model.Issue, now time.Time, window time.Duration) int {
	historic, ok := issue.HistoricAt(now.Add(-window))
	if !ok {
		return 0
	}
	return CalculateScore(historic, now)
}

// Classify compares a score with its previous value.
func Classify(score, previous int) model.EngagementClassification {
	switch {
	case score > previous:
		return model.EngagementHot
	case score < previous:
		return model.EngagementCold
	default:
		return model.EngagementWarm
	}
}

func wholeDays(d time.Duration) int {
	days := int(d / (24 * time.Hour))
	if days < 1 {
		return 1
	}
	return days
}

// EngagementRequestIssue selects one issue, or every open issue of the
// repository when Number is nil.
type EngagementRequestIssue struct {
	Owner  string
	Repo   string
	Number *int
}

// EngagementRequestProject selects every open issue on a project board.
type EngagementRequestProject struct {
	Owner  string
	Number int
}

// EngagementRequest names what to score. Exactly one field should be set;
// Issue wins when both are.
type EngagementRequest struct {
	Issue   *EngagementRequestIssue
	Project *EngagementRequestProject
}

// EngagementItem is the score of one issue.
type EngagementItem struct {
	IssueID        string
	Owner          string
	Repo           string
	Number         int
	Score          int
	PreviousScore  int
	Classification model.EngagementClassification
}

// EngagementResponse holds every scored issue.
type EngagementResponse struct {
	Items      []EngagementItem
	TotalItems int
}

// EngagementService loads issues through the cache registry and scores them.
type EngagementService struct {
	store  driven.ScoreStore
	window time.Duration
	logger *slog.Logger
}

// NewEngagementService creates an EngagementService. store may be nil, in
// which case scores are not persisted. A non-positive window falls back to
// DefaultPreviousScoreWindow.
func NewEngagementService(store driven.ScoreStore, window time.Duration, logger *slog.Logger) *EngagementService {
	if window <= 0 {
		window = DefaultPreviousScoreWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EngagementService{
		store:  store,
		window: window,
		logger: logger,
	}
}

// Window returns how far back previous scores look.
func (s *EngagementService) Window() time.Duration {
	return s.window
}

// CalculateScores loads the requested issues with their details and scores
// each one, persisting the results when a store is configured.
func (s *EngagementService) CalculateScores(ctx context.Context, gh *GitHub, req EngagementRequest) (EngagementResponse, error) {
	issues, err := s.loadIssues(ctx, gh, req)
	if err != nil {
		return EngagementResponse{}, err
	}

	now := time.Now().UTC()
	items := make([]EngagementItem, 0, len(issues))

	for _, issue := range issues {
		score := CalculateScore(issue, now)
		previous := CalculatePreviousScore(issue, now, s.window)
		classification := Classify(score, previous)

		if s.store != nil {
			_, err := s.store.Save(ctx, model.ScoreRecord{
				IssueID:        issue.ID,
				Owner:          issue.Owner,
				Repository:     issue.Repository,
				Number:         issue.Number,
				Score:          score,
				PreviousScore:  previous,
				Classification: classification,
				ComputedAt:     now,
			})
			if err != nil {
				return EngagementResponse{}, fmt.Errorf("save score for %s#%d: %w", issue.FullName(), issue.Number, err)
			}
		}

		items = append(items, EngagementItem{
			IssueID:        issue.ID,
			Owner:          issue.Owner,
			Repo:           issue.Repository,
			Number:         issue.Number,
			Score:          score,
			PreviousScore:  previous,
			Classification: classification,
		})
	}

	s.logger.Info("engagement scores calculated", "count", len(items))

	return EngagementResponse{Items: items, TotalItems: len(items)}, nil
}

func (s *EngagementService) loadIssues(ctx context.Context, gh *GitHub, req EngagementRequest) ([]model.Issue, error) {
	switch {
	case req.Issue != nil:
		if req.Issue.Owner == "" || req.Issue.Repo == "" {
			return nil, fmt.Errorf("%w: issue owner and repo are required", ErrInvalidRequest)
		}

		repo := gh.Repository(req.Issue.Owner, req.Issue.Repo)
		if req.Issue.Number != nil {
			s.logger.Info("loading issue details", "repo", repo.FullName(), "number", *req.Issue.Number)

			issue, err := repo.IssueDetailed(ctx, *req.Issue.Number)
			if err != nil {
				return nil, err
			}
			return []model.Issue{issue}, nil
		}

		s.logger.Info("loading all issue details", "repo", repo.FullName())
		return repo.AllIssuesDetailed(ctx, false)

	case req.Project != nil:
		if req.Project.Owner == "" || req.Project.Number <= 0 {
			return nil, fmt.Errorf("%w: project owner and number are required", ErrInvalidRequest)
		}

		s.logger.Info("loading project issue details", "owner", req.Project.Owner, "project", req.Project.Number)

		items, err := gh.Project(req.Project.Owner, req.Project.Number).AllItemsDetailed(ctx, false)
		if err != nil {
			return nil, err
		}

		issues := make([]model.Issue, 0, len(items))
		for _, item := range items {
			if issue, ok := item.IssueContent(); ok {
				issues = append(issues, issue)
			}
		}
		return issues, nil

	default:
		s.logger.Error("engagement request had no issue or project")
		return nil, fmt.Errorf("%w: no issue or project specified", ErrInvalidRequest)
	}
}
