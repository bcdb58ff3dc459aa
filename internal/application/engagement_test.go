package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/issuepulse/internal/application"
	"github.com/ericfisherdev/issuepulse/internal/domain/model"
)

const week = 7 * 24 * time.Hour

func newIssue(now time.Time, created, lastActivity time.Duration) model.Issue {
	return model.Issue{
		ID:             "issue_1",
		Owner:          "octocat",
		Repository:     "hello-world",
		Number:         1,
		IsOpen:         true,
		Author:         "octocat",
		CreatedOn:      now.Add(-created),
		LastActivityOn: now.Add(-lastActivity),
	}
}

func userComment(id, author string, at time.Time, reactions int) model.Comment {
	return model.Comment{
		ID:             id,
		Author:         author,
		AuthorType:     "/" + author,
		CreatedOn:      at,
		TotalReactions: reactions,
		Reactions:      []model.Reaction{},
	}
}

func TestCalculateScore_BrandNewIssue(t *testing.T) {
	now := time.Now()
	issue := newIssue(now, 0, 0)

	// contributors 1*2 + recency 1 + age 1
	assert.Equal(t, 4, application.CalculateScore(issue, now))
}

func TestCalculateScore_AncientIssue(t *testing.T) {
	now := time.Now()
	issue := newIssue(now, 365*24*time.Hour, 365*24*time.Hour)

	assert.Equal(t, 2, application.CalculateScore(issue, now))
}

func TestCalculateScore_BrandNewBeatsAncient(t *testing.T) {
	now := time.Now()

	brandNew := application.CalculateScore(newIssue(now, 0, 0), now)
	ancient := application.CalculateScore(newIssue(now, 365*24*time.Hour, 365*24*time.Hour), now)

	assert.Greater(t, brandNew, ancient)
}

func TestCalculateScore_CommentsReactionsAndContributors(t *testing.T) {
	now := time.Now()
	issue := newIssue(now, 3*24*time.Hour, time.Hour)
	issue.TotalComments = 3
	issue.TotalReactions = 1
	issue.Comments = []model.Comment{
		userComment("c1", "alice", now.Add(-48*time.Hour), 2),
		userComment("c2", "octocat", now.Add(-time.Hour), 0),
		{ID: "c3", Author: "ci", AuthorType: "/apps/ci", CreatedOn: now.Add(-time.Hour), TotalReactions: 5},
	}
	issue.Reactions = []model.Reaction{{ID: "r1", Author: "bob", CreatedOn: now.Add(-time.Hour)}}

	// comments 2*3=6, reactions 1+2+5=8, contributors 2*2=4, recency 1, age 0
	assert.Equal(t, 6+8+4+1, application.CalculateScore(issue, now))
}

func TestCalculateScore_RecencyStepFunction(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{name: "future timestamps clamp to one day", elapsed: -time.Hour, want: 4},
		{name: "same day", elapsed: time.Hour, want: 4},
		{name: "one full day", elapsed: 47 * time.Hour, want: 4},
		{name: "two days drop both terms", elapsed: 48 * time.Hour, want: 2},
		{name: "thirty days", elapsed: 30 * 24 * time.Hour, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := newIssue(now, tt.elapsed, tt.elapsed)
			assert.Equal(t, tt.want, application.CalculateScore(issue, now))
		})
	}
}

func TestCalculatePreviousScore_QuietIssue(t *testing.T) {
	now := time.Now()
	issue := newIssue(now, 30*24*time.Hour, 30*24*time.Hour)

	assert.Equal(t, 2, application.CalculatePreviousScore(issue, now, week))
}

func TestCalculatePreviousScore_IgnoresRecentActivity(t *testing.T) {
	now := time.Now()
	issue := newIssue(now, 30*24*time.Hour, 2*24*time.Hour)
	issue.TotalComments = 2
	issue.Comments = []model.Comment{
		userComment("c1", "octocat", now.Add(-10*24*time.Hour), 0),
		userComment("c2", "alice", now.Add(-2*24*time.Hour), 0),
	}
	issue.Reactions = []model.Reaction{}

	// Then: one author comment 3 + contributors 2.
	assert.Equal(t, 5, application.CalculatePreviousScore(issue, now, week))
	// Now: two comments 6 + contributors 4.
	assert.Equal(t, 10, application.CalculateScore(issue, now))
}

func TestCalculatePreviousScore_KeepsReactionTotals(t *testing.T) {
	now := time.Now()
	issue := newIssue(now, 30*24*time.Hour, 30*24*time.Hour)
	issue.TotalReactions = 3
	issue.Reactions = []model.Reaction{
		{ID: "r1", Author: "alice", Content: "THUMBS_UP", CreatedOn: now.Add(-24 * time.Hour)},
		{ID: "r2", Author: "bob", Content: "HEART", CreatedOn: now.Add(-24 * time.Hour)},
		{ID: "r3", Author: "carol", Content: "ROCKET", CreatedOn: now.Add(-24 * time.Hour)},
	}

	// Reactions from yesterday still count a week back: contributors 2 + reactions 3.
	assert.Equal(t, 5, application.CalculatePreviousScore(issue, now, week))
	assert.Equal(t, 5, application.CalculateScore(issue, now))
}

func TestCalculatePreviousScore_IssueNewerThanWindow(t *testing.T) {
	now := time.Now()
	issue := newIssue(now, 24*time.Hour, time.Hour)

	assert.Equal(t, 0, application.CalculatePreviousScore(issue, now, week))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, model.EngagementHot, application.Classify(10, 5))
	assert.Equal(t, model.EngagementWarm, application.Classify(5, 5))
	assert.Equal(t, model.EngagementCold, application.Classify(2, 5))
}

func TestEngagementService_SingleIssue(t *testing.T) {
	now := time.Now()
	issue := newIssue(now, 30*24*time.Hour, 30*24*time.Hour)
	issue.Number = 7
	issue.TotalComments = 1

	source := &fakeSource{
		issues:  map[int]model.Issue{7: issue},
		details: map[int]model.IssueDetails{7: {Comments: []model.Comment{userComment("c1", "alice", now.Add(-time.Hour), 0)}}},
	}
	store := &fakeScoreStore{}
	svc := application.NewEngagementService(store, week, nil)

	number := 7
	resp, err := svc.CalculateScores(context.Background(), application.NewGitHub(source), application.EngagementRequest{
		Issue: &application.EngagementRequestIssue{Owner: "octocat", Repo: "hello-world", Number: &number},
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.TotalItems)

	item := resp.Items[0]
	assert.Equal(t, 7, item.Number)
	assert.Equal(t, "octocat", item.Owner)
	assert.Equal(t, "hello-world", item.Repo)
	// comments 3 + contributors 4
	assert.Equal(t, 7, item.Score)
	assert.Equal(t, 2, item.PreviousScore)
	assert.Equal(t, model.EngagementHot, item.Classification)

	require.Len(t, store.saved, 1)
	assert.Equal(t, 7, store.saved[0].Score)
	assert.Equal(t, model.EngagementHot, store.saved[0].Classification)
	assert.False(t, store.saved[0].ComputedAt.IsZero())
}

func TestEngagementService_AllOpenIssues(t *testing.T) {
	source := &fakeSource{
		allIssues: []model.Issue{
			testIssue(1, true, 0, 0),
			testIssue(2, true, 0, 0),
			testIssue(3, false, 0, 0),
		},
	}
	svc := application.NewEngagementService(nil, 0, nil)

	resp, err := svc.CalculateScores(context.Background(), application.NewGitHub(source), application.EngagementRequest{
		Issue: &application.EngagementRequestIssue{Owner: "octocat", Repo: "hello-world"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.TotalItems)
	assert.Equal(t, []bool{false}, source.includedClosed)
}

func TestEngagementService_Project(t *testing.T) {
	source := boardSource()
	svc := application.NewEngagementService(nil, week, nil)

	resp, err := svc.CalculateScores(context.Background(), application.NewGitHub(source), application.EngagementRequest{
		Project: &application.EngagementRequestProject{Owner: "octo-org", Number: 1},
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.Items[0].Number)
}

func TestEngagementService_EmptyRepositoryIsNotAnError(t *testing.T) {
	svc := application.NewEngagementService(nil, week, nil)

	resp, err := svc.CalculateScores(context.Background(), application.NewGitHub(&fakeSource{}), application.EngagementRequest{
		Issue: &application.EngagementRequestIssue{Owner: "octocat", Repo: "hello-world"},
	})
	require.NoError(t, err)

	assert.Empty(t, resp.Items)
	assert.Equal(t, 0, resp.TotalItems)
}

func TestEngagementService_InvalidRequests(t *testing.T) {
	svc := application.NewEngagementService(nil, week, nil)
	gh := application.NewGitHub(&fakeSource{})

	tests := []struct {
		name string
		req  application.EngagementRequest
	}{
		{name: "empty", req: application.EngagementRequest{}},
		{name: "issue without repo", req: application.EngagementRequest{Issue: &application.EngagementRequestIssue{Owner: "octocat"}}},
		{name: "project without number", req: application.EngagementRequest{Project: &application.EngagementRequestProject{Owner: "octo-org"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CalculateScores(context.Background(), gh, tt.req)
			assert.ErrorIs(t, err, application.ErrInvalidRequest)
		})
	}
}

func TestEngagementService_StoreErrorIsReturned(t *testing.T) {
	boom := errors.New("disk full")
	source := &fakeSource{allIssues: []model.Issue{testIssue(1, true, 0, 0)}}
	svc := application.NewEngagementService(&fakeScoreStore{saveErr: boom}, week, nil)

	_, err := svc.CalculateScores(context.Background(), application.NewGitHub(source), application.EngagementRequest{
		Issue: &application.EngagementRequestIssue{Owner: "octocat", Repo: "hello-world"},
	})

	assert.ErrorIs(t, err, boom)
}
