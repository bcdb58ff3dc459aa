package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return baseTime.AddDate(0, 0, n)
}

func detailedIssue() model.Issue {
	return model.Issue{
		ID:             "issue_1",
		Owner:          "octocat",
		Repository:     "hello-world",
		Number:         1,
		IsOpen:         true,
		Author:         "octocat",
		Title:          "Crash on startup",
		TotalComments:  3,
		TotalReactions: 2,
		CreatedOn:      day(0),
		LastActivityOn: day(10),
		Labels:         []string{"bug"},
		Comments: []model.Comment{
			{
				ID: "c1", Author: "alice", AuthorType: "/alice", CreatedOn: day(1), TotalReactions: 2,
				Reactions: []model.Reaction{
					{ID: "c1r1", Author: "bob", Content: "THUMBS_UP", CreatedOn: day(2)},
					{ID: "c1r2", Author: "carol", Content: "HEART", CreatedOn: day(6)},
				},
			},
			{ID: "c2", Author: "bob", AuthorType: "/bob", CreatedOn: day(4), Reactions: []model.Reaction{}},
			{ID: "c3", Author: "ci-bot", AuthorType: "/apps/ci-bot", CreatedOn: day(8), Reactions: []model.Reaction{}},
		},
		Reactions: []model.Reaction{
			{ID: "r1", Author: "dave", Content: "EYES", CreatedOn: day(3)},
			{ID: "r2", Author: "erin", Content: "ROCKET", CreatedOn: day(9)},
		},
	}
}

func TestHistoricAt_BeforeCreationIsNotApplicable(t *testing.T) {
	issue := detailedIssue()

	historic, ok := issue.HistoricAt(issue.CreatedOn.Add(-time.Second))

	assert.False(t, ok)
	assert.Equal(t, model.Issue{}, historic)
}

func TestHistoricAt_AtCreationIsApplicable(t *testing.T) {
	issue := detailedIssue()

	historic, ok := issue.HistoricAt(issue.CreatedOn)

	require.True(t, ok)
	assert.Equal(t, issue.CreatedOn, historic.LastActivityOn)
	assert.NotNil(t, historic.Comments)
	assert.Empty(t, historic.Comments)
	assert.NotNil(t, historic.Reactions)
	assert.Empty(t, historic.Reactions)
}

func TestHistoricAt_FiltersEventsAfterCutoff(t *testing.T) {
	issue := detailedIssue()
	cutoff := day(5)

	historic, ok := issue.HistoricAt(cutoff)
	require.True(t, ok)

	assert.Equal(t, cutoff, historic.LastActivityOn)

	require.Len(t, historic.Comments, 2)
	assert.Equal(t, "c1", historic.Comments[0].ID)
	assert.Equal(t, "c2", historic.Comments[1].ID)

	// The comment existed at the cutoff but one of its reactions came later.
	require.Len(t, historic.Comments[0].Reactions, 1)
	assert.Equal(t, "c1r1", historic.Comments[0].Reactions[0].ID)

	require.Len(t, historic.Reactions, 1)
	assert.Equal(t, "r1", historic.Reactions[0].ID)

	for _, c := range historic.Comments {
		assert.False(t, c.CreatedOn.After(cutoff), "comment %s after cutoff", c.ID)
		for _, r := range c.Reactions {
			assert.False(t, r.CreatedOn.After(cutoff), "reaction %s after cutoff", r.ID)
		}
	}
	for _, r := range historic.Reactions {
		assert.False(t, r.CreatedOn.After(cutoff), "reaction %s after cutoff", r.ID)
	}
}

func TestHistoricAt_KeepsAuthoritativeCounts(t *testing.T) {
	issue := detailedIssue()

	historic, ok := issue.HistoricAt(day(2))
	require.True(t, ok)

	assert.Equal(t, issue.TotalComments, historic.TotalComments)
	assert.Equal(t, issue.TotalReactions, historic.TotalReactions)
	assert.Equal(t, 2, historic.Comments[0].TotalReactions)
}

func TestHistoricAt_UnhydratedListsStayNil(t *testing.T) {
	issue := detailedIssue()
	issue.Comments = nil
	issue.Reactions = nil

	historic, ok := issue.HistoricAt(day(5))
	require.True(t, ok)

	assert.Nil(t, historic.Comments)
	assert.Nil(t, historic.Reactions)
}

func TestHistoricAt_UnhydratedCommentReactionsStayNil(t *testing.T) {
	issue := detailedIssue()
	issue.Comments[0].Reactions = nil

	historic, ok := issue.HistoricAt(day(5))
	require.True(t, ok)

	assert.Nil(t, historic.Comments[0].Reactions)
	assert.NotNil(t, historic.Comments[1].Reactions)
}

func TestHistoricAt_IsIdempotent(t *testing.T) {
	issue := detailedIssue()
	cutoff := day(5)

	once, ok := issue.HistoricAt(cutoff)
	require.True(t, ok)

	twice, ok := once.HistoricAt(cutoff)
	require.True(t, ok)

	assert.Equal(t, once, twice)
}

func TestHistoricAt_DoesNotMutateSource(t *testing.T) {
	issue := detailedIssue()
	want := detailedIssue()

	_, ok := issue.HistoricAt(day(5))
	require.True(t, ok)

	assert.Equal(t, want, issue)
}
