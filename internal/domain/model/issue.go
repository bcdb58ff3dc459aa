package model

import (
	"slices"
	"time"
)

// Issue represents a GitHub issue known to a repository cache.
//
// TotalComments and TotalReactions are the authoritative counts reported by
// GitHub. They are set when the issue is fetched and never recomputed from the
// detail lists, which may be absent or (for historic views) a strict subset.
type Issue struct {
	ID             string
	Owner          string
	Repository     string
	Number         int
	IsOpen         bool
	Author         string
	Title          string
	Body           string
	TotalComments  int
	TotalReactions int
	LastActivityOn time.Time
	CreatedOn      time.Time
	Labels         []string

	// Detail fields. nil means not hydrated; a non-nil empty slice means
	// hydrated with nothing to show.
	Comments  []Comment
	Reactions []Reaction
}

// IssueDetails is the combined detail result for one issue: its comments
// (with their reactions) and the reactions on the issue itself.
type IssueDetails struct {
	Comments  []Comment
	Reactions []Reaction
}

// FullName returns "owner/repo" for the repository the issue belongs to.
func (i Issue) FullName() string {
	return i.Owner + "/" + i.Repository
}

// NeedsHydration reports whether a remote detail fetch is required. Issues
// whose authoritative counts are zero are treated as already hydrated.
func (i Issue) NeedsHydration() bool {
	return (i.Comments == nil && i.TotalComments > 0) ||
		(i.Reactions == nil && i.TotalReactions > 0)
}

// IsHydrated reports whether both detail lists are present.
func (i Issue) IsHydrated() bool {
	return i.Comments != nil && i.Reactions != nil
}

// Age returns how long ago the issue was created, relative to now.
func (i Issue) Age(now time.Time) time.Duration {
	return now.UTC().Sub(i.CreatedOn.UTC())
}

// TimeSinceLastActivity returns how long ago the issue was last active.
func (i Issue) TimeSinceLastActivity(now time.Time) time.Duration {
	return now.UTC().Sub(i.LastActivityOn.UTC())
}

// UserComments returns the comments not authored by a bot or app.
// Returns nil when comments have not been hydrated.
func (i Issue) UserComments() []Comment {
	if i.Comments == nil {
		return nil
	}

	user := make([]Comment, 0, len(i.Comments))
	for _, c := range i.Comments {
		if c.IsUser() {
			user = append(user, c)
		}
	}
	return user
}

// TotalUserComments returns the number of user-authored comments.
func (i Issue) TotalUserComments() int {
	return len(i.UserComments())
}

// TotalCommentReactions sums the reaction counts of every comment.
func (i Issue) TotalCommentReactions() int {
	total := 0
	for _, c := range i.Comments {
		total += c.TotalReactions
	}
	return total
}

// UserContributors returns the distinct set of user comment authors plus the
// issue author, in order of first appearance.
func (i Issue) UserContributors() []string {
	seen := map[string]bool{i.Author: true}
	contributors := []string{i.Author}

	for _, c := range i.UserComments() {
		if seen[c.Author] {
			continue
		}
		seen[c.Author] = true
		contributors = append(contributors, c.Author)
	}

	return contributors
}

// TotalUserContributors returns len(UserContributors()).
func (i Issue) TotalUserContributors() int {
	return len(i.UserContributors())
}

// WithDetails returns a copy of the issue carrying the given details. nil
// lists are normalised to empty slices so the result counts as hydrated.
func (i Issue) WithDetails(details IssueDetails) Issue {
	i.Comments = details.Comments
	if i.Comments == nil {
		i.Comments = []Comment{}
	}
	i.Reactions = details.Reactions
	if i.Reactions == nil {
		i.Reactions = []Reaction{}
	}
	return i
}

// Clone returns a deep copy of the issue. nil detail lists stay nil.
func (i Issue) Clone() Issue {
	i.Labels = slices.Clone(i.Labels)
	i.Reactions = slices.Clone(i.Reactions)

	if i.Comments != nil {
		comments := make([]Comment, len(i.Comments))
		for k, c := range i.Comments {
			c.Reactions = slices.Clone(c.Reactions)
			comments[k] = c
		}
		i.Comments = comments
	}

	return i
}
