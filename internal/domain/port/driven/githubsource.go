package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
)

// Sentinel errors shared by the GitHub source and the caches built on it.
var (
	// ErrUnauthorized indicates GitHub rejected the configured credentials.
	ErrUnauthorized = errors.New("github: unauthorized")

	// ErrNotFound indicates the requested issue or project does not exist or
	// is not visible with the configured credentials.
	ErrNotFound = errors.New("github: not found")

	// ErrLabelsNotLoaded indicates a filtered label read was attempted before
	// the repository's labels were loaded.
	ErrLabelsNotLoaded = errors.New("labels not loaded yet")
)

// GitHubSource defines the driven port for reading issues, labels and
// projects from GitHub. Implementations own pagination, rate limiting and
// authentication; callers never retry.
type GitHubSource interface {
	FetchLabels(ctx context.Context, owner, repo string) ([]model.Label, error)
	FetchIssue(ctx context.Context, owner, repo string, number int) (model.Issue, error)
	// FetchAllIssues returns open issues, or open and closed issues when
	// includeClosed is true. Pull requests are never returned.
	FetchAllIssues(ctx context.Context, owner, repo string, includeClosed bool) ([]model.Issue, error)
	// FetchIssueDetails returns the comments (with their reactions) and the
	// issue-level reactions in one result.
	FetchIssueDetails(ctx context.Context, owner, repo string, number int) (model.IssueDetails, error)

	// FetchProjectID resolves a user or organization project number to its node ID.
	FetchProjectID(ctx context.Context, owner string, number int) (string, error)
	FetchAllProjectItems(ctx context.Context, projectID string) ([]model.ProjectItem, error)
}
