package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
	"github.com/ericfisherdev/issuepulse/internal/domain/port/driven"
)

const labelsFlightKey = "labels"

// RepositoryCache holds the labels and issues of a single repository. It owns
// the canonical issue records; every method returns copies, so callers observe
// enrichment (hydration, merges) only by querying again.
type RepositoryCache struct {
	gh     *GitHub
	owner  string
	name   string
	logger *slog.Logger

	labelsMu sync.Mutex
	labels   []model.Label // nil until the first unfiltered load

	mu     sync.Mutex
	issues map[int]model.Issue

	flights singleflight.Group
}

func newRepositoryCache(gh *GitHub, owner, name string) *RepositoryCache {
	return &RepositoryCache{
		gh:     gh,
		owner:  owner,
		name:   name,
		logger: gh.logger.With("repo", owner+"/"+name),
		issues: make(map[int]model.Issue),
	}
}

// Owner returns the repository owner as first requested.
func (r *RepositoryCache) Owner() string { return r.owner }

// Name returns the repository name as first requested.
func (r *RepositoryCache) Name() string { return r.name }

// FullName returns "owner/name".
func (r *RepositoryCache) FullName() string { return r.owner + "/" + r.name }

// Labels returns the repository's labels. A nil filter loads the labels once
// and serves the memoized set afterwards. A non-nil filter selects from the
// memoized set without fetching and returns driven.ErrLabelsNotLoaded when no
// unfiltered load has happened yet.
func (r *RepositoryCache) Labels(ctx context.Context, filter *model.LabelFilter) ([]model.Label, error) {
	if filter != nil {
		return r.filterLabels(*filter)
	}

	r.labelsMu.Lock()
	cached := r.labels
	r.labelsMu.Unlock()

	if cached != nil {
		recordLookup("labels", true)
		return slices.Clone(cached), nil
	}
	recordLookup("labels", false)

	v, _, err := sharedDo(ctx, &r.flights, labelsFlightKey, func(ctx context.Context) (any, error) {
		labels, err := r.gh.source.FetchLabels(ctx, r.owner, r.name)
		recordFetch("labels", err)
		if err != nil {
			return nil, fmt.Errorf("fetch labels for %s: %w", r.FullName(), err)
		}
		if labels == nil {
			labels = []model.Label{}
		}

		r.labelsMu.Lock()
		r.labels = labels
		r.labelsMu.Unlock()

		r.logger.Debug("labels loaded", "count", len(labels))
		return labels, nil
	})
	if err != nil {
		return nil, err
	}

	return slices.Clone(v.([]model.Label)), nil
}

func (r *RepositoryCache) filterLabels(filter model.LabelFilter) ([]model.Label, error) {
	r.labelsMu.Lock()
	labels := r.labels
	r.labelsMu.Unlock()

	if labels == nil {
		return nil, fmt.Errorf("filter labels for %s: %w", r.FullName(), driven.ErrLabelsNotLoaded)
	}

	var pattern *regexp.Regexp
	if filter.Pattern != "" {
		re, err := regexp.Compile(filter.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile label pattern %q: %w", filter.Pattern, err)
		}
		pattern = re
	}

	selected := make([]model.Label, 0, len(filter.Names))
	seen := make(map[string]bool)

	add := func(l model.Label) {
		if seen[l.ID] {
			return
		}
		seen[l.ID] = true
		selected = append(selected, l)
	}

	for _, name := range filter.Names {
		for _, l := range labels {
			if l.Name == name {
				add(l)
			}
		}
	}

	if pattern != nil {
		for _, l := range labels {
			if pattern.MatchString(l.Name) {
				add(l)
			}
		}
	}

	return selected, nil
}

// Issue returns the cached issue, fetching and caching it on a miss. It never
// hydrates details.
func (r *RepositoryCache) Issue(ctx context.Context, number int) (model.Issue, error) {
	r.mu.Lock()
	cached, ok := r.issues[number]
	r.mu.Unlock()

	recordLookup("issue", ok)
	if ok {
		return cached.Clone(), nil
	}

	issue, err := r.gh.source.FetchIssue(ctx, r.owner, r.name, number)
	recordFetch("issue", err)
	if err != nil {
		return model.Issue{}, fmt.Errorf("fetch issue %s#%d: %w", r.FullName(), number, err)
	}

	r.mu.Lock()
	r.issues[number] = issue
	r.mu.Unlock()

	r.logger.Debug("issue cached", "number", number)
	return issue.Clone(), nil
}

// IssueDetailed returns the issue with comments and reactions, fetching
// details only when the issue needs them.
func (r *RepositoryCache) IssueDetailed(ctx context.Context, number int) (model.Issue, error) {
	if _, err := r.Issue(ctx, number); err != nil {
		return model.Issue{}, err
	}
	return r.hydrate(ctx, number)
}

// AllIssues fetches the repository's issues and replaces the cached record of
// each one. Closed issues stay cached but are left out of the result unless
// includeClosed is set.
func (r *RepositoryCache) AllIssues(ctx context.Context, includeClosed bool) ([]model.Issue, error) {
	issues, err := r.gh.source.FetchAllIssues(ctx, r.owner, r.name, includeClosed)
	recordFetch("issues", err)
	if err != nil {
		return nil, fmt.Errorf("fetch issues for %s: %w", r.FullName(), err)
	}

	r.mu.Lock()
	for _, issue := range issues {
		r.issues[issue.Number] = issue
	}
	r.mu.Unlock()

	result := make([]model.Issue, 0, len(issues))
	for _, issue := range issues {
		if !includeClosed && !issue.IsOpen {
			continue
		}
		result = append(result, issue.Clone())
	}

	r.logger.Debug("issues cached", "fetched", len(issues), "returned", len(result))
	return result, nil
}

// AllIssuesDetailed is AllIssues followed by bounded parallel hydration of
// every returned issue. Results keep the order of AllIssues.
func (r *RepositoryCache) AllIssuesDetailed(ctx context.Context, includeClosed bool) ([]model.Issue, error) {
	issues, err := r.AllIssues(ctx, includeClosed)
	if err != nil {
		return nil, err
	}

	detailed := make([]model.Issue, len(issues))
	err = forEachLimit(ctx, len(issues), r.gh.concurrency, func(ctx context.Context, i int) error {
		issue, err := r.hydrate(ctx, issues[i].Number)
		if err != nil {
			return err
		}
		detailed[i] = issue
		return nil
	})
	if err != nil {
		return nil, err
	}

	return detailed, nil
}

// CacheIssue stores an issue obtained elsewhere, such as from a project
// board. Detail lists missing from the incoming issue are inherited from the
// cached record so earlier hydration is never lost.
func (r *RepositoryCache) CacheIssue(issue model.Issue) {
	issue = issue.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.issues[issue.Number]; ok {
		if issue.Comments == nil {
			issue.Comments = cached.Comments
		}
		if issue.Reactions == nil {
			issue.Reactions = cached.Reactions
		}
	}
	r.issues[issue.Number] = issue
}

// hydrate fetches details for a cached issue when the hydration rule requires
// it and returns a copy of the refreshed record. Concurrent hydrations of the
// same issue share one fetch.
func (r *RepositoryCache) hydrate(ctx context.Context, number int) (model.Issue, error) {
	r.mu.Lock()
	cached, ok := r.issues[number]
	r.mu.Unlock()

	if !ok {
		return model.Issue{}, fmt.Errorf("hydrate issue %s#%d: not cached", r.FullName(), number)
	}
	if !cached.NeedsHydration() {
		hydrationSkippedTotal.Inc()
		return cached.Clone(), nil
	}

	v, shared, err := sharedDo(ctx, &r.flights, strconv.Itoa(number), func(ctx context.Context) (any, error) {
		details, err := r.gh.source.FetchIssueDetails(ctx, r.owner, r.name, number)
		recordFetch("details", err)
		if err != nil {
			return nil, fmt.Errorf("fetch details for %s#%d: %w", r.FullName(), number, err)
		}
		return r.applyDetails(number, details), nil
	})
	if err != nil {
		return model.Issue{}, err
	}
	if shared {
		r.logger.Debug("issue hydration shared", "number", number)
	}

	return v.(model.Issue).Clone(), nil
}

func (r *RepositoryCache) applyDetails(number int, details model.IssueDetails) model.Issue {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue := r.issues[number].WithDetails(details)
	r.issues[number] = issue

	return issue.Clone()
}
