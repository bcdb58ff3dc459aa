package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
)

// ProjectCache holds the items of one Projects (v2) board. Issue content is
// handed to the owning repository cache, which remains the single owner of
// issue records.
type ProjectCache struct {
	gh     *GitHub
	owner  string
	number int
	logger *slog.Logger

	idMu     sync.Mutex
	id       string
	idFlight singleflight.Group

	mu    sync.Mutex
	items map[string]model.ProjectItem
}

func newProjectCache(gh *GitHub, owner string, number int) *ProjectCache {
	return &ProjectCache{
		gh:     gh,
		owner:  owner,
		number: number,
		logger: gh.logger.With("owner", owner, "project", number),
		items:  make(map[string]model.ProjectItem),
	}
}

// Owner returns the user or organization that owns the project.
func (p *ProjectCache) Owner() string { return p.owner }

// Number returns the project number.
func (p *ProjectCache) Number() int { return p.number }

// ProjectID resolves the project's node ID once. Concurrent first callers
// share a single resolution; a failed resolution is retried on the next call.
func (p *ProjectCache) ProjectID(ctx context.Context) (string, error) {
	p.idMu.Lock()
	id := p.id
	p.idMu.Unlock()

	recordLookup("project_id", id != "")
	if id != "" {
		return id, nil
	}

	v, _, err := sharedDo(ctx, &p.idFlight, "id", func(ctx context.Context) (any, error) {
		id, err := p.gh.source.FetchProjectID(ctx, p.owner, p.number)
		recordFetch("project_id", err)
		if err != nil {
			return "", fmt.Errorf("resolve project %s/%d: %w", p.owner, p.number, err)
		}

		p.idMu.Lock()
		p.id = id
		p.idMu.Unlock()

		p.logger.Debug("project id resolved", "id", id)
		return id, nil
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// AllItems fetches the board's items, caches them and merges issue content
// into the owning repository caches. Items whose issue is closed are left out
// of the result unless includeClosed is set; other item types always pass.
func (p *ProjectCache) AllItems(ctx context.Context, includeClosed bool) ([]model.ProjectItem, error) {
	id, err := p.ProjectID(ctx)
	if err != nil {
		return nil, err
	}

	items, err := p.gh.source.FetchAllProjectItems(ctx, id)
	recordFetch("project_items", err)
	if err != nil {
		return nil, fmt.Errorf("fetch items for project %s/%d: %w", p.owner, p.number, err)
	}

	result := make([]model.ProjectItem, 0, len(items))
	for _, item := range items {
		item = cloneItem(item)

		p.mu.Lock()
		p.items[item.ID] = item
		p.mu.Unlock()

		issue, ok := item.IssueContent()
		if ok {
			p.gh.Repository(issue.Owner, issue.Repository).CacheIssue(issue)
			if !includeClosed && !issue.IsOpen {
				continue
			}
		}

		result = append(result, cloneItem(item))
	}

	p.logger.Debug("project items cached", "fetched", len(items), "returned", len(result))
	return result, nil
}

// AllItemsDetailed is AllItems followed by bounded parallel hydration of every
// issue item through its repository cache.
func (p *ProjectCache) AllItemsDetailed(ctx context.Context, includeClosed bool) ([]model.ProjectItem, error) {
	items, err := p.AllItems(ctx, includeClosed)
	if err != nil {
		return nil, err
	}

	err = forEachLimit(ctx, len(items), p.gh.concurrency, func(ctx context.Context, i int) error {
		issue, ok := items[i].IssueContent()
		if !ok {
			return nil
		}

		detailed, err := p.gh.Repository(issue.Owner, issue.Repository).IssueDetailed(ctx, issue.Number)
		if err != nil {
			return err
		}
		items[i].Issue = &detailed
		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// Item returns a cached item by ID.
func (p *ProjectCache) Item(id string) (model.ProjectItem, bool) {
	p.mu.Lock()
	item, ok := p.items[id]
	p.mu.Unlock()

	if !ok {
		return model.ProjectItem{}, false
	}
	return cloneItem(item), true
}

func cloneItem(item model.ProjectItem) model.ProjectItem {
	if item.Issue != nil {
		issue := item.Issue.Clone()
		item.Issue = &issue
	}
	return item
}
