package application

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/ericfisherdev/issuepulse/internal/domain/port/driven"
)

// DefaultHydrationConcurrency caps concurrent detail fetches when no option is given.
const DefaultHydrationConcurrency = 8

type repositoryKey struct {
	owner string
	repo  string
}

type projectKey struct {
	owner  string
	number int
}

// GitHub is the identity map for repository and project caches. It hands out
// exactly one cache per key for its lifetime so that project-driven hydration
// and direct repository access share the same issues. Keys are compared
// case-insensitively, matching GitHub's handling of owner and repo names.
type GitHub struct {
	source      driven.GitHubSource
	concurrency int
	logger      *slog.Logger

	mu           sync.RWMutex
	repositories map[repositoryKey]*RepositoryCache
	projects     map[projectKey]*ProjectCache
}

// Option configures a GitHub registry.
type Option func(*GitHub)

// WithHydrationConcurrency caps the number of detail fetches in flight during
// bulk hydration. Values below 1 are ignored.
func WithHydrationConcurrency(n int) Option {
	return func(g *GitHub) {
		if n >= 1 {
			g.concurrency = n
		}
	}
}

// WithLogger sets the logger used by the registry and its caches.
func WithLogger(logger *slog.Logger) Option {
	return func(g *GitHub) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGitHub creates a registry backed by the given source.
func NewGitHub(source driven.GitHubSource, opts ...Option) *GitHub {
	g := &GitHub{
		source:       source,
		concurrency:  DefaultHydrationConcurrency,
		logger:       slog.Default(),
		repositories: make(map[repositoryKey]*RepositoryCache),
		projects:     make(map[projectKey]*ProjectCache),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Source returns the GitHub source shared by every cache in the registry.
func (g *GitHub) Source() driven.GitHubSource {
	return g.source
}

// Repository returns the cache for owner/repo, creating it on first use.
func (g *GitHub) Repository(owner, repo string) *RepositoryCache {
	key := repositoryKey{owner: strings.ToLower(owner), repo: strings.ToLower(repo)}

	g.mu.RLock()
	cache, ok := g.repositories[key]
	g.mu.RUnlock()
	if ok {
		return cache
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if cache, ok := g.repositories[key]; ok {
		return cache
	}

	cache = newRepositoryCache(g, owner, repo)
	g.repositories[key] = cache
	g.logger.Debug("repository cache created", "repo", cache.FullName())

	return cache
}

// Project returns the cache for the owner's project number, creating it on first use.
func (g *GitHub) Project(owner string, number int) *ProjectCache {
	key := projectKey{owner: strings.ToLower(owner), number: number}

	g.mu.RLock()
	cache, ok := g.projects[key]
	g.mu.RUnlock()
	if ok {
		return cache
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if cache, ok := g.projects[key]; ok {
		return cache
	}

	cache = newProjectCache(g, owner, number)
	g.projects[key] = cache
	g.logger.Debug("project cache created", "owner", owner, "project", number)

	return cache
}
