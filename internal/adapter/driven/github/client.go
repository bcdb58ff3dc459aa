// Package github implements the GitHubSource port using go-github for REST
// issue reads and githubv4 for GraphQL label, detail and project reads.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
	"github.com/ericfisherdev/issuepulse/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubSource = (*Client)(nil)

// ghostLogin stands in for deleted accounts, which GitHub reports as a null author.
const ghostLogin = "ghost"

// Client implements the driven.GitHubSource port.
type Client struct {
	rest *gh.Client
	gql  *githubv4.Client
}

// NewClient creates a GitHub client with the following transport stack:
//  1. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  2. httpcache (ETag-based conditional request caching)
//  3. oauth2 static token
//  4. unauthorized detector (HTTP 401 becomes driven.ErrUnauthorized)
//
// The same HTTP client serves both the REST and GraphQL APIs.
func NewClient(token string) *Client {
	authTransport := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		Base:   &unauthorizedTransport{base: http.DefaultTransport},
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	cacheTransport.Transport = authTransport

	httpClient := github_ratelimit.NewClient(cacheTransport)

	return &Client{
		rest: gh.NewClient(httpClient),
		gql:  githubv4.NewClient(httpClient),
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
// GraphQL requests go to baseURL + "graphql".
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := &http.Client{
		Transport: &unauthorizedTransport{base: base},
		Timeout:   httpClient.Timeout,
	}

	rest := gh.NewClient(wrapped)
	rest.BaseURL = u

	graphqlURL := *u
	graphqlURL.Path = "/graphql"

	return &Client{
		rest: rest,
		gql:  githubv4.NewEnterpriseClient(graphqlURL.String(), wrapped),
	}, nil
}

// FetchIssue retrieves a single issue. Pull requests share the issue number
// space and are rejected.
func (c *Client) FetchIssue(ctx context.Context, owner, repo string, number int) (model.Issue, error) {
	issue, resp, err := c.rest.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return model.Issue{}, fmt.Errorf("getting issue %s/%s#%d: %w", owner, repo, number, notFound(err))
	}

	logRateLimit(resp, owner+"/"+repo+"/issue", 0, 1)

	if issue.IsPullRequest() {
		return model.Issue{}, fmt.Errorf("getting issue %s/%s#%d: number refers to a pull request: %w", owner, repo, number, driven.ErrNotFound)
	}

	return mapIssue(issue, owner, repo), nil
}

// FetchAllIssues retrieves open issues, or open and closed issues when
// includeClosed is set. It handles pagination automatically and drops pull
// requests, which the Issues API also lists.
func (c *Client) FetchAllIssues(ctx context.Context, owner, repo string, includeClosed bool) ([]model.Issue, error) {
	state := "open"
	if includeClosed {
		state = "all"
	}

	opts := &gh.IssueListByRepoOptions{
		State:     state,
		Sort:      "updated",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	endpoint := owner + "/" + repo + "/issues"
	allIssues := []model.Issue{}

	for {
		issues, resp, err := c.rest.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing issues for %s/%s (page %d): %w", owner, repo, opts.ListOptions.Page, notFound(err))
		}

		logRateLimit(resp, endpoint, opts.ListOptions.Page, len(issues))

		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			allIssues = append(allIssues, mapIssue(issue, owner, repo))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}

	return allIssues, nil
}

// notFound maps a REST 404 to driven.ErrNotFound, keeping the original
// error in the chain.
func notFound(err error) error {
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound {
		return errors.Join(driven.ErrNotFound, err)
	}
	return err
}

// logRateLimit logs rate limit information from a GitHub API response.
// Warns when remaining requests drop below 100.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// mapIssue converts a go-github Issue to a domain model Issue.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
// Owner and repo come from the request because list responses omit the
// repository object.
func mapIssue(issue *gh.Issue, owner, repo string) model.Issue {
	author := issue.GetUser().GetLogin()
	if author == "" {
		author = ghostLogin
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	return model.Issue{
		ID:             issue.GetNodeID(),
		Owner:          owner,
		Repository:     repo,
		Number:         issue.GetNumber(),
		IsOpen:         issue.GetState() == "open",
		Author:         author,
		Title:          issue.GetTitle(),
		Body:           issue.GetBody(),
		TotalComments:  issue.GetComments(),
		TotalReactions: issue.GetReactions().GetTotalCount(),
		LastActivityOn: issue.GetUpdatedAt().Time.UTC(),
		CreatedOn:      issue.GetCreatedAt().Time.UTC(),
		Labels:         labels,
	}
}
