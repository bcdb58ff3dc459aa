package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shurcooL/githubv4"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
	"github.com/ericfisherdev/issuepulse/internal/domain/port/driven"
)

// Page sizes for GraphQL connections. Comments are fetched with their first
// page of reactions inline, so the comment page stays small.
const (
	labelsPageSize    = 100
	commentsPageSize  = 50
	reactionsPageSize = 100
	itemsPageSize     = 50
)

type pageInfo struct {
	EndCursor   githubv4.String
	HasNextPage githubv4.Boolean
}

type actor struct {
	Login        githubv4.String
	ResourcePath githubv4.String
}

type reactionNode struct {
	ID        githubv4.ID
	Content   githubv4.String
	CreatedAt githubv4.DateTime
	User      *struct {
		Login githubv4.String
	}
}

type reactionConnection struct {
	TotalCount githubv4.Int
	Nodes      []reactionNode
	PageInfo   pageInfo
}

type commentNode struct {
	ID        githubv4.ID
	Body      githubv4.String
	CreatedAt githubv4.DateTime
	Author    *actor
	Reactions reactionConnection `graphql:"reactions(first: 100)"`
}

type issueNode struct {
	ID         githubv4.ID
	Number     githubv4.Int
	State      githubv4.String
	Title      githubv4.String
	Body       githubv4.String
	CreatedAt  githubv4.DateTime
	UpdatedAt  githubv4.DateTime
	Author     *actor
	Repository struct {
		Name  githubv4.String
		Owner struct {
			Login githubv4.String
		}
	}
	Comments struct {
		TotalCount githubv4.Int
	}
	Reactions struct {
		TotalCount githubv4.Int
	}
	Labels struct {
		Nodes []struct {
			Name githubv4.String
		}
	} `graphql:"labels(first: 100)"`
}

type projectItemNode struct {
	ID      githubv4.ID
	Type    githubv4.String
	Content struct {
		Issue issueNode `graphql:"... on Issue"`
	}
}

// FetchLabels retrieves every label of a repository along with the number of
// issues carrying it.
func (c *Client) FetchLabels(ctx context.Context, owner, repo string) ([]model.Label, error) {
	var query struct {
		Repository struct {
			Labels struct {
				Nodes []struct {
					ID          githubv4.ID
					Name        githubv4.String
					Description githubv4.String
					Issues      struct {
						TotalCount githubv4.Int
					}
				}
				PageInfo pageInfo
			} `graphql:"labels(first: $pageSize, after: $cursor)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}

	variables := map[string]any{
		"owner":    githubv4.String(owner),
		"repo":     githubv4.String(repo),
		"pageSize": githubv4.Int(labelsPageSize),
		"cursor":   (*githubv4.String)(nil),
	}

	labels := []model.Label{}
	for {
		if err := c.gql.Query(ctx, &query, variables); err != nil {
			return nil, fmt.Errorf("querying labels for %s/%s: %w", owner, repo, err)
		}

		for _, l := range query.Repository.Labels.Nodes {
			labels = append(labels, model.Label{
				ID:          nodeID(l.ID),
				Name:        string(l.Name),
				Description: string(l.Description),
				TotalIssues: int(l.Issues.TotalCount),
			})
		}

		page := query.Repository.Labels.PageInfo
		if !page.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(page.EndCursor)
	}

	slog.Debug("github graphql labels", "repo", owner+"/"+repo, "count", len(labels))
	return labels, nil
}

// FetchIssueDetails retrieves every comment (with its reactions) and every
// reaction on the issue itself.
func (c *Client) FetchIssueDetails(ctx context.Context, owner, repo string, number int) (model.IssueDetails, error) {
	comments, err := c.fetchComments(ctx, owner, repo, number)
	if err != nil {
		return model.IssueDetails{}, err
	}

	reactions, err := c.fetchIssueReactions(ctx, owner, repo, number)
	if err != nil {
		return model.IssueDetails{}, err
	}

	return model.IssueDetails{Comments: comments, Reactions: reactions}, nil
}

func (c *Client) fetchComments(ctx context.Context, owner, repo string, number int) ([]model.Comment, error) {
	var query struct {
		Repository struct {
			Issue struct {
				Comments struct {
					Nodes    []commentNode
					PageInfo pageInfo
				} `graphql:"comments(first: $pageSize, after: $cursor)"`
			} `graphql:"issue(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}

	variables := map[string]any{
		"owner":    githubv4.String(owner),
		"repo":     githubv4.String(repo),
		"number":   githubv4.Int(number),
		"pageSize": githubv4.Int(commentsPageSize),
		"cursor":   (*githubv4.String)(nil),
	}

	comments := []model.Comment{}
	for {
		if err := c.gql.Query(ctx, &query, variables); err != nil {
			return nil, fmt.Errorf("querying comments for %s/%s#%d: %w", owner, repo, number, err)
		}

		for _, n := range query.Repository.Issue.Comments.Nodes {
			comment := mapComment(n)

			if n.Reactions.PageInfo.HasNextPage {
				rest, err := c.fetchCommentReactions(ctx, n.ID, n.Reactions.PageInfo.EndCursor)
				if err != nil {
					return nil, err
				}
				comment.Reactions = append(comment.Reactions, rest...)
			}

			comments = append(comments, comment)
		}

		page := query.Repository.Issue.Comments.PageInfo
		if !page.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(page.EndCursor)
	}

	return comments, nil
}

// fetchCommentReactions continues a comment's reaction connection past the
// page returned inline with the comment.
func (c *Client) fetchCommentReactions(ctx context.Context, commentID githubv4.ID, after githubv4.String) ([]model.Reaction, error) {
	var query struct {
		Node struct {
			IssueComment struct {
				Reactions reactionConnection `graphql:"reactions(first: $pageSize, after: $cursor)"`
			} `graphql:"... on IssueComment"`
		} `graphql:"node(id: $id)"`
	}

	variables := map[string]any{
		"id":       commentID,
		"pageSize": githubv4.Int(reactionsPageSize),
		"cursor":   githubv4.NewString(after),
	}

	var reactions []model.Reaction
	for {
		if err := c.gql.Query(ctx, &query, variables); err != nil {
			return nil, fmt.Errorf("querying reactions for comment %s: %w", nodeID(commentID), err)
		}

		conn := query.Node.IssueComment.Reactions
		reactions = append(reactions, mapReactions(conn.Nodes)...)

		if !conn.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(conn.PageInfo.EndCursor)
	}

	return reactions, nil
}

func (c *Client) fetchIssueReactions(ctx context.Context, owner, repo string, number int) ([]model.Reaction, error) {
	var query struct {
		Repository struct {
			Issue struct {
				Reactions reactionConnection `graphql:"reactions(first: $pageSize, after: $cursor)"`
			} `graphql:"issue(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}

	variables := map[string]any{
		"owner":    githubv4.String(owner),
		"repo":     githubv4.String(repo),
		"number":   githubv4.Int(number),
		"pageSize": githubv4.Int(reactionsPageSize),
		"cursor":   (*githubv4.String)(nil),
	}

	reactions := []model.Reaction{}
	for {
		if err := c.gql.Query(ctx, &query, variables); err != nil {
			return nil, fmt.Errorf("querying reactions for %s/%s#%d: %w", owner, repo, number, err)
		}

		conn := query.Repository.Issue.Reactions
		reactions = append(reactions, mapReactions(conn.Nodes)...)

		if !conn.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(conn.PageInfo.EndCursor)
	}

	return reactions, nil
}

// FetchProjectID resolves a project number to its node ID, trying the owner
// as an organization first and falling back to a user.
func (c *Client) FetchProjectID(ctx context.Context, owner string, number int) (string, error) {
	variables := map[string]any{
		"owner":  githubv4.String(owner),
		"number": githubv4.Int(number),
	}

	var orgQuery struct {
		Organization struct {
			ProjectV2 *struct {
				ID githubv4.ID
			} `graphql:"projectV2(number: $number)"`
		} `graphql:"organization(login: $owner)"`
	}

	orgErr := c.gql.Query(ctx, &orgQuery, variables)
	if orgErr == nil && orgQuery.Organization.ProjectV2 != nil {
		return nodeID(orgQuery.Organization.ProjectV2.ID), nil
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("resolving project %s/%d: %w", owner, number, ctx.Err())
	}

	slog.Debug("organization project lookup failed, trying user", "owner", owner, "project", number, "error", orgErr)

	var userQuery struct {
		User struct {
			ProjectV2 *struct {
				ID githubv4.ID
			} `graphql:"projectV2(number: $number)"`
		} `graphql:"user(login: $owner)"`
	}

	if err := c.gql.Query(ctx, &userQuery, variables); err != nil {
		return "", fmt.Errorf("resolving project %s/%d: %w", owner, number, errors.Join(orgErr, err))
	}
	if userQuery.User.ProjectV2 == nil {
		return "", fmt.Errorf("resolving project %s/%d: project %w", owner, number, driven.ErrNotFound)
	}

	return nodeID(userQuery.User.ProjectV2.ID), nil
}

// FetchAllProjectItems retrieves every item of a project. Issue content is
// mapped; other item types carry only their ID and type.
func (c *Client) FetchAllProjectItems(ctx context.Context, projectID string) ([]model.ProjectItem, error) {
	var query struct {
		Node struct {
			ProjectV2 struct {
				Items struct {
					Nodes    []projectItemNode
					PageInfo pageInfo
				} `graphql:"items(first: $pageSize, after: $cursor)"`
			} `graphql:"... on ProjectV2"`
		} `graphql:"node(id: $id)"`
	}

	variables := map[string]any{
		"id":       githubv4.ID(projectID),
		"pageSize": githubv4.Int(itemsPageSize),
		"cursor":   (*githubv4.String)(nil),
	}

	items := []model.ProjectItem{}
	for {
		if err := c.gql.Query(ctx, &query, variables); err != nil {
			return nil, fmt.Errorf("querying items for project %s: %w", projectID, err)
		}

		for _, n := range query.Node.ProjectV2.Items.Nodes {
			items = append(items, mapProjectItem(n))
		}

		page := query.Node.ProjectV2.Items.PageInfo
		if !page.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(page.EndCursor)
	}

	slog.Debug("github graphql project items", "project", projectID, "count", len(items))
	return items, nil
}

func mapProjectItem(n projectItemNode) model.ProjectItem {
	item := model.ProjectItem{
		ID:   nodeID(n.ID),
		Type: model.ProjectItemType(n.Type),
	}

	if item.Type == model.ProjectItemIssue {
		issue := mapIssueNode(n.Content.Issue)
		item.Issue = &issue
	}

	return item
}

func mapIssueNode(n issueNode) model.Issue {
	author := ghostLogin
	if n.Author != nil {
		author = string(n.Author.Login)
	}

	labels := make([]string, 0, len(n.Labels.Nodes))
	for _, l := range n.Labels.Nodes {
		labels = append(labels, string(l.Name))
	}

	return model.Issue{
		ID:             nodeID(n.ID),
		Owner:          string(n.Repository.Owner.Login),
		Repository:     string(n.Repository.Name),
		Number:         int(n.Number),
		IsOpen:         n.State == "OPEN",
		Author:         author,
		Title:          string(n.Title),
		Body:           string(n.Body),
		TotalComments:  int(n.Comments.TotalCount),
		TotalReactions: int(n.Reactions.TotalCount),
		LastActivityOn: n.UpdatedAt.UTC(),
		CreatedOn:      n.CreatedAt.UTC(),
		Labels:         labels,
	}
}

func mapComment(n commentNode) model.Comment {
	author, resourcePath := ghostLogin, "/"+ghostLogin
	if n.Author != nil {
		author = string(n.Author.Login)
		resourcePath = string(n.Author.ResourcePath)
	}

	return model.Comment{
		ID:             nodeID(n.ID),
		Author:         author,
		AuthorType:     resourcePath,
		Body:           string(n.Body),
		CreatedOn:      n.CreatedAt.UTC(),
		TotalReactions: int(n.Reactions.TotalCount),
		Reactions:      mapReactions(n.Reactions.Nodes),
	}
}

func mapReactions(nodes []reactionNode) []model.Reaction {
	reactions := make([]model.Reaction, 0, len(nodes))
	for _, n := range nodes {
		author := ghostLogin
		if n.User != nil {
			author = string(n.User.Login)
		}
		reactions = append(reactions, model.Reaction{
			ID:        nodeID(n.ID),
			Author:    author,
			Content:   string(n.Content),
			CreatedOn: n.CreatedAt.UTC(),
		})
	}
	return reactions
}

func nodeID(id githubv4.ID) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(id)
}
