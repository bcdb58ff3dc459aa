package model

import (
	"strings"
	"time"
)

// appResourcePrefix marks comment authors that are GitHub Apps (bots).
const appResourcePrefix = "/apps/"

// Comment represents a comment on a GitHub issue.
type Comment struct {
	ID             string
	Author         string
	AuthorType     string // Author resource path, e.g. "/octocat" or "/apps/dependabot".
	Body           string
	CreatedOn      time.Time
	TotalReactions int

	// Reactions is nil until hydrated.
	Reactions []Reaction
}

// IsUser reports whether the comment was written by a person rather than an app.
func (c Comment) IsUser() bool {
	return !strings.HasPrefix(c.AuthorType, appResourcePrefix)
}

// Reaction represents a single emoji reaction on an issue or comment.
type Reaction struct {
	ID        string
	Author    string
	Content   string // Reaction kind as reported by GitHub, e.g. "THUMBS_UP".
	CreatedOn time.Time
}
