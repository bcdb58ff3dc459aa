package model

// ProjectItemType identifies what a Projects (v2) item points at.
type ProjectItemType string

const (
	ProjectItemIssue       ProjectItemType = "ISSUE"
	ProjectItemPullRequest ProjectItemType = "PULL_REQUEST"
	ProjectItemDraftIssue  ProjectItemType = "DRAFT_ISSUE"
	ProjectItemRedacted    ProjectItemType = "REDACTED"
)

// ProjectItem is an entry on a GitHub project board. Only issue content is
// modelled; Issue is nil for every other item type.
type ProjectItem struct {
	ID    string
	Type  ProjectItemType
	Issue *Issue
}

// IssueContent returns the issue the item points at, if any.
func (p ProjectItem) IssueContent() (Issue, bool) {
	if p.Issue == nil {
		return Issue{}, false
	}
	return *p.Issue, true
}
