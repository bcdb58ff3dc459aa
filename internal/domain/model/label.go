package model

// Label represents a repository label.
type Label struct {
	ID          string
	Name        string
	Description string
	TotalIssues int
}

// LabelFilter selects labels by exact name and/or by a regular expression
// matched against the label name. Results are the union of both.
type LabelFilter struct {
	Names   []string
	Pattern string
}

// LabelChoice is the label picked for an issue along with the reasoning.
// An empty Label means no label applies.
type LabelChoice struct {
	Label  string
	Reason string
}
