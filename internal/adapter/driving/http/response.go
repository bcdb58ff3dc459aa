package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/issuepulse/internal/application"
	"github.com/ericfisherdev/issuepulse/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request bodies ---

// IssueRef names an issue, or a whole repository when Number is omitted.
type IssueRef struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number *int   `json:"number,omitempty"`
}

// ProjectRef names a user or organization project by number.
type ProjectRef struct {
	Owner  string `json:"owner"`
	Number int    `json:"number"`
}

// EngagementRequestBody is the body of POST /api/v1/engagement.
type EngagementRequestBody struct {
	Issue   *IssueRef   `json:"issue,omitempty"`
	Project *ProjectRef `json:"project,omitempty"`
}

func (b EngagementRequestBody) toRequest() application.EngagementRequest {
	var req application.EngagementRequest
	if b.Issue != nil {
		req.Issue = &application.EngagementRequestIssue{
			Owner:  b.Issue.Owner,
			Repo:   b.Issue.Repo,
			Number: b.Issue.Number,
		}
	}
	if b.Project != nil {
		req.Project = &application.EngagementRequestProject{
			Owner:  b.Project.Owner,
			Number: b.Project.Number,
		}
	}
	return req
}

// LabelFilterBody restricts the candidate labels by exact name or pattern.
type LabelFilterBody struct {
	Names   []string `json:"names"`
	Pattern string   `json:"pattern"`
}

// LabelSelectRequestBody is the body of POST /api/v1/labels/select.
type LabelSelectRequestBody struct {
	Issue  IssueRef        `json:"issue"`
	Labels LabelFilterBody `json:"labels"`
}

func (b LabelSelectRequestBody) toRequest() application.LabelSelectorRequest {
	req := application.LabelSelectorRequest{
		Owner: b.Issue.Owner,
		Repo:  b.Issue.Repo,
		Labels: model.LabelFilter{
			Names:   b.Labels.Names,
			Pattern: b.Labels.Pattern,
		},
	}
	if b.Issue.Number != nil {
		req.Number = *b.Issue.Number
	}
	return req
}

// --- Responses ---

// ReactionResponse is the JSON representation of a reaction.
type ReactionResponse struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	CreatedOn string `json:"created_on"`
}

// CommentResponse is the JSON representation of an issue comment.
type CommentResponse struct {
	ID             string             `json:"id"`
	Author         string             `json:"author"`
	AuthorType     string             `json:"author_type"`
	IsUser         bool               `json:"is_user"`
	Body           string             `json:"body"`
	BodyHTML       string             `json:"body_html"`
	CreatedOn      string             `json:"created_on"`
	TotalReactions int                `json:"total_reactions"`
	Reactions      []ReactionResponse `json:"reactions"`
}

// IssueResponse is the JSON representation of an issue. Comments and
// reactions are null when the issue was not hydrated.
type IssueResponse struct {
	ID                    string             `json:"id"`
	Owner                 string             `json:"owner"`
	Repository            string             `json:"repository"`
	Number                int                `json:"number"`
	IsOpen                bool               `json:"is_open"`
	Author                string             `json:"author"`
	Title                 string             `json:"title"`
	Body                  string             `json:"body"`
	BodyHTML              string             `json:"body_html"`
	Labels                []string           `json:"labels"`
	TotalComments         int                `json:"total_comments"`
	TotalReactions        int                `json:"total_reactions"`
	TotalUserComments     int                `json:"total_user_comments"`
	TotalUserContributors int                `json:"total_user_contributors"`
	CreatedOn             string             `json:"created_on"`
	LastActivityOn        string             `json:"last_activity_on"`
	Comments              []CommentResponse  `json:"comments"`
	Reactions             []ReactionResponse `json:"reactions"`
}

// HistoryResponse is an issue reconstructed at a point in time.
type HistoryResponse struct {
	At             string        `json:"at"`
	Issue          IssueResponse `json:"issue"`
	Score          int           `json:"score"`
	PreviousScore  int           `json:"previous_score"`
	Classification string        `json:"classification"`
}

// EngagementItemResponse is the score of one issue.
type EngagementItemResponse struct {
	ID             string `json:"id"`
	Owner          string `json:"owner"`
	Repository     string `json:"repository"`
	Number         int    `json:"number"`
	Score          int    `json:"score"`
	PreviousScore  int    `json:"previous_score"`
	Classification string `json:"classification"`
}

// EngagementResponse is the result of POST /api/v1/engagement.
type EngagementResponse struct {
	Items      []EngagementItemResponse `json:"items"`
	TotalItems int                      `json:"total_items"`
}

// ScoreResponse is a persisted engagement score.
type ScoreResponse struct {
	ID             int64  `json:"id"`
	IssueID        string `json:"issue_id"`
	Owner          string `json:"owner"`
	Repository     string `json:"repository"`
	Number         int    `json:"number"`
	Score          int    `json:"score"`
	PreviousScore  int    `json:"previous_score"`
	Classification string `json:"classification"`
	ComputedAt     string `json:"computed_at"`
}

// LabelChoiceResponse is the label picked for an issue. Label is null when
// no candidate fits.
type LabelChoiceResponse struct {
	Label  *string `json:"label"`
	Reason string  `json:"reason"`
}

// HealthResponse is the JSON representation of a health check.
type HealthResponse struct {
	Status         string `json:"status"`
	Time           string `json:"time"`
	LabelSelection bool   `json:"label_selection"`
	ScoreHistory   bool   `json:"score_history"`
}

// --- Mapping ---

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toReactionResponses(reactions []model.Reaction) []ReactionResponse {
	if reactions == nil {
		return nil
	}
	resp := make([]ReactionResponse, 0, len(reactions))
	for _, r := range reactions {
		resp = append(resp, ReactionResponse{
			ID:        r.ID,
			Author:    r.Author,
			Content:   r.Content,
			CreatedOn: formatTime(r.CreatedOn),
		})
	}
	return resp
}

func toCommentResponse(c model.Comment) CommentResponse {
	reactions := toReactionResponses(c.Reactions)
	if reactions == nil {
		reactions = []ReactionResponse{}
	}
	return CommentResponse{
		ID:             c.ID,
		Author:         c.Author,
		AuthorType:     c.AuthorType,
		IsUser:         c.IsUser(),
		Body:           c.Body,
		BodyHTML:       RenderMarkdown(c.Body),
		CreatedOn:      formatTime(c.CreatedOn),
		TotalReactions: c.TotalReactions,
		Reactions:      reactions,
	}
}

func toIssueResponse(issue model.Issue) IssueResponse {
	var comments []CommentResponse
	if issue.Comments != nil {
		comments = make([]CommentResponse, 0, len(issue.Comments))
		for _, c := range issue.Comments {
			comments = append(comments, toCommentResponse(c))
		}
	}

	labels := issue.Labels
	if labels == nil {
		labels = []string{}
	}

	return IssueResponse{
		ID:                    issue.ID,
		Owner:                 issue.Owner,
		Repository:            issue.Repository,
		Number:                issue.Number,
		IsOpen:                issue.IsOpen,
		Author:                issue.Author,
		Title:                 issue.Title,
		Body:                  issue.Body,
		BodyHTML:              RenderMarkdown(issue.Body),
		Labels:                labels,
		TotalComments:         issue.TotalComments,
		TotalReactions:        issue.TotalReactions,
		TotalUserComments:     issue.TotalUserComments(),
		TotalUserContributors: issue.TotalUserContributors(),
		CreatedOn:             formatTime(issue.CreatedOn),
		LastActivityOn:        formatTime(issue.LastActivityOn),
		Comments:              comments,
		Reactions:             toReactionResponses(issue.Reactions),
	}
}

func toEngagementResponse(resp application.EngagementResponse) EngagementResponse {
	items := make([]EngagementItemResponse, 0, len(resp.Items))
	for _, it := range resp.Items {
		items = append(items, EngagementItemResponse{
			ID:             it.IssueID,
			Owner:          it.Owner,
			Repository:     it.Repo,
			Number:         it.Number,
			Score:          it.Score,
			PreviousScore:  it.PreviousScore,
			Classification: string(it.Classification),
		})
	}
	return EngagementResponse{Items: items, TotalItems: resp.TotalItems}
}

func toScoreResponse(rec model.ScoreRecord) ScoreResponse {
	return ScoreResponse{
		ID:             rec.ID,
		IssueID:        rec.IssueID,
		Owner:          rec.Owner,
		Repository:     rec.Repository,
		Number:         rec.Number,
		Score:          rec.Score,
		PreviousScore:  rec.PreviousScore,
		Classification: string(rec.Classification),
		ComputedAt:     formatTime(rec.ComputedAt),
	}
}

func toLabelChoiceResponse(choice model.LabelChoice) LabelChoiceResponse {
	resp := LabelChoiceResponse{Reason: choice.Reason}
	if choice.Label != "" {
		label := choice.Label
		resp.Label = &label
	}
	return resp
}
