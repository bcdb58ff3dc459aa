// Package openai implements the LabelChooser port with an OpenAI chat model.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
	"github.com/ericfisherdev/issuepulse/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LabelChooser = (*Chooser)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Chooser asks a chat completion model to pick one label for an issue.
type Chooser struct {
	client *gopenai.Client
	model  string
}

// NewChooser creates a Chooser. An empty baseURL targets the public OpenAI
// API; any OpenAI-compatible endpoint may be given instead.
func NewChooser(apiKey, model, baseURL string) *Chooser {
	cfg := gopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}

	slog.Info("initializing label chooser", "model", model)

	return &Chooser{
		client: gopenai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// choiceResponse is the JSON object the model is instructed to return. Both
// fields are null when no label applies.
type choiceResponse struct {
	Label  *string `json:"label"`
	Reason *string `json:"reason"`
}

// ChooseLabel sends the issue and candidate labels to the model and parses
// its JSON reply.
func (c *Chooser) ChooseLabel(ctx context.Context, issue model.Issue, labels []model.Label) (model.LabelChoice, error) {
	slog.Debug("requesting label choice", "model", c.model, "issue", issue.Number, "candidates", len(labels))

	req := gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: systemPrompt(labels)},
			{Role: gopenai.ChatMessageRoleUser, Content: issuePrompt(issue)},
		},
		ResponseFormat: &gopenai.ChatCompletionResponseFormat{
			Type: gopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return model.LabelChoice{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return model.LabelChoice{}, errors.New("chat completion returned no choices")
	}

	slog.Debug("label choice received", "finish_reason", resp.Choices[0].FinishReason)

	var parsed choiceResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return model.LabelChoice{}, fmt.Errorf("decoding label choice: %w", err)
	}

	var choice model.LabelChoice
	if parsed.Label != nil {
		choice.Label = strings.TrimSpace(*parsed.Label)
	}
	if parsed.Reason != nil {
		choice.Reason = strings.TrimSpace(*parsed.Reason)
	}

	return choice, nil
}

func systemPrompt(labels []model.Label) string {
	var b strings.Builder

	b.WriteString(`You are an expert developer who is able to correctly and
accurately assign labels to new issues that are opened.

You are to pick from the following list of labels and
assign just one of them. If none of the labels are
correct, do not assign any labels. If no issue content
was provided or if there is not enough content to make
a decision, do not assign any labels. If the label that
you have selected is not in the list of labels, then
do not assign any labels.

If no labels match or can be assigned, then you are to
reply with a null label and null reason.
The only labels that are valid for assignment are found
between the "===== Available Labels =====" lines. Do not
return a label if that label is not found in there.

Some labels have an additional description that should be
used in order to find the best match.

You are to also provide a reason as to why that label was
selected to make sure that everyone knows why. Also, you
need to make sure to mention other related labels and why
they were not a good selection for the issue. Give a reason
in 50 to 100 words.

===== Available Labels =====
`)

	for _, l := range labels {
		fmt.Fprintf(&b, "- name: %s\n", l.Name)
		if strings.TrimSpace(l.Description) != "" {
			fmt.Fprintf(&b, "  description: %s\n", l.Description)
		}
	}

	b.WriteString(`===== Available Labels =====

Please reply in json with the format and only in this format:

{
    "label": "LABEL_NAME_HERE",
    "reason": "REASON_FOR_LABEL_HERE"
}
`)

	return b.String()
}

func issuePrompt(issue model.Issue) string {
	title := issue.Title
	if title == "" {
		title = "-"
	}

	return fmt.Sprintf(`A new issue has arrived, please label it correctly and accurately.

The issue title is:
%s

The issue body is:
%s
`, title, issue.Body)
}
