package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/issuepulse/internal/adapter/driven/openai"
	"github.com/ericfisherdev/issuepulse/internal/domain/model"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

// newTestChooser serves chat completions whose assistant message is content.
func newTestChooser(t *testing.T, content string, inspect func(chatRequest)) *openai.Chooser {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if inspect != nil {
			inspect(req)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(server.Close)

	return openai.NewChooser("test-key", "", server.URL+"/v1")
}

var candidates = []model.Label{
	{ID: "L1", Name: "bug", Description: "Something isn't working"},
	{ID: "L2", Name: "enhancement"},
}

func TestChooseLabel_ParsesChoice(t *testing.T) {
	var seen chatRequest
	chooser := newTestChooser(t, `{"label":"bug","reason":"The app crashes on start."}`, func(req chatRequest) {
		seen = req
	})

	choice, err := chooser.ChooseLabel(context.Background(), model.Issue{Number: 1, Title: "Crash", Body: "Boom"}, candidates)
	require.NoError(t, err)

	assert.Equal(t, model.LabelChoice{Label: "bug", Reason: "The app crashes on start."}, choice)

	assert.Equal(t, openai.DefaultModel, seen.Model)
	assert.Equal(t, "json_object", seen.ResponseFormat.Type)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Contains(t, seen.Messages[0].Content, "- name: bug\n  description: Something isn't working")
	assert.Contains(t, seen.Messages[0].Content, "- name: enhancement\n")
	assert.NotContains(t, seen.Messages[0].Content, "- name: enhancement\n  description")
	assert.Contains(t, seen.Messages[1].Content, "Crash")
	assert.Contains(t, seen.Messages[1].Content, "Boom")
}

func TestChooseLabel_NullMeansNoLabel(t *testing.T) {
	chooser := newTestChooser(t, `{"label":null,"reason":null}`, nil)

	choice, err := chooser.ChooseLabel(context.Background(), model.Issue{Number: 1}, candidates)
	require.NoError(t, err)

	assert.Equal(t, model.LabelChoice{}, choice)
}

func TestChooseLabel_InvalidJSON(t *testing.T) {
	chooser := newTestChooser(t, `I think it's a bug`, nil)

	_, err := chooser.ChooseLabel(context.Background(), model.Issue{Number: 1}, candidates)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding label choice")
}

func TestChooseLabel_UntitledIssueUsesPlaceholder(t *testing.T) {
	var seen chatRequest
	chooser := newTestChooser(t, `{"label":null,"reason":null}`, func(req chatRequest) {
		seen = req
	})

	_, err := chooser.ChooseLabel(context.Background(), model.Issue{Number: 1}, candidates)
	require.NoError(t, err)

	assert.Contains(t, seen.Messages[1].Content, "The issue title is:\n-\n")
}
