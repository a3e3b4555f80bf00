// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend calls an OpenAI-compatible chat completions endpoint and
// requests a JSON object response.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend returns a backend for model. An empty baseURL selects
// the OpenAI API; otherwise it must include the version path, e.g.
// "https://generativelanguage.googleapis.com/v1beta/openai".
func NewOpenAIBackend(apiKey, baseURL, model string, client *http.Client) *OpenAIBackend {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if client != nil {
		config.HTTPClient = client
	}
	return &OpenAIBackend{client: openai.NewClientWithConfig(config), model: model}
}

// Generate implements Backend.
func (o *OpenAIBackend) Generate(ctx context.Context, p Prompt) (Reply, error) {
	prompt, err := RenderPrompt(p)
	if err != nil {
		return Reply{}, fmt.Errorf("rendering prompt: %w", err)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a Japanese lexicographer. Reply with JSON only."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Reply{}, fmt.Errorf("calling %s: %w", o.model, err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, fmt.Errorf("%s returned no choices", o.model)
	}

	model := resp.Model
	if model == "" {
		model = o.model
	}
	return Reply{Text: resp.Choices[0].Message.Content, Model: model}, nil
}
