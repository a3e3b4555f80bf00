// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"

	"github.com/pdiddy/lexical-graph/internal/httputil"
)

// promptTmpl is the fixed instruction sent for every term. The field names
// must match the decoder in schema.go.
var promptTmpl = template.Must(template.New("relations").Parse(`You are a Japanese language expert. Analyze the Japanese lexeme "{{.Term}}" and generate accurate lexical relations.

TASKS:
1. Give the reading in hiragana and the Japanese part of speech of "{{.Term}}".
2. Give an English translation and its English part of speech.
3. List at least {{.MinSynonyms}} Japanese synonyms and at least {{.MinAntonyms}} Japanese antonyms.
{{- if .Existing}}

KNOWN ATTRIBUTES:
reading: {{.Existing.Reading}}
part_of_speech: {{.Existing.PartOfSpeech}}
translation: {{.Existing.Translation}}
{{- end}}
{{- if .Neighbors}}

KNOWN RELATIONS (refine these and add new ones):
{{- range .Neighbors}}
- {{.Lemma}} ({{.Reading}}, {{.Translation}}): {{.Relation}} {{printf "%.2f" .Weight}}
{{- end}}
{{- end}}

Return ONLY a JSON object with exactly this structure:

{"source_lexeme": {"lemma": "{{.Term}}", "reading": "...", "part_of_speech": "...", "translation": "...", "translation_part_of_speech": "..."},
 "lexeme_synonyms": [{"synonym_lemma": "...", "reading": "...", "part_of_speech": "...", "strength": 0.8, "translation": "...", "mutual_sense": "...", "mutual_sense_reading": "...", "mutual_sense_translation": "...", "domain": "...", "domain_reading": "...", "domain_translation": "...", "explanation": "..."}],
 "lexeme_antonyms": [{"antonym_lemma": "...", "reading": "...", "part_of_speech": "...", "translation": "...", "strength": 0.6, "domain": "...", "domain_reading": "...", "domain_translation": "...", "explanation": "..."}]}

RULES:
- No markdown, comments, or text outside the JSON object.
- Use exactly the field names shown. Do not add fields.
- strength is a JSON number between 0.0 and 1.0.
- Readings are hiragana. Parts of speech are Japanese (名詞, 動詞, 形容詞, ...).
- Do not list "{{.Term}}" as its own synonym or antonym.
`))

// RenderPrompt executes the prompt template for p.
func RenderPrompt(p Prompt) (string, error) {
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend calls the Claude Messages API.
type ClaudeBackend struct {
	APIKey     string
	Model      string
	MaxRetries int
	Client     *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Model   string          `json:"model"`
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Generate sends the rendered prompt and returns the first text block.
func (c *ClaudeBackend) Generate(ctx context.Context, p Prompt) (Reply, error) {
	prompt, err := RenderPrompt(p)
	if err != nil {
		return Reply{}, fmt.Errorf("rendering prompt: %w", err)
	}

	bodyBytes, err := json.Marshal(claudeRequest{
		Model:     c.Model,
		MaxTokens: 8192,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Reply{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return Reply{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, c.MaxRetries)
	if err != nil {
		return Reply{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Reply{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return Reply{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			model := cResp.Model
			if model == "" {
				model = c.Model
			}
			return Reply{Text: block.Text, Model: model}, nil
		}
	}
	return Reply{}, fmt.Errorf("no text content in Claude API response")
}
