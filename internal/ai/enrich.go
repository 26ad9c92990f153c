package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/magicseth/donewithemail-sub001/internal/model"
)

const enrichMaxTokens = 256

// Enrichment is the triage metadata the model returns for one message.
type Enrichment struct {
	Summary        string         `json:"summary"`
	Category       model.Category `json:"category"`
	AcceptCalendar bool           `json:"accept_calendar"`
}

// Enricher classifies and summarizes messages for the triage list. It
// shares the Messages API transport with Assistant but runs single
// stateless calls with a JSON-only prompt.
type Enricher struct {
	apiKey string
	model  string
	client *http.Client
}

// NewEnricher creates an enricher using the given model name, falling
// back to the assistant default when empty.
func NewEnricher(apiKey, modelName string) *Enricher {
	if modelName == "" {
		modelName = defaultModel
	}
	return &Enricher{
		apiKey: apiKey,
		model:  modelName,
		client: &http.Client{},
	}
}

// Enabled reports whether an API key is configured.
func (e *Enricher) Enabled() bool {
	return e.apiKey != ""
}

// Enrich asks the model to summarize and categorize one message. The
// response is strict JSON matching the Enrichment shape.
func (e *Enricher) Enrich(ctx context.Context, email model.Email) (*Enrichment, error) {
	prompt := buildEnrichPrompt(email)

	reqBody := apiRequest{
		Model:     e.model,
		MaxTokens: enrichMaxTokens,
		System:    enrichSystemPrompt,
		Messages: []apiMessage{
			{
				Role:    string(RoleUser),
				Content: []apiContentBlock{{Type: "text", Text: prompt}},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling enrichment request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, apiURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating enrichment request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading enrichment response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding enrichment response: %w", err)
	}

	var text string
	for _, block := range result.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return parseEnrichment(text)
}

const enrichSystemPrompt = "You classify email for an inbox triage tool. " +
	"Respond with ONLY a JSON object, no prose, matching: " +
	`{"summary": "<one sentence>", "category": ` +
	`"personal|work|newsletter|notification|calendar|other", ` +
	`"accept_calendar": <true if the message is a calendar invitation ` +
	`the user would plausibly accept>}`

// buildEnrichPrompt renders one message for classification.
func buildEnrichPrompt(email model.Email) string {
	var sb strings.Builder
	sb.WriteString("From: ")
	sb.WriteString(email.Sender())
	sb.WriteString("\nSubject: ")
	sb.WriteString(email.Subject)
	if email.IsSubscription {
		sb.WriteString("\nMailing list: yes")
	}
	if email.HasCalendarEvent {
		sb.WriteString("\nCalendar attachment: yes")
	}
	if email.Snippet != "" {
		sb.WriteString("\n\n")
		sb.WriteString(email.Snippet)
	}
	return sb.String()
}

// parseEnrichment decodes the model's JSON reply, tolerating code fences
// and surrounding prose.
func parseEnrichment(text string) (*Enrichment, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in enrichment reply: %q", text)
	}

	var enrichment Enrichment
	if err := json.Unmarshal([]byte(text[start:end+1]), &enrichment); err != nil {
		return nil, fmt.Errorf("decoding enrichment reply: %w", err)
	}

	switch enrichment.Category {
	case model.CategoryPersonal, model.CategoryWork, model.CategoryNewsletter,
		model.CategoryNotification, model.CategoryCalendar, model.CategoryOther:
	case "":
		enrichment.Category = model.CategoryOther
	default:
		enrichment.Category = model.CategoryOther
	}

	return &enrichment, nil
}
