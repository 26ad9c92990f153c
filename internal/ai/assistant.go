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
	"github.com/magicseth/donewithemail-sub001/internal/store"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1024
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// StreamChunk represents a piece of the AI response being streamed back.
type StreamChunk struct {
	Text string
	Done bool
}

// Assistant is the AI assistant service that communicates with the Claude API,
// manages conversation context, and handles tool use for inbox queries.
type Assistant struct {
	apiKey    string
	store     store.Store
	context   *ConversationContext
	model     string
	maxTokens int
	client    *http.Client
}

// New creates a new AI assistant with the given configuration.
func New(
	apiKey string,
	s store.Store,
	modelName string,
	maxTokens int,
) *Assistant {
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Assistant{
		apiKey:    apiKey,
		store:     s,
		context:   NewConversationContext(),
		model:     modelName,
		maxTokens: maxTokens,
		client:    &http.Client{},
	}
}

// Reset clears the conversation history.
func (a *Assistant) Reset() {
	a.context.Reset()
}

// SendMessage sends a user message to the Claude API and returns a channel
// that receives response chunks. The channel is closed when the response
// is complete.
func (a *Assistant) SendMessage(
	ctx context.Context,
	userMsg string,
) (<-chan StreamChunk, error) {
	a.context.AddMessage(RoleUser, userMsg, nil)

	ch := make(chan StreamChunk, 16)

	go func() {
		defer close(ch)
		a.processMessage(ctx, ch)
	}()

	return ch, nil
}

// processMessage handles the API call loop, including tool use iterations.
func (a *Assistant) processMessage(ctx context.Context, ch chan<- StreamChunk) {
	maxToolIterations := 5

	for i := 0; i < maxToolIterations; i++ {
		resp, err := a.callAPI(ctx)
		if err != nil {
			ch <- StreamChunk{
				Text: fmt.Sprintf("Error: %v", err),
				Done: true,
			}
			return
		}

		// Process content blocks from the response
		var textParts []string
		var toolUseBlocks []apiToolUse
		hasToolUse := false

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textParts = append(textParts, block.Text)
			case "tool_use":
				hasToolUse = true
				toolUseBlocks = append(toolUseBlocks, apiToolUse{
					ID:    block.ID,
					Name:  block.Name,
					Input: block.Input,
				})
			}
		}

		// Send any text content to the UI
		if len(textParts) > 0 {
			combined := strings.Join(textParts, "")
			ch <- StreamChunk{Text: combined, Done: !hasToolUse}

			if !hasToolUse {
				a.context.AddMessage(RoleAssistant, combined, nil)
				return
			}
		}

		if !hasToolUse {
			if len(textParts) == 0 {
				ch <- StreamChunk{Text: "", Done: true}
			}
			return
		}

		// Record the assistant's response (with tool use) in context
		assistantContent, err := json.Marshal(resp.Content)
		if err != nil {
			ch <- StreamChunk{
				Text: fmt.Sprintf("Error encoding response: %v", err),
				Done: true,
			}
			return
		}
		a.context.AddMessage(RoleAssistant, string(assistantContent), nil)

		// Process each tool use and build tool results
		var toolResults []apiContentBlock
		for _, tu := range toolUseBlocks {
			result := a.executeToolUse(ctx, tu)
			toolResults = append(toolResults, apiContentBlock{
				Type:      "tool_result",
				ToolUseID: tu.ID,
				Content:   result,
			})
		}

		// Add tool results as a user message
		toolResultsJSON, err := json.Marshal(toolResults)
		if err != nil {
			ch <- StreamChunk{
				Text: fmt.Sprintf("Error encoding tool results: %v", err),
				Done: true,
			}
			return
		}
		a.context.AddMessage(RoleUser, string(toolResultsJSON), nil)
	}

	ch <- StreamChunk{
		Text: "\n\n(Reached maximum tool use iterations)",
		Done: true,
	}
}

// callAPI makes a single request to the Claude Messages API.
func (a *Assistant) callAPI(ctx context.Context) (*apiResponse, error) {
	systemPrompt := a.buildSystemPrompt(ctx)
	messages := a.buildAPIMessages()

	reqBody := apiRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    systemPrompt,
		Messages:  messages,
		Tools:     toolDefinitions(),
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, apiURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
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
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// buildSystemPrompt constructs the system prompt with inbox context.
func (a *Assistant) buildSystemPrompt(ctx context.Context) string {
	var sb strings.Builder

	sb.WriteString("You are an email triage assistant. ")
	sb.WriteString("You can search and summarize messages from the user's ")
	sb.WriteString("connected mail accounts.\n\n")

	summary := a.buildInboxSummary(ctx)
	if summary != "" {
		sb.WriteString("Current inbox data:\n")
		sb.WriteString(summary)
		sb.WriteString("\n\n")
	}

	sb.WriteString("You have access to these tools:\n")
	sb.WriteString("- search_emails: Search messages by query text, status, ")
	sb.WriteString("category, or subscription flag\n")
	sb.WriteString("- get_email_detail: Get full details for a specific ")
	sb.WriteString("message by its ID\n\n")

	sb.WriteString("IMPORTANT: You CANNOT perform write operations ")
	sb.WriteString("(archiving, replying, unsubscribing, or note-taking). ")
	sb.WriteString("If asked to perform a write action, politely explain that ")
	sb.WriteString("you can only search and summarize, and suggest the triage ")
	sb.WriteString("gesture the user can use instead:\n")
	sb.WriteString("- Drag the row indicator left to the check mark to archive\n")
	sb.WriteString("- Drag right to the arrow to reply\n")
	sb.WriteString("- Drag far right to the dot to attach a note\n")
	sb.WriteString("- Drag far left to the cross to unsubscribe\n\n")

	sb.WriteString("When referencing messages, include their sender and ")
	sb.WriteString("subject. Keep responses concise and focused.")

	return sb.String()
}

// buildInboxSummary queries the store for message counts by status and
// category.
func (a *Assistant) buildInboxSummary(ctx context.Context) string {
	emails, err := a.store.GetEmails(ctx, store.EmailFilter{
		SortBy:   "date",
		SortDesc: true,
		Limit:    500,
	})
	if err != nil || len(emails) == 0 {
		return "No messages available."
	}

	statusCounts := make(map[model.EmailStatus]int)
	categoryCounts := make(map[model.Category]int)
	subscriptions := 0

	for _, e := range emails {
		statusCounts[e.Status]++
		if e.Category != "" {
			categoryCounts[e.Category]++
		}
		if e.IsSubscription {
			subscriptions++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total messages: %d\n", len(emails)))

	sb.WriteString("By status: ")
	first := true
	for status, count := range statusCounts {
		if !first {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s=%d", status, count))
		first = false
	}
	sb.WriteString("\n")

	sb.WriteString("By category: ")
	first = true
	for category, count := range categoryCounts {
		if !first {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s=%d", category, count))
		first = false
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Subscriptions: %d", subscriptions))

	return sb.String()
}

// buildAPIMessages converts the conversation context into the Claude API
// message format. Messages with JSON content blocks (from tool use) are
// sent as structured content; plain text messages are sent as-is.
func (a *Assistant) buildAPIMessages() []apiMessage {
	contextMsgs := a.context.GetMessages()
	var messages []apiMessage

	for _, msg := range contextMsgs {
		// Check if this is a structured content message (tool use/results)
		if isJSONArray(msg.Content) {
			var blocks []apiContentBlock
			if err := json.Unmarshal(
				[]byte(msg.Content), &blocks,
			); err == nil {
				messages = append(messages, apiMessage{
					Role:    string(msg.Role),
					Content: blocks,
				})
				continue
			}
		}

		messages = append(messages, apiMessage{
			Role: string(msg.Role),
			Content: []apiContentBlock{
				{Type: "text", Text: msg.Content},
			},
		})
	}

	return messages
}

// executeToolUse runs a tool requested by the AI and returns the result.
func (a *Assistant) executeToolUse(
	ctx context.Context,
	tu apiToolUse,
) string {
	// Read-only guard: reject any write-like tool names
	writeTools := map[string]bool{
		"archive_email":     true,
		"reply_email":       true,
		"unsubscribe_email": true,
		"create_note":       true,
		"update_email":      true,
		"delete_email":      true,
	}
	if writeTools[tu.Name] {
		return `{"error": "Write operations are not permitted. ` +
			`Please use the drag gesture on the inbox row instead: ` +
			`check mark to archive, arrow to reply, dot for notes, ` +
			`cross to unsubscribe."}`
	}

	switch tu.Name {
	case "search_emails":
		return a.handleSearchEmails(ctx, tu.Input)
	case "get_email_detail":
		return a.handleGetEmailDetail(ctx, tu.Input)
	default:
		return fmt.Sprintf(
			`{"error": "Unknown tool: %s"}`, tu.Name,
		)
	}
}

// handleSearchEmails queries the store with the provided search parameters.
func (a *Assistant) handleSearchEmails(
	ctx context.Context,
	input json.RawMessage,
) string {
	var params struct {
		Query        string `json:"query"`
		Status       string `json:"status"`
		Category     string `json:"category"`
		Subscription *bool  `json:"subscription"`
	}

	if err := json.Unmarshal(input, &params); err != nil {
		return fmt.Sprintf(`{"error": "Invalid parameters: %v"}`, err)
	}

	filter := store.EmailFilter{
		SortBy:   "date",
		SortDesc: true,
		Limit:    20,
	}

	if params.Query != "" {
		filter.Query = &params.Query
	}
	if params.Status != "" {
		status := model.EmailStatus(params.Status)
		filter.Status = &status
	}
	if params.Category != "" {
		category := model.Category(params.Category)
		filter.Category = &category
	}
	if params.Subscription != nil {
		filter.Subscription = params.Subscription
	}

	emails, err := a.store.GetEmails(ctx, filter)
	if err != nil {
		return fmt.Sprintf(`{"error": "Search failed: %v"}`, err)
	}

	type emailSummary struct {
		ID           string `json:"id"`
		From         string `json:"from"`
		Subject      string `json:"subject"`
		Status       string `json:"status"`
		Category     string `json:"category,omitempty"`
		Subscription bool   `json:"subscription"`
		Date         string `json:"date"`
	}

	summaries := make([]emailSummary, 0, len(emails))
	for _, e := range emails {
		summaries = append(summaries, emailSummary{
			ID:           e.ID,
			From:         e.Sender(),
			Subject:      e.Subject,
			Status:       string(e.Status),
			Category:     string(e.Category),
			Subscription: e.IsSubscription,
			Date:         e.Date.Format("2006-01-02 15:04"),
		})
	}

	result, err := json.Marshal(map[string]interface{}{
		"count":  len(summaries),
		"emails": summaries,
	})
	if err != nil {
		return fmt.Sprintf(`{"error": "Failed to encode results: %v"}`, err)
	}

	return string(result)
}

// handleGetEmailDetail retrieves full details for a specific message.
func (a *Assistant) handleGetEmailDetail(
	ctx context.Context,
	input json.RawMessage,
) string {
	var params struct {
		EmailID string `json:"email_id"`
	}

	if err := json.Unmarshal(input, &params); err != nil {
		return fmt.Sprintf(`{"error": "Invalid parameters: %v"}`, err)
	}

	if params.EmailID == "" {
		return `{"error": "email_id is required"}`
	}

	email, err := a.store.GetEmailByID(ctx, params.EmailID)
	if err != nil {
		return fmt.Sprintf(`{"error": "Message not found: %v"}`, err)
	}
	if email == nil {
		return `{"error": "Message not found"}`
	}

	notes, _ := a.store.GetNotesByEmail(ctx, email.ID)
	noteBodies := make([]string, 0, len(notes))
	for _, n := range notes {
		noteBodies = append(noteBodies, n.Body)
	}

	type emailDetail struct {
		ID               string   `json:"id"`
		AccountID        string   `json:"account_id"`
		From             string   `json:"from"`
		Subject          string   `json:"subject"`
		Snippet          string   `json:"snippet"`
		Summary          string   `json:"summary,omitempty"`
		Status           string   `json:"status"`
		Category         string   `json:"category,omitempty"`
		Subscription     bool     `json:"subscription"`
		HasCalendarEvent bool     `json:"has_calendar_event"`
		Date             string   `json:"date"`
		Notes            []string `json:"notes,omitempty"`
	}

	detail := emailDetail{
		ID:               email.ID,
		AccountID:        email.AccountID,
		From:             email.Sender(),
		Subject:          email.Subject,
		Snippet:          email.Snippet,
		Summary:          email.Summary,
		Status:           string(email.Status),
		Category:         string(email.Category),
		Subscription:     email.IsSubscription,
		HasCalendarEvent: email.HasCalendarEvent,
		Date:             email.Date.Format("2006-01-02 15:04"),
		Notes:            noteBodies,
	}

	result, err := json.Marshal(detail)
	if err != nil {
		return fmt.Sprintf(`{"error": "Failed to encode message: %v"}`, err)
	}

	return string(result)
}

// isJSONArray returns true if the string starts with '['.
func isJSONArray(s string) bool {
	trimmed := strings.TrimSpace(s)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
	Tools     []apiTool    `json:"tools,omitempty"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	// Common fields
	Type string `json:"type"`

	// For text blocks
	Text string `json:"text,omitempty"`

	// For tool_use blocks
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// For tool_result blocks
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type apiToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// toolDefinitions returns the tool specifications for the Claude API.
func toolDefinitions() []apiTool {
	return []apiTool{
		{
			Name: "search_emails",
			Description: "Search messages across the user's mail accounts. " +
				"Returns matching messages with their key details.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {
						"type": "string",
						"description": "Search query to match against subjects, senders, and summaries"
					},
					"status": {
						"type": "string",
						"enum": ["inbox", "done", "replied", "unsubscribed"],
						"description": "Filter by triage status"
					},
					"category": {
						"type": "string",
						"enum": ["personal", "work", "newsletter", "notification", "calendar", "other"],
						"description": "Filter by message category"
					},
					"subscription": {
						"type": "boolean",
						"description": "Filter to mailing-list messages only"
					}
				}
			}`),
		},
		{
			Name:        "get_email_detail",
			Description: "Get full details for a specific message by its ID.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"email_id": {
						"type": "string",
						"description": "The unique message ID"
					}
				},
				"required": ["email_id"]
			}`),
		},
	}
}
