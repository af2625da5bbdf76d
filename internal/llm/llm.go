package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zako-ac/issuetracker/internal/models"
)

// Client wraps the Anthropic API for tag suggestion.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildTagPrompt constructs the system and user prompts for tag suggestion.
func buildTagPrompt(name, detail string) (system string, user string) {
	tags := models.AllIssueTags()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}

	system = `You classify issues submitted to a chat-bot issue tracker. Reply with exactly one tag name from this list and nothing else:
` + strings.Join(names, ", ") + `

Rules:
- Bug: something is broken or behaves incorrectly
- Feature: a new capability that does not exist yet
- Enhancement: an improvement to something that already exists
- Question: the submitter is asking rather than reporting
- Documentation: docs, help text or wording
- Reply with the tag name only, no punctuation or explanation`

	var sb strings.Builder
	sb.WriteString("Issue name: ")
	sb.WriteString(name)
	sb.WriteString("\n")
	if detail != "" {
		sb.WriteString("\nDetail:\n")
		sb.WriteString(detail)
		sb.WriteString("\n")
	}
	user = sb.String()
	return
}

// parseTag extracts a known tag from a model reply.
func parseTag(text string) (models.IssueTag, error) {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "`\"'.")
	if tag, ok := models.ParseIssueTag(text); ok {
		return tag, nil
	}
	// Tolerate a short sentence that still names exactly one tag.
	var found []models.IssueTag
	lower := strings.ToLower(text)
	for _, t := range models.AllIssueTags() {
		if strings.Contains(lower, strings.ToLower(string(t))) {
			found = append(found, t)
		}
	}
	if len(found) == 1 {
		return found[0], nil
	}
	return "", fmt.Errorf("unrecognized tag in LLM response: %q", text)
}

// SuggestTag asks the model which tag best fits the issue.
func (c *Client) SuggestTag(ctx context.Context, name, detail string) (models.IssueTag, error) {
	systemPrompt, userPrompt := buildTagPrompt(name, detail)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 16,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}

	return parseTag(text)
}
