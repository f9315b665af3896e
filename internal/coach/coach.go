// Package coach wraps an LLM client with the conversation-coaching prompts.
package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sjawhar/ghost-coach/internal/llm"
	"github.com/sjawhar/ghost-coach/internal/session"
)

// NoActionSentinel marks a coaching reply that has nothing worth showing.
const NoActionSentinel = "No action needed"

var ErrEmptyText = errors.New("text is required")

type Coach struct {
	client llm.Client
}

func New(client llm.Client) *Coach {
	return &Coach{client: client}
}

// Suggest asks for a translation and reply suggestion for latest, grounded on
// the recent context tail.
func (c *Coach) Suggest(ctx context.Context, tail []string, latest string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: RealtimeSystemPrompt},
		{Role: llm.RoleUser, Content: UserMessage(tail, latest)},
	}

	result, err := c.client.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("coaching suggestion: %w", err)
	}
	return strings.TrimSpace(result), nil
}

func (c *Coach) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	result, err := c.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: TranslateSystemPrompt},
		{Role: llm.RoleUser, Content: text},
	})
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return strings.TrimSpace(result), nil
}

// UserMessage labels the context tail separately from the latest fragment.
func UserMessage(tail []string, latest string) string {
	return fmt.Sprintf("Recent context: %s\n\nLatest: %s", strings.Join(tail, session.TailSeparator), latest)
}

// Actionable reports whether a coaching reply should reach the user.
func Actionable(suggestion string) bool {
	trimmed := strings.TrimSpace(suggestion)
	return trimmed != "" && !strings.Contains(trimmed, NoActionSentinel)
}
