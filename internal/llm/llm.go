// Package llm is a small provider-neutral chat completion layer used for
// coaching and translation calls.
package llm

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Providers lists the accepted provider prefixes for "provider/model" strings.
var Providers = []string{"openai", "anthropic", "gemini"}

type Message struct {
	Role    string
	Content string
}

type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, messages []Message) (string, error)

func (f ClientFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// Failing returns a Client whose every call fails with err. It keeps callers
// on their soft-failure path when no provider could be configured.
func Failing(err error) Client {
	return ClientFunc(func(context.Context, []Message) (string, error) {
		return "", err
	})
}

type Option func(*clientOptions)

type clientOptions struct {
	baseURL     string
	maxTokens   int
	temperature *float64
}

func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

// WithMaxTokens caps the length of each completion. Zero leaves the provider
// default in place.
func WithMaxTokens(n int) Option {
	return func(o *clientOptions) {
		o.maxTokens = n
	}
}

func WithTemperature(t float64) Option {
	return func(o *clientOptions) {
		o.temperature = &t
	}
}

// ParseModel splits "provider/model". Only the first slash separates, so
// fine-tuned model names may contain slashes. The provider is lowercased.
func ParseModel(model string) (provider, modelName string, err error) {
	parts := strings.SplitN(strings.TrimSpace(model), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid model format %q: expected provider/model_name", model)
	}
	return strings.ToLower(parts[0]), parts[1], nil
}

func NewClient(provider, apiKey, model string, opts ...Option) (Client, error) {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}

	switch provider {
	case "openai":
		return newOpenAIClient(apiKey, model, o)
	case "anthropic":
		return newAnthropicClient(apiKey, model, o)
	case "gemini":
		return newGeminiClient(apiKey, model, o)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q: supported providers are %s", provider, strings.Join(Providers, ", "))
	}
}

// Supported reports whether provider has a client implementation.
func Supported(provider string) bool {
	return slices.Contains(Providers, provider)
}
