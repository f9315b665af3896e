package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{name: "openai", input: "openai/gpt-4o-mini", wantProvider: "openai", wantModel: "gpt-4o-mini"},
		{name: "anthropic", input: "anthropic/claude-haiku-4-5", wantProvider: "anthropic", wantModel: "claude-haiku-4-5"},
		{name: "provider is lowercased", input: "Gemini/gemini-2.5-flash", wantProvider: "gemini", wantModel: "gemini-2.5-flash"},
		{name: "surrounding space", input: "  openai/gpt-4o-mini ", wantProvider: "openai", wantModel: "gpt-4o-mini"},
		{name: "model keeps later slashes", input: "openai/ft:gpt-4o-mini/coach", wantProvider: "openai", wantModel: "ft:gpt-4o-mini/coach"},
		{name: "missing slash", input: "gpt-4o-mini", wantErr: true},
		{name: "empty provider", input: "/gpt-4o-mini", wantErr: true},
		{name: "empty model", input: "openai/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, modelName, err := ParseModel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid model format")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantProvider, provider)
			assert.Equal(t, tt.wantModel, modelName)
		})
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	client, err := NewClient("ollama", "key", "llama3")
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "unknown LLM provider")
	assert.Contains(t, err.Error(), "openai, anthropic, gemini")
}

func TestSupported(t *testing.T) {
	for _, p := range Providers {
		assert.True(t, Supported(p), p)
	}
	assert.False(t, Supported("ollama"))
	assert.False(t, Supported("OpenAI"))
}

func TestFailingClient(t *testing.T) {
	cause := errors.New("no API key configured for openai")
	got, err := Failing(cause).Complete(context.Background(), []Message{{Role: RoleUser, Content: "Oi"}})
	assert.Empty(t, got)
	assert.ErrorIs(t, err, cause)
}
