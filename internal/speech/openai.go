package speech

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

const (
	openaiDefaultModel = string(openai.TTSModel1)
	openaiDefaultVoice = string(openai.VoiceNova)
)

type openaiSynthesizer struct {
	client *openai.Client
	model  string
	voice  string
}

func newOpenAI(apiKey string, o *options) *openaiSynthesizer {
	config := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		config.BaseURL = o.baseURL
	}
	return &openaiSynthesizer{
		client: openai.NewClientWithConfig(config),
		model:  pick(o.model, openaiDefaultModel),
		voice:  pick(o.voice, openaiDefaultVoice),
	}
}

func (s *openaiSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(pick(voice, s.voice)),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("openai speech: status %d: %w", apiErr.HTTPStatusCode, err)
		}
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer func() { _ = resp.Close() }()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read openai speech: %w", err)
	}
	return audio, nil
}
