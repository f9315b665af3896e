// Package speech synthesizes suggested replies into playable audio.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable is returned when no synthesis backend is configured.
var ErrUnavailable = errors.New("speech synthesis unavailable")

// ContentType is the media type of synthesized audio.
const ContentType = "audio/mpeg"

type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

type Option func(*options)

type options struct {
	baseURL string
	model   string
	voice   string
}

func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithVoice sets the voice used when a request does not name one.
func WithVoice(voice string) Option {
	return func(o *options) {
		o.voice = voice
	}
}

// New builds the synthesizer for provider. "none" (or empty) yields a
// synthesizer that always fails with ErrUnavailable.
func New(provider, apiKey string, opts ...Option) (Synthesizer, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "none":
		return Disabled{}, nil
	case "openai":
		return newOpenAI(apiKey, o), nil
	case "deepgram":
		return newDeepgram(apiKey, o), nil
	default:
		return nil, fmt.Errorf("unknown TTS provider %q: supported providers are openai, deepgram, none", provider)
	}
}

// Disabled is the synthesizer used when TTS is switched off.
type Disabled struct{}

func (Disabled) Synthesize(context.Context, string, string) ([]byte, error) {
	return nil, ErrUnavailable
}

func pick(requested, fallback string) string {
	if v := strings.TrimSpace(requested); v != "" {
		return v
	}
	return fallback
}
