package speech

import (
	"context"
	"fmt"

	speakapi "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/speak/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	speakclient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/speak"
)

// Aura voices are selected through the model name.
const deepgramDefaultModel = "aura-2-luana-pt"

type streamFunc func(ctx context.Context, text string, opts *interfaces.SpeakOptions, buf *interfaces.RawResponse) error

type deepgramSynthesizer struct {
	stream streamFunc
	model  string
}

func newDeepgram(apiKey string, o *options) *deepgramSynthesizer {
	dg := speakapi.New(speakclient.NewREST(apiKey, &interfaces.ClientOptions{}))

	return &deepgramSynthesizer{
		stream: func(ctx context.Context, text string, opts *interfaces.SpeakOptions, buf *interfaces.RawResponse) error {
			_, err := dg.ToStream(ctx, text, opts, buf)
			return err
		},
		model: pick(o.voice, pick(o.model, deepgramDefaultModel)),
	}
}

// Synthesize treats voice as a Deepgram model name, e.g. "aura-2-luana-pt".
func (s *deepgramSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	var buf interfaces.RawResponse
	opts := &interfaces.SpeakOptions{Model: pick(voice, s.model)}
	if err := s.stream(ctx, text, opts, &buf); err != nil {
		return nil, fmt.Errorf("deepgram speech: %w", err)
	}
	return buf.Bytes(), nil
}
