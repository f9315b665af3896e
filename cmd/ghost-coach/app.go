package main

import (
	"fmt"
	"io/fs"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/sjawhar/ghost-coach/internal/coach"
	"github.com/sjawhar/ghost-coach/internal/config"
	"github.com/sjawhar/ghost-coach/internal/ingest"
	"github.com/sjawhar/ghost-coach/internal/llm"
	"github.com/sjawhar/ghost-coach/internal/metrics"
	"github.com/sjawhar/ghost-coach/internal/server"
	"github.com/sjawhar/ghost-coach/internal/session"
	"github.com/sjawhar/ghost-coach/internal/speech"
	"github.com/sjawhar/ghost-coach/internal/storage"
)

type app struct {
	handler  http.Handler
	detector *session.IdleDetector
}

func (a *app) close() {
	a.detector.Stop()
}

func newApp(cfg config.Config, warnings []string, assets fs.FS) (*app, error) {
	client, err := newCoachClient(cfg)
	if err != nil {
		log.WithError(err).Warn("coaching model unavailable, webhook replies will carry an error")
		client = llm.Failing(err)
	}

	synth, err := speech.New(cfg.TTSProvider, cfg.TTSAPIKey(),
		speech.WithModel(cfg.TTSModel),
		speech.WithVoice(cfg.TTSVoice),
	)
	if err != nil {
		log.WithError(err).Warn("speech synthesis disabled")
		synth = speech.Disabled{}
	}
	_, speechDisabled := synth.(speech.Disabled)
	if !speechDisabled && cfg.TTSAPIKey() == "" {
		synth = speech.Disabled{}
		speechDisabled = true
	}

	hub := server.NewHub()
	m := metrics.New()
	detector := session.NewIdleDetector(cfg.ParsedIdleTimeout())

	orch := ingest.New(ingest.Deps{
		Coach:    coach.New(client),
		Speech:   synth,
		Window:   session.NewContextWindow(cfg.ContextSize),
		Audio:    storage.NewAudioCache(cfg.PublicBaseURL, cfg.ParsedAudioMaxAge()),
		History:  storage.NewHistoryLog(cfg.HistorySize),
		Hub:      hub,
		Metrics:  m,
		Detector: detector,
	}, ingest.Config{
		ContextTail: cfg.ContextTail,
		LLMTimeout:  cfg.ParsedLLMTimeout(),
		TTSTimeout:  cfg.ParsedTTSTimeout(),
		Voice:       cfg.TTSVoice,
	})

	handler, err := server.Handler(orch, hub, server.Options{
		Static:  assets,
		Metrics: m.Handler(),
		Hooks: server.StatusHooks{
			Warnings:      func() []string { return warnings },
			SpeechEnabled: !speechDisabled,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build http handler: %w", err)
	}

	return &app{handler: handler, detector: detector}, nil
}

func newCoachClient(cfg config.Config) (llm.Client, error) {
	provider, model, err := llm.ParseModel(cfg.CoachModel)
	if err != nil {
		return nil, err
	}
	key := cfg.CoachAPIKey()
	if key == "" {
		return nil, fmt.Errorf("no API key configured for %s", provider)
	}
	return llm.NewClient(provider, key, model,
		llm.WithMaxTokens(cfg.CoachMaxTokens),
		llm.WithTemperature(cfg.CoachTemperature),
	)
}
