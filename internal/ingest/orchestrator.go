// Package ingest turns webhook transcript payloads into coaching replies.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sjawhar/ghost-coach/internal/coach"
	"github.com/sjawhar/ghost-coach/internal/metrics"
	"github.com/sjawhar/ghost-coach/internal/phrase"
	"github.com/sjawhar/ghost-coach/internal/session"
	"github.com/sjawhar/ghost-coach/internal/speech"
	"github.com/sjawhar/ghost-coach/internal/storage"
	"github.com/sjawhar/ghost-coach/internal/transcribe"
)

const (
	DefaultContextTail = 3
	DefaultLLMTimeout  = 30 * time.Second
	DefaultTTSTimeout  = 30 * time.Second

	audioLinePrefix = "\n🔊 "
)

// Reasons passed to EndConversation.
const (
	EndReasonMemoryCreated = "memory_created"
	EndReasonIdle          = "idle"
)

type CoachingService interface {
	Suggest(ctx context.Context, contextTail []string, latest string) (string, error)
	Translate(ctx context.Context, text string) (string, error)
}

type SpeechService interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

type EventBroadcaster interface {
	BroadcastInteraction(rec storage.InteractionRecord)
	BroadcastConversationEnded(reason string)
}

type Recorder interface {
	RecordIngest(outcome string)
	RecordSpeechFailure()
	ObserveUpstream(stage string, started time.Time, err error)
	SetStoreSizes(audio, history int)
}

// Result is the webhook reply. Message is nil when nothing should reach the
// user; Err carries a coaching failure, which is still a soft result.
type Result struct {
	Message *string
	Notify  bool
	Err     error
}

type Config struct {
	ContextTail int
	LLMTimeout  time.Duration
	TTSTimeout  time.Duration
	Voice       string
}

type Deps struct {
	Coach    CoachingService
	Speech   SpeechService
	Window   *session.ContextWindow
	Audio    *storage.AudioCache
	History  *storage.HistoryLog
	Hub      EventBroadcaster
	Metrics  Recorder
	Detector *session.IdleDetector
}

type Orchestrator struct {
	coach    CoachingService
	speech   SpeechService
	window   *session.ContextWindow
	audio    *storage.AudioCache
	history  *storage.HistoryLog
	hub      EventBroadcaster
	metrics  Recorder
	detector *session.IdleDetector
	cfg      Config
	now      func() time.Time
}

func New(deps Deps, cfg Config) *Orchestrator {
	if cfg.ContextTail <= 0 {
		cfg.ContextTail = DefaultContextTail
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = DefaultLLMTimeout
	}
	if cfg.TTSTimeout <= 0 {
		cfg.TTSTimeout = DefaultTTSTimeout
	}

	o := &Orchestrator{
		coach:    deps.Coach,
		speech:   deps.Speech,
		window:   deps.Window,
		audio:    deps.Audio,
		history:  deps.History,
		hub:      deps.Hub,
		metrics:  deps.Metrics,
		detector: deps.Detector,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
	if o.speech == nil {
		o.speech = speech.Disabled{}
	}
	if o.window == nil {
		o.window = session.NewContextWindow(session.DefaultWindowSize)
	}
	if o.audio == nil {
		o.audio = storage.NewAudioCache("", storage.DefaultAudioMaxAge)
	}
	if o.history == nil {
		o.history = storage.NewHistoryLog(storage.DefaultHistorySize)
	}
	if o.hub == nil {
		o.hub = noopBroadcaster{}
	}
	if o.metrics == nil {
		o.metrics = noopRecorder{}
	}
	if o.detector != nil {
		o.detector.OnIdle(func() { o.EndConversation(EndReasonIdle) })
	}
	return o
}

// Ingest runs one transcript payload through the pipeline. Upstream calls
// are detached from ctx cancellation so a client hang-up does not abort a
// coaching call midway; each call is bounded by its own timeout instead.
func (o *Orchestrator) Ingest(ctx context.Context, payload []byte) Result {
	fragment := transcribe.Resolve(payload)
	if !fragment.Actionable() {
		o.metrics.RecordIngest(metrics.OutcomeSkipped)
		return Result{}
	}

	o.window.Append(fragment.Text)
	if o.detector != nil {
		o.detector.Touch()
	}

	logger := log.WithFields(log.Fields{"source": fragment.Source, "chars": len(fragment.Text)})
	upstream := context.WithoutCancel(ctx)

	suggestion, err := o.suggest(upstream, fragment.Text)
	if err != nil {
		logger.WithError(err).Warn("coaching call failed")
		o.metrics.RecordIngest(metrics.OutcomeError)
		return Result{Err: err}
	}
	if !coach.Actionable(suggestion) {
		logger.Debug("no action needed")
		o.metrics.RecordIngest(metrics.OutcomeNoAction)
		return Result{}
	}

	rec := storage.InteractionRecord{
		ID:         uuid.NewString(),
		Timestamp:  o.now(),
		Transcript: fragment.Text,
		Suggestion: suggestion,
	}

	if p, ok := phrase.Extract(suggestion); ok {
		rec.Phrase = p
		if id, err := o.synthesize(upstream, p); err != nil {
			if !errors.Is(err, speech.ErrUnavailable) {
				logger.WithError(err).Warn("speech synthesis failed, replying without audio")
				o.metrics.RecordSpeechFailure()
			}
		} else {
			rec.AudioID = id
			rec.AudioURL = o.audio.URLFor(id)
		}
	}

	message := suggestion
	if rec.AudioURL != "" {
		message += audioLinePrefix + rec.AudioURL
	}

	o.history.Append(rec)
	o.hub.BroadcastInteraction(rec)
	o.metrics.RecordIngest(metrics.OutcomeActionable)
	o.metrics.SetStoreSizes(o.audio.Len(), o.history.Len())
	logger.WithFields(log.Fields{"record_id": rec.ID, "audio_id": rec.AudioID}).Info("coaching reply ready")

	return Result{Message: &message, Notify: true}
}

func (o *Orchestrator) suggest(ctx context.Context, latest string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.LLMTimeout)
	defer cancel()

	started := time.Now()
	suggestion, err := o.coach.Suggest(ctx, o.window.Tail(o.cfg.ContextTail), latest)
	o.metrics.ObserveUpstream(metrics.StageCoach, started, err)
	return suggestion, err
}

func (o *Orchestrator) synthesize(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.TTSTimeout)
	defer cancel()

	started := time.Now()
	audio, err := o.speech.Synthesize(ctx, text, o.cfg.Voice)
	if !errors.Is(err, speech.ErrUnavailable) {
		o.metrics.ObserveUpstream(metrics.StageSpeech, started, err)
	}
	if err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", errors.New("speech synthesis returned no audio")
	}

	id, err := o.audio.Put(audio, text)
	if err != nil {
		return "", fmt.Errorf("store audio: %w", err)
	}
	return id, nil
}

// Translate is the standalone translation path; it does not touch the
// context window or history.
func (o *Orchestrator) Translate(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.LLMTimeout)
	defer cancel()

	started := time.Now()
	translation, err := o.coach.Translate(ctx, text)
	if !errors.Is(err, coach.ErrEmptyText) {
		o.metrics.ObserveUpstream(metrics.StageTranslate, started, err)
	}
	return translation, err
}

// Speak synthesizes text on demand. An empty voice uses the configured one.
func (o *Orchestrator) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.TTSTimeout)
	defer cancel()

	if voice == "" {
		voice = o.cfg.Voice
	}
	started := time.Now()
	audio, err := o.speech.Synthesize(ctx, text, voice)
	if errors.Is(err, speech.ErrUnavailable) {
		return nil, err
	}
	o.metrics.ObserveUpstream(metrics.StageSpeech, started, err)
	if err != nil {
		o.metrics.RecordSpeechFailure()
		return nil, err
	}
	return audio, nil
}

// EndConversation forgets the rolling context. History and cached audio are
// kept. Calling it with nothing to clear is fine.
func (o *Orchestrator) EndConversation(reason string) {
	if o.detector != nil {
		o.detector.Stop()
	}
	o.window.Clear()
	o.hub.BroadcastConversationEnded(reason)
	log.WithField("reason", reason).Info("conversation ended, context cleared")
}

func (o *Orchestrator) History() []storage.InteractionRecord {
	return o.history.ListDescending()
}

func (o *Orchestrator) Audio(id string) (storage.AudioAsset, error) {
	return o.audio.Get(id)
}

func (o *Orchestrator) AudioInfo(id string) (storage.AudioInfo, error) {
	return o.audio.Info(id)
}

// Status summarizes in-memory store sizes.
type Status struct {
	ContextEntries int `json:"context_entries"`
	AudioEntries   int `json:"audio_entries"`
	HistoryEntries int `json:"history_entries"`
}

func (o *Orchestrator) Status() Status {
	return Status{
		ContextEntries: o.window.Len(),
		AudioEntries:   o.audio.Len(),
		HistoryEntries: o.history.Len(),
	}
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastInteraction(storage.InteractionRecord) {}
func (noopBroadcaster) BroadcastConversationEnded(string) {}

type noopRecorder struct{}

func (noopRecorder) RecordIngest(string) {}
func (noopRecorder) RecordSpeechFailure() {}
func (noopRecorder) ObserveUpstream(string, time.Time, error) {}
func (noopRecorder) SetStoreSizes(int, int) {}
