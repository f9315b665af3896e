package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjawhar/ghost-coach/internal/coach"
	"github.com/sjawhar/ghost-coach/internal/metrics"
	"github.com/sjawhar/ghost-coach/internal/session"
	"github.com/sjawhar/ghost-coach/internal/speech"
	"github.com/sjawhar/ghost-coach/internal/storage"
)

type coachStub struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	lastTail []string
	ctxErr   error
}

func (c *coachStub) Suggest(ctx context.Context, tail []string, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.lastTail = append([]string(nil), tail...)
	c.ctxErr = ctx.Err()
	return c.reply, c.err
}

func (c *coachStub) Translate(_ context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", coach.ErrEmptyText
	}
	return "translated: " + text, c.err
}

type speechStub struct {
	audio []byte
	err   error
	calls int
	text  string
	voice string
}

func (s *speechStub) Synthesize(_ context.Context, text, voice string) ([]byte, error) {
	s.calls++
	s.text = text
	s.voice = voice
	return s.audio, s.err
}

type hubStub struct {
	mu           sync.Mutex
	interactions []storage.InteractionRecord
	ended        []string
}

func (h *hubStub) BroadcastInteraction(rec storage.InteractionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.interactions = append(h.interactions, rec)
}

func (h *hubStub) BroadcastConversationEnded(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ended = append(h.ended, reason)
}

func (h *hubStub) endedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ended)
}

type recorderStub struct {
	outcomes       []string
	speechFailures int
}

func (r *recorderStub) RecordIngest(outcome string) { r.outcomes = append(r.outcomes, outcome) }
func (r *recorderStub) RecordSpeechFailure() { r.speechFailures++ }
func (r *recorderStub) ObserveUpstream(string, time.Time, error) {}
func (r *recorderStub) SetStoreSizes(int, int) {}

type fixture struct {
	orch    *Orchestrator
	coach   *coachStub
	speech  *speechStub
	window  *session.ContextWindow
	audio   *storage.AudioCache
	history *storage.HistoryLog
	hub     *hubStub
	rec     *recorderStub
}

func newFixture(t *testing.T, reply string) *fixture {
	t.Helper()
	f := &fixture{
		coach:   &coachStub{reply: reply},
		speech:  &speechStub{audio: []byte("mp3-bytes")},
		window:  session.NewContextWindow(5),
		audio:   storage.NewAudioCache("https://coach.example", storage.DefaultAudioMaxAge),
		history: storage.NewHistoryLog(100),
		hub:     &hubStub{},
		rec:     &recorderStub{},
	}
	f.orch = New(Deps{
		Coach:   f.coach,
		Speech:  f.speech,
		Window:  f.window,
		Audio:   f.audio,
		History: f.history,
		Hub:     f.hub,
		Metrics: f.rec,
	}, Config{Voice: "nova"})
	return f
}

func TestIngestShortFragmentIsNoOp(t *testing.T) {
	f := newFixture(t, "💬 Say: \"Que saudade!\"")

	res := f.orch.Ingest(context.Background(), []byte(`{"transcript":"Oi"}`))

	assert.Nil(t, res.Message)
	assert.False(t, res.Notify)
	assert.NoError(t, res.Err)
	assert.Equal(t, 0, f.window.Len())
	assert.Equal(t, 0, f.coach.calls)
	assert.Equal(t, []string{metrics.OutcomeSkipped}, f.rec.outcomes)
}

func TestIngestNoActionNeeded(t *testing.T) {
	f := newFixture(t, "💬 Say: \"Que saudade!\"\n✓ [No action needed]")

	res := f.orch.Ingest(context.Background(), []byte(`{"transcript":"Tudo bem com você?"}`))

	assert.Nil(t, res.Message)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, f.window.Len(), "fragment is still kept as context")
	assert.Equal(t, 0, f.history.Len())
	assert.Equal(t, 0, f.speech.calls)
	assert.Equal(t, []string{metrics.OutcomeNoAction}, f.rec.outcomes)
}

func TestIngestActionableWithAudio(t *testing.T) {
	suggestion := "🔄 \"I miss her.\"\n💬 Say: \"Que saudade!\""
	f := newFixture(t, suggestion)

	res := f.orch.Ingest(context.Background(), []byte(`{"segments":[{"text":"Sinto falta dela.","is_user":false}]}`))

	require.NoError(t, res.Err)
	require.NotNil(t, res.Message)
	assert.True(t, res.Notify)

	history := f.history.ListDescending()
	require.Len(t, history, 1)
	rec := history[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Sinto falta dela.", rec.Transcript)
	assert.Equal(t, suggestion, rec.Suggestion)
	assert.Equal(t, "Que saudade!", rec.Phrase)
	require.NotEmpty(t, rec.AudioID)
	assert.Equal(t, "https://coach.example/audio/"+rec.AudioID, rec.AudioURL)

	assert.Equal(t, suggestion+"\n🔊 "+rec.AudioURL, *res.Message)

	asset, err := f.audio.Get(rec.AudioID)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), asset.Data)
	assert.Equal(t, "Que saudade!", asset.Phrase)

	assert.Equal(t, "Que saudade!", f.speech.text)
	assert.Equal(t, "nova", f.speech.voice)
	assert.Len(t, f.hub.interactions, 1)
	assert.Equal(t, []string{metrics.OutcomeActionable}, f.rec.outcomes)
}

func TestIngestWithoutPhraseSkipsSpeech(t *testing.T) {
	suggestion := "🔄 \"It was hard.\"\n💡 Show empathy."
	f := newFixture(t, suggestion)

	res := f.orch.Ingest(context.Background(), []byte(`{"transcript":"Foi difícil."}`))

	require.NotNil(t, res.Message)
	assert.Equal(t, suggestion, *res.Message)
	assert.Equal(t, 0, f.speech.calls)

	rec := f.history.ListDescending()[0]
	assert.Empty(t, rec.Phrase)
	assert.Empty(t, rec.AudioID)
	assert.Empty(t, rec.AudioURL)
}

func TestIngestSpeechFailureKeepsMessage(t *testing.T) {
	suggestion := "💬 Ask: \"O que você mais sente falta dela?\""
	f := newFixture(t, suggestion)
	f.speech.err = errors.New("tts down")

	res := f.orch.Ingest(context.Background(), []byte(`{"transcript":"Minha avó morreu."}`))

	require.NoError(t, res.Err)
	require.NotNil(t, res.Message)
	assert.Equal(t, suggestion, *res.Message)
	assert.NotContains(t, *res.Message, "🔊")
	assert.Equal(t, 0, f.audio.Len())
	assert.Equal(t, 1, f.rec.speechFailures)

	rec := f.history.ListDescending()[0]
	assert.Equal(t, "O que você mais sente falta dela?", rec.Phrase)
	assert.Empty(t, rec.AudioURL)
}

func TestIngestSpeechDisabledIsNotAFailure(t *testing.T) {
	f := newFixture(t, "💬 Say: \"Que saudade!\"")
	f.orch.speech = speech.Disabled{}

	res := f.orch.Ingest(context.Background(), []byte(`{"transcript":"Sinto falta dela."}`))

	require.NotNil(t, res.Message)
	assert.Equal(t, "💬 Say: \"Que saudade!\"", *res.Message)
	assert.Equal(t, 0, f.rec.speechFailures)
}

func TestIngestCoachFailureIsSoft(t *testing.T) {
	f := newFixture(t, "")
	f.coach.err = errors.New("rate limited")

	res := f.orch.Ingest(context.Background(), []byte(`{"transcript":"Tudo bem?"}`))

	assert.Nil(t, res.Message)
	assert.False(t, res.Notify)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "rate limited")
	assert.Equal(t, 0, f.history.Len())
	assert.Equal(t, []string{metrics.OutcomeError}, f.rec.outcomes)
}

func TestIngestPassesContextTail(t *testing.T) {
	f := newFixture(t, "No action needed")

	for _, text := range []string{"primeiro", "segundo", "terceiro", "quarto"} {
		f.orch.Ingest(context.Background(), []byte(`{"transcript":"`+text+`"}`))
	}

	assert.Equal(t, []string{"segundo", "terceiro", "quarto"}, f.coach.lastTail)
}

func TestIngestDetachedFromRequestCancellation(t *testing.T) {
	f := newFixture(t, "No action needed")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.orch.Ingest(ctx, []byte(`{"transcript":"Tudo certo?"}`))

	assert.Equal(t, 1, f.coach.calls)
	assert.NoError(t, f.coach.ctxErr)
}

func TestEndConversationClearsOnlyContext(t *testing.T) {
	f := newFixture(t, "💬 Say: \"Que saudade!\"")
	f.orch.Ingest(context.Background(), []byte(`{"transcript":"Sinto falta dela."}`))
	require.Equal(t, 1, f.window.Len())

	f.orch.EndConversation(EndReasonMemoryCreated)
	f.orch.EndConversation(EndReasonMemoryCreated)

	assert.Equal(t, 0, f.window.Len())
	assert.Equal(t, 1, f.history.Len())
	assert.Equal(t, 1, f.audio.Len())
	assert.Equal(t, 2, f.hub.endedCount())
}

func TestIdleDetectorEndsConversation(t *testing.T) {
	window := session.NewContextWindow(5)
	hub := &hubStub{}
	orch := New(Deps{
		Coach:    &coachStub{reply: "No action needed"},
		Window:   window,
		Hub:      hub,
		Detector: session.NewIdleDetector(20 * time.Millisecond),
	}, Config{})

	orch.Ingest(context.Background(), []byte(`{"transcript":"Oi, tudo bem?"}`))
	require.Equal(t, 1, window.Len())

	require.Eventually(t, func() bool { return hub.endedCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, window.Len())
}

func TestTranslateAndSpeak(t *testing.T) {
	f := newFixture(t, "")

	got, err := f.orch.Translate(context.Background(), "Bom dia")
	require.NoError(t, err)
	assert.Equal(t, "translated: Bom dia", got)

	_, err = f.orch.Translate(context.Background(), " ")
	assert.ErrorIs(t, err, coach.ErrEmptyText)

	audio, err := f.orch.Speak(context.Background(), "Bom dia", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
	assert.Equal(t, "nova", f.speech.voice)

	_, err = f.orch.Speak(context.Background(), "Bom dia", "alloy")
	require.NoError(t, err)
	assert.Equal(t, "alloy", f.speech.voice)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, "💬 Say: \"Que saudade!\"")
	f.orch.Ingest(context.Background(), []byte(`{"transcript":"Sinto falta dela."}`))

	assert.Equal(t, Status{ContextEntries: 1, AudioEntries: 1, HistoryEntries: 1}, f.orch.Status())
}
