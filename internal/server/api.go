package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sjawhar/ghost-coach/internal/ingest"
	"github.com/sjawhar/ghost-coach/internal/speech"
	"github.com/sjawhar/ghost-coach/internal/storage"
)

const maxBodyBytes = 1 << 20

var audioIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Coach is the pipeline the HTTP layer drives.
type Coach interface {
	Ingest(ctx context.Context, payload []byte) ingest.Result
	Translate(ctx context.Context, text string) (string, error)
	Speak(ctx context.Context, text, voice string) ([]byte, error)
	EndConversation(reason string)
	History() []storage.InteractionRecord
	Audio(id string) (storage.AudioAsset, error)
	AudioInfo(id string) (storage.AudioInfo, error)
	Status() ingest.Status
}

type textRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

func registerWebhookRoutes(mux *http.ServeMux, coach Coach) {
	mux.HandleFunc("POST /webhook", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			log.WithError(err).Warn("webhook body unreadable")
			writeJSON(w, http.StatusOK, map[string]any{"message": nil, "error": fmt.Sprintf("read body: %v", err)})
			return
		}
		log.WithField("bytes", len(body)).Debug("webhook received")

		writeJSON(w, http.StatusOK, webhookResponse(coach.Ingest(r.Context(), body)))
	})

	mux.HandleFunc("POST /memory-created", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, http.MaxBytesReader(w, r.Body, maxBodyBytes))
		coach.EndConversation(ingest.EndReasonMemoryCreated)
		writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
	})

	mux.HandleFunc("POST /translate", func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeTextRequest(w, r)
		if !ok {
			return
		}

		translation, err := coach.Translate(r.Context(), req.Text)
		if err != nil {
			log.WithError(err).Warn("translate failed")
			writeJSONError(w, http.StatusBadGateway, fmt.Sprintf("translate: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"translation": translation})
	})

	mux.HandleFunc("POST /tts", func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeTextRequest(w, r)
		if !ok {
			return
		}

		audio, err := coach.Speak(r.Context(), req.Text, req.Voice)
		if err != nil {
			if errors.Is(err, speech.ErrUnavailable) {
				writeJSONError(w, http.StatusServiceUnavailable, "text-to-speech is not configured")
				return
			}
			log.WithError(err).Warn("tts failed")
			writeJSONError(w, http.StatusServiceUnavailable, fmt.Sprintf("tts: %v", err))
			return
		}
		writeAudio(w, audio)
	})
}

func registerAudioRoutes(mux *http.ServeMux, coach Coach) {
	mux.HandleFunc("GET /audio/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validAudioID(id) {
			writeJSONError(w, http.StatusNotFound, "audio not found")
			return
		}

		asset, err := coach.Audio(id)
		if err != nil {
			writeAudioLookupError(w, err)
			return
		}
		writeAudio(w, asset.Data)
	})

	mux.HandleFunc("GET /audio/{id}/info", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validAudioID(id) {
			writeJSONError(w, http.StatusNotFound, "audio not found")
			return
		}

		info, err := coach.AudioInfo(id)
		if err != nil {
			writeAudioLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	})
}

func registerAPIRoutes(mux *http.ServeMux, coach Coach, hooks StatusHooks) {
	mux.HandleFunc("GET /api/history", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, coach.History())
	})

	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		var warnings []string
		if hooks.Warnings != nil {
			warnings = hooks.Warnings()
		}
		if warnings == nil {
			warnings = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"warnings":    warnings,
			"tts_enabled": hooks.SpeechEnabled,
			"stores":      coach.Status(),
		})
	})
}

// webhookResponse renders the soft-failure reply shapes: the webhook never
// answers with a non-200 status.
func webhookResponse(res ingest.Result) map[string]any {
	if res.Err != nil {
		return map[string]any{"message": nil, "error": res.Err.Error()}
	}
	if res.Message == nil {
		return map[string]any{"message": nil}
	}
	return map[string]any{"message": *res.Message, "notify": res.Notify}
}

func decodeTextRequest(w http.ResponseWriter, r *http.Request) (textRequest, bool) {
	var req textRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return req, false
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSONError(w, http.StatusBadRequest, "No text provided")
		return req, false
	}
	return req, true
}

func writeAudioLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "audio not found")
		return
	}
	writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("audio lookup: %v", err))
}

func validAudioID(id string) bool {
	return audioIDPattern.MatchString(id)
}

func writeAudio(w http.ResponseWriter, audio []byte) {
	w.Header().Set("Content-Type", speech.ContentType)
	w.Header().Set("Content-Length", fmt.Sprint(len(audio)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
