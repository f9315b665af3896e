package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/sjawhar/ghost-coach/internal/config"
)

func TestRunExtract(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"say label", []string{`💬 Say: "Que saudade!"`}, "Que saudade!"},
		{"joined args", []string{"💬", "Ask:", `"O que você mais sente falta dela?"`}, "O que você mais sente falta dela?"},
		{"english phrase", []string{`Say: "Good morning"`}, "no speakable Portuguese phrase"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			extractCmd.SetOut(&out)
			defer extractCmd.SetOut(nil)

			if err := runExtract(extractCmd, tt.args); err != nil {
				t.Fatalf("runExtract error: %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv(config.EnvPrefix+"CONFIG", "")
	if got := defaultConfigPath(); got != "config.yaml" {
		t.Errorf("defaultConfigPath() = %q, want config.yaml", got)
	}

	t.Setenv(config.EnvPrefix+"CONFIG", "/etc/ghost-coach.yaml")
	if got := defaultConfigPath(); got != "/etc/ghost-coach.yaml" {
		t.Errorf("defaultConfigPath() = %q, want env value", got)
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tts_provider: none\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "DEEPGRAM_API_KEY"} {
		t.Setenv(key, "")
		t.Setenv(config.EnvPrefix+key, "")
	}
	for _, key := range []string{"TTS_PROVIDER", "COACH_MODEL", "IDLE_TIMEOUT"} {
		t.Setenv(config.EnvPrefix+key, "")
	}
	cfg, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func TestNewAppWithoutKeysStillServes(t *testing.T) {
	cfg := testConfig(t)
	a, err := newApp(cfg, []string{"no key"}, fstest.MapFS{"index.html": {Data: []byte("<html>dash</html>")}})
	if err != nil {
		t.Fatalf("newApp error: %v", err)
	}
	defer a.close()

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"transcript":"Tudo bem com você?"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("webhook status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"error"`) || !strings.Contains(rr.Body.String(), `"message":null`) {
		t.Errorf("expected soft error shape, got %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/tts", strings.NewReader(`{"text":"Oi"}`)))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("tts status = %d, want 503", rr.Code)
	}

	rr = httptest.NewRecorder()
	a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/", nil))
	if !strings.Contains(rr.Body.String(), "dash") {
		t.Errorf("dashboard not served: %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "ghost_coach_ingest_total") {
		t.Errorf("metrics missing ingest counter: %s", rr.Body.String())
	}
}

func TestEmbeddedDashboard(t *testing.T) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		t.Fatalf("read embedded index: %v", err)
	}
	if !bytes.Contains(data, []byte("/api/history")) {
		t.Error("dashboard should load history")
	}
}
