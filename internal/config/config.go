package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sjawhar/ghost-coach/internal/llm"
)

// EnvPrefix is the namespace prefix for all Ghost Coach environment variables.
const EnvPrefix = "GHOST_COACH_"

// Config holds all application configuration. Secrets (API keys) are loaded
// exclusively from environment variables and never appear in the config file.
type Config struct {
	ListenAddr       string  `yaml:"listen_addr"`
	PublicBaseURL    string  `yaml:"public_base_url"`
	CoachModel       string  `yaml:"coach_model"`
	CoachMaxTokens   int     `yaml:"coach_max_tokens"`
	CoachTemperature float64 `yaml:"coach_temperature"`
	LLMTimeout       string  `yaml:"llm_timeout"`
	TTSProvider      string  `yaml:"tts_provider"`
	TTSModel         string  `yaml:"tts_model"`
	TTSVoice         string  `yaml:"tts_voice"`
	TTSTimeout       string  `yaml:"tts_timeout"`
	ContextSize      int     `yaml:"context_size"`
	ContextTail      int     `yaml:"context_tail"`
	AudioMaxAge      string  `yaml:"audio_max_age"`
	HistorySize      int     `yaml:"history_size"`
	IdleTimeout      string  `yaml:"idle_timeout"`
	LogLevel         string  `yaml:"log_level"`
	LogFormat        string  `yaml:"log_format"`

	// Secrets, env vars only.
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	GeminiAPIKey    string `yaml:"-"`
	DeepgramAPIKey  string `yaml:"-"`
}

func defaults() Config {
	return Config{
		ListenAddr:       ":8000",
		PublicBaseURL:    "http://localhost:8000",
		CoachModel:       "openai/gpt-4o-mini",
		CoachMaxTokens:   150,
		CoachTemperature: 0.7,
		LLMTimeout:       "30s",
		TTSProvider:      "openai",
		TTSModel:         "",
		TTSVoice:         "",
		TTSTimeout:       "30s",
		ContextSize:      5,
		ContextTail:      3,
		AudioMaxAge:      "30m",
		HistorySize:      100,
		IdleTimeout:      "0s",
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings := validate(&cfg)
	return cfg, warnings, nil
}

func (c *Config) ParsedLLMTimeout() time.Duration {
	return parseDuration(c.LLMTimeout, 30*time.Second)
}

func (c *Config) ParsedTTSTimeout() time.Duration {
	return parseDuration(c.TTSTimeout, 30*time.Second)
}

func (c *Config) ParsedAudioMaxAge() time.Duration {
	return parseDuration(c.AudioMaxAge, 30*time.Minute)
}

// ParsedIdleTimeout returns 0 (disabled) when the value is invalid.
func (c *Config) ParsedIdleTimeout() time.Duration {
	return parseDuration(c.IdleTimeout, 0)
}

// CoachAPIKey returns the secret for the provider named in CoachModel.
func (c *Config) CoachAPIKey() string {
	provider, _, err := llm.ParseModel(c.CoachModel)
	if err != nil {
		return ""
	}
	return c.providerKey(provider)
}

// TTSAPIKey returns the secret for TTSProvider.
func (c *Config) TTSAPIKey() string {
	return c.providerKey(strings.ToLower(strings.TrimSpace(c.TTSProvider)))
}

func (c *Config) providerKey(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	case "deepgram":
		return c.DeepgramAPIKey
	default:
		return ""
	}
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	setString("LISTEN_ADDR", &cfg.ListenAddr)
	setString("PUBLIC_BASE_URL", &cfg.PublicBaseURL)
	setString("COACH_MODEL", &cfg.CoachModel)
	setInt("COACH_MAX_TOKENS", &cfg.CoachMaxTokens)
	if v := os.Getenv(EnvPrefix + "COACH_TEMPERATURE"); v != "" {
		if t, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			cfg.CoachTemperature = t
		}
	}
	setString("LLM_TIMEOUT", &cfg.LLMTimeout)
	setString("TTS_PROVIDER", &cfg.TTSProvider)
	setString("TTS_MODEL", &cfg.TTSModel)
	setString("TTS_VOICE", &cfg.TTSVoice)
	setString("TTS_TIMEOUT", &cfg.TTSTimeout)
	setInt("CONTEXT_SIZE", &cfg.ContextSize)
	setInt("CONTEXT_TAIL", &cfg.ContextTail)
	setString("AUDIO_MAX_AGE", &cfg.AudioMaxAge)
	setInt("HISTORY_SIZE", &cfg.HistorySize)
	setString("IDLE_TIMEOUT", &cfg.IdleTimeout)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("LOG_FORMAT", &cfg.LogFormat)
}

// loadSecrets prefers the prefixed variable and falls back to the provider's
// conventional name, e.g. OPENAI_API_KEY.
func loadSecrets(cfg *Config) {
	secret := func(name string) string {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			return v
		}
		return os.Getenv(name)
	}

	cfg.OpenAIAPIKey = secret("OPENAI_API_KEY")
	cfg.AnthropicAPIKey = secret("ANTHROPIC_API_KEY")
	cfg.GeminiAPIKey = secret("GEMINI_API_KEY")
	cfg.DeepgramAPIKey = secret("DEEPGRAM_API_KEY")
}

func validate(cfg *Config) []string {
	var warnings []string

	provider, _, err := llm.ParseModel(cfg.CoachModel)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("Invalid coach_model %q. Expected provider/model, e.g. openai/gpt-4o-mini.", cfg.CoachModel))
	} else if !llm.Supported(provider) {
		warnings = append(warnings, fmt.Sprintf("Unknown coaching provider %q. Supported: %s.", provider, strings.Join(llm.Providers, ", ")))
	} else if cfg.providerKey(provider) == "" {
		warnings = append(warnings, fmt.Sprintf("No API key for coaching provider %q. Webhook replies will carry an error until %s is set.", provider, secretName(provider)))
	}

	switch tts := strings.ToLower(strings.TrimSpace(cfg.TTSProvider)); tts {
	case "", "none":
	case "openai", "deepgram":
		if cfg.providerKey(tts) == "" {
			warnings = append(warnings, fmt.Sprintf("No API key for TTS provider %q. Replies will have no audio until %s is set.", tts, secretName(tts)))
		}
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown tts_provider %q. Supported: openai, deepgram, none. Speech synthesis is disabled.", cfg.TTSProvider))
	}

	if cfg.CoachMaxTokens <= 0 {
		warnings = append(warnings, fmt.Sprintf("Invalid coach_max_tokens %d. Using default 150.", cfg.CoachMaxTokens))
		cfg.CoachMaxTokens = 150
	}
	if cfg.CoachTemperature < 0 || cfg.CoachTemperature > 2 {
		warnings = append(warnings, fmt.Sprintf("coach_temperature %.2f out of range [0, 2]. Using default 0.7.", cfg.CoachTemperature))
		cfg.CoachTemperature = 0.7
	}
	if cfg.ContextSize <= 0 {
		warnings = append(warnings, fmt.Sprintf("Invalid context_size %d. Using default 5.", cfg.ContextSize))
		cfg.ContextSize = 5
	}
	if cfg.ContextTail <= 0 || cfg.ContextTail > cfg.ContextSize {
		warnings = append(warnings, fmt.Sprintf("Invalid context_tail %d. Must be between 1 and context_size; using %d.", cfg.ContextTail, min(3, cfg.ContextSize)))
		cfg.ContextTail = min(3, cfg.ContextSize)
	}
	if cfg.HistorySize <= 0 {
		warnings = append(warnings, fmt.Sprintf("Invalid history_size %d. Using default 100.", cfg.HistorySize))
		cfg.HistorySize = 100
	}

	for _, d := range []struct {
		name, value, fallback string
	}{
		{"llm_timeout", cfg.LLMTimeout, "30s"},
		{"tts_timeout", cfg.TTSTimeout, "30s"},
		{"audio_max_age", cfg.AudioMaxAge, "30m"},
		{"idle_timeout", cfg.IdleTimeout, "0s (disabled)"},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			warnings = append(warnings, fmt.Sprintf("Invalid %s %q. Using default %s.", d.name, d.value, d.fallback))
		}
	}

	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return warnings
}

func secretName(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
