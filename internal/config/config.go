package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"nyaymitra/internal/retrieval"
)

// offlineAPIKey is the placeholder key used when no LLM provider is configured.
// Services treat it as "answer without the LLM".
const offlineAPIKey = "dummy-key"

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string

	KBPath  string
	KBWatch bool
	RAGTopK int
	Weights WeightOverrides

	WebSearchEnabled   bool
	WebSearchTimeout   time.Duration
	WebSearchCacheSize int
	WebSearchCacheTTL  time.Duration
	WebSearchRPS       float64

	GeneratedDocsDir string
	UploadDir        string
	DocMaxAge        time.Duration
	CleanupSchedule  string

	StreamChunkDelay time.Duration
	GoogleMapsAPIKey string
}

// WeightOverrides carries optional scoring weight overrides. A nil field keeps the default.
type WeightOverrides struct {
	ExactPhrase  *int
	TokenExact   *int
	TokenPartial *int
	DomainTerm   *int
	Header       *int
	Intent       *int
}

// Weights returns base with every configured override applied.
func (o WeightOverrides) Weights(base retrieval.Weights) retrieval.Weights {
	for _, f := range []struct {
		src *int
		dst *int
	}{
		{o.ExactPhrase, &base.ExactPhrase},
		{o.TokenExact, &base.TokenExact},
		{o.TokenPartial, &base.TokenPartial},
		{o.DomainTerm, &base.DomainTerm},
		{o.Header, &base.Header},
		{o.Intent, &base.Intent},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return base
}

// LLMConfigured reports whether a real LLM API key is available.
func (c *Config) LLMConfigured() bool {
	return c.LLMAPIKey != "" && c.LLMAPIKey != offlineAPIKey
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the ones that must parse.
// If a .env file exists in the current directory or a parent, it is loaded first;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// GROQ_API_KEY is what the original deployment used; LLM_API_KEY wins when both are set.
	apiKey := getEnv("LLM_API_KEY", getEnv("GROQ_API_KEY", offlineAPIKey))

	cfg := &Config{
		APIPort:          getEnv("API_PORT", getEnv("PORT", "3001")),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LLMBaseURL:       strings.TrimRight(getEnv("LLM_BASE_URL", "https://api.groq.com/openai"), "/"),
		LLMModelName:     getEnv("LLM_MODEL", "llama-3.1-8b-instant"),
		LLMAPIKey:        apiKey,
		KBPath:           getEnv("KB_PATH", "./legal_data.txt"),
		GeneratedDocsDir: getEnv("GENERATED_DOCS_DIR", "./generated_docs"),
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		CleanupSchedule:  getEnv("DOC_CLEANUP_SCHEDULE", "@hourly"),
		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
	}

	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if cfg.KBWatch, err = getBool("KB_WATCH", false); err != nil {
		return nil, err
	}
	if cfg.WebSearchEnabled, err = getBool("WEB_SEARCH_ENABLED", true); err != nil {
		return nil, err
	}

	if cfg.RAGTopK, err = getInt("RAG_TOP_K", 3); err != nil {
		return nil, err
	}
	if cfg.RAGTopK <= 0 {
		return nil, fmt.Errorf("RAG_TOP_K must be greater than 0")
	}
	if cfg.WebSearchCacheSize, err = getInt("WEB_SEARCH_CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.WebSearchCacheSize < 0 {
		return nil, fmt.Errorf("WEB_SEARCH_CACHE_SIZE must not be negative")
	}

	if cfg.WebSearchRPS, err = getFloat("WEB_SEARCH_RPS", 5); err != nil {
		return nil, err
	}

	if cfg.WebSearchTimeout, err = getDuration("WEB_SEARCH_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.WebSearchCacheTTL, err = getDuration("WEB_SEARCH_CACHE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DocMaxAge, err = getDuration("DOC_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.StreamChunkDelay, err = getDuration("STREAM_CHUNK_DELAY", 50*time.Millisecond); err != nil {
		return nil, err
	}

	if cfg.Weights, err = loadWeightOverrides(); err != nil {
		return nil, err
	}

	for _, dir := range []string{cfg.GeneratedDocsDir, cfg.UploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

func loadWeightOverrides() (WeightOverrides, error) {
	var w WeightOverrides
	fields := []struct {
		key string
		dst **int
	}{
		{"RAG_WEIGHT_EXACT_PHRASE", &w.ExactPhrase},
		{"RAG_WEIGHT_TOKEN_EXACT", &w.TokenExact},
		{"RAG_WEIGHT_TOKEN_PARTIAL", &w.TokenPartial},
		{"RAG_WEIGHT_DOMAIN_TERM", &w.DomainTerm},
		{"RAG_WEIGHT_HEADER", &w.Header},
		{"RAG_WEIGHT_INTENT", &w.Intent},
	}
	for _, f := range fields {
		raw := os.Getenv(f.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return w, fmt.Errorf("%s must be a valid integer: %w", f.key, err)
		}
		if v < 0 {
			return w, fmt.Errorf("%s must not be negative", f.key)
		}
		*f.dst = &v
	}
	return w, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}

// getDuration accepts Go duration strings ("30s") or a bare number of seconds.
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	return level, nil
}
