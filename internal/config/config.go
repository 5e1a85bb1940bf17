package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Embedding providers.
const (
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"
)

type Config struct {
	// Models
	EmbeddingProvider string
	EmbeddingModel    string
	SentimentModel    string
	SentimentEnabled  bool
	InferenceTimeout  time.Duration

	// Hugging Face Inference API
	HFToken   string
	HFBaseURL string

	// Gemini
	GoogleAPIKey string

	// Classification
	TaxonomyPath string
	MinPageChars int

	// PDF
	PDFFallbackPdftotext bool

	// Export
	ExportXLSX bool

	// HTTP server
	Port           string
	APIKey         string
	MaxUploadBytes int64

	// Model latency stats window
	StatsWindow time.Duration
}

func Load() Config {
	cfg := Config{
		EmbeddingProvider: envOr("EMBEDDING_PROVIDER", ProviderHuggingFace),
		EmbeddingModel:    os.Getenv("EMBEDDING_MODEL"),
		SentimentModel:    envOr("SENTIMENT_MODEL", "yiyanghkust/finbert-tone"),
		SentimentEnabled:  envBool("SENTIMENT_ENABLED", true),
		InferenceTimeout:  envDuration("INFERENCE_TIMEOUT", 120*time.Second),

		HFToken:   os.Getenv("HF_TOKEN"),
		HFBaseURL: envOr("HF_BASE_URL", "https://router.huggingface.co/hf-inference/models"),

		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),

		TaxonomyPath: os.Getenv("TAXONOMY_PATH"),
		MinPageChars: envInt("MIN_PAGE_CHARS", 50),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", false),

		ExportXLSX: envBool("EXPORT_XLSX", false),

		Port:           envOr("PORT", "8090"),
		APIKey:         os.Getenv("STMTCLASS_API_KEY"),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),
	}

	if cfg.EmbeddingModel == "" {
		switch cfg.EmbeddingProvider {
		case ProviderGemini:
			cfg.EmbeddingModel = "gemini-embedding-001"
		default:
			cfg.EmbeddingModel = "sentence-transformers/paraphrase-MiniLM-L6-v2"
		}
	}
	if cfg.InferenceTimeout <= 0 {
		cfg.InferenceTimeout = 120 * time.Second
	}
	if cfg.MinPageChars < 0 {
		cfg.MinPageChars = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings needed to load the models.
func (c Config) Validate() error {
	switch c.EmbeddingProvider {
	case ProviderHuggingFace:
		if c.HFToken == "" {
			return fmt.Errorf("HF_TOKEN is required for the %s embedding provider", c.EmbeddingProvider)
		}
	case ProviderGemini:
		if c.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for the %s embedding provider", c.EmbeddingProvider)
		}
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}
	if c.SentimentEnabled && c.HFToken == "" {
		return fmt.Errorf("HF_TOKEN is required when SENTIMENT_ENABLED is true")
	}
	return nil
}

// ValidateServer additionally checks the HTTP server settings.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("STMTCLASS_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
