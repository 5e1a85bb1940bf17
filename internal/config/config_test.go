package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "SENTIMENT_MODEL", "SENTIMENT_ENABLED",
		"INFERENCE_TIMEOUT", "HF_TOKEN", "HF_BASE_URL", "GOOGLE_API_KEY", "TAXONOMY_PATH",
		"MIN_PAGE_CHARS", "PDF_FALLBACK_PDFTOTEXT", "EXPORT_XLSX", "PORT",
		"STMTCLASS_API_KEY", "MAX_UPLOAD_BYTES", "STATS_WINDOW",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, ProviderHuggingFace, cfg.EmbeddingProvider)
	assert.Equal(t, "sentence-transformers/paraphrase-MiniLM-L6-v2", cfg.EmbeddingModel)
	assert.Equal(t, "yiyanghkust/finbert-tone", cfg.SentimentModel)
	assert.True(t, cfg.SentimentEnabled)
	assert.Equal(t, 120*time.Second, cfg.InferenceTimeout)
	assert.Equal(t, 50, cfg.MinPageChars)
	assert.False(t, cfg.PDFFallbackPdftotext)
	assert.False(t, cfg.ExportXLSX)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, int64(52428800), cfg.MaxUploadBytes)
	assert.Equal(t, time.Hour, cfg.StatsWindow)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "gemini")
	t.Setenv("EMBEDDING_MODEL", "")
	t.Setenv("SENTIMENT_ENABLED", "false")
	t.Setenv("INFERENCE_TIMEOUT", "5s")
	t.Setenv("MIN_PAGE_CHARS", "10")
	t.Setenv("EXPORT_XLSX", "true")
	t.Setenv("MAX_UPLOAD_BYTES", "-1")

	cfg := Load()
	assert.Equal(t, ProviderGemini, cfg.EmbeddingProvider)
	assert.Equal(t, "gemini-embedding-001", cfg.EmbeddingModel)
	assert.False(t, cfg.SentimentEnabled)
	assert.Equal(t, 5*time.Second, cfg.InferenceTimeout)
	assert.Equal(t, 10, cfg.MinPageChars)
	assert.True(t, cfg.ExportXLSX)
	assert.Equal(t, int64(52428800), cfg.MaxUploadBytes)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"hf with token", Config{EmbeddingProvider: ProviderHuggingFace, HFToken: "hf_x", SentimentEnabled: true}, false},
		{"hf without token", Config{EmbeddingProvider: ProviderHuggingFace}, true},
		{"gemini with key, sentiment off", Config{EmbeddingProvider: ProviderGemini, GoogleAPIKey: "k"}, false},
		{"gemini with sentiment needs hf token", Config{EmbeddingProvider: ProviderGemini, GoogleAPIKey: "k", SentimentEnabled: true}, true},
		{"gemini without key", Config{EmbeddingProvider: ProviderGemini}, true},
		{"unknown provider", Config{EmbeddingProvider: "openai"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateServer_RequiresAPIKey(t *testing.T) {
	cfg := Config{EmbeddingProvider: ProviderHuggingFace, HFToken: "hf_x"}
	require.Error(t, cfg.ValidateServer())

	cfg.APIKey = "secret"
	require.NoError(t, cfg.ValidateServer())
}
