package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/stmtclass/internal/config"
	"github.com/dgallion1/stmtclass/internal/taxonomy"
)

// finbert-tone is a BERT model with a 512 token window.
const sentimentMaxTokens = 512

// Load instantiates the configured models and precomputes the category
// phrase embeddings. Any failure is returned; callers treat it as fatal.
func Load(ctx context.Context, cfg config.Config, log *slog.Logger) (*Bundle, error) {
	tax, err := taxonomy.Load(cfg.TaxonomyPath)
	if err != nil {
		return nil, err
	}

	var hf *HFClient
	if cfg.HFToken != "" {
		hf = NewHFClient(cfg.HFToken, cfg.HFBaseURL, cfg.InferenceTimeout)
	}

	var emb Embedder
	switch cfg.EmbeddingProvider {
	case config.ProviderHuggingFace:
		if hf == nil {
			return nil, errors.New("hugging face embeddings need HF_TOKEN")
		}
		emb = NewHFEmbedder(hf, cfg.EmbeddingModel)
	case config.ProviderGemini:
		g, err := NewGeminiEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, err
		}
		emb = g
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}

	var sentiment SequenceClassifier
	if cfg.SentimentEnabled {
		if hf == nil {
			return nil, errors.New("sentiment model needs HF_TOKEN")
		}
		sentiment = NewHFClassifier(hf, cfg.SentimentModel, sentimentMaxTokens)
	}

	b, err := Assemble(ctx, tax, emb, sentiment, cfg.StatsWindow, log)
	if err != nil {
		return nil, err
	}
	b.hf = hf
	return b, nil
}

// Assemble builds a Bundle from already constructed models.
func Assemble(ctx context.Context, tax *taxonomy.Taxonomy, emb Embedder, sentiment SequenceClassifier, statsWindow time.Duration, log *slog.Logger) (*Bundle, error) {
	if log == nil {
		log = slog.Default()
	}
	if tax == nil || emb == nil {
		return nil, errors.New("taxonomy and embedder are required")
	}

	b := &Bundle{
		Taxonomy:  tax,
		CallStats: NewCallStats(statsWindow),
	}
	b.Embedder = timedEmbedder{Embedder: emb, stats: b.CallStats, op: OpPageEmbedding}
	if sentiment != nil {
		b.Sentiment = timedClassifier{SequenceClassifier: sentiment, stats: b.CallStats}
	}

	start := time.Now()
	phrases := timedEmbedder{Embedder: emb, stats: b.CallStats, op: OpPhraseEmbedding}
	for _, c := range tax.Categories {
		vecs, err := phrases.Embed(ctx, c.Phrases)
		if err != nil {
			return nil, fmt.Errorf("embed %s phrases: %w", c.Name, err)
		}
		if len(vecs) != len(c.Phrases) {
			return nil, fmt.Errorf("embed %s phrases: got %d vectors for %d phrases", c.Name, len(vecs), len(c.Phrases))
		}
		b.Categories = append(b.Categories, CategoryEmbeddings{Name: c.Name, Vectors: vecs})
	}

	sentimentModel := ""
	if sentiment != nil {
		sentimentModel = sentiment.Model()
	}
	log.Info("models loaded",
		"embedding_model", emb.Model(),
		"sentiment_model", sentimentModel,
		"categories", len(b.Categories),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// Close releases model client resources.
func (b *Bundle) Close() {
	if b.hf != nil {
		b.hf.Close()
	}
}

type timedEmbedder struct {
	Embedder
	stats *CallStats
	op    Operation
}

func (t timedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := t.Embedder.Embed(ctx, texts)
	t.stats.Record(t.op, time.Since(start), len(texts), err)
	return vecs, err
}

type timedClassifier struct {
	SequenceClassifier
	stats *CallStats
}

func (t timedClassifier) Classify(ctx context.Context, text string) ([]Label, error) {
	start := time.Now()
	labels, err := t.SequenceClassifier.Classify(ctx, text)
	t.stats.Record(OpSentiment, time.Since(start), 1, err)
	return labels, err
}
