// Package model loads the pretrained models used to classify pages and
// bundles them, together with the precomputed category embeddings, into an
// immutable handle.
package model

import (
	"context"

	"github.com/dgallion1/stmtclass/internal/taxonomy"
)

// Embedder turns texts into fixed-size vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// SequenceClassifier scores a text against the labels of a
// text-classification model.
type SequenceClassifier interface {
	Classify(ctx context.Context, text string) ([]Label, error)
	Model() string
}

// Label is one class score returned by a SequenceClassifier.
type Label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// CategoryEmbeddings holds the phrase vectors of one taxonomy category.
type CategoryEmbeddings struct {
	Name    string
	Vectors [][]float32
}

// Bundle is everything classification needs. It is built once by Load or
// Assemble and must not be modified afterwards.
type Bundle struct {
	Taxonomy   *taxonomy.Taxonomy
	Embedder   Embedder
	Sentiment  SequenceClassifier // nil when disabled
	Categories []CategoryEmbeddings

	CallStats *CallStats

	hf *HFClient
}

// StatsSnapshot reports model names and recent calls per operation.
type StatsSnapshot struct {
	EmbeddingModel string                          `json:"embedding_model"`
	SentimentModel string                          `json:"sentiment_model,omitempty"`
	Operations     map[Operation]OperationSnapshot `json:"operations"`
}

// Stats returns a point-in-time view of the bundle's model calls.
func (b *Bundle) Stats() StatsSnapshot {
	snap := StatsSnapshot{
		EmbeddingModel: b.Embedder.Model(),
		Operations:     map[Operation]OperationSnapshot{},
	}
	if b.Sentiment != nil {
		snap.SentimentModel = b.Sentiment.Model()
	}
	if b.CallStats != nil {
		snap.Operations = b.CallStats.Snapshot()
	}
	return snap
}
