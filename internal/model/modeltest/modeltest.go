// Package modeltest provides deterministic stand-ins for the inference
// models.
package modeltest

import (
	"context"
	"testing"
	"time"

	"github.com/dgallion1/stmtclass/internal/model"
	"github.com/dgallion1/stmtclass/internal/taxonomy"
)

// Embedder returns a fixed vector per text; texts without an entry get
// Default.
type Embedder struct {
	Vectors map[string][]float32
	Default []float32
	// Fail makes Embed return Err for the listed texts.
	Fail map[string]bool
	Err  error
}

func (e *Embedder) Model() string { return "fake-embedder" }

func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if e.Fail[t] {
			return nil, e.Err
		}
		if v, ok := e.Vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = e.Default
	}
	return out, nil
}

// AxisEmbedder maps every phrase of category i onto the i-th unit vector.
// Anything else embeds to the zero vector, so it scores 0 everywhere.
func AxisEmbedder(tax *taxonomy.Taxonomy) *Embedder {
	dim := len(tax.Categories)
	e := &Embedder{
		Vectors: make(map[string][]float32),
		Default: make([]float32, dim),
		Fail:    make(map[string]bool),
	}
	for i, c := range tax.Categories {
		for _, p := range c.Phrases {
			v := make([]float32, dim)
			v[i] = 1
			e.Vectors[p] = v
		}
	}
	return e
}

// Classifier returns fixed labels and counts its calls.
type Classifier struct {
	Labels []model.Label
	Err    error
	Calls  int
}

func (c *Classifier) Model() string { return "fake-classifier" }

func (c *Classifier) Classify(context.Context, string) ([]model.Label, error) {
	c.Calls++
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Labels, nil
}

// NewBundle assembles a bundle over the default taxonomy.
func NewBundle(tb testing.TB, emb model.Embedder, sentiment model.SequenceClassifier) *model.Bundle {
	tb.Helper()
	tax, err := taxonomy.Default()
	if err != nil {
		tb.Fatalf("default taxonomy: %v", err)
	}
	b, err := model.Assemble(context.Background(), tax, emb, sentiment, time.Hour, nil)
	if err != nil {
		tb.Fatalf("assemble bundle: %v", err)
	}
	return b
}

// DefaultAxisBundle is NewBundle with an AxisEmbedder over the default
// taxonomy and no sentiment model. The embedder is returned so tests can
// register page vectors.
func DefaultAxisBundle(tb testing.TB) (*model.Bundle, *Embedder) {
	tb.Helper()
	tax, err := taxonomy.Default()
	if err != nil {
		tb.Fatalf("default taxonomy: %v", err)
	}
	emb := AxisEmbedder(tax)
	return NewBundle(tb, emb, nil), emb
}
