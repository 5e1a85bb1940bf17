// Package classify labels a single page by consolidation status and
// statement type.
package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/stmtclass/internal/model"
)

// Methods that produced a statement type.
const (
	MethodSimilarity = "similarity"
	MethodKeyword    = "keyword"
)

// Result is the label pair assigned to one page.
type Result struct {
	Consolidation string  `json:"consolidation"`
	StatementType string  `json:"statement_type"`
	Score         float64 `json:"score"`
	Method        string  `json:"method"`
}

// Classify labels text using the models in b. Model failures are returned
// and no partial result is produced.
func Classify(ctx context.Context, text string, b *model.Bundle) (Result, error) {
	if b == nil || b.Taxonomy == nil || b.Embedder == nil {
		return Result{}, errors.New("classify: model bundle is not loaded")
	}

	// The sentiment scores are not used, but a failed call fails the page.
	if b.Sentiment != nil {
		if _, err := b.Sentiment.Classify(ctx, text); err != nil {
			return Result{}, fmt.Errorf("sentiment: %w", err)
		}
	}

	res := Result{Consolidation: b.Taxonomy.ResolveConsolidation(text)}

	name, score, err := nearestCategory(ctx, text, b)
	if err != nil {
		return Result{}, err
	}
	res.Score = score
	if score < b.Taxonomy.Threshold {
		res.StatementType = b.Taxonomy.ResolveFallback(text)
		res.Method = MethodKeyword
		return res, nil
	}
	res.StatementType = name
	res.Method = MethodSimilarity
	return res, nil
}

// nearestCategory returns the category whose closest phrase is most similar
// to text. Earlier categories win ties, so the first category is returned
// even when every score is -1.
func nearestCategory(ctx context.Context, text string, b *model.Bundle) (string, float64, error) {
	vecs, err := b.Embedder.Embed(ctx, []string{text})
	if err != nil {
		return "", 0, fmt.Errorf("embed page: %w", err)
	}
	if len(vecs) != 1 {
		return "", 0, fmt.Errorf("embed page: got %d vectors", len(vecs))
	}
	page := vecs[0]

	if len(b.Categories) == 0 {
		return "", 0, errors.New("score page: no category embeddings")
	}
	best, bestScore := b.Categories[0].Name, -1.0
	for _, c := range b.Categories {
		catScore := -1.0
		for _, v := range c.Vectors {
			s, err := model.Cosine(page, v)
			if err != nil {
				return "", 0, fmt.Errorf("score %s: %w", c.Name, err)
			}
			if s > catScore {
				catScore = s
			}
		}
		if catScore > bestScore {
			best, bestScore = c.Name, catScore
		}
	}
	return best, bestScore, nil
}
