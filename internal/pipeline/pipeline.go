// Package pipeline runs page classification over a whole document.
package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dgallion1/stmtclass/internal/classify"
	"github.com/dgallion1/stmtclass/internal/model"
	"github.com/dgallion1/stmtclass/internal/page"
	"github.com/dgallion1/stmtclass/internal/report"
)

// DefaultMinPageChars is the trimmed length below which a page is skipped.
const DefaultMinPageChars = 50

// Pipeline classifies documents one page at a time.
type Pipeline struct {
	bundle       *model.Bundle
	minPageChars int
	log          *slog.Logger
}

func New(bundle *model.Bundle, minPageChars int, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if minPageChars < 0 {
		minPageChars = DefaultMinPageChars
	}
	return &Pipeline{bundle: bundle, minPageChars: minPageChars, log: log}
}

// PageError records a page that could not be classified.
type PageError struct {
	Page  int    `json:"page"`
	Error string `json:"error"`
}

// Report is the outcome of one run.
type Report struct {
	RunID       string
	Source      string
	ContentHash string
	PagesTotal  int
	Skipped     int
	Errors      []PageError
	Index       *report.Index
	// Texts are the original page texts, indexed by page number minus one.
	Texts []string
}

// Rows flattens the report for export.
func (r *Report) Rows() []report.Row {
	return report.BuildRows(r.Index, r.Texts)
}

// Run classifies every page of doc. Short pages are skipped and pages whose
// classification fails are logged and left out; neither stops the run.
// Cancelling ctx stops the run after the current page.
func (p *Pipeline) Run(ctx context.Context, doc *page.Document) *Report {
	tax := p.bundle.Taxonomy
	rep := &Report{
		RunID:      uuid.NewString(),
		Source:     doc.Title,
		PagesTotal: len(doc.Pages),
		Index:      report.NewIndex(tax.ConsolidationLabels(), tax.StatementLabels()),
		Texts:      doc.Texts(),
	}
	rep.ContentHash = ContentHashHex([]byte(strings.Join(rep.Texts, "\f")))
	log := p.log.With("run_id", rep.RunID, "source", rep.Source)

	start := time.Now()
	for _, pg := range doc.Pages {
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled", "page", pg.Number, "error", err)
			rep.Errors = append(rep.Errors, PageError{Page: pg.Number, Error: err.Error()})
			break
		}
		if utf8.RuneCountInString(strings.TrimSpace(pg.Text)) < p.minPageChars {
			rep.Skipped++
			continue
		}

		res, err := classify.Classify(ctx, pg.Text, p.bundle)
		if err == nil {
			err = rep.Index.Add(res.Consolidation, res.StatementType, pg.Number)
		}
		if err != nil {
			log.Error("classify page", "page", pg.Number, "error", err)
			rep.Errors = append(rep.Errors, PageError{Page: pg.Number, Error: err.Error()})
			continue
		}
		log.Debug("classified page",
			"page", pg.Number,
			"consolidation", res.Consolidation,
			"statement_type", res.StatementType,
			"method", res.Method,
			"score", res.Score,
		)
	}

	log.Info("run complete",
		"pages", rep.PagesTotal,
		"classified", rep.Index.Len(),
		"skipped", rep.Skipped,
		"errors", len(rep.Errors),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rep
}

// ContentHashHex returns the hex SHA-256 of data.
func ContentHashHex(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
