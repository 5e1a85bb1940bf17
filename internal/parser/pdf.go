package parser

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/stmtclass/internal/page"
	pdflib "github.com/ledongthuc/pdf"
	rscpdf "rsc.io/pdf"
)

// PDFParser extracts per-page text from PDF files. ledongthuc/pdf is tried
// first; when every page comes back blank the file is re-read with rsc.io/pdf,
// then optionally with pdftotext.
type PDFParser struct {
	FallbackPdftotext bool
	Log               *slog.Logger

	// Overridable in tests.
	primary   func(path string) ([]string, error)
	secondary func(path string) ([]string, error)
	pdftotext func(path string) (string, error)
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*page.Document, error) {
	// Both PDF libraries want random access, so we write to a temp file.
	tmp, err := os.CreateTemp("", "stmtclass-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	return page.FromTexts(titleFromFilename(filename), p.ExtractPages(tmpPath)), nil
}

// ParseFile extracts the PDF at path without copying it.
func (p *PDFParser) ParseFile(path string) *page.Document {
	return page.FromTexts(titleFromFilename(path), p.ExtractPages(path))
}

// ExtractPages returns one text per page. It never fails: any error from the
// primary library is logged and reported as no pages at all.
func (p *PDFParser) ExtractPages(path string) []string {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	primary, secondary, pdftotext := p.primary, p.secondary, p.pdftotext
	if primary == nil {
		primary = extractLedongthuc
	}
	if secondary == nil {
		secondary = extractRSC
	}
	if pdftotext == nil {
		pdftotext = extractPdftotext
	}

	texts, err := primary(path)
	if err != nil {
		log.Error("extract pdf text", "path", path, "error", err)
		return nil
	}
	if !allBlank(texts) {
		return texts
	}

	log.Info("pdf has no extractable text, retrying with fallback reader", "path", path, "pages", len(texts))
	texts, err = secondary(path)
	if err != nil {
		log.Error("extract pdf text (fallback)", "path", path, "error", err)
		return nil
	}
	if !allBlank(texts) || !p.FallbackPdftotext {
		return texts
	}

	out, err := pdftotext(path)
	if err != nil {
		log.Warn("pdftotext fallback failed", "path", path, "error", err)
		return texts
	}
	return splitPages(out)
}

func allBlank(texts []string) bool {
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			return false
		}
	}
	return true
}

func extractLedongthuc(path string) (texts []string, err error) {
	// The library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ledongthuc/pdf: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	texts = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pg := reader.Page(i)
		if pg.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := pg.GetPlainText(nil)
		if err != nil {
			texts = append(texts, "")
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func extractRSC(path string) (texts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rsc.io/pdf: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := rscpdf.NewReader(f, info.Size())
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	texts = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pg := reader.Page(i)
		if pg.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		texts = append(texts, joinGlyphs(pg.Content().Text))
	}
	return texts, nil
}

// joinGlyphs rebuilds lines from rsc.io/pdf glyph runs, which arrive one
// character at a time with positions but no spacing.
func joinGlyphs(glyphs []rscpdf.Text) string {
	var buf strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			size := prev.FontSize
			if size <= 0 {
				size = 1
			}
			switch {
			case math.Abs(g.Y-prev.Y) > size*0.5:
				buf.WriteByte('\n')
			case g.X-(prev.X+prev.W) > size*0.15:
				buf.WriteByte(' ')
			}
		}
		buf.WriteString(g.S)
	}
	return buf.String()
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// splitPages splits form-feed separated output. pdftotext terminates every
// page with a form feed, so a single trailing one is dropped.
func splitPages(text string) []string {
	text = strings.TrimSuffix(text, "\f")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\f")
}
