package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/stmtclass/internal/page"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Pages are delimited by explicit page
// breaks (<w:br w:type="page"/>); a document without breaks is one page.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*page.Document, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "stmtclass-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	defer tmp.Close()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var w docxPageWriter
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			w.paragraph(it)
		case *docx.Table:
			w.table(it)
		}
	}
	return page.FromTexts(titleFromFilename(filename), w.finish()), nil
}

// docxPageWriter accumulates text and cuts a new page at every page break.
type docxPageWriter struct {
	pages   []string
	current strings.Builder
}

func (w *docxPageWriter) breakPage() {
	w.pages = append(w.pages, strings.TrimSpace(w.current.String()))
	w.current.Reset()
}

func (w *docxPageWriter) endLine() {
	s := w.current.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		w.current.WriteByte('\n')
	}
}

func (w *docxPageWriter) finish() []string {
	w.breakPage()
	return w.pages
}

func (w *docxPageWriter) paragraph(para *docx.Paragraph) {
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			w.run(c)
		case *docx.Hyperlink:
			w.run(&c.Run)
		}
	}
	w.endLine()
}

func (w *docxPageWriter) run(run *docx.Run) {
	for _, rc := range run.Children {
		switch c := rc.(type) {
		case *docx.Text:
			w.current.WriteString(c.Text)
		case *docx.Tab:
			w.current.WriteByte(' ')
		case *docx.BarterRabbet:
			if c.Type == "page" {
				w.breakPage()
			} else {
				w.current.WriteByte('\n')
			}
		}
	}
}

func (w *docxPageWriter) table(tbl *docx.Table) {
	for _, row := range tbl.TableRows {
		for i, cell := range row.TableCells {
			if i > 0 {
				w.current.WriteByte(' ')
			}
			for _, para := range cell.Paragraphs {
				w.paragraph(para)
				trimTrailingNewline(&w.current)
				w.current.WriteByte(' ')
			}
			for _, nested := range cell.Tables {
				w.table(nested)
			}
		}
		w.endLine()
	}
}

func trimTrailingNewline(b *strings.Builder) {
	s := b.String()
	if strings.HasSuffix(s, "\n") {
		b.Reset()
		b.WriteString(strings.TrimSuffix(s, "\n"))
	}
}
