package page

import "strings"

// Document is the page-ordered text of a single input file.
type Document struct {
	Title string // Document title (from filename)
	Pages []Page // One entry per physical page, blank pages included
}

// Page is the extracted text of one page.
type Page struct {
	Number int    // 1-based page number
	Text   string // Extracted text ("" when nothing was recoverable)
}

// FromTexts builds a Document from per-page texts. Whitespace-only pages
// become "" but keep their slot so later page numbers stay accurate.
func FromTexts(title string, texts []string) *Document {
	doc := &Document{Title: title, Pages: make([]Page, 0, len(texts))}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			t = ""
		}
		doc.Pages = append(doc.Pages, Page{Number: i + 1, Text: t})
	}
	return doc
}

// Texts returns the page texts in page order.
func (d *Document) Texts() []string {
	out := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		out[i] = p.Text
	}
	return out
}

// Blank reports whether no page has any text.
func (d *Document) Blank() bool {
	for _, p := range d.Pages {
		if p.Text != "" {
			return false
		}
	}
	return true
}
