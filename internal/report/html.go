package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Markdown renders the summary and rows as a Markdown document.
func Markdown(title string, idx *Index, rows []Row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Classification Results: %s\n", escapeMarkdown(title))
	for _, c := range idx.ConsolidationLabels() {
		fmt.Fprintf(&b, "\n## %s Statements\n\n", StatementTitle(c))
		listed := false
		for _, s := range idx.StatementLabels() {
			pages := idx.Pages(c, s)
			if len(pages) == 0 {
				continue
			}
			fmt.Fprintf(&b, "- **%s**: Pages %s\n", StatementTitle(s), joinPages(pages))
			listed = true
		}
		if !listed {
			b.WriteString("_No pages._\n")
		}
	}

	if len(rows) > 0 {
		b.WriteString("\n## Pages\n\n")
		b.WriteString("| Consolidation | Statement Type | Page Number | Text Excerpt |\n")
		b.WriteString("|---|---|---:|---|\n")
		for _, r := range rows {
			fmt.Fprintf(&b, "| %s | %s | %d | %s |\n",
				r.Consolidation, r.StatementType, r.PageNumber, escapeCell(r.TextExcerpt))
		}
	}
	return b.String()
}

// RenderHTML converts the Markdown report to an HTML fragment.
func RenderHTML(title string, idx *Index, rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(title, idx, rows)), &buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return escapeMarkdown(strings.ReplaceAll(s, "|", `\|`))
}

var markdownEscaper = strings.NewReplacer(
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"<", "&lt;",
	">", "&gt;",
	"[", `\[`,
	"]", `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
