package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WriteSummary prints the grouped page listing. Every consolidation group
// gets a heading; empty statement buckets are omitted.
func WriteSummary(w io.Writer, idx *Index) error {
	var b strings.Builder
	b.WriteString("Classification Results:\n")
	b.WriteString(strings.Repeat("=", 40))
	b.WriteString("\n")
	for _, c := range idx.ConsolidationLabels() {
		fmt.Fprintf(&b, "\n%s STATEMENTS:\n", strings.ToUpper(c))
		for _, s := range idx.StatementLabels() {
			pages := idx.Pages(c, s)
			if len(pages) == 0 {
				continue
			}
			fmt.Fprintf(&b, "- %s: Pages %s\n", StatementTitle(s), joinPages(pages))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// StatementTitle turns a label such as "profit_loss" into "Profit Loss".
func StatementTitle(label string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(label, "_", " "))
}

func joinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
