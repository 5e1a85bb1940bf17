// Package report aggregates classified pages and renders them as a console
// summary, CSV/XLSX exports, and HTML.
package report

import "fmt"

// Index maps consolidation label to statement type to page numbers. Label
// order is fixed at construction and drives every rendering.
type Index struct {
	consolidation []string
	statements    []string
	pages         map[string]map[string][]int
	count         int
}

// NewIndex creates an empty index over the given labels.
func NewIndex(consolidation, statements []string) *Index {
	idx := &Index{
		consolidation: append([]string(nil), consolidation...),
		statements:    append([]string(nil), statements...),
		pages:         make(map[string]map[string][]int, len(consolidation)),
	}
	for _, c := range consolidation {
		idx.pages[c] = make(map[string][]int, len(statements))
	}
	return idx
}

// Add appends page to the (consolidation, statement) bucket.
func (x *Index) Add(consolidation, statement string, page int) error {
	bucket, ok := x.pages[consolidation]
	if !ok {
		return fmt.Errorf("unknown consolidation label %q", consolidation)
	}
	if !x.hasStatement(statement) {
		return fmt.Errorf("unknown statement type %q", statement)
	}
	bucket[statement] = append(bucket[statement], page)
	x.count++
	return nil
}

func (x *Index) hasStatement(s string) bool {
	for _, st := range x.statements {
		if st == s {
			return true
		}
	}
	return false
}

// Pages returns the pages in one bucket.
func (x *Index) Pages(consolidation, statement string) []int {
	return x.pages[consolidation][statement]
}

// Len is the number of classified pages.
func (x *Index) Len() int { return x.count }

// ConsolidationLabels returns the consolidation labels in report order.
func (x *Index) ConsolidationLabels() []string { return x.consolidation }

// StatementLabels returns the statement types in report order.
func (x *Index) StatementLabels() []string { return x.statements }

// Each calls fn for every non-empty bucket in report order.
func (x *Index) Each(fn func(consolidation, statement string, pages []int)) {
	for _, c := range x.consolidation {
		for _, s := range x.statements {
			if pages := x.pages[c][s]; len(pages) > 0 {
				fn(c, s, pages)
			}
		}
	}
}

// Map returns the index as nested maps with every bucket present, for JSON.
func (x *Index) Map() map[string]map[string][]int {
	out := make(map[string]map[string][]int, len(x.consolidation))
	for _, c := range x.consolidation {
		inner := make(map[string][]int, len(x.statements))
		for _, s := range x.statements {
			pages := x.pages[c][s]
			if pages == nil {
				pages = []int{}
			}
			inner[s] = pages
		}
		out[c] = inner
	}
	return out
}
