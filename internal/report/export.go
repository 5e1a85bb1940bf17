package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

const excerptRunes = 100

// Row is one classified page in the flat export.
type Row struct {
	Consolidation string `csv:"Consolidation" json:"consolidation"`
	StatementType string `csv:"Statement Type" json:"statement_type"`
	PageNumber    int    `csv:"Page Number" json:"page_number"`
	TextExcerpt   string `csv:"Text Excerpt" json:"text_excerpt"`
}

// BuildRows flattens idx in report order. texts holds the original page
// texts, indexed by page number minus one.
func BuildRows(idx *Index, texts []string) []Row {
	rows := make([]Row, 0, idx.Len())
	idx.Each(func(c, s string, pages []int) {
		for _, p := range pages {
			rows = append(rows, Row{
				Consolidation: c,
				StatementType: s,
				PageNumber:    p,
				TextExcerpt:   Excerpt(texts, p),
			})
		}
	})
	return rows
}

// Excerpt returns the first 100 runes of page n followed by "...", or ""
// when n is outside texts.
func Excerpt(texts []string, n int) string {
	if n < 1 || n > len(texts) {
		return ""
	}
	r := []rune(texts[n-1])
	if len(r) > excerptRunes {
		r = r[:excerptRunes]
	}
	return string(r) + "..."
}

// ExportFilename derives "<input without extension>_results<ext>".
func ExportFilename(input, ext string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "_results" + ext
}

// WriteCSV writes rows with a header line. An empty report still gets the
// header.
func WriteCSV(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// SaveCSV writes rows to path.
func SaveCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var xlsxHeaders = []string{"Consolidation", "Statement Type", "Page Number", "Text Excerpt"}

const xlsxSheet = "Results"

// WriteXLSX writes rows as a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	if err := fillResultsSheet(f, xlsxSheet, rows); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

var xlsxColWidths = []struct {
	col   string
	width float64
}{{"A", 16}, {"B", 18}, {"C", 12}, {"D", 80}}

// fillResultsSheet writes the header, one line per row and the column widths
// into sheet, stopping at the first failed cell.
func fillResultsSheet(f *excelize.File, sheet string, rows []Row) error {
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}
	for i, h := range xlsxHeaders {
		if err := setCell(f, sheet, i+1, 1, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "D1", headerStyle); err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}

	for i, r := range rows {
		for col, v := range []any{r.Consolidation, r.StatementType, r.PageNumber, r.TextExcerpt} {
			if err := setCell(f, sheet, col+1, i+2, v); err != nil {
				return err
			}
		}
	}

	for _, cw := range xlsxColWidths {
		if err := f.SetColWidth(sheet, cw.col, cw.col, cw.width); err != nil {
			return fmt.Errorf("xlsx column %s width: %w", cw.col, err)
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("xlsx cell: %w", err)
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("xlsx cell %s: %w", cell, err)
	}
	return nil
}

// SaveXLSX writes rows to path.
func SaveXLSX(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteXLSX(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
