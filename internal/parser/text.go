package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/stmtclass/internal/page"
)

// TextParser handles plain text where pages are separated by form feeds,
// as produced by pdftotext.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*page.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return page.FromTexts(titleFromFilename(filename), splitPages(string(data))), nil
}
