package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/stmtclass/internal/page"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML filings. Printed pages are delimited by CSS page
// breaks, the way EDGAR filings mark them; a document without breaks is a
// single page.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*page.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := titleFromFilename(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}

	var pages []string
	var current strings.Builder
	// Elements seen since the last page cut. A blank stretch with none is
	// the gap between a break-after and an adjacent break-before, not a page.
	elements := 0

	flushPage := func() {
		text := strings.TrimSpace(current.String())
		current.Reset()
		if text == "" && elements == 0 {
			return
		}
		pages = append(pages, text)
		elements = 0
	}
	newline := func() {
		s := current.String()
		if s != "" && !strings.HasSuffix(s, "\n") {
			current.WriteByte('\n')
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			t := strings.Join(strings.Fields(n.Data), " ")
			if t == "" {
				return
			}
			s := current.String()
			if s != "" && !strings.HasSuffix(s, "\n") && !strings.HasSuffix(s, " ") {
				current.WriteByte(' ')
			}
			current.WriteString(t)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head", "title":
				return
			}
		}

		before, after := pageBreaks(n)
		if before {
			flushPage()
		}
		if n.Type == html.ElementNode {
			elements++
		}
		block := n.Type == html.ElementNode && isBlock(n.Data)
		if block {
			newline()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			newline()
		}
		if after {
			flushPage()
		}
	}

	root := findBody(doc)
	if root == nil {
		root = doc
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	// Trailing markup after the last break only counts if it holds text.
	if strings.TrimSpace(current.String()) != "" {
		flushPage()
	} else if len(pages) == 0 && elements > 0 {
		flushPage()
	}

	return page.FromTexts(title, pages), nil
}

// pageBreaks reports whether n forces a page break before or after itself.
func pageBreaks(n *html.Node) (before, after bool) {
	if n.Type != html.ElementNode {
		return false, false
	}
	for _, a := range n.Attr {
		if a.Key != "style" {
			continue
		}
		style := strings.ToLower(strings.ReplaceAll(a.Val, " ", ""))
		before = strings.Contains(style, "page-break-before:always") || strings.Contains(style, "break-before:page")
		after = strings.Contains(style, "page-break-after:always") || strings.Contains(style, "break-after:page")
	}
	return before, after
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "br", "tr", "li", "table", "hr",
		"h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
		return true
	}
	return false
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
