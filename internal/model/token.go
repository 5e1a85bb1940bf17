package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Word-piece budgets: a run of letters costs one token per 6 runes and a run
// of digits one per 3; every other non-space rune is a token of its own.
// This over-counts against BERT vocabularies, which keeps numeric tables
// such as "1,234,567.89" inside the model window.
const (
	runesPerLetterPiece = 6
	runesPerDigitPiece  = 3
)

// EstimateTokens gives a conservative word-piece count. Exact tokenization is
// not required: it only bounds what is sent to the inference API.
func EstimateTokens(text string) int {
	total := 0
	scanPieces(text, func(_, tokens int) bool {
		total += tokens
		return true
	})
	return total
}

// TruncateTokens keeps the longest prefix of text whose estimated token count
// fits in maxTokens, cut at a piece boundary. Text that already fits is
// returned unchanged.
func TruncateTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	used, cut := 0, -1
	scanPieces(text, func(start, tokens int) bool {
		if used+tokens > maxTokens {
			cut = start
			return false
		}
		used += tokens
		return true
	})
	if cut < 0 {
		return text
	}
	return strings.TrimRightFunc(text[:cut], unicode.IsSpace)
}

const (
	classOther = iota
	classLetter
	classDigit
)

func runeClass(r rune) int {
	switch {
	case unicode.Is(unicode.Han, r):
		return classOther
	case unicode.IsLetter(r) || unicode.IsMark(r):
		return classLetter
	case unicode.IsDigit(r):
		return classDigit
	}
	return classOther
}

// scanPieces calls fn with the byte offset and token cost of each piece of
// text, in order, until fn returns false.
func scanPieces(text string, fn func(start, tokens int) bool) {
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		class := runeClass(r)
		if class == classOther {
			if !fn(i, 1) {
				return
			}
			i += size
			continue
		}

		start, n := i, 0
		for i < len(text) {
			r, size := utf8.DecodeRuneInString(text[i:])
			if runeClass(r) != class {
				break
			}
			n++
			i += size
		}
		per := runesPerLetterPiece
		if class == classDigit {
			per = runesPerDigitPiece
		}
		if !fn(start, 1+(n-1)/per) {
			return
		}
	}
}
