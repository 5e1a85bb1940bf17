package model

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one two three", 3},
		{"consolidated", 2},
		{"1,234,567.89", 7},
		{"(2,345,678.90)", 9},
		{"Rs.1234567", 5},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q): expected %d, got %d", tt.text, tt.want, got)
		}
	}
}

func TestTruncateTokens(t *testing.T) {
	short := "Consolidated balance sheet"
	if got := TruncateTokens(short, 512); got != short {
		t.Errorf("expected short text unchanged, got %q", got)
	}
	if got := TruncateTokens(short, 0); got != short {
		t.Errorf("expected unlimited when maxTokens=0, got %q", got)
	}

	long := strings.Repeat("assets ", 1000)
	got := TruncateTokens(long, 512)
	words := len(strings.Fields(got))
	if words != 512 {
		t.Fatalf("expected 512 words, got %d", words)
	}
	if EstimateTokens(got) > 512 {
		t.Errorf("expected at most 512 tokens, got %d", EstimateTokens(got))
	}
}

func TestTruncateTokens_NumericTable(t *testing.T) {
	page := "Consolidated Balance Sheet " + strings.Repeat("1,234,567.89 (2,345,678.90) ", 400)

	got := TruncateTokens(page, 510)
	if !strings.HasPrefix(got, "Consolidated Balance Sheet 1,234,567.89") {
		t.Fatalf("unexpected prefix: %.40q", got)
	}
	if n := EstimateTokens(got); n > 510 {
		t.Errorf("expected at most 510 tokens, got %d", n)
	}
	// 16 pieces per pair of figures leaves room for about 31 pairs.
	if fields := len(strings.Fields(got)); fields > 70 {
		t.Errorf("expected the table to be cut to at most 70 fields, got %d", fields)
	}
	if strings.HasSuffix(got, " ") {
		t.Errorf("expected trailing space trimmed, got %q", got[len(got)-10:])
	}
}
