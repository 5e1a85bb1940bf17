package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/stmtclass/internal/config"
	"github.com/dgallion1/stmtclass/internal/model/modeltest"
)

func TestReadPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"/tmp/annual.pdf\n", "/tmp/annual.pdf", false},
		{"  'report 2024.pdf'  \n", "report 2024.pdf", false},
		{`"/data/q3.pdf"`, "/data/q3.pdf", false},
		{"\n", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := readPath(strings.NewReader(tt.in))
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestClassifyFile_WritesSummaryAndExports(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "annual.pdf")
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Cell(0, 8, "CONSOLIDATED BALANCE SHEET: Assets and Liabilities as of 31 March")
	require.NoError(t, pdf.OutputFileAndClose(path))

	b, _ := modeltest.DefaultAxisBundle(t)
	cfg := config.Config{MinPageChars: 50, ExportXLSX: true}

	var out bytes.Buffer
	require.NoError(t, classifyFile(context.Background(), cfg, b, path, &out, nil))

	assert.Contains(t, out.String(), "Classification Results:")
	assert.Contains(t, out.String(), "CONSOLIDATED STATEMENTS:\n- Balance Sheet: Pages 1\n")
	csvPath := filepath.Join(dir, "annual_results.csv")
	assert.Contains(t, out.String(), "Results saved to "+csvPath)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "consolidated,balance_sheet,1,")
	assert.FileExists(t, filepath.Join(dir, "annual_results.xlsx"))
}

func TestClassifyFile_UnsupportedInput(t *testing.T) {
	b, _ := modeltest.DefaultAxisBundle(t)
	err := classifyFile(context.Background(), config.Config{}, b, "/tmp/statements.xlsx", &bytes.Buffer{}, nil)
	assert.Error(t, err)
}

func TestRun_InvalidModelConfig(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), config.Config{EmbeddingProvider: "none"}, strings.NewReader("a.pdf\n"), &out, nil)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "Please upload your financial PDF file:")
	assert.Contains(t, out.String(), "Loading transformer models...")
}
