// Command stmtclass classifies the pages of a financial statement PDF and
// writes the results next to the input file.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dgallion1/stmtclass/internal/config"
	"github.com/dgallion1/stmtclass/internal/model"
	"github.com/dgallion1/stmtclass/internal/parser"
	"github.com/dgallion1/stmtclass/internal/pipeline"
	"github.com/dgallion1/stmtclass/internal/report"
)

func main() {
	_ = godotenv.Load()
	// Logs go to stderr so stdout carries only the report.
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, os.Stdin, os.Stdout, log); err != nil {
		log.Error("stmtclass failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer, log *slog.Logger) error {
	fmt.Fprintln(out, "Please upload your financial PDF file:")
	path, err := readPath(in)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\nLoading transformer models...")
	bundle, err := model.Load(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("load models: %w", err)
	}
	defer bundle.Close()

	fmt.Fprintln(out, "\nProcessing PDF with LLM classification...")
	return classifyFile(ctx, cfg, bundle, path, out, log)
}

// classifyFile runs the pipeline on path, prints the summary, and writes the
// exports beside the input.
func classifyFile(ctx context.Context, cfg config.Config, bundle *model.Bundle, path string, out io.Writer, log *slog.Logger) error {
	doc, err := parser.ParseFile(path, parser.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext, Log: log})
	if err != nil {
		return err
	}
	rep := pipeline.New(bundle, cfg.MinPageChars, log).Run(ctx, doc)

	fmt.Fprintln(out)
	if err := report.WriteSummary(out, rep.Index); err != nil {
		return err
	}

	rows := rep.Rows()
	csvPath := report.ExportFilename(path, ".csv")
	if err := report.SaveCSV(csvPath, rows); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResults saved to %s\n", csvPath)

	if cfg.ExportXLSX {
		xlsxPath := report.ExportFilename(path, ".xlsx")
		if err := report.SaveXLSX(xlsxPath, rows); err != nil {
			return err
		}
		fmt.Fprintf(out, "Results saved to %s\n", xlsxPath)
	}
	return nil
}

func readPath(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read file path: %w", err)
	}
	path := strings.Trim(strings.TrimSpace(line), `"'`)
	if path == "" {
		return "", errors.New("no file path given")
	}
	return path, nil
}
