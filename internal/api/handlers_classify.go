package api

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/stmtclass/internal/parser"
	"github.com/dgallion1/stmtclass/internal/pipeline"
	"github.com/dgallion1/stmtclass/internal/report"
)

// Response formats for /api/classify.
const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatXLSX = "xlsx"
	formatHTML = "html"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type classifyResponse struct {
	RunID           string                      `json:"run_id"`
	Filename        string                      `json:"filename"`
	ContentHash     string                      `json:"content_hash"`
	PagesTotal      int                         `json:"pages_total"`
	PagesClassified int                         `json:"pages_classified"`
	PagesSkipped    int                         `json:"pages_skipped"`
	Results         map[string]map[string][]int `json:"results"`
	Rows            []report.Row                `json:"rows"`
	Errors          []pipeline.PageError        `json:"errors,omitempty"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = formatJSON
	}
	switch format {
	case formatJSON, formatCSV, formatXLSX, formatHTML:
	default:
		jsonError(w, fmt.Sprintf("unsupported format: %s", format), http.StatusBadRequest)
		return
	}

	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	select {
	case s.slot <- struct{}{}:
		defer func() { <-s.slot }()
	case <-r.Context().Done():
		jsonError(w, "request cancelled while waiting for the classifier", http.StatusServiceUnavailable)
		return
	}

	p, err := parser.ForFile(filename, s.parserOptions())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := p.Parse(file, filename)
	if err != nil {
		s.log.Error("parse upload", "filename", filename, "error", err)
		jsonError(w, "parse: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	rep := s.pipeline.Run(r.Context(), doc)
	rows := rep.Rows()

	switch format {
	case formatCSV:
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, rows); err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeAttachment(w, "text/csv; charset=utf-8", report.ExportFilename(filename, ".csv"), buf.Bytes())
	case formatXLSX:
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, rows); err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeAttachment(w, xlsxContentType, report.ExportFilename(filename, ".xlsx"), buf.Bytes())
	case formatHTML:
		html, err := report.RenderHTML(filename, rep.Index, rows)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(html)
	default:
		writeJSON(w, http.StatusOK, classifyResponse{
			RunID:           rep.RunID,
			Filename:        filename,
			ContentHash:     rep.ContentHash,
			PagesTotal:      rep.PagesTotal,
			PagesClassified: rep.Index.Len(),
			PagesSkipped:    rep.Skipped,
			Results:         rep.Index.Map(),
			Rows:            rows,
			Errors:          rep.Errors,
		})
	}
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(filename)))
	w.Write(data)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
