package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/stmtclass/internal/config"
	"github.com/dgallion1/stmtclass/internal/model/modeltest"
	"github.com/dgallion1/stmtclass/internal/pipeline"
)

const testAPIKey = "test-key"

const twoPageText = "Short cover page\f" +
	"CONSOLIDATED BALANCE SHEET: Assets and Liabilities as of 31 March 2024"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	b, _ := modeltest.DefaultAxisBundle(t)
	cfg := config.Config{APIKey: testAPIKey, MaxUploadBytes: 1 << 20}
	return NewServer(pipeline.New(b, pipeline.DefaultMinPageChars, nil), b, nil, cfg)
}

func uploadRequest(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + testAPIKey},
		{"wrong key", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats/models", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRequestLogger_LogsRequestLine(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := middleware.RequestID(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, "model unavailable", http.StatusBadGateway)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader("%PDF-1.4"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request", line["msg"])
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, float64(http.StatusBadGateway), line["status"])
	assert.Equal(t, float64(8), line["bytes_in"])
	assert.Greater(t, line["bytes_out"], float64(0))
	assert.NotEmpty(t, line["request_id"])
}

func TestClassify_JSON(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/classify", "annual.txt", twoPageText))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp classifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "annual.txt", resp.Filename)
	assert.Equal(t, 2, resp.PagesTotal)
	assert.Equal(t, 1, resp.PagesClassified)
	assert.Equal(t, 1, resp.PagesSkipped)
	assert.Equal(t, []int{2}, resp.Results["consolidated"]["balance_sheet"])
	assert.Equal(t, []int{}, resp.Results["standalone"]["cash_flow"])
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, 2, resp.Rows[0].PageNumber)
}

func TestClassify_CSV(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/classify?format=csv", "annual.txt", twoPageText))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="annual_results.csv"`)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Consolidation,Statement Type,Page Number,Text Excerpt", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "consolidated,balance_sheet,2,"))
}

func TestClassify_XLSX(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/classify?format=xlsx", "annual.txt", twoPageText))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestClassify_HTML(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/classify?format=html", "annual.htm",
		`<html><body><p>`+strings.Repeat("Consolidated statement of cash flows. ", 3)+`</p></body></html>`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<strong>Cash Flow</strong>: Pages 1")
}

func TestClassify_BadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"unknown format", uploadRequest(t, "/api/classify?format=docx", "a.txt", "x"), http.StatusBadRequest},
		{"unsupported extension", uploadRequest(t, "/api/classify", "a.xlsx", "x"), http.StatusBadRequest},
		{"too large", uploadRequest(t, "/api/classify", "a.txt", strings.Repeat("x", 1<<20+1)), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, tt.req)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader("not multipart"))
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModelStats(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/stats/models", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "fake-embedder", stats["embedding_model"])
	assert.Contains(t, stats, "operations")
}

func TestTaxonomy(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/taxonomy", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Threshold  float64        `json:"threshold"`
		Categories []categoryView `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0.3, body.Threshold)
	require.Len(t, body.Categories, 3)
	assert.Equal(t, "balance_sheet", body.Categories[0].Name)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "annual.pdf", sanitizeFilename("../../etc/annual.pdf"))
	assert.Equal(t, "unnamed", sanitizeFilename(""))
}
