package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HFClient calls the Hugging Face Inference API.
type HFClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewHFClient(apiKey, baseURL string, timeout time.Duration) *HFClient {
	return &HFClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type hfRequest struct {
	Inputs     any            `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type hfErrorResponse struct {
	Error string `json:"error"`
}

// infer posts a request to the task pipeline of model and returns the raw
// response body.
func (c *HFClient) infer(ctx context.Context, model, task string, req hfRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/" + model + "/pipeline/" + task
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	// Block while a cold model loads instead of getting a 503.
	httpReq.Header.Set("x-wait-for-model", "true")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("hf inference %s: %w", model, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var apiErr hfErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &InferenceError{
			Model:      model,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}
	return respBody, nil
}

// Close releases resources.
func (c *HFClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// InferenceError is a non-200 response from an inference endpoint.
type InferenceError struct {
	Model      string
	StatusCode int
	Message    string
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference %s (status %d): %s", e.Model, e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// HFEmbedder runs a sentence-embedding model through the feature-extraction
// pipeline.
type HFEmbedder struct {
	client *HFClient
	model  string
}

func NewHFEmbedder(client *HFClient, model string) *HFEmbedder {
	return &HFEmbedder{client: client, model: model}
}

func (e *HFEmbedder) Model() string { return e.model }

func (e *HFEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	raw, err := e.client.infer(ctx, e.model, "feature-extraction", hfRequest{Inputs: texts})
	if err != nil {
		return nil, err
	}
	vecs, err := decodeEmbeddings(raw)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(vecs))
	}
	return vecs, nil
}

// decodeEmbeddings accepts pooled sentence vectors ([batch][dim]) or
// token-level vectors ([batch][tokens][dim]), which are mean-pooled.
func decodeEmbeddings(raw []byte) ([][]float32, error) {
	var pooled [][]float32
	if err := json.Unmarshal(raw, &pooled); err == nil {
		return pooled, nil
	}
	var tokens [][][]float32
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	out := make([][]float32, len(tokens))
	for i, t := range tokens {
		out[i] = meanPool(t)
	}
	return out, nil
}

func meanPool(tokens [][]float32) []float32 {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]float32, len(tokens[0]))
	for _, tok := range tokens {
		for j := range out {
			if j < len(tok) {
				out[j] += tok[j]
			}
		}
	}
	n := float32(len(tokens))
	for j := range out {
		out[j] /= n
	}
	return out
}

// specialTokens is the [CLS]/[SEP] pair the model adds around every input.
const specialTokens = 2

// HFClassifier runs a text-classification model. Input is cut to a
// conservative estimate of maxTokens tokens, and the server is also asked to
// truncate, so a dense numeric page never overflows the context window.
type HFClassifier struct {
	client    *HFClient
	model     string
	maxTokens int
}

func NewHFClassifier(client *HFClient, model string, maxTokens int) *HFClassifier {
	return &HFClassifier{client: client, model: model, maxTokens: maxTokens}
}

func (c *HFClassifier) Model() string { return c.model }

func (c *HFClassifier) Classify(ctx context.Context, text string) ([]Label, error) {
	budget := c.maxTokens
	if budget > specialTokens {
		budget -= specialTokens
	}
	raw, err := c.client.infer(ctx, c.model, "text-classification", hfRequest{
		Inputs:     TruncateTokens(text, budget),
		Parameters: map[string]any{"truncation": true},
	})
	if err != nil {
		return nil, err
	}

	// A single input comes back either nested ([[...]]) or flat ([...]).
	var nested [][]Label
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}
	var flat []Label
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	return flat, nil
}
