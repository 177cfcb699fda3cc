package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/viant/casebot/embeddings"
)

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	embeddingsEndpoint    = "/embeddings"
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultHTTPClientTO   = 30 * time.Second
)

// Request is the embeddings API payload. Dimensions shortens
// text-embedding-3 vectors when set.
type Request struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	Dimensions     int      `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

// Response represents the response structure from OpenAI embeddings API
type Response struct {
	Object string          `json:"object"`
	Data   []EmbeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  EmbeddingUsage  `json:"usage"`
}

// EmbeddingData represents a single embedding in the OpenAI embeddings API response
type EmbeddingData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbeddingUsage represents token usage information in the OpenAI embeddings API response
type EmbeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Client calls the OpenAI compatible embeddings endpoint.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	HTTPClient *http.Client
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.BaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithDimensions requests shortened vectors.
func WithDimensions(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.Dimensions = n
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// NewClient creates a client; empty apiKey falls back to OPENAI_API_KEY.
func NewClient(apiKey, model string, opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: defaultHTTPClientTO},
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Model == "" {
		c.Model = defaultEmbeddingModel
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AdaptRequest adapts texts to the OpenAI request payload.
func AdaptRequest(texts []string, model string, dimensions int) Request {
	return Request{Model: model, Input: texts, Dimensions: dimensions, EncodingFormat: "float"}
}

// Embed creates embeddings for the given texts
func (c *Client) Embed(ctx context.Context, texts []string) (vectors [][]float32, totalTokens int, err error) {
	req := AdaptRequest(texts, c.Model, c.Dimensions)
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+embeddingsEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct{ Message, Type string } `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, 0, fmt.Errorf("API error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return nil, 0, fmt.Errorf("API error: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	var embeddingResp Response
	if err := json.Unmarshal(data, &embeddingResp); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	out := make([][]float32, len(embeddingResp.Data))
	for i, item := range embeddingResp.Data {
		idx := item.Index
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		out[idx] = item.Embedding
	}
	return out, embeddingResp.Usage.TotalTokens, nil
}

// Embedder bridges the client to the embeddings.Embedder interface.
type Embedder struct{ C *Client }

// Model identifies the embedding space; shortened vectors form their own space.
func (e *Embedder) Model() string {
	if e.C.Dimensions > 0 {
		return fmt.Sprintf("openai/%s@%d", e.C.Model, e.C.Dimensions)
	}
	return "openai/" + e.C.Model
}

func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	v, _, err := e.C.Embed(ctx, docs)
	if err != nil {
		return nil, embeddings.Wrap(err)
	}
	if err := embeddings.CheckCount(v, len(docs)); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	v, err := e.EmbedDocuments(ctx, []string{q})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}
