package vertexai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viant/casebot/credential"
)

const (
	defaultLocation   = "us-central1"
	defaultModel      = "text-embedding-004"
	defaultHTTPTO     = 30 * time.Second
	defaultScopeCloud = "https://www.googleapis.com/auth/cloud-platform"
	maxErrorBody      = 512
)

// Task types understood by the text embedding models.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

type ClientOption func(*Client)

func WithLocation(location string) ClientOption {
	return func(c *Client) {
		if location != "" {
			c.Location = location
		}
	}
}

func WithScopes(scopes ...string) ClientOption {
	return func(c *Client) {
		c.Scopes = append(c.Scopes, scopes...)
	}
}

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.Model = model
		}
	}
}

// WithProvider authenticates requests with p instead of application default credentials.
func WithProvider(p credential.Provider) ClientOption {
	return func(c *Client) { c.provider = p }
}

// WithEndpoint overrides the predict URL.
func WithEndpoint(url string) ClientOption {
	return func(c *Client) { c.endpointURL = url }
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// Client calls the Vertex AI text embedding predict endpoint.
type Client struct {
	ProjectID string
	Location  string
	Model     string
	Scopes    []string

	endpointURL string
	httpClient  *http.Client
	provider    credential.Provider
	session     *credential.Session
}

type predictRequest struct {
	Instances []predictInstance `json:"instances"`
}

type predictInstance struct {
	Content  string `json:"content"`
	TaskType string `json:"task_type,omitempty"`
}

type predictResponse struct {
	Predictions []struct {
		Embeddings struct {
			Values     []float32 `json:"values"`
			Statistics struct {
				TokenCount float64 `json:"token_count"`
			} `json:"statistics"`
		} `json:"embeddings"`
	} `json:"predictions"`
}

// NewClient creates a client and resolves its credentials.
func NewClient(ctx context.Context, projectID, model string, opts ...ClientOption) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("vertexai project id is required")
	}
	c := &Client{
		ProjectID:  projectID,
		Location:   defaultLocation,
		Model:      model,
		httpClient: &http.Client{Timeout: defaultHTTPTO},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if len(c.Scopes) == 0 {
		c.Scopes = []string{defaultScopeCloud}
	}
	if c.provider == nil {
		c.provider = &credential.Default{Scopes: c.Scopes}
	}
	session, err := c.provider.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("vertexai credentials: %w", err)
	}
	c.session = session
	return c, nil
}

func (c *Client) endpoint() string {
	if c.endpointURL != "" {
		return c.endpointURL
	}
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		c.Location, c.ProjectID, c.Location, c.Model)
}

// Embed returns one vector per text and the total token count.
func (c *Client) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, int, error) {
	if c == nil {
		return nil, 0, fmt.Errorf("vertexai client is nil")
	}
	if len(texts) == 0 {
		return nil, 0, fmt.Errorf("no input texts provided")
	}
	instances := make([]predictInstance, 0, len(texts))
	for _, t := range texts {
		instances = append(instances, predictInstance{Content: t, TaskType: taskType})
	}
	body, err := json.Marshal(predictRequest{Instances: instances})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	token, err := c.session.TokenSource.Token()
	if err != nil {
		return nil, 0, fmt.Errorf("vertexai token: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, 0, fmt.Errorf("vertexai API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	vecs := make([][]float32, 0, len(out.Predictions))
	tokens := 0
	for _, p := range out.Predictions {
		vecs = append(vecs, p.Embeddings.Values)
		tokens += int(p.Embeddings.Statistics.TokenCount)
	}
	return vecs, tokens, nil
}
