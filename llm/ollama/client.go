package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viant/casebot/llm"
)

const (
	defaultBaseURL     = "http://localhost:11434"
	chatEndpoint       = "/api/chat"
	defaultHTTPTimeout = 120 * time.Second
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL overrides the Ollama server URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.BaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ClientOption {
	return func(c *Client) { c.Temperature = t }
}

// Client calls the Ollama chat API.
type Client struct {
	BaseURL     string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Tools    []chatTool     `json:"tools,omitempty"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
}

type chatToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type chatTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error"`
}

// NewClient creates a chat client for model served at http://localhost:11434 by default.
func NewClient(model string, opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:    defaultBaseURL,
		Model:      model,
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends the transcript to /api/chat without streaming.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (*llm.Reply, error) {
	if c.Model == "" {
		return nil, llm.Wrap(fmt.Errorf("ollama model is required"))
	}
	req := chatRequest{Model: c.Model, Options: map[string]any{"temperature": c.Temperature}}
	for _, msg := range messages {
		item := chatMessage{Role: string(msg.Role), Content: msg.Content}
		if msg.ToolCall != nil {
			call := chatToolCall{}
			call.Function.Name = msg.ToolCall.Name
			call.Function.Arguments = map[string]any{llm.InputParameter: msg.ToolCall.Input}
			item.ToolCalls = append(item.ToolCalls, call)
		}
		req.Messages = append(req.Messages, item)
	}
	for _, spec := range tools {
		tool := chatTool{Type: "function"}
		tool.Function.Name = spec.Name
		tool.Function.Description = spec.Description
		tool.Function.Parameters = spec.Parameters()
		req.Tools = append(req.Tools, tool)
	}
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, llm.Wrap(fmt.Errorf("marshal request: %w", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+chatEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, llm.Wrap(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, llm.Wrap(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, llm.Wrap(fmt.Errorf("ollama API error: %s", strings.TrimSpace(string(body))))
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, llm.Wrap(fmt.Errorf("decode response: %w", err))
	}
	if out.Error != "" {
		return nil, llm.Wrap(fmt.Errorf("ollama API error: %s", out.Error))
	}
	if len(out.Message.ToolCalls) > 0 {
		call := out.Message.ToolCalls[0]
		input, _ := call.Function.Arguments[llm.InputParameter].(string)
		return &llm.Reply{ToolCall: &llm.ToolCall{ID: uuid.NewString(), Name: call.Function.Name, Input: input}}, nil
	}
	return &llm.Reply{Text: out.Message.Content}, nil
}
