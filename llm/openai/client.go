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

	"github.com/viant/casebot/llm"
)

const (
	defaultBaseURL      = "https://api.openai.com/v1"
	completionsEndpoint = "/chat/completions"
	defaultChatModel    = "gpt-4o-mini"
	defaultHTTPClientTO = 60 * time.Second
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string      `json:"type"`
	Function chatToolDef `json:"function"`
}

type chatToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Client calls an OpenAI compatible chat completions endpoint.
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
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

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ClientOption {
	return func(c *Client) { c.Temperature = t }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.HTTPClient = hc }
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
		c.Model = defaultChatModel
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends the transcript and returns text or a single tool call.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (*llm.Reply, error) {
	reqBody, err := json.Marshal(c.adaptRequest(messages, tools))
	if err != nil {
		return nil, llm.Wrap(fmt.Errorf("marshal request: %w", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+completionsEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, llm.Wrap(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, llm.Wrap(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct{ Message, Type string } `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, llm.Wrap(fmt.Errorf("API error (%s): %s", errResp.Error.Type, errResp.Error.Message))
		}
		return nil, llm.Wrap(fmt.Errorf("API error: %s", resp.Status))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.Wrap(fmt.Errorf("read response: %w", err))
	}
	var chatResp chatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, llm.Wrap(fmt.Errorf("decode response: %w", err))
	}
	if len(chatResp.Choices) == 0 {
		return nil, llm.Wrap(fmt.Errorf("no choices returned"))
	}
	return adaptReply(chatResp.Choices[0].Message)
}

func (c *Client) adaptRequest(messages []llm.Message, tools []llm.ToolSpec) chatRequest {
	req := chatRequest{Model: c.Model, Temperature: c.Temperature}
	for _, msg := range messages {
		content := msg.Content
		item := chatMessage{Role: string(msg.Role), Content: &content, ToolCallID: msg.ToolCallID}
		if msg.ToolCall != nil {
			args, _ := json.Marshal(map[string]string{llm.InputParameter: msg.ToolCall.Input})
			item.ToolCalls = []chatToolCall{{
				ID:       msg.ToolCall.ID,
				Type:     "function",
				Function: chatFunction{Name: msg.ToolCall.Name, Arguments: string(args)},
			}}
			if content == "" {
				item.Content = nil
			}
		}
		req.Messages = append(req.Messages, item)
	}
	for _, spec := range tools {
		req.Tools = append(req.Tools, chatTool{
			Type:     "function",
			Function: chatToolDef{Name: spec.Name, Description: spec.Description, Parameters: spec.Parameters()},
		})
	}
	return req
}

func adaptReply(msg chatMessage) (*llm.Reply, error) {
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		reply := &llm.Reply{ToolCall: &llm.ToolCall{
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: toolInput(call.Function.Arguments),
		}}
		if msg.Content != nil {
			reply.Text = *msg.Content
		}
		return reply, nil
	}
	if msg.Content == nil {
		return nil, llm.Wrap(fmt.Errorf("empty reply"))
	}
	return &llm.Reply{Text: *msg.Content}, nil
}

// toolInput extracts the input argument, accepting a bare string when the
// model did not produce a JSON object.
func toolInput(arguments string) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return strings.TrimSpace(arguments)
	}
	if value, ok := args[llm.InputParameter].(string); ok {
		return value
	}
	for _, value := range args {
		if text, ok := value.(string); ok {
			return text
		}
	}
	return strings.TrimSpace(arguments)
}
