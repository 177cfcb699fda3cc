package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/casebot/logger"
)

var (
	// ErrService wraps every failure that prevents an answer.
	ErrService = errors.New("agent: unable to answer")
	// ErrInvalidRequest is returned for requests without a question.
	ErrInvalidRequest = errors.New("agent: invalid request")
)

// DefaultRequestTimeout bounds a single Answer call.
const DefaultRequestTimeout = 2 * time.Minute

// Turn is a completed question and answer pair.
type Turn struct {
	Question string
	Answer   string
}

// MarshalJSON encodes the turn as a [question, answer] pair.
func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{t.Question, t.Answer})
}

// UnmarshalJSON accepts a [question, answer] pair or an object with
// question and answer fields.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("%w: chat history entry must have 2 items, got %d", ErrInvalidRequest, len(pair))
		}
		t.Question, t.Answer = pair[0], pair[1]
		return nil
	}
	var obj struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: chat history entry: %v", ErrInvalidRequest, err)
	}
	t.Question, t.Answer = obj.Question, obj.Answer
	return nil
}

// Request is the caller facing question.
type Request struct {
	Question    string `json:"question"`
	ChatHistory []Turn `json:"chat_history,omitempty"`
}

// Response carries the final answer.
type Response struct {
	Answer string `json:"answer"`
}

// Assistant answers requests with a fresh transcript per call.
type Assistant struct {
	loop    *Loop
	timeout time.Duration
	logger  *logger.Logger
}

// AssistantOption configures the assistant.
type AssistantOption func(*Assistant)

// WithRequestTimeout bounds each Answer call; zero disables the bound.
func WithRequestTimeout(d time.Duration) AssistantOption {
	return func(a *Assistant) { a.timeout = d }
}

// WithAssistantLogger sets the logger.
func WithAssistantLogger(l *logger.Logger) AssistantOption {
	return func(a *Assistant) { a.logger = l }
}

// NewAssistant creates an assistant over loop.
func NewAssistant(loop *Loop, opts ...AssistantOption) *Assistant {
	a := &Assistant{loop: loop, timeout: DefaultRequestTimeout}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logger.OrNop(a.logger)
	return a
}

// Answer runs the loop for req.
func (a *Assistant) Answer(ctx context.Context, req Request) (*Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidRequest)
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	started := time.Now()
	result, err := a.loop.Run(ctx, question, req.ChatHistory)
	if err != nil {
		a.logger.Error("answer failed", "error", err, "elapsed", time.Since(started))
		return nil, fmt.Errorf("%w: %w", ErrService, err)
	}
	a.logger.Info("answered", "steps", len(result.Steps), "historyTurns", len(req.ChatHistory), "elapsed", time.Since(started))
	return &Response{Answer: result.Answer}, nil
}
