// Package agent runs the bounded reason, act and observe loop that answers a
// question with the help of tools.
package agent

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viant/casebot/llm"
	"github.com/viant/casebot/logger"
	"github.com/viant/casebot/tool"
)

// ErrMaxSteps is returned when the model keeps calling tools past the step limit.
var ErrMaxSteps = errors.New("agent: step limit reached without a final answer")

const (
	// DefaultMaxSteps bounds tool calls per question.
	DefaultMaxSteps = 8
	// DefaultLanguage is the answer language of the default instructions.
	DefaultLanguage = "Brazilian Portuguese"
)

//go:embed prompt/system.md
var systemTemplate string

// Step records one tool invocation.
type Step struct {
	Thought     string `json:"thought,omitempty"`
	Tool        string `json:"tool"`
	Input       string `json:"input"`
	Observation string `json:"observation"`
}

// Result is the outcome of a loop run.
type Result struct {
	Answer string `json:"answer"`
	Steps  []Step `json:"steps,omitempty"`
}

// Loop drives the completion model over a closed tool set.
type Loop struct {
	completer    llm.Completer
	tools        *tool.Set
	instructions string
	language     string
	maxSteps     int
	logger       *logger.Logger
}

// Option configures the loop.
type Option func(*Loop)

// WithInstructions replaces the default system instructions. The
// placeholders {{tools}}, {{retrieval}} and {{language}} are expanded.
func WithInstructions(text string) Option {
	return func(l *Loop) {
		if strings.TrimSpace(text) != "" {
			l.instructions = text
		}
	}
}

// WithLanguage sets the answer language.
func WithLanguage(language string) Option {
	return func(l *Loop) {
		if language != "" {
			l.language = language
		}
	}
}

// WithMaxSteps sets the tool call limit.
func WithMaxSteps(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxSteps = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lg *logger.Logger) Option {
	return func(l *Loop) { l.logger = lg }
}

// NewLoop creates a loop.
func NewLoop(completer llm.Completer, tools *tool.Set, opts ...Option) *Loop {
	l := &Loop{
		completer:    completer,
		tools:        tools,
		instructions: systemTemplate,
		language:     DefaultLanguage,
		maxSteps:     DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.tools == nil {
		l.tools = tool.NewSet(nil, nil)
	}
	l.logger = logger.OrNop(l.logger)
	return l
}

// SystemPrompt returns the expanded system instructions.
func (l *Loop) SystemPrompt() string {
	return strings.NewReplacer(
		"{{tools}}", l.tools.Describe(),
		"{{retrieval}}", tool.RetrievalName,
		"{{language}}", l.language,
	).Replace(l.instructions)
}

// Transcript builds the initial messages: instructions, history oldest
// first, then the question.
func (l *Loop) Transcript(question string, history []Turn) []llm.Message {
	messages := make([]llm.Message, 0, 2+2*len(history))
	messages = append(messages, llm.System(l.SystemPrompt()))
	for _, turn := range history {
		messages = append(messages, llm.User(turn.Question), llm.Assistant(turn.Answer))
	}
	return append(messages, llm.User(question))
}

// Run answers question. Tool failures become observations the model can
// react to; completion failures and cancellation end the run.
func (l *Loop) Run(ctx context.Context, question string, history []Turn) (*Result, error) {
	messages := l.Transcript(question, history)
	specs := l.tools.Specs()
	result := &Result{}
	for step := 0; step < l.maxSteps; step++ {
		reply, err := l.completer.Complete(ctx, messages, specs)
		if err != nil {
			return nil, err
		}
		if reply == nil {
			return nil, llm.Wrap(errors.New("empty reply"))
		}
		if !reply.IsToolCall() {
			result.Answer = reply.Text
			l.logger.Debug("agent answered", "steps", len(result.Steps))
			return result, nil
		}
		call := *reply.ToolCall
		if call.ID == "" {
			call.ID = uuid.NewString()
		}
		observation := l.invoke(ctx, call)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l.logger.Info("agent step", "step", step+1, "tool", call.Name, "input", call.Input, "observationSize", len(observation))
		result.Steps = append(result.Steps, Step{Thought: reply.Text, Tool: call.Name, Input: call.Input, Observation: observation})
		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, Content: reply.Text, ToolCall: &call},
			llm.Message{Role: llm.RoleTool, Content: observation, ToolCallID: call.ID},
		)
	}
	l.logger.Warn("agent step limit reached", "steps", l.maxSteps)
	return result, fmt.Errorf("%w (%d)", ErrMaxSteps, l.maxSteps)
}

func (l *Loop) invoke(ctx context.Context, call llm.ToolCall) string {
	kind, ok := l.tools.Lookup(call.Name)
	if !ok {
		return fmt.Sprintf("Tool %q not found. Available tools: %s", call.Name, strings.Join(l.tools.Names(), ", "))
	}
	output, err := l.tools.Call(ctx, kind, call.Input)
	if err != nil {
		l.logger.Warn("tool failed", "tool", call.Name, "error", err)
		return "Error: " + err.Error()
	}
	return output
}
