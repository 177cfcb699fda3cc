// Package llm defines the chat completion contract used by the agent and the
// compute solver.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrService is returned when the completion service fails or replies with
// something that is neither text nor a tool call.
var ErrService = errors.New("llm: service error")

// Role identifies a transcript participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model request to run a tool with a single text input.
type ToolCall struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input string `json:"input"`
}

// Message is one transcript entry. Assistant messages carrying a ToolCall are
// followed by a tool message with the matching ToolCallID.
type Message struct {
	Role       Role      `json:"role"`
	Content    string    `json:"content,omitempty"`
	ToolCall   *ToolCall `json:"toolCall,omitempty"`
	ToolCallID string    `json:"toolCallId,omitempty"`
}

// ToolSpec advertises a tool to the model.
type ToolSpec struct {
	Name        string
	Description string
}

// InputParameter is the single string argument every tool accepts.
const InputParameter = "input"

// Parameters returns the JSON schema of the tool arguments.
func (s ToolSpec) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			InputParameter: map[string]any{"type": "string", "description": "tool input"},
		},
		"required": []string{InputParameter},
	}
}

// Reply is either final text or exactly one tool call. Text accompanying a
// tool call is the model's reasoning.
type Reply struct {
	Text     string
	ToolCall *ToolCall
}

// IsToolCall reports whether the model asked for a tool.
func (r *Reply) IsToolCall() bool { return r != nil && r.ToolCall != nil }

// Completer produces the next reply for a transcript.
type Completer interface {
	Complete(ctx context.Context, messages []Message, tools []ToolSpec) (*Reply, error)
}

// Wrap classifies err as a completion service error.
func Wrap(err error) error {
	if err == nil || errors.Is(err, ErrService) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrService, err)
}

// System, User and Assistant build plain text messages.
func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }
