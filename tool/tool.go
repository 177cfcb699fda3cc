// Package tool implements the closed set of tools the agent may call.
package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/viant/casebot/llm"
)

// Kind enumerates the available tools.
type Kind int

const (
	KindRetrieval Kind = iota + 1
	KindCompute
)

// Tool names advertised to the model.
const (
	RetrievalName = "consulting_knowledge_base"
	ComputeName   = "Calculator"
)

const (
	retrievalDescription = "Use this tool to look up information and answer questions about consulting recruiting processes, GMAT, business cases, frameworks and the other provided study materials. Do not use it for general questions."
	computeDescription   = "Use this tool to solve any quantitative math question. The input must be a complete math question."
)

func (k Kind) String() string {
	switch k {
	case KindRetrieval:
		return RetrievalName
	case KindCompute:
		return ComputeName
	}
	return fmt.Sprintf("tool(%d)", int(k))
}

// Set dispatches tool calls by name.
type Set struct {
	retrieval *Retrieval
	compute   *Compute
	byName    map[string]Kind
}

// NewSet creates a set; a nil tool is left out.
func NewSet(retrieval *Retrieval, compute *Compute) *Set {
	s := &Set{retrieval: retrieval, compute: compute, byName: map[string]Kind{}}
	if retrieval != nil {
		s.byName[RetrievalName] = KindRetrieval
	}
	if compute != nil {
		s.byName[ComputeName] = KindCompute
	}
	return s
}

// Lookup resolves a tool name.
func (s *Set) Lookup(name string) (Kind, bool) {
	kind, ok := s.byName[strings.TrimSpace(name)]
	return kind, ok
}

// Names returns the registered tool names in sorted order.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.byName))
	for name := range s.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Specs describes the registered tools for the completion model.
func (s *Set) Specs() []llm.ToolSpec {
	var out []llm.ToolSpec
	if s.retrieval != nil {
		out = append(out, llm.ToolSpec{Name: RetrievalName, Description: retrievalDescription})
	}
	if s.compute != nil {
		out = append(out, llm.ToolSpec{Name: ComputeName, Description: computeDescription})
	}
	return out
}

// Describe renders "name: description" lines for the system instructions.
func (s *Set) Describe() string {
	var lines []string
	for _, spec := range s.Specs() {
		lines = append(lines, spec.Name+": "+spec.Description)
	}
	return strings.Join(lines, "\n")
}

// Call runs the tool of the given kind.
func (s *Set) Call(ctx context.Context, kind Kind, input string) (string, error) {
	switch kind {
	case KindRetrieval:
		if s.retrieval != nil {
			return s.retrieval.Call(ctx, input)
		}
	case KindCompute:
		if s.compute != nil {
			return s.compute.Call(ctx, input)
		}
	}
	return "", fmt.Errorf("tool: %v is not registered", kind)
}

// Retrieval returns the retrieval tool, if registered.
func (s *Set) Retrieval() *Retrieval { return s.retrieval }

// Compute returns the compute tool, if registered.
func (s *Set) Compute() *Compute { return s.compute }
