package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	protoserver "github.com/viant/mcp-protocol/server"

	"github.com/viant/casebot/agent"
	"github.com/viant/casebot/document"
	"github.com/viant/casebot/tool"
)

//go:embed tools/retrieve.md
var descRetrieve string

//go:embed tools/compute.md
var descCompute string

//go:embed tools/ask.md
var descAsk string

//go:embed tools/stats.md
var descStats string

func registerTools(registry *protoserver.Registry, h *Handler) error {
	if h.tools.Retrieval() != nil {
		if err := protoserver.RegisterTool[*RetrieveInput, *RetrieveOutput](registry, "retrieve", descRetrieve, func(ctx context.Context, in *RetrieveInput) (*schema.CallToolResult, *jsonrpc.Error) {
			out, err := h.retrieve(ctx, in)
			if err != nil {
				return buildErrorResult(err.Error())
			}
			return buildSuccessResult(out)
		}); err != nil {
			return err
		}
	}

	if h.tools.Compute() != nil {
		if err := protoserver.RegisterTool[*ComputeInput, *ComputeOutput](registry, "compute", descCompute, func(ctx context.Context, in *ComputeInput) (*schema.CallToolResult, *jsonrpc.Error) {
			out, err := h.compute(ctx, in)
			if err != nil {
				return buildErrorResult(err.Error())
			}
			return buildSuccessResult(out)
		}); err != nil {
			return err
		}
	}

	if h.assistant != nil {
		if err := protoserver.RegisterTool[*AskInput, *AskOutput](registry, "ask", descAsk, func(ctx context.Context, in *AskInput) (*schema.CallToolResult, *jsonrpc.Error) {
			out, err := h.ask(ctx, in)
			if err != nil {
				return buildErrorResult(err.Error())
			}
			return buildSuccessResult(out)
		}); err != nil {
			return err
		}
	}

	if err := protoserver.RegisterTool[*StatsInput, *StatsOutput](registry, "stats", descStats, func(ctx context.Context, in *StatsInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.stats(ctx)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}
	return nil
}

func buildErrorResult(message string) (*schema.CallToolResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewError(jsonrpc.InvalidParams, message, nil)
}

func buildSuccessResult(payload any) (*schema.CallToolResult, *jsonrpc.Error) {
	b, _ := json.Marshal(payload)
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{
			schema.TextContent{Type: "text", Text: string(b)},
		},
		StructuredContent: map[string]any{"result": payload},
	}, nil
}

func (h *Handler) retrieve(ctx context.Context, in *RetrieveInput) (*RetrieveOutput, error) {
	start := time.Now()
	if in == nil || strings.TrimSpace(in.Query) == "" {
		return nil, fmt.Errorf("mcp: missing query")
	}
	retrieval := h.tools.Retrieval()
	if in.K > 0 {
		retrieval = retrieval.Limit(in.K)
	}
	docs, err := retrieval.Search(ctx, in.Query)
	if err != nil {
		return nil, err
	}
	out := &RetrieveOutput{Content: tool.Render(docs), Passages: make([]Passage, 0, len(docs))}
	for _, doc := range docs {
		out.Passages = append(out.Passages, Passage{
			Source:  document.GetString(doc.Metadata, document.SourceKey),
			Label:   tool.Label(doc.Metadata),
			Content: doc.PageContent,
			Score:   doc.Score,
		})
	}
	h.logger.Info("mcp retrieve", "matches", len(docs), "elapsed", time.Since(start))
	return out, nil
}

func (h *Handler) compute(ctx context.Context, in *ComputeInput) (*ComputeOutput, error) {
	if in == nil || strings.TrimSpace(in.Problem) == "" {
		return nil, fmt.Errorf("mcp: missing problem")
	}
	answer, err := h.tools.Compute().Call(ctx, in.Problem)
	if err != nil {
		return nil, err
	}
	return &ComputeOutput{Answer: answer}, nil
}

func (h *Handler) ask(ctx context.Context, in *AskInput) (*AskOutput, error) {
	if in == nil {
		in = &AskInput{}
	}
	start := time.Now()
	resp, err := h.assistant.Answer(ctx, agent.Request{Question: in.Question, ChatHistory: in.ChatHistory})
	if err != nil {
		return nil, err
	}
	h.logger.Info("mcp ask", "historyTurns", len(in.ChatHistory), "elapsed", time.Since(start))
	return &AskOutput{Answer: resp.Answer}, nil
}

func (h *Handler) stats(ctx context.Context) (*StatsOutput, error) {
	stats, err := h.index.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Stats: stats}, nil
}
