package mcp

import (
	"context"

	"github.com/viant/jsonrpc/transport"
	protoclient "github.com/viant/mcp-protocol/client"
	protologger "github.com/viant/mcp-protocol/logger"
	protoserver "github.com/viant/mcp-protocol/server"

	"github.com/viant/casebot/agent"
	"github.com/viant/casebot/logger"
	"github.com/viant/casebot/tool"
	"github.com/viant/casebot/vectordb"
)

type Handler struct {
	*protoserver.DefaultHandler
	tools     *tool.Set
	assistant *agent.Assistant
	index     vectordb.Index
	logger    *logger.Logger
}

// NewHandler exposes the tool set, the assistant and index stats over MCP.
// A nil assistant leaves the ask tool unregistered.
func NewHandler(tools *tool.Set, assistant *agent.Assistant, index vectordb.Index, log *logger.Logger) protoserver.NewHandler {
	return func(_ context.Context, notifier transport.Notifier, l protologger.Logger, clientOperation protoclient.Operations) (protoserver.Handler, error) {
		base := protoserver.NewDefaultHandler(notifier, l, clientOperation)
		h := &Handler{
			DefaultHandler: base,
			tools:          tools,
			assistant:      assistant,
			index:          index,
			logger:         logger.OrNop(log),
		}
		if err := registerTools(base.Registry, h); err != nil {
			return nil, err
		}
		return h, nil
	}
}
