// Package mcpadapter exposes the query service as an MCP tool.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/visual-rag-router/internal/adapters/wire"
	"github.com/kirillkom/visual-rag-router/internal/core/ports"
)

const ToolName = "multimodal_query"

func NewServer(service ports.QueryService, version string, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("visual-rag-router", version, server.WithToolCapabilities(false))
	s.AddTool(QueryTool(), QueryHandler(service, logger))
	return s
}

func QueryTool() mcp.Tool {
	return mcp.NewTool(ToolName,
		mcp.WithDescription("Answer a question over the indexed document pages. Accepts text, an image or both and returns the answer with its sources and image URLs as JSON."),
		mcp.WithString("text", mcp.Description("Question text")),
		mcp.WithString("image_base64", mcp.Description("Query image as base64 or a data URL")),
		mcp.WithString("conversation_id", mcp.Description("Conversation to continue")),
		mcp.WithNumber("top_k", mcp.Description("Number of evidence records to retrieve")),
	)
}

func QueryHandler(service ports.QueryService, logger *slog.Logger) server.ToolHandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := wire.QueryRequest{
			Text:           request.GetString("text", ""),
			ImageBase64:    request.GetString("image_base64", ""),
			ConversationID: request.GetString("conversation_id", ""),
			TopK:           request.GetInt("top_k", 0),
		}
		chatReq, err := req.ToChatRequest()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		envelope, err := service.Ask(ctx, chatReq)
		if err != nil {
			logger.Warn("mcp_query_failed", "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		out, err := json.Marshal(envelope)
		if err != nil {
			return nil, fmt.Errorf("encode envelope: %w", err)
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
