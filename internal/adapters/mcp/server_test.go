package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

type queryServiceFake struct {
	got      domain.ChatRequest
	envelope domain.ResponseEnvelope
	err      error
}

func (f *queryServiceFake) Ask(_ context.Context, req domain.ChatRequest) (domain.ResponseEnvelope, error) {
	f.got = req
	return f.envelope, f.err
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = ToolName
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("expected tool result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestQueryHandlerReturnsEnvelopeJSON(t *testing.T) {
	envelope := domain.NewEnvelope("The pump is on page 3.")
	envelope.Route = domain.RouteTextToText
	service := &queryServiceFake{envelope: envelope}

	result, err := QueryHandler(service, nil)(context.Background(), callRequest(map[string]any{
		"text":            "where is the pump",
		"conversation_id": "c1",
		"top_k":           float64(5),
	}))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	var got domain.ResponseEnvelope
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if got.Response != envelope.Response || got.Route != domain.RouteTextToText {
		t.Fatalf("unexpected envelope %+v", got)
	}
	if service.got.Query.Text != "where is the pump" || service.got.Query.TopK != 5 || service.got.ConversationID != "c1" {
		t.Fatalf("unexpected request %+v", service.got)
	}
}

func TestQueryHandlerReportsErrorsAsToolErrors(t *testing.T) {
	service := &queryServiceFake{err: domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("top_k too large"))}

	result, err := QueryHandler(service, nil)(context.Background(), callRequest(map[string]any{"text": "q"}))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error result")
	}

	result, err = QueryHandler(service, nil)(context.Background(), callRequest(map[string]any{"image_base64": "***"}))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for invalid image")
	}
}
