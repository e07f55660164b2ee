package ports

import (
	"context"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

// QueryOrchestrator classifies a multimodal query and routes it to a retrieval pipeline.
type QueryOrchestrator interface {
	Orchestrate(ctx context.Context, query domain.Query) domain.ResponseEnvelope
}

// QueryService is the inbound contract used by transports.
type QueryService interface {
	Ask(ctx context.Context, req domain.ChatRequest) (domain.ResponseEnvelope, error)
}
