package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/visual-rag-router/internal/adapters/wire"
	"github.com/kirillkom/visual-rag-router/internal/core/ports"
	"github.com/kirillkom/visual-rag-router/internal/observability/logging"
)

// MessageObserver records message handling outcomes.
type MessageObserver interface {
	StartMessage()
	FinishMessage(duration time.Duration, err error)
}

// NewQueryHandler decodes a JSON query request, asks the service and encodes
// the envelope. Failures are encoded as {"error": "..."}.
func NewQueryHandler(service ports.QueryService, observer MessageObserver, logger *slog.Logger) MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, data []byte) []byte {
		if observer != nil {
			observer.StartMessage()
		}
		start := time.Now()

		reply, err := handleQuery(ctx, service, data)
		if observer != nil {
			observer.FinishMessage(time.Since(start), err)
		}
		if err != nil {
			logging.FromContext(ctx, logger).Warn("nats_query_failed", "error", err)
			return encodeError(err)
		}
		return reply
	}
}

func handleQuery(ctx context.Context, service ports.QueryService, data []byte) ([]byte, error) {
	var req wire.QueryRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode query request: %w", err)
	}
	chatReq, err := req.ToChatRequest()
	if err != nil {
		return nil, err
	}

	envelope, err := service.Ask(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out, nil
}

func encodeError(err error) []byte {
	out, marshalErr := json.Marshal(wire.ErrorResponse{Error: err.Error()})
	if marshalErr != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return out
}
