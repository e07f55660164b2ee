package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/resilience"
)

// Connection-level failures; the reply can still be delivered once the
// client reconnects.
var transientRespondErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
	nats.ErrConnectionReconnecting,
}

// Reply failures caused by the message itself. Repeating them cannot succeed
// and they say nothing about broker health.
var rejectedReplyErrors = []error{
	nats.ErrMsgNoReply,
	nats.ErrMaxPayload,
	nats.ErrBadSubject,
}

func classifyRespondError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case isAny(err, rejectedReplyErrors):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case isAny(err, transientRespondErrors):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
}

// respondError marks reply failures the requester may retry as temporary.
func respondError(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if resilience.IsCircuitOpen(err) || classifyRespondError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "nats respond", err)
	}
	return err
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
