package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
	"github.com/kirillkom/visual-rag-router/internal/core/ports"
)

const imageTurnMarker = "[image]"

type ChatOptions struct {
	HistoryMessages int
	MaxTopK         int
	MaxImageBytes   int
}

// ChatUseCase binds queries to persisted conversations and records query
// outcomes. The store and observer are optional.
type ChatUseCase struct {
	orchestrator ports.QueryOrchestrator
	store        ports.ConversationStore
	observer     ports.QueryObserver
	opts         ChatOptions
	logger       *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewChatUseCase(
	orchestrator ports.QueryOrchestrator,
	store ports.ConversationStore,
	observer ports.QueryObserver,
	opts ChatOptions,
	logger *slog.Logger,
) *ChatUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatUseCase{
		orchestrator: orchestrator,
		store:        store,
		observer:     observer,
		opts:         opts,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

func (uc *ChatUseCase) Ask(ctx context.Context, req domain.ChatRequest) (domain.ResponseEnvelope, error) {
	if err := uc.validate(req.Query); err != nil {
		return domain.ResponseEnvelope{}, domain.WrapError(domain.ErrInvalidInput, "ask", err)
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	query := req.Query
	query.History = append(uc.loadHistory(ctx, conversationID), query.History...)

	start := time.Now()
	envelope := uc.orchestrator.Orchestrate(ctx, query)
	if uc.observer != nil {
		uc.observer.ObserveQuery(envelope, time.Since(start))
	}

	if envelope.Fallback != domain.FallbackMissingInput {
		uc.appendTurns(ctx, conversationID, query, envelope)
	}
	return envelope, nil
}

func (uc *ChatUseCase) validate(query domain.Query) error {
	if query.TopK < 0 {
		return fmt.Errorf("top_k must be positive, got %d", query.TopK)
	}
	if uc.opts.MaxTopK > 0 && query.TopK > uc.opts.MaxTopK {
		return fmt.Errorf("top_k must be at most %d, got %d", uc.opts.MaxTopK, query.TopK)
	}
	if query.Image != nil && uc.opts.MaxImageBytes > 0 && len(query.Image.Data) > uc.opts.MaxImageBytes {
		return fmt.Errorf("image exceeds %d bytes", uc.opts.MaxImageBytes)
	}
	return nil
}

func (uc *ChatUseCase) loadHistory(ctx context.Context, conversationID string) []domain.ConversationTurn {
	if conversationID == "" || uc.store == nil || uc.opts.HistoryMessages <= 0 {
		return nil
	}
	messages, err := uc.store.ListRecentMessages(ctx, conversationID, uc.opts.HistoryMessages)
	if err != nil {
		uc.logger.Warn("conversation_history_load_failed", "conversation_id", conversationID, "error", err)
		return nil
	}
	turns := make([]domain.ConversationTurn, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, msg.Turn())
	}
	return turns
}

func (uc *ChatUseCase) appendTurns(ctx context.Context, conversationID string, query domain.Query, envelope domain.ResponseEnvelope) {
	if conversationID == "" || uc.store == nil {
		return
	}

	userContent := strings.TrimSpace(query.Text)
	if query.HasImage() {
		userContent = strings.TrimSpace(userContent + " " + imageTurnMarker)
	}

	now := uc.now()
	err := uc.store.AppendMessages(ctx,
		domain.ConversationMessage{
			ID:             uc.newID(),
			ConversationID: conversationID,
			Role:           "user",
			Content:        userContent,
			Route:          envelope.Route,
			CreatedAt:      now,
		},
		domain.ConversationMessage{
			ID:             uc.newID(),
			ConversationID: conversationID,
			Role:           "assistant",
			Content:        envelope.Response,
			Route:          envelope.Route,
			CreatedAt:      now.Add(time.Millisecond),
		},
	)
	if err != nil {
		uc.logger.Warn("conversation_append_failed", "conversation_id", conversationID, "error", err)
	}
}
