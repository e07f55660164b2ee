package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101902)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS conversation_turns (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	route TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversation_turns_conv_created ON conversation_turns(conversation_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// AppendMessages stores all messages in one transaction.
func (r *ConversationRepository) AppendMessages(ctx context.Context, messages ...domain.ConversationMessage) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, message := range messages {
		if message.CreatedAt.IsZero() {
			message.CreatedAt = time.Now().UTC()
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO conversation_turns (id, conversation_id, role, content, route, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, message.ID, message.ConversationID, message.Role, message.Content, nullableString(string(message.Route)), message.CreatedAt)
		if err != nil {
			return fmt.Errorf("append message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append tx: %w", err)
	}
	return nil
}

func (r *ConversationRepository) ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]domain.ConversationMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, conversation_id, role, content, COALESCE(route, ''), created_at
FROM conversation_turns
WHERE conversation_id = $1
ORDER BY created_at DESC
LIMIT $2
`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ConversationMessage, 0, limit)
	for rows.Next() {
		var (
			msg   domain.ConversationMessage
			route string
		)
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&route,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan recent message: %w", err)
		}
		msg.Route = domain.RouteKind(route)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent messages: %w", err)
	}

	// Returned in descending order from SQL; reverse to keep chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
