package domain

import "time"

// ConversationMessage is a persisted conversation turn.
type ConversationMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Route          RouteKind `json:"route,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (m ConversationMessage) Turn() ConversationTurn {
	return ConversationTurn{Role: m.Role, Content: m.Content}
}
