package domain

const DefaultTopK = 3

// Image is an uploaded query image. The core treats the bytes as opaque.
type Image struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type,omitempty"`
}

type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Query struct {
	Text    string
	Image   *Image
	History []ConversationTurn
	TopK    int
}

func (q Query) HasImage() bool {
	return q.Image != nil && len(q.Image.Data) > 0
}

func (q Query) EffectiveTopK() int {
	if q.TopK <= 0 {
		return DefaultTopK
	}
	return q.TopK
}

// ChatRequest is a query optionally bound to a persisted conversation.
type ChatRequest struct {
	ConversationID string
	Query          Query
}
