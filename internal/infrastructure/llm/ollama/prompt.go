package ollama

import (
	"github.com/kirillkom/visual-rag-router/internal/core/domain"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/llm/prompt"
)

func buildAnswerMessages(question string, evidence []domain.EvidenceRecord, history []domain.ConversationTurn) []chatMessage {
	turns := prompt.HistoryRoles(history)
	messages := make([]chatMessage, 0, len(turns)+2)
	messages = append(messages, chatMessage{Role: "system", Content: prompt.AnswerSystem})
	for _, turn := range turns {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt.BuildAnswer(question, evidence)})
	return messages
}
