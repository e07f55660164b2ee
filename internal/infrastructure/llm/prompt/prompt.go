package prompt

import (
	"fmt"
	"strings"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

const CaptionSystem = `You describe pages and regions of technical and architectural documents.
Describe only what is visible. Mention drawing type, labels, dimensions, materials and any readable text.`

const CaptionUser = "Describe this image in a few sentences so it can be matched against document descriptions."

const AnswerSystem = `Answer the user question only from the context below.
Cite context entries by their [number]. If the context is insufficient, say it directly.`

// evidenceTextChars bounds each context entry.
const evidenceTextChars = 1500

// HistoryRoles keeps only turns a chat model accepts as prior dialogue.
func HistoryRoles(history []domain.ConversationTurn) []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, 0, len(history))
	for _, turn := range history {
		role := strings.TrimSpace(turn.Role)
		if role != "user" && role != "assistant" {
			continue
		}
		out = append(out, domain.ConversationTurn{Role: role, Content: turn.Content})
	}
	return out
}

func BuildAnswer(question string, evidence []domain.EvidenceRecord) string {
	var contextBuilder strings.Builder
	for idx, record := range evidence {
		contextBuilder.WriteString(fmt.Sprintf("[%d] %s\n%s\n\n", idx+1, evidenceHeader(record), evidenceText(record)))
	}

	return fmt.Sprintf(`Question:
%s

Context:
%s
`, question, contextBuilder.String())
}

func evidenceHeader(record domain.EvidenceRecord) string {
	parts := []string{"project=" + record.ProjectKey}
	if record.PageNum != nil {
		parts = append(parts, fmt.Sprintf("page=%d", *record.PageNum))
	}
	if record.RegionNumber != nil {
		parts = append(parts, fmt.Sprintf("region=%d", *record.RegionNumber))
	}
	if record.Similarity != nil {
		parts = append(parts, fmt.Sprintf("score=%.3f", *record.Similarity))
	}
	if record.SearchType != "" {
		parts = append(parts, "via="+string(record.SearchType))
	}
	return strings.Join(parts, " ")
}

func evidenceText(record domain.EvidenceRecord) string {
	text := strings.TrimSpace(record.Description)
	if text == "" {
		text = strings.TrimSpace(record.Summary)
	}
	runes := []rune(text)
	if len(runes) > evidenceTextChars {
		text = string(runes[:evidenceTextChars])
	}
	return text
}
