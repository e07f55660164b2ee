package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

// TextEmbedder builds vectors for query text and image captions.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ImageEmbedder builds visual (CLIP) vectors for query images.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, image domain.Image) ([]float32, error)
}

// DescriptionSearcher searches the text/description index of page regions.
type DescriptionSearcher interface {
	SearchDescriptions(ctx context.Context, queryVector []float32, limit int, useSummary bool) ([]domain.EvidenceRecord, error)
	DescriptionsByPaths(ctx context.Context, projectKey string, relativePaths []string) ([]domain.EvidenceRecord, error)
}

// ImageSearcher searches the visual similarity index.
type ImageSearcher interface {
	SearchImages(ctx context.Context, queryVector []float32, limit int) ([]domain.ImageMatch, error)
}

// ImageURLResolver builds public image URLs and recovers the corpus-relative
// path from them. RelativePath is best effort and reports false on mismatch.
type ImageURLResolver interface {
	ImageURL(projectKey, relativePath string) string
	RelativePath(projectKey, imageURL string) (string, bool)
}

// ImageCaptioner describes an image in text.
type ImageCaptioner interface {
	CaptionImage(ctx context.Context, image domain.Image) (string, error)
}

// AnswerGenerator synthesizes the final answer from retrieved evidence.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, evidence []domain.EvidenceRecord, history []domain.ConversationTurn) (string, error)
}

// VisionLanguageModel is a model that can both caption and answer.
type VisionLanguageModel interface {
	ImageCaptioner
	AnswerGenerator
}

// ConversationStore persists conversation turns.
type ConversationStore interface {
	AppendMessages(ctx context.Context, messages ...domain.ConversationMessage) error
	ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]domain.ConversationMessage, error)
}

// ObjectStorage serves mirrored corpus images.
type ObjectStorage interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// QueryObserver records per-query outcomes.
type QueryObserver interface {
	ObserveQuery(envelope domain.ResponseEnvelope, duration time.Duration)
}
