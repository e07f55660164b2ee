package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
	"github.com/kirillkom/visual-rag-router/internal/core/ports"
)

type OrchestratorOptions struct {
	// ParallelPaths runs the visual and caption paths of the image-to-text
	// route concurrently. Fusion order does not depend on it.
	ParallelPaths bool
}

func DefaultOrchestratorOptions() OrchestratorOptions {
	return OrchestratorOptions{ParallelPaths: true}
}

type OrchestratorUseCase struct {
	textEmbedder  ports.TextEmbedder
	imageEmbedder ports.ImageEmbedder
	descriptions  ports.DescriptionSearcher
	images        ports.ImageSearcher
	urls          ports.ImageURLResolver
	model         ports.VisionLanguageModel

	opts     OrchestratorOptions
	logger   *slog.Logger
	classify func(hasText, hasImage bool, intentHint string) (domain.RouteKind, error)
}

func NewOrchestratorUseCase(
	textEmbedder ports.TextEmbedder,
	imageEmbedder ports.ImageEmbedder,
	descriptions ports.DescriptionSearcher,
	images ports.ImageSearcher,
	urls ports.ImageURLResolver,
	model ports.VisionLanguageModel,
	opts OrchestratorOptions,
	logger *slog.Logger,
) *OrchestratorUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrchestratorUseCase{
		textEmbedder:  textEmbedder,
		imageEmbedder: imageEmbedder,
		descriptions:  descriptions,
		images:        images,
		urls:          urls,
		model:         model,
		opts:          opts,
		logger:        logger,
		classify:      ClassifyQuery,
	}
}

// Orchestrate never fails: every degraded path ends in a well-formed envelope.
func (uc *OrchestratorUseCase) Orchestrate(ctx context.Context, query domain.Query) domain.ResponseEnvelope {
	hasText := strings.TrimSpace(query.Text) != ""
	hasImage := query.HasImage()
	if !hasText && !hasImage {
		return fallbackEnvelope("", domain.FallbackMissingInput)
	}

	text := ""
	if hasText {
		text = query.Text
	}

	route, err := uc.classify(hasText, hasImage, text)
	if err != nil {
		uc.logger.Error("query_classification_failed", "has_text", hasText, "has_image", hasImage, "error", err)
		return fallbackEnvelope("", domain.FallbackUnknownRoute)
	}

	topK := query.EffectiveTopK()
	uc.logger.Info("query_routed",
		"route", string(route),
		"has_text", hasText,
		"has_image", hasImage,
		"history_turns", len(query.History),
		"top_k", topK,
	)

	switch route {
	case domain.RouteTextToText:
		return uc.routeTextToText(ctx, text, query.History, topK)
	case domain.RouteTextToImages:
		return uc.routeTextToImages(ctx, text, topK)
	case domain.RouteImageToImages:
		return uc.routeImageToImages(ctx, *query.Image, topK)
	case domain.RouteImageToText:
		return uc.routeImageToText(ctx, *query.Image, text, query.History, topK)
	default:
		uc.logger.Error("unknown_route", "route", string(route))
		return fallbackEnvelope(route, domain.FallbackUnknownRoute)
	}
}

func (uc *OrchestratorUseCase) embedText(ctx context.Context, route domain.RouteKind, text string) ([]float32, bool) {
	vector, err := uc.textEmbedder.EmbedText(ctx, text)
	if err != nil || len(vector) == 0 {
		uc.logger.Warn("text_embedding_failed", "route", string(route), "error", err)
		return nil, false
	}
	return vector, true
}

func (uc *OrchestratorUseCase) embedImage(ctx context.Context, route domain.RouteKind, image domain.Image) ([]float32, bool) {
	vector, err := uc.imageEmbedder.EmbedImage(ctx, image)
	if err != nil || len(vector) == 0 {
		uc.logger.Warn("image_embedding_failed", "route", string(route), "error", err)
		return nil, false
	}
	return vector, true
}

// retrieveDescriptions embeds text and searches summary representations.
func (uc *OrchestratorUseCase) retrieveDescriptions(
	ctx context.Context,
	route domain.RouteKind,
	text string,
	topK int,
) ([]domain.EvidenceRecord, domain.FallbackKind) {
	vector, ok := uc.embedText(ctx, route, text)
	if !ok {
		return nil, domain.FallbackEmbeddingFailed
	}

	records, err := uc.descriptions.SearchDescriptions(ctx, vector, topK, true)
	if err != nil {
		uc.logger.Warn("description_search_failed", "route", string(route), "error", err)
		return nil, domain.FallbackSearchFailed
	}
	if len(records) == 0 {
		return nil, domain.FallbackNoResults
	}
	return records, domain.FallbackNone
}

func (uc *OrchestratorUseCase) generateAnswer(
	ctx context.Context,
	route domain.RouteKind,
	question string,
	evidence []domain.EvidenceRecord,
	history []domain.ConversationTurn,
) (string, domain.FallbackKind) {
	answer, err := uc.model.GenerateAnswer(ctx, question, evidence, history)
	if err == nil && strings.TrimSpace(answer) != "" {
		return answer, domain.FallbackNone
	}
	uc.logger.Warn("answer_generation_failed", "route", string(route), "evidence", len(evidence), "error", err)
	return fallbackMessage(route, domain.FallbackGenerationFailed), domain.FallbackGenerationFailed
}

// imageRefs resolves URLs for records that carry both a project key and a
// relative path, preserving record order.
func (uc *OrchestratorUseCase) imageRefs(records []domain.EvidenceRecord) []string {
	urls := make([]string, 0, len(records))
	for _, record := range records {
		if !record.HasImageRef() {
			continue
		}
		urls = append(urls, uc.urls.ImageURL(record.ProjectKey, record.RelativePath))
	}
	return urls
}

// matchRelativePath prefers the path stored with the match and falls back to
// recovering it from the image URL.
func (uc *OrchestratorUseCase) matchRelativePath(match domain.ImageMatch) (string, bool) {
	if match.RelativePath != "" {
		return match.RelativePath, true
	}
	if match.ProjectKey == "" || match.ImageURL == "" {
		return "", false
	}
	return uc.urls.RelativePath(match.ProjectKey, match.ImageURL)
}
