package usecase

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

// visualPathResult holds what the CLIP path found. Both fields are empty when
// the path degraded.
type visualPathResult struct {
	matches []domain.ImageMatch
	records []domain.EvidenceRecord
}

type captionPathResult struct {
	records []domain.EvidenceRecord
}

func (uc *OrchestratorUseCase) routeImageToText(
	ctx context.Context,
	image domain.Image,
	text string,
	history []domain.ConversationTurn,
	topK int,
) domain.ResponseEnvelope {
	const route = domain.RouteImageToText

	var (
		visual  visualPathResult
		caption captionPathResult
	)
	if uc.opts.ParallelPaths {
		var g errgroup.Group
		g.Go(func() error {
			visual = uc.visualPath(ctx, image, topK)
			return nil
		})
		g.Go(func() error {
			caption = uc.captionPath(ctx, image, topK)
			return nil
		})
		_ = g.Wait()
	} else {
		visual = uc.visualPath(ctx, image, topK)
		caption = uc.captionPath(ctx, image, topK)
	}

	fused := fuseEvidence(visual.records, caption.records)
	uc.logger.Debug("image_paths_fused",
		"visual_matches", len(visual.matches),
		"visual_records", len(visual.records),
		"caption_records", len(caption.records),
		"fused", len(fused),
	)
	if len(fused) == 0 {
		return fallbackEnvelope(route, domain.FallbackNoResults)
	}

	evidence := trimEvidence(fused, topK)
	question := text
	if strings.TrimSpace(question) == "" {
		question = defaultImageQuestion
	}

	envelope := domain.NewEnvelope("")
	envelope.Route = route
	envelope.Sources = evidence
	envelope.Images = uc.imageRefs(evidence)
	envelope.ClipMatches = visual.matches
	envelope.TextMatches = caption.records
	envelope.Response, envelope.Fallback = uc.generateAnswer(ctx, route, question, evidence, history)
	return envelope
}

// visualPath embeds the image with CLIP, searches the visual index and maps
// every match back to its description records.
func (uc *OrchestratorUseCase) visualPath(ctx context.Context, image domain.Image, topK int) visualPathResult {
	vector, ok := uc.embedImage(ctx, domain.RouteImageToText, image)
	if !ok {
		return visualPathResult{}
	}

	matches, err := uc.images.SearchImages(ctx, vector, topK)
	if err != nil {
		uc.logger.Warn("image_search_failed", "route", string(domain.RouteImageToText), "error", err)
		return visualPathResult{}
	}

	records := make([]domain.EvidenceRecord, 0, len(matches))
	for _, match := range matches {
		if match.ProjectKey == "" || match.ImageURL == "" {
			continue
		}
		relPath, ok := uc.matchRelativePath(match)
		if !ok {
			continue
		}

		descriptions, err := uc.descriptions.DescriptionsByPaths(ctx, match.ProjectKey, []string{relPath})
		if err != nil {
			uc.logger.Warn("description_lookup_failed",
				"project_key", match.ProjectKey,
				"relative_path", relPath,
				"error", err,
			)
			continue
		}
		for _, desc := range descriptions {
			desc.SearchType = domain.SearchTypeCLIPVisual
			if desc.Similarity == nil {
				desc.Similarity = match.Similarity
			}
			records = append(records, desc)
		}
	}
	return visualPathResult{matches: matches, records: records}
}

// captionPath describes the image with the vision model and searches the
// description index with the caption. A missing caption is not an error.
func (uc *OrchestratorUseCase) captionPath(ctx context.Context, image domain.Image, topK int) captionPathResult {
	caption, err := uc.model.CaptionImage(ctx, image)
	if err != nil {
		uc.logger.Warn("image_caption_failed", "error", err)
		return captionPathResult{}
	}
	if strings.TrimSpace(caption) == "" {
		return captionPathResult{}
	}

	vector, ok := uc.embedText(ctx, domain.RouteImageToText, caption)
	if !ok {
		return captionPathResult{}
	}

	records, err := uc.descriptions.SearchDescriptions(ctx, vector, topK, true)
	if err != nil {
		uc.logger.Warn("description_search_failed", "route", string(domain.RouteImageToText), "error", err)
		return captionPathResult{}
	}
	return captionPathResult{records: tagEvidence(records, domain.SearchTypeVisionText)}
}
