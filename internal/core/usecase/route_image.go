package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

func (uc *OrchestratorUseCase) routeImageToImages(ctx context.Context, image domain.Image, topK int) domain.ResponseEnvelope {
	const route = domain.RouteImageToImages

	vector, ok := uc.embedImage(ctx, route, image)
	if !ok {
		return fallbackEnvelope(route, domain.FallbackEmbeddingFailed)
	}

	matches, err := uc.images.SearchImages(ctx, vector, topK)
	if err != nil {
		uc.logger.Warn("image_search_failed", "route", string(route), "error", err)
		return fallbackEnvelope(route, domain.FallbackSearchFailed)
	}
	if len(matches) == 0 {
		return fallbackEnvelope(route, domain.FallbackNoResults)
	}

	sources := make([]domain.EvidenceRecord, 0, len(matches))
	images := make([]string, 0, len(matches))
	infos := make([]domain.ImageInfo, 0, len(matches))
	for _, match := range matches {
		record := domain.EvidenceRecord{
			ProjectKey:   match.ProjectKey,
			PageNum:      match.PageNum,
			RegionNumber: match.RegionNumber,
			Similarity:   match.Similarity,
			ImageURL:     match.ImageURL,
			SearchType:   domain.SearchTypeCLIPVisual,
		}
		if relPath, ok := uc.matchRelativePath(match); ok {
			record.RelativePath = relPath
		}
		sources = append(sources, record)

		if match.ImageURL == "" || !record.HasImageRef() {
			// Matches without a recoverable relative path stay out of images.
			continue
		}
		images = append(images, match.ImageURL)
		infos = append(infos, domain.ImageInfo{
			URL:          match.ImageURL,
			ProjectKey:   match.ProjectKey,
			PageNum:      match.PageNum,
			RegionNumber: match.RegionNumber,
			Similarity:   match.Similarity,
			SearchType:   domain.SearchTypeCLIPVisual,
		})
	}

	envelope := domain.NewEnvelope(describeFoundImages(
		fmt.Sprintf("I found %d visually similar image(s):", len(images)),
		infos,
	))
	envelope.Route = route
	envelope.Sources = sources
	envelope.Images = images
	envelope.ImageInfo = infos
	envelope.SearchType = domain.SearchTypeCLIPVisual
	return envelope
}
