package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

func (uc *OrchestratorUseCase) routeTextToText(
	ctx context.Context,
	text string,
	history []domain.ConversationTurn,
	topK int,
) domain.ResponseEnvelope {
	const route = domain.RouteTextToText

	descriptions, fallback := uc.retrieveDescriptions(ctx, route, text, topK)
	if fallback != domain.FallbackNone {
		return fallbackEnvelope(route, fallback)
	}
	descriptions = trimEvidence(descriptions, topK)

	envelope := domain.NewEnvelope("")
	envelope.Route = route
	envelope.Sources = descriptions
	envelope.Response, envelope.Fallback = uc.generateAnswer(ctx, route, text, descriptions, history)
	return envelope
}

func (uc *OrchestratorUseCase) routeTextToImages(ctx context.Context, text string, topK int) domain.ResponseEnvelope {
	const route = domain.RouteTextToImages

	descriptions, fallback := uc.retrieveDescriptions(ctx, route, text, topK)
	if fallback != domain.FallbackNone {
		return fallbackEnvelope(route, fallback)
	}

	images := make([]string, 0, len(descriptions))
	infos := make([]domain.ImageInfo, 0, len(descriptions))
	for _, desc := range descriptions {
		if !desc.HasImageRef() {
			continue
		}
		url := uc.urls.ImageURL(desc.ProjectKey, desc.RelativePath)
		images = append(images, url)
		infos = append(infos, domain.ImageInfo{
			URL:          url,
			ProjectKey:   desc.ProjectKey,
			PageNum:      desc.PageNum,
			RegionNumber: desc.RegionNumber,
			Description:  truncateRunes(desc.Summary, imageInfoDescriptionChars),
		})
	}

	envelope := domain.NewEnvelope(describeFoundImages(
		fmt.Sprintf("I found %d relevant image(s) for your query:", len(images)),
		infos,
	))
	envelope.Route = route
	envelope.Sources = descriptions
	envelope.Images = images
	envelope.ImageInfo = infos
	return envelope
}
