package usecase

import "github.com/kirillkom/visual-rag-router/internal/core/domain"

const defaultImageQuestion = "What information is available about this image?"

type fallbackKey struct {
	route domain.RouteKind
	kind  domain.FallbackKind
}

// Entries with an empty route apply to any route without a specific entry.
var fallbackMessages = map[fallbackKey]string{
	{"", domain.FallbackMissingInput}:     "Please provide either a text query or upload an image.",
	{"", domain.FallbackUnknownRoute}:     "Unknown query type. Please try again.",
	{"", domain.FallbackGenerationFailed}: "I found relevant information but couldn't generate an answer right now. Please try again.",

	{domain.RouteTextToText, domain.FallbackEmbeddingFailed}: "I encountered an error processing your query. Please try again.",
	{domain.RouteTextToText, domain.FallbackSearchFailed}:    "I encountered an error processing your query. Please try again.",
	{domain.RouteTextToText, domain.FallbackNoResults}:       "I couldn't find any relevant information to answer your question. Please try rephrasing or asking about a different topic.",

	{domain.RouteTextToImages, domain.FallbackEmbeddingFailed}: "I encountered an error processing your query.",
	{domain.RouteTextToImages, domain.FallbackSearchFailed}:    "I encountered an error processing your query.",
	{domain.RouteTextToImages, domain.FallbackNoResults}:       "I couldn't find any relevant images for your query.",

	{domain.RouteImageToImages, domain.FallbackEmbeddingFailed}: "I encountered an error processing your image.",
	{domain.RouteImageToImages, domain.FallbackSearchFailed}:    "I encountered an error processing your image.",
	{domain.RouteImageToImages, domain.FallbackNoResults}:       "I couldn't find any visually similar images.",

	{domain.RouteImageToText, domain.FallbackNoResults}:        "I couldn't find any relevant information for your image. Please try uploading a different image or adding a text query.",
	{domain.RouteImageToText, domain.FallbackGenerationFailed}: "I found material related to your image but couldn't generate an answer right now. Please try again.",
}

const genericFallbackMessage = "I encountered an error processing your request. Please try again."

func fallbackMessage(route domain.RouteKind, kind domain.FallbackKind) string {
	if msg, ok := fallbackMessages[fallbackKey{route, kind}]; ok {
		return msg
	}
	if msg, ok := fallbackMessages[fallbackKey{"", kind}]; ok {
		return msg
	}
	return genericFallbackMessage
}

func fallbackEnvelope(route domain.RouteKind, kind domain.FallbackKind) domain.ResponseEnvelope {
	envelope := domain.NewEnvelope(fallbackMessage(route, kind))
	envelope.Route = route
	envelope.Fallback = kind
	return envelope
}
