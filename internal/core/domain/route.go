package domain

type RouteKind string

const (
	RouteTextToText    RouteKind = "text_to_text"
	RouteTextToImages  RouteKind = "text_to_images"
	RouteImageToImages RouteKind = "image_to_images"
	RouteImageToText   RouteKind = "image_to_text"
)

// FallbackKind names why an envelope carries a fixed message instead of a
// generated answer.
type FallbackKind string

const (
	FallbackNone             FallbackKind = ""
	FallbackMissingInput     FallbackKind = "missing_input"
	FallbackEmbeddingFailed  FallbackKind = "embedding_failed"
	FallbackSearchFailed     FallbackKind = "search_failed"
	FallbackNoResults        FallbackKind = "no_results"
	FallbackGenerationFailed FallbackKind = "generation_failed"
	FallbackUnknownRoute     FallbackKind = "unknown_route"
)
