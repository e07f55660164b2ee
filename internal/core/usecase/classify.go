package usecase

import (
	"strings"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

var (
	mixedInputImageIntents = []string{"image", "show"}
	textInputImageIntents  = []string{"show", "image", "picture", "drawing", "screenshot"}
)

// ClassifyQuery maps the query shape and an optional intent hint to a route.
// An empty hint is treated as absent.
func ClassifyQuery(hasText, hasImage bool, intentHint string) (domain.RouteKind, error) {
	intent := strings.ToLower(intentHint)

	switch {
	case hasText && hasImage:
		if containsAny(intent, mixedInputImageIntents) {
			return domain.RouteImageToImages, nil
		}
		return domain.RouteImageToText, nil
	case hasImage:
		return domain.RouteImageToImages, nil
	case hasText:
		if containsAny(intent, textInputImageIntents) {
			return domain.RouteTextToImages, nil
		}
		return domain.RouteTextToText, nil
	default:
		return "", domain.ErrInvalidQuery
	}
}

func containsAny(s string, words []string) bool {
	if s == "" {
		return false
	}
	for _, word := range words {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}
