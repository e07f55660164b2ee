package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

const imageInfoDescriptionChars = 200

func describeFoundImages(header string, infos []domain.ImageInfo) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, info := range infos {
		fmt.Fprintf(&b, "[%d] Project %s", i+1, info.ProjectKey)
		if info.PageNum != nil {
			fmt.Fprintf(&b, ", Page %d", *info.PageNum)
		}
		if info.RegionNumber != nil {
			fmt.Fprintf(&b, ", Region %d", *info.RegionNumber)
		}
		if info.Similarity != nil {
			fmt.Fprintf(&b, " (similarity: %.3f)", *info.Similarity)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
