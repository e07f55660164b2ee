// Package wire holds the JSON query contract shared by the HTTP, NATS and MCP
// transports.
package wire

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

type QueryRequest struct {
	Text           string                    `json:"text,omitempty"`
	ImageBase64    string                    `json:"image_base64,omitempty"`
	ImageMIMEType  string                    `json:"image_mime_type,omitempty"`
	History        []domain.ConversationTurn `json:"history,omitempty"`
	ConversationID string                    `json:"conversation_id,omitempty"`
	TopK           int                       `json:"top_k,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ToChatRequest decodes the image payload. Data URLs and raw base64 are both
// accepted.
func (r QueryRequest) ToChatRequest() (domain.ChatRequest, error) {
	query := domain.Query{
		Text:    r.Text,
		History: r.History,
		TopK:    r.TopK,
	}

	if raw := strings.TrimSpace(r.ImageBase64); raw != "" {
		data, mimeType, err := DecodeImage(raw)
		if err != nil {
			return domain.ChatRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode image", err)
		}
		if r.ImageMIMEType != "" {
			mimeType = r.ImageMIMEType
		}
		query.Image = &domain.Image{Data: data, MIMEType: mimeType}
	}

	return domain.ChatRequest{
		ConversationID: strings.TrimSpace(r.ConversationID),
		Query:          query,
	}, nil
}

func DecodeImage(raw string) ([]byte, string, error) {
	mimeType := ""
	if strings.HasPrefix(raw, "data:") {
		header, payload, ok := strings.Cut(raw, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("unsupported data url")
		}
		mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		raw = payload
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(raw)
	}
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image is empty")
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}
