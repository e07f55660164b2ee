package wire

import (
	"testing"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

func TestToChatRequestDecodesImage(t *testing.T) {
	req := QueryRequest{
		Text:           "what is this?",
		ImageBase64:    "data:image/jpeg;base64,aGVsbG8=",
		ConversationID: " conv-1 ",
		TopK:           4,
		History:        []domain.ConversationTurn{{Role: "user", Content: "hi"}},
	}

	chat, err := req.ToChatRequest()
	if err != nil {
		t.Fatalf("ToChatRequest() error = %v", err)
	}
	if chat.ConversationID != "conv-1" || chat.Query.TopK != 4 || len(chat.Query.History) != 1 {
		t.Fatalf("unexpected request %+v", chat)
	}
	if chat.Query.Image == nil || string(chat.Query.Image.Data) != "hello" || chat.Query.Image.MIMEType != "image/jpeg" {
		t.Fatalf("unexpected image %+v", chat.Query.Image)
	}
}

func TestToChatRequestWithoutImage(t *testing.T) {
	chat, err := QueryRequest{Text: "roof"}.ToChatRequest()
	if err != nil {
		t.Fatalf("ToChatRequest() error = %v", err)
	}
	if chat.Query.Image != nil {
		t.Fatalf("expected no image")
	}
}

func TestToChatRequestRejectsBadImage(t *testing.T) {
	for _, raw := range []string{"%%%", "data:image/png,abc", "data:image/png;base64,"} {
		_, err := QueryRequest{ImageBase64: raw}.ToChatRequest()
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %q, got %v", raw, err)
		}
	}
}

func TestDecodeImageAcceptsUnpaddedBase64(t *testing.T) {
	data, mimeType, err := DecodeImage("iVBORw0KGgo")
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if len(data) != 8 || mimeType != "image/png" {
		t.Fatalf("unexpected decode %v %q", data, mimeType)
	}
}
