package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/llm/prompt"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	chatModel  string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

// New builds a client for the Ollama HTTP API. A nil executor calls the
// server directly.
func New(baseURL, chatModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		chatModel:  chatModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// VisionModel captions images and answers questions through /api/chat.
type VisionModel struct {
	client *Client
}

func NewVisionModel(client *Client) *VisionModel {
	return &VisionModel{client: client}
}

func (m *VisionModel) CaptionImage(ctx context.Context, image domain.Image) (string, error) {
	if len(image.Data) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "caption image", fmt.Errorf("image is empty"))
	}
	messages := []chatMessage{
		{Role: "system", Content: prompt.CaptionSystem},
		{
			Role:    "user",
			Content: prompt.CaptionUser,
			Images:  []string{base64.StdEncoding.EncodeToString(image.Data)},
		},
	}
	return m.client.chat(ctx, messages, "caption")
}

func (m *VisionModel) GenerateAnswer(
	ctx context.Context,
	question string,
	evidence []domain.EvidenceRecord,
	history []domain.ConversationTurn,
) (string, error) {
	return m.client.chat(ctx, buildAnswerMessages(question, evidence, history), "chat")
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

func (c *Client) chat(ctx context.Context, messages []chatMessage, operation string) (string, error) {
	request := map[string]any{
		"model":    c.chatModel,
		"messages": messages,
		"stream":   false,
	}

	var response struct {
		Message chatMessage `json:"message"`
	}
	if err := c.call(ctx, "/api/chat", request, &response, operation); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Message.Content), nil
}
