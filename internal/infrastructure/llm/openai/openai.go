package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	openaiembedding "github.com/cloudwego/eino-ext/components/embedding/openai"
	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/llm/prompt"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/resilience"
)

type Config struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
}

type stringEmbedder interface {
	EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error)
}

type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

type Embedder struct {
	embedder stringEmbedder
	executor *resilience.Executor
}

func NewEmbedder(ctx context.Context, cfg Config, executor *resilience.Executor) (*Embedder, error) {
	embedder, err := openaiembedding.NewEmbedder(ctx, &openaiembedding.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}
	return &Embedder{embedder: embedder, executor: executor}, nil
}

func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := run(ctx, e.executor, "openai.embed", func(callCtx context.Context) ([][]float64, error) {
		return e.embedder.EmbedStrings(callCtx, []string{text})
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	out := make([]float32, len(vectors[0]))
	for i, v := range vectors[0] {
		out[i] = float32(v)
	}
	return out, nil
}

// VisionModel captions images and answers questions with a multimodal chat model.
type VisionModel struct {
	model    chatGenerator
	executor *resilience.Executor
}

func NewVisionModel(ctx context.Context, cfg Config, executor *resilience.Executor) (*VisionModel, error) {
	chatModel, err := openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.ChatModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai chat model: %w", err)
	}
	return &VisionModel{model: chatModel, executor: executor}, nil
}

func (m *VisionModel) CaptionImage(ctx context.Context, image domain.Image) (string, error) {
	if len(image.Data) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "caption image", fmt.Errorf("image is empty"))
	}
	messages := []*schema.Message{
		schema.SystemMessage(prompt.CaptionSystem),
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeText, Text: prompt.CaptionUser},
				{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: dataURL(image)}},
			},
		},
	}
	return m.generate(ctx, "openai.caption", messages)
}

func (m *VisionModel) GenerateAnswer(
	ctx context.Context,
	question string,
	evidence []domain.EvidenceRecord,
	history []domain.ConversationTurn,
) (string, error) {
	turns := prompt.HistoryRoles(history)
	messages := make([]*schema.Message, 0, len(turns)+2)
	messages = append(messages, schema.SystemMessage(prompt.AnswerSystem))
	for _, turn := range turns {
		if turn.Role == "assistant" {
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
			continue
		}
		messages = append(messages, schema.UserMessage(turn.Content))
	}
	messages = append(messages, schema.UserMessage(prompt.BuildAnswer(question, evidence)))
	return m.generate(ctx, "openai.chat", messages)
}

func (m *VisionModel) generate(ctx context.Context, operation string, messages []*schema.Message) (string, error) {
	msg, err := run(ctx, m.executor, operation, func(callCtx context.Context) (*schema.Message, error) {
		return m.model.Generate(callCtx, messages)
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	if msg == nil {
		return "", nil
	}
	return strings.TrimSpace(msg.Content), nil
}

func run[T any](ctx context.Context, executor *resilience.Executor, operation string, fn func(context.Context) (T, error)) (T, error) {
	if executor == nil {
		return fn(ctx)
	}
	return resilience.Call(ctx, executor, operation, fn, resilience.ClassifyHTTPError)
}

func dataURL(image domain.Image) string {
	mimeType := strings.TrimSpace(image.MIMEType)
	if mimeType == "" {
		mimeType = http.DetectContentType(image.Data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
}
