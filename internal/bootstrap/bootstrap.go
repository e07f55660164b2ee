package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/visual-rag-router/internal/config"
	"github.com/kirillkom/visual-rag-router/internal/core/ports"
	"github.com/kirillkom/visual-rag-router/internal/core/usecase"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/embedding/clip"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/llm/openai"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/queue/nats"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/resilience"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/storage/imageurl"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/vector/qdrant"
)

type Options struct {
	Logger   *slog.Logger
	Observer ports.QueryObserver
	// WithQueue connects to NATS. Only the worker needs it.
	WithQueue bool
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queries      ports.QueryService
	Orchestrator ports.QueryOrchestrator
	Images       ports.ObjectStorage
	Queue        *nats.Queue

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg), resilience.WithLogger(logger))

	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	descriptions := postgres.NewDescriptionRepository(db)
	conversations := postgres.NewConversationRepository(db)
	if cfg.DBEnsureSchema {
		if err := descriptions.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure description schema: %w", err)
		}
		if err := conversations.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure conversation schema: %w", err)
		}
	}

	textEmbedder, model, err := newModels(ctx, cfg, executor)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	imageEmbedder := clip.New(cfg.CLIPURL, cfg.CLIPModel, executor)
	imageIndex := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, cfg.QdrantAPIKey, executor)
	resolver := imageurl.New(cfg.ImageBaseURL, cfg.ImageRoot)

	orchestrator := usecase.NewOrchestratorUseCase(
		textEmbedder,
		imageEmbedder,
		descriptions,
		imageIndex,
		resolver,
		model,
		usecase.OrchestratorOptions{ParallelPaths: cfg.QueryParallelPaths},
		logger,
	)
	queries := usecase.NewChatUseCase(
		orchestrator,
		conversations,
		opts.Observer,
		usecase.ChatOptions{
			HistoryMessages: cfg.QueryHistoryTurns,
			MaxTopK:         cfg.QueryMaxTopK,
			MaxImageBytes:   cfg.QueryMaxImageBytes,
		},
		logger,
	)

	app := &App{
		Config:       cfg,
		Logger:       logger,
		Queries:      queries,
		Orchestrator: orchestrator,
	}

	if cfg.ImageDir != "" {
		images, err := localfs.New(cfg.ImageDir)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init image mirror: %w", err)
		}
		app.Images = images
	}

	if opts.WithQueue {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSQuerySubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.Queue = queue
	}

	app.closeFn = func() {
		if app.Queue != nil {
			app.Queue.Close()
		}
		_ = db.Close()
	}
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newModels(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.TextEmbedder, ports.VisionLanguageModel, error) {
	switch cfg.ModelProvider {
	case config.ProviderOpenAI:
		openaiCfg := openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.OpenAIChatModel,
			EmbeddingModel: cfg.OpenAIEmbeddingModel,
		}
		embedder, err := openai.NewEmbedder(ctx, openaiCfg, executor)
		if err != nil {
			return nil, nil, fmt.Errorf("init openai embedder: %w", err)
		}
		model, err := openai.NewVisionModel(ctx, openaiCfg, executor)
		if err != nil {
			return nil, nil, fmt.Errorf("init openai model: %w", err)
		}
		return embedder, model, nil
	case config.ProviderOllama:
		client := ollama.New(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel, executor)
		return ollama.NewEmbedder(client), ollama.NewVisionModel(client), nil
	default:
		return nil, nil, fmt.Errorf("unsupported model provider %q", cfg.ModelProvider)
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	if cfg.RetryMaxAttempts > 0 {
		out.RetryMaxAttempts = cfg.RetryMaxAttempts
		// RETRY_MAX_ATTEMPTS caps every per-kind budget.
		for kind, n := range out.RetryAttempts {
			out.RetryAttempts[kind] = min(n, cfg.RetryMaxAttempts)
		}
	}
	out.BreakerEnabled = cfg.BreakerEnabled
	return out
}
