package bootstrap

import (
	"context"
	"testing"

	"github.com/kirillkom/visual-rag-router/internal/config"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/resilience"
)

func TestNewModelsSelectsProvider(t *testing.T) {
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	embedder, model, err := newModels(context.Background(), config.Config{
		ModelProvider:    config.ProviderOllama,
		OllamaURL:        "http://ollama.test",
		OllamaChatModel:  "llava",
		OllamaEmbedModel: "nomic-embed-text",
	}, executor)
	if err != nil {
		t.Fatalf("newModels() error = %v", err)
	}
	if _, ok := embedder.(*ollama.Embedder); !ok {
		t.Fatalf("expected ollama embedder, got %T", embedder)
	}
	if _, ok := model.(*ollama.VisionModel); !ok {
		t.Fatalf("expected ollama vision model, got %T", model)
	}

	if _, _, err := newModels(context.Background(), config.Config{ModelProvider: "bedrock"}, executor); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestResilienceConfigAppliesOverrides(t *testing.T) {
	got := resilienceConfig(config.Config{RetryMaxAttempts: 5, BreakerEnabled: false})
	if got.RetryMaxAttempts != 5 || got.BreakerEnabled {
		t.Fatalf("unexpected resilience config %+v", got)
	}

	capped := resilienceConfig(config.Config{RetryMaxAttempts: 1})
	for kind, n := range capped.RetryAttempts {
		if n != 1 {
			t.Fatalf("expected %s attempts capped at 1, got %d", kind, n)
		}
	}
	if got.RetryAttempts[resilience.KindAnswer] != 1 || got.RetryAttempts[resilience.KindEmbed] != 3 {
		t.Fatalf("expected per-kind defaults below the cap, got %v", got.RetryAttempts)
	}

	got = resilienceConfig(config.Config{BreakerEnabled: true})
	if got.RetryMaxAttempts != resilience.DefaultConfig().RetryMaxAttempts || !got.BreakerEnabled {
		t.Fatalf("expected defaults, got %+v", got)
	}
}
