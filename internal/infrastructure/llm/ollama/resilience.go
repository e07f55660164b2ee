package ollama

import (
	"context"

	"github.com/kirillkom/visual-rag-router/internal/infrastructure/resilience"
)

func (c *Client) call(ctx context.Context, path string, payload any, out any, operation string) error {
	if c.executor == nil {
		return resilience.WrapTemporary("ollama "+operation, c.postJSON(ctx, path, payload, out, operation))
	}
	err := c.executor.Execute(ctx, "ollama."+operation, func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, payload, out, operation)
	}, resilience.ClassifyHTTPError)
	return resilience.WrapTemporary("ollama "+operation, err)
}
