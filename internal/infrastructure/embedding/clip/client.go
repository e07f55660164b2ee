package clip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/resilience"
)

const embedImagePath = "/embed/image"

// Client calls a CLIP embedding service that accepts base64 images.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
	}
}

type embedImageRequest struct {
	Model    string `json:"model,omitempty"`
	Image    string `json:"image"`
	MIMEType string `json:"mime_type,omitempty"`
}

type embedImageResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (c *Client) EmbedImage(ctx context.Context, image domain.Image) ([]float32, error) {
	if len(image.Data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "clip embed image", fmt.Errorf("image is empty"))
	}

	request := embedImageRequest{
		Model:    c.model,
		Image:    base64.StdEncoding.EncodeToString(image.Data),
		MIMEType: image.MIMEType,
	}

	var response embedImageResponse
	embed := func(callCtx context.Context) error {
		return c.postJSON(callCtx, embedImagePath, request, &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "clip.embed_image", embed, resilience.ClassifyHTTPError)
	} else {
		err = embed(ctx)
	}
	if err != nil {
		return nil, resilience.WrapTemporary("clip embed image", err)
	}
	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("clip returned empty embedding")
	}
	return response.Embedding, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal clip request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create clip request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clip request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resilience.NewHTTPStatusError("clip", "embed_image", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode clip response: %w", err)
	}
	return nil
}
