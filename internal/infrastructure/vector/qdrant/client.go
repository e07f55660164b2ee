package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/resilience"
)

// Payload keys written by the image indexing pipeline.
const (
	payloadImageURL     = "image_url"
	payloadProjectKey   = "project_key"
	payloadRelativePath = "relative_path"
	payloadPageNum      = "page_num"
	payloadRegionNumber = "region_number"
)

// ImageIndex searches a collection of CLIP image vectors.
type ImageIndex struct {
	baseURL    string
	collection string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, collection, apiKey string, executor *resilience.Executor) *ImageIndex {
	return &ImageIndex{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

type scoredPoint struct {
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (c *ImageIndex) SearchImages(ctx context.Context, queryVector []float32, limit int) ([]domain.ImageMatch, error) {
	if len(queryVector) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search images", fmt.Errorf("query vector is empty"))
	}
	if limit <= 0 {
		limit = domain.DefaultTopK
	}

	var points []scoredPoint
	search := func(callCtx context.Context) error {
		var err error
		points, err = c.search(callCtx, queryVector, limit)
		return err
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "qdrant.search", search, resilience.ClassifyHTTPError)
	} else {
		err = search(ctx)
	}
	if err != nil {
		return nil, resilience.WrapTemporary("qdrant search", err)
	}

	out := make([]domain.ImageMatch, 0, len(points))
	for _, p := range points {
		score := p.Score
		out = append(out, domain.ImageMatch{
			ImageURL:     getStringPayload(p.Payload, payloadImageURL),
			ProjectKey:   getStringPayload(p.Payload, payloadProjectKey),
			RelativePath: getStringPayload(p.Payload, payloadRelativePath),
			PageNum:      getIntPayload(p.Payload, payloadPageNum),
			RegionNumber: getIntPayload(p.Payload, payloadRegionNumber),
			Similarity:   &score,
		})
	}
	return out, nil
}

func (c *ImageIndex) search(ctx context.Context, queryVector []float32, limit int) ([]scoredPoint, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, resilience.NewHTTPStatusError("qdrant", "search", resp)
	}

	var searchResp struct {
		Result []scoredPoint `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return searchResp.Result, nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// getIntPayload accepts integral numbers and numeric strings.
func getIntPayload(payload map[string]any, key string) *int {
	v, ok := payload[key]
	if !ok || v == nil {
		return nil
	}

	var n int
	switch typed := v.(type) {
	case float64:
		if typed != math.Trunc(typed) {
			return nil
		}
		n = int(typed)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return &n
}
