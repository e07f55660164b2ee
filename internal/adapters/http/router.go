package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/visual-rag-router/internal/adapters/wire"
	"github.com/kirillkom/visual-rag-router/internal/config"
	"github.com/kirillkom/visual-rag-router/internal/core/domain"
	"github.com/kirillkom/visual-rag-router/internal/core/ports"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/storage/imageurl"
	"github.com/kirillkom/visual-rag-router/internal/observability/logging"
	"github.com/kirillkom/visual-rag-router/internal/observability/metrics"
)

const (
	imagesPath      = "/images/"
	multipartMemory = 8 << 20
)

type Router struct {
	cfg     config.Config
	queries ports.QueryService
	images  ports.ObjectStorage
	metrics *metrics.HTTPServerMetrics
	logger  *slog.Logger

	imageRoot string
}

// NewRouter wires the query API. images and httpMetrics are optional: without
// them the image mirror and /metrics are not mounted.
func NewRouter(
	cfg config.Config,
	queries ports.QueryService,
	images ports.ObjectStorage,
	httpMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:       cfg,
		queries:   queries,
		images:    images,
		metrics:   httpMetrics,
		logger:    logger,
		imageRoot: strings.TrimPrefix(imageurl.New(cfg.ImageBaseURL, cfg.ImageRoot).Prefix(), "/"),
	}
}

func (rt *Router) Handler() http.Handler {
	var rejections rejectionRecorder
	if rt.metrics != nil {
		rejections = rt.metrics
	}

	query := rateLimitMiddleware(
		backpressureMiddlewareWithRecorder(http.HandlerFunc(rt.query), rt.cfg.MaxInFlight, rt.cfg.BackpressureWait(), rejections),
		rt.cfg.RateLimitRPS,
		rt.cfg.RateLimitBurst,
		rejections,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/v1/query", query)
	if rt.images != nil {
		mux.HandleFunc(imagesPath, rt.image)
	}
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler, rt.logger))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxBodyBytes())

	var (
		req domain.ChatRequest
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		req, err = rt.decodeMultipart(r)
	} else {
		req, err = decodeJSON(r.Body)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if timeout := rt.cfg.QueryTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	envelope, err := rt.queries.Ask(ctx, req)
	if err != nil {
		logging.FromContext(ctx, rt.logger).Warn("query_failed", "error", err)
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope)
}

func decodeJSON(body io.Reader) (domain.ChatRequest, error) {
	var req wire.QueryRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.ChatRequest{}, err
		}
		return domain.ChatRequest{}, errors.New("invalid json")
	}
	return req.ToChatRequest()
}

// decodeMultipart reads the text fields and an optional "image" file part.
// history is a JSON array of {role, content} turns.
func (rt *Router) decodeMultipart(r *http.Request) (domain.ChatRequest, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return domain.ChatRequest{}, err
	}

	req := wire.QueryRequest{
		Text:           r.FormValue("text"),
		ConversationID: r.FormValue("conversation_id"),
	}
	if raw := strings.TrimSpace(r.FormValue("top_k")); raw != "" {
		topK, err := strconv.Atoi(raw)
		if err != nil {
			return domain.ChatRequest{}, errors.New("top_k must be an integer")
		}
		req.TopK = topK
	}
	if raw := strings.TrimSpace(r.FormValue("history")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.History); err != nil {
			return domain.ChatRequest{}, errors.New("history must be a json array of turns")
		}
	}

	chatReq, err := req.ToChatRequest()
	if err != nil {
		return domain.ChatRequest{}, err
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return chatReq, nil
	case err != nil:
		return domain.ChatRequest{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(rt.cfg.QueryMaxImageBytes)+1))
	if err != nil {
		return domain.ChatRequest{}, err
	}
	if len(data) > 0 {
		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(data)
		}
		chatReq.Query.Image = &domain.Image{Data: data, MIMEType: mimeType}
	}
	return chatReq, nil
}

func (rt *Router) maxBodyBytes() int64 {
	maxImage := int64(rt.cfg.QueryMaxImageBytes)
	if maxImage <= 0 {
		maxImage = 10 << 20
	}
	// base64 inflates by 4/3, plus room for text and history.
	return maxImage*4/3 + 1<<20
}

// image serves /images/{root}/{projectKey}/{relativePath} from the local mirror.
func (rt *Router) image(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	key := strings.TrimPrefix(r.URL.Path, imagesPath)
	key = strings.TrimPrefix(key, rt.imageRoot)

	file, err := rt.images.Open(r.Context(), key)
	switch {
	case err == nil:
	case domain.IsKind(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid image path")
		return
	case errors.Is(err, os.ErrNotExist):
		writeError(w, http.StatusNotFound, "image not found")
		return
	default:
		logging.FromContext(r.Context(), rt.logger).Error("image_open_failed", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to open image")
		return
	}
	defer file.Close()

	name := path.Base(key)
	if contentType := mime.TypeByExtension(path.Ext(name)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if seeker, ok := file.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, time.Time{}, seeker)
		return
	}
	if _, err := io.Copy(w, file); err != nil {
		logging.FromContext(r.Context(), rt.logger).Warn("image_write_failed", "key", key, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, wire.ErrorResponse{Error: message})
}
