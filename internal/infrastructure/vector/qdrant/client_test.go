package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/resilience"
)

func TestSearchImagesMapsPayload(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/images/points/search" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("api-key") != "secret" {
			t.Errorf("expected api key header")
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.93,"payload":{"image_url":"http://img/test_embeddings/P1/a/1.png","project_key":"P1","page_num":3,"region_number":"2"}},
			{"score":0.5,"payload":{"image_url":"http://img/x.png","project_key":"P2","relative_path":"b/2.png","page_num":1.5}}
		]}`))
	}))
	defer server.Close()

	index := New(server.URL, "images", "secret", nil)
	matches, err := index.SearchImages(context.Background(), []float32{0.1, 0.2}, 2)
	if err != nil {
		t.Fatalf("SearchImages() error = %v", err)
	}
	if captured["limit"] != float64(2) || captured["with_payload"] != true {
		t.Fatalf("unexpected request %v", captured)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	first := matches[0]
	if first.ProjectKey != "P1" || first.RelativePath != "" || first.ImageURL == "" {
		t.Fatalf("unexpected first match %+v", first)
	}
	if first.PageNum == nil || *first.PageNum != 3 || first.RegionNumber == nil || *first.RegionNumber != 2 {
		t.Fatalf("unexpected numbers %+v", first)
	}
	if first.Similarity == nil || *first.Similarity != 0.93 {
		t.Fatalf("unexpected similarity %v", first.Similarity)
	}
	if matches[1].RelativePath != "b/2.png" || matches[1].PageNum != nil {
		t.Fatalf("unexpected second match %+v", matches[1])
	}
}

func TestSearchImagesIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(server.URL, "images", "", nil).SearchImages(context.Background(), []float32{1}, 3)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "collection not found") {
		t.Fatalf("expected error to include body, got %v", err)
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("404 must not be temporary: %v", err)
	}
}

func TestSearchImagesRetriesUnavailable(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	})
	matches, err := New(server.URL, "images", "", exec).SearchImages(context.Background(), []float32{1}, 3)
	if err != nil {
		t.Fatalf("SearchImages() error = %v", err)
	}
	if len(matches) != 0 || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected one retry, calls=%d", calls)
	}
}

func TestSearchImagesRejectsEmptyVector(t *testing.T) {
	_, err := New("http://unused", "images", "", nil).SearchImages(context.Background(), nil, 3)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
