package localfs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

func TestOpenReadsMirroredImage(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "P1", "pages"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "P1", "pages", "1.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rc, err := s.Open(context.Background(), "P1/pages/1.png")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "png" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestOpenStaysInsideBaseDir(t *testing.T) {
	parent := t.TempDir()
	base := filepath.Join(parent, "images")
	if err := os.Mkdir(base, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := New(base)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Open(context.Background(), "../secret.txt"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist for traversal, got %v", err)
	}
	if _, err := s.Open(context.Background(), "/"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty key, got %v", err)
	}
	if _, err := s.Open(context.Background(), "."); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for dot key, got %v", err)
	}
}

func TestNewRequiresDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
