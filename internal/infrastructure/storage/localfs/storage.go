package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

// Storage serves mirrored corpus images from a local directory.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/images"
	}
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("stat image dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("image dir %s is not a directory", basePath)
	}
	return &Storage{basePath: basePath}, nil
}

// Open resolves key below the base directory. Keys that escape it are rejected.
func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	if cleaned == "/" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open image", fmt.Errorf("empty key"))
	}

	full := filepath.Join(s.basePath, filepath.FromSlash(strings.TrimPrefix(cleaned, "/")))
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open file: %w", os.ErrNotExist)
	}
	return f, nil
}
