// Package media stores report images and hands back public URLs.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/resqnet/incident-server/internal/models"
)

// Store uploads a batch of images and returns one URL per blob, in order.
// The batch is atomic: any failure aborts the whole upload and no URLs are
// handed out.
type Store interface {
	Upload(ctx context.Context, blobs []models.ImageBlob) ([]string, error)
}

// DiskStore writes images under a base directory and serves them from a base
// URL. It stands in for an external image host in single-node deployments.
type DiskStore struct {
	baseDir string
	baseURL string
}

func NewDiskStore(baseDir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskStore{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) Upload(_ context.Context, blobs []models.ImageBlob) ([]string, error) {
	urls := make([]string, 0, len(blobs))
	written := make([]string, 0, len(blobs))

	for _, blob := range blobs {
		name := uuid.NewString() + sanitizeExt(blob.Name)
		path := filepath.Join(s.baseDir, name)
		if err := os.WriteFile(path, blob.Data, 0o644); err != nil {
			// Atomic batch: roll back what already landed on disk.
			for _, p := range written {
				os.Remove(p)
			}
			return nil, fmt.Errorf("write image %s: %w", blob.Name, err)
		}
		written = append(written, path)
		urls = append(urls, s.baseURL+"/"+name)
	}
	return urls, nil
}

func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ".bin"
	}
}

// MemoryStore fakes uploads for tests.
type MemoryStore struct {
	mu sync.Mutex

	// Err forces the next upload to fail.
	Err      error
	Uploaded int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Upload(_ context.Context, blobs []models.ImageBlob) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	urls := make([]string, 0, len(blobs))
	for _, blob := range blobs {
		urls = append(urls, "mem://images/"+blob.Name)
		s.Uploaded++
	}
	return urls, nil
}
