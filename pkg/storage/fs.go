package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// fsStore keeps objects on local disk. It satisfies ObjectStore so a cloud
// bucket implementation can replace it without touching callers.
type fsStore struct {
	baseDir string
	baseURL string
}

// NewFSStore builds a disk-backed object store rooted at baseDir. Returned
// URLs are baseURL plus the object path.
func NewFSStore(baseDir, baseURL string) ObjectStore {
	return &fsStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *fsStore) Upload(ctx context.Context, folder, name string, r io.Reader) (string, error) {
	if name == "" {
		return "", fmt.Errorf("object name required")
	}
	// Flatten anything path-like so objects cannot escape the base directory.
	name = filepath.Base(filepath.Clean(name))
	folder = strings.Trim(path.Clean("/"+folder), "/")

	dir := filepath.Join(s.baseDir, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}

	dest := filepath.Join(dir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create object file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}

	return s.baseURL + "/" + path.Join(folder, name), nil
}
